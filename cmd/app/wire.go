//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/maritime-esg/esg-analytics/internal/bootstrap"
	"github.com/maritime-esg/esg-analytics/internal/domain/analysis"
	"github.com/maritime-esg/esg-analytics/internal/domain/tracking"
	"github.com/maritime-esg/esg-analytics/internal/infra/config"
	"github.com/maritime-esg/esg-analytics/internal/infra/fleetrepo"
	httpiface "github.com/maritime-esg/esg-analytics/internal/interface/http"
	"github.com/maritime-esg/esg-analytics/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideScoringEngine,
		provideResistancePolicy,
		providePredictor,
		provideEstimator,
		provideCalculator,
		provideWeatherProvider,
		provideWeatherStore,
		provideWeatherService,
		provideOllamaClient,
		provideRecommender,
		provideFleetRepository,
		provideHistoryReader,
		provideAnalysisService,
		provideHub,
		provideAISFeed,
		provideTrackingService,
		provideHandler,
		httpiface.NewWSHandler,
		provideRouter,
		bootstrap.NewApp,
		wire.Bind(new(analysis.AssessmentRepository), new(fleetrepo.Repository)),
		wire.Bind(new(analysis.FleetReader), new(fleetrepo.Repository)),
		wire.Bind(new(tracking.Analyzer), new(*analysis.Service)),
	)
	return nil, nil
}
