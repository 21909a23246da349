package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/maritime-esg/esg-analytics/internal/domain/analysis"
	"github.com/maritime-esg/esg-analytics/internal/domain/emission"
	"github.com/maritime-esg/esg-analytics/internal/domain/esg"
	"github.com/maritime-esg/esg-analytics/internal/domain/tracking"
	"github.com/maritime-esg/esg-analytics/internal/domain/vessel"
	"github.com/maritime-esg/esg-analytics/internal/domain/weather"
	"github.com/maritime-esg/esg-analytics/internal/infra/aisfeed"
	"github.com/maritime-esg/esg-analytics/internal/infra/config"
	"github.com/maritime-esg/esg-analytics/internal/infra/fleetrepo"
	"github.com/maritime-esg/esg-analytics/internal/infra/history"
	"github.com/maritime-esg/esg-analytics/internal/infra/llm/ollama"
	"github.com/maritime-esg/esg-analytics/internal/infra/mlmodel"
	"github.com/maritime-esg/esg-analytics/internal/infra/openweather"
	"github.com/maritime-esg/esg-analytics/internal/infra/weathercache"
	httpiface "github.com/maritime-esg/esg-analytics/internal/interface/http"
	"github.com/maritime-esg/esg-analytics/internal/interface/ws"
)

func provideScoringEngine(cfg *config.Config) *esg.Engine {
	return esg.NewEngine(esg.Policy{
		Version:               cfg.Scoring.PolicyVersion,
		CO2IntensityThreshold: cfg.Scoring.CO2IntensityThreshold,
		AccelerationThreshold: cfg.Scoring.AccelerationThreshold,
		SpeedLimitKnots:       cfg.Scoring.SpeedLimitKnots,
		LongDurationHours:     cfg.Scoring.LongDurationHours,
		PenaltyCO2Intensity:   cfg.Scoring.PenaltyCO2Intensity,
		PenaltyAcceleration:   cfg.Scoring.PenaltyAcceleration,
		PenaltyHighSpeed:      cfg.Scoring.PenaltyHighSpeed,
		PenaltyLongDuration:   cfg.Scoring.PenaltyLongDuration,
	})
}

func provideResistancePolicy(cfg *config.Config) weather.ResistancePolicy {
	return weather.ResistancePolicy{
		WindThresholdMS: cfg.Weather.WindThresholdMS,
		WindCoeff:       cfg.Weather.WindCoeff,
		WaveThresholdM:  cfg.Weather.WaveThresholdM,
		WaveCoeff:       cfg.Weather.WaveCoeff,
		FactorCap:       cfg.Weather.FactorCap,
		StrongWindMS:    cfg.Weather.StrongWindMS,
		RoughSeaWaveM:   cfg.Weather.RoughSeaWaveM,
	}
}

// providePredictor never fails startup: with the model server unconfigured or
// unreachable, estimates degrade to estimation_unavailable at call time.
func providePredictor(cfg *config.Config, logger *slog.Logger) emission.Predictor {
	client, err := mlmodel.NewClient(cfg.Model.BaseURL, cfg.Model.Timeout)
	if err != nil {
		logger.Warn("emission model client not configured", "error", err)
		return nil
	}
	return client
}

func provideEstimator(predictor emission.Predictor, logger *slog.Logger) *emission.Estimator {
	return emission.NewEstimator(predictor, logger)
}

func provideCalculator(estimator *emission.Estimator, logger *slog.Logger) *emission.Calculator {
	return emission.NewCalculator(estimator, logger)
}

func provideWeatherProvider(cfg *config.Config, logger *slog.Logger) weather.Provider {
	client, err := openweather.NewClient(cfg.Weather.APIKey, cfg.Weather.BaseURL, cfg.Weather.Timeout)
	if err != nil {
		logger.Warn("weather provider not configured, observations default", "error", err)
		return nil
	}
	return client
}

func provideWeatherStore(cfg *config.Config, logger *slog.Logger) weather.Store {
	if cfg.Weather.Valkey.Enabled {
		opt := valkey.ClientOption{InitAddress: []string{cfg.Weather.Valkey.Addr}}
		if strings.Contains(cfg.Weather.Valkey.Addr, "://") {
			var err error
			opt, err = valkey.ParseURL(cfg.Weather.Valkey.Addr)
			if err != nil {
				logger.Error("invalid valkey address, falling back to memory cache", "error", err)
				return weathercache.NewMemoryStore()
			}
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return weathercache.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
		} else {
			logger.Info("shared weather cache enabled", "addr", cfg.Weather.Valkey.Addr)
			return weathercache.NewValkeyStore(client, "weather")
		}
	}
	return weathercache.NewMemoryStore()
}

func provideWeatherService(cfg *config.Config, policy weather.ResistancePolicy, provider weather.Provider, store weather.Store, logger *slog.Logger) *weather.Service {
	return weather.NewService(weather.Config{
		GridResolution:    cfg.Weather.GridResolution,
		CacheTTL:          cfg.Weather.CacheTTL,
		DefaultWindMS:     cfg.Weather.DefaultWindMS,
		DefaultWindDirDeg: cfg.Weather.DefaultWindDirDeg,
		DefaultWaveM:      cfg.Weather.DefaultWaveM,
		DefaultCondition:  cfg.Weather.DefaultCondition,
	}, policy, provider, store, logger)
}

func provideOllamaClient(cfg *config.Config, logger *slog.Logger) *ollama.Client {
	client, err := ollama.NewClient(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.MaxPromptTokens, cfg.LLM.ChatTimeout)
	if err != nil {
		logger.Warn("ollama client not configured", "error", err)
		return nil
	}
	return client
}

func provideRecommender(client *ollama.Client) analysis.Recommender {
	if client == nil {
		return nil
	}
	return ollama.NewRecommender(client)
}

func provideFleetRepository(cfg *config.Config, logger *slog.Logger) fleetrepo.Repository {
	fallback := fleetrepo.NewMemoryRepository()
	dsn := strings.TrimSpace(cfg.Fleet.Postgres.DSN)
	if dsn == "" {
		logger.Info("fleet postgres dsn not set, using memory repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback
	}
	if cfg.Fleet.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Fleet.Postgres.MaxConns
	}
	if cfg.Fleet.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Fleet.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("fleet postgres repository enabled")
	return fleetrepo.NewPostgresRepository(pool)
}

func provideHistoryReader(cfg *config.Config, logger *slog.Logger) history.Reader {
	if strings.TrimSpace(cfg.History.Endpoint) == "" {
		logger.Info("history storage endpoint not set, using memory reader")
		return history.NewMemoryReader()
	}
	reader, err := history.NewMinioReader(
		cfg.History.Endpoint,
		cfg.History.AccessKey,
		cfg.History.SecretKey,
		cfg.History.Bucket,
		cfg.History.Prefix,
		cfg.History.Region,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize history storage, using memory reader", "error", err)
		return history.NewMemoryReader()
	}
	return reader
}

func provideAnalysisService(
	estimator *emission.Estimator,
	calculator *emission.Calculator,
	scorer *esg.Engine,
	policy weather.ResistancePolicy,
	recommender analysis.Recommender,
	repo fleetrepo.Repository,
	cfg *config.Config,
	logger *slog.Logger,
) *analysis.Service {
	return analysis.NewService(estimator, calculator, scorer, policy, recommender, repo, cfg.LLM.RecommendTimeout, logger)
}

// provideHub builds the subscriber hub. Its loop is started by bootstrap so
// shutdown closes subscribers the same way the tracking loop is stopped.
func provideHub(logger *slog.Logger) *ws.Hub {
	return ws.NewHub(logger)
}

func provideAISFeed(cfg *config.Config, logger *slog.Logger) tracking.Feed {
	if strings.TrimSpace(cfg.Tracking.AISStreamAPIKey) == "" {
		logger.Info("aisstream api key not set, tracking uses simulation")
		return nil
	}
	feed, err := aisfeed.NewClient(cfg.Tracking.AISStreamAPIKey, cfg.Tracking.AISStreamURL, logger)
	if err != nil {
		logger.Error("failed to initialize ais feed, tracking uses simulation", "error", err)
		return nil
	}
	return feed
}

func provideTrackingService(
	cfg *config.Config,
	analysisSvc *analysis.Service,
	weatherSvc *weather.Service,
	hub *ws.Hub,
	feed tracking.Feed,
	logger *slog.Logger,
) *tracking.Service {
	return tracking.NewService(tracking.Config{
		TickInterval:     cfg.Tracking.TickInterval,
		VesselsPerSector: cfg.Tracking.VesselsPerSector,
		Seed:             time.Now().UnixNano(),
		Projection: vessel.ProjectionDefaults{
			Hours:     cfg.Tracking.ProjectionHours,
			LengthM:   cfg.Tracking.DefaultLengthM,
			WidthM:    cfg.Tracking.DefaultWidthM,
			DraftM:    cfg.Tracking.DefaultDraftM,
			CO2Factor: cfg.Tracking.DefaultCO2Factor,
		},
	}, analysisSvc, weatherSvc, hub, feed, logger)
}

func provideHandler(
	estimator *emission.Estimator,
	calculator *emission.Calculator,
	analysisSvc *analysis.Service,
	weatherSvc *weather.Service,
	historySvc history.Reader,
	repo fleetrepo.Repository,
	chatClient *ollama.Client,
	cfg *config.Config,
	logger *slog.Logger,
) *httpiface.Handler {
	return httpiface.NewHandler(estimator, calculator, analysisSvc, weatherSvc, historySvc, repo, chatClient, cfg.LLM.ChatTimeout, logger)
}

func provideRouter(cfg *config.Config, handler *httpiface.Handler, wsHandler *httpiface.WSHandler, logger *slog.Logger) *http.Server {
	return httpiface.NewRouter(cfg, handler, wsHandler, logger)
}
