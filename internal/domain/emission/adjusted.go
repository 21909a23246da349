package emission

import (
	"context"
	"log/slog"
	"math"

	"github.com/maritime-esg/esg-analytics/internal/domain/vessel"
)

// AdjustedEmissions pairs a baseline prediction with the re-estimate under
// weather-perturbed inputs. For a predictor monotonic in speed and a factor
// bounded below by 1.0, AdjustedCO2Kg is never below BaseCO2Kg.
type AdjustedEmissions struct {
	BaseCO2Kg          float64 `json:"base_co2_kg"`
	AdjustedCO2Kg      float64 `json:"adjusted_co2_kg"`
	DeltaKg            float64 `json:"weather_impact_kg"`
	AdjustedSpeedKnots float64 `json:"adjusted_speed_knots"`
	ResistanceFactor   float64 `json:"weather_resistance_factor"`
	Degraded           bool    `json:"degraded,omitempty"`
}

// Calculator produces weather-adjusted emission figures by re-running the
// estimator with the average speed scaled by the resistance factor. It never
// fails: if either estimate is unobtainable it returns a zeroed result marked
// Degraded so callers can keep serving partial data.
type Calculator struct {
	estimator *Estimator
	logger    *slog.Logger
}

// NewCalculator constructs the adjusted-emissions calculator.
func NewCalculator(estimator *Estimator, logger *slog.Logger) *Calculator {
	return &Calculator{
		estimator: estimator,
		logger:    logger.With("component", "emission.calculator"),
	}
}

// AdjustForWeather estimates baseline CO2 for the profile, then re-estimates
// with the weather-perturbed speed.
func (c *Calculator) AdjustForWeather(ctx context.Context, p vessel.Profile, factor float64) AdjustedEmissions {
	est, err := c.estimator.Estimate(ctx, p)
	if err != nil {
		c.logger.Warn("adjusted emissions degraded", "error", err)
		return AdjustedEmissions{ResistanceFactor: sanitizeFactor(factor), Degraded: true}
	}
	adj, err := c.AdjustBaseline(ctx, p, est.BaselineCO2Kg, factor)
	if err != nil {
		c.logger.Warn("adjusted emissions degraded", "error", err)
		return AdjustedEmissions{ResistanceFactor: sanitizeFactor(factor), Degraded: true}
	}
	return adj
}

// AdjustBaseline re-estimates emissions for an already-known baseline. Weather
// resistance is modeled as extra speed through the water: the effective speed
// fed to the estimator is avg speed scaled directly by the factor.
func (c *Calculator) AdjustBaseline(ctx context.Context, p vessel.Profile, baseCO2Kg, factor float64) (AdjustedEmissions, error) {
	factor = sanitizeFactor(factor)

	speed := p.AvgSpeedKnots
	if math.IsNaN(speed) || speed < 0 {
		speed = 0
	}
	adjustedSpeed := speed * factor

	perturbed := p
	perturbed.AvgSpeedKnots = adjustedSpeed
	est, err := c.estimator.Estimate(ctx, perturbed)
	if err != nil {
		return AdjustedEmissions{}, err
	}

	return AdjustedEmissions{
		BaseCO2Kg:          baseCO2Kg,
		AdjustedCO2Kg:      est.BaselineCO2Kg,
		DeltaKg:            est.BaselineCO2Kg - baseCO2Kg,
		AdjustedSpeedKnots: adjustedSpeed,
		ResistanceFactor:   factor,
	}, nil
}

func sanitizeFactor(factor float64) float64 {
	if factor < 1.0 || math.IsNaN(factor) {
		return 1.0
	}
	return factor
}
