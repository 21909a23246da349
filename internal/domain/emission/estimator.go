package emission

import (
	"context"
	"log/slog"
	"math"

	"github.com/maritime-esg/esg-analytics/internal/domain/vessel"
	apperrors "github.com/maritime-esg/esg-analytics/pkg/errors"
)

// Predictor is the opaque trained regressor. It was fitted on log1p-transformed
// emissions, so predictions come back in log space. Implementations must be
// safe for concurrent read-only inference.
type Predictor interface {
	Predict(ctx context.Context, features [NumFeatures]float64) (float64, error)
}

// Estimate is the baseline CO2 prediction for one profile.
type Estimate struct {
	BaselineCO2Kg float64 `json:"baseline_co2_kg"`
}

// Estimator adapts vessel profiles onto the trained regressor. Inputs are
// never rejected: missing values fall back to fleet-average defaults and
// out-of-range values are clamped. The only failure mode is the regressor
// itself being unavailable.
type Estimator struct {
	predictor Predictor
	logger    *slog.Logger
}

// NewEstimator constructs the adapter. A nil predictor is tolerated so the
// process can start without the model server; estimates then fail with a
// clear category instead of crashing at startup.
func NewEstimator(predictor Predictor, logger *slog.Logger) *Estimator {
	return &Estimator{
		predictor: predictor,
		logger:    logger.With("component", "emission.estimator"),
	}
}

// Estimate predicts baseline CO2 for a profile. Fails only with code
// "estimation_unavailable"; idempotent for identical input.
func (e *Estimator) Estimate(ctx context.Context, p vessel.Profile) (Estimate, error) {
	if e.predictor == nil {
		return Estimate{}, apperrors.Wrap("estimation_unavailable", "emission model not configured", nil)
	}

	features := e.FeatureVector(p)

	logPrediction, err := e.predictor.Predict(ctx, features)
	if err != nil {
		return Estimate{}, apperrors.Wrap("estimation_unavailable", "emission model inference failed", err)
	}

	co2 := math.Expm1(logPrediction)
	if co2 < 0 || math.IsNaN(co2) {
		co2 = 0
	}
	return Estimate{BaselineCO2Kg: co2}, nil
}

// FeatureVector builds the sanitized input vector in training order.
func (e *Estimator) FeatureVector(p vessel.Profile) [NumFeatures]float64 {
	raw := rawFeatures(p)
	var out [NumFeatures]float64
	for i, spec := range featureSpecs {
		value, altered := sanitizeFeature(spec, raw[i])
		if altered {
			e.logger.Debug("feature defaulted or clamped",
				"feature", spec.name, "raw", raw[i], "used", value)
		}
		out[i] = value
	}
	return out
}
