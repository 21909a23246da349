package emission

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maritime-esg/esg-analytics/internal/domain/vessel"
	apperrors "github.com/maritime-esg/esg-analytics/pkg/errors"
)

type stubPredictor struct {
	prediction float64
	err        error
	lastInput  [NumFeatures]float64
	calls      int
}

func (p *stubPredictor) Predict(ctx context.Context, features [NumFeatures]float64) (float64, error) {
	p.calls++
	p.lastInput = features
	if p.err != nil {
		return 0, p.err
	}
	return p.prediction, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fullProfile() vessel.Profile {
	return vessel.Profile{
		AvgSpeedKnots:      12.0,
		SpeedStdKnots:      1.0,
		TotalDistanceKm:    100,
		TimeAtSeaHours:     48,
		AccelerationEvents: 5,
		LengthM:            200,
		WidthM:             30,
		DraftM:             10,
		CO2Factor:          3.206,
	}
}

func TestEstimateAppliesInverseTransform(t *testing.T) {
	predictor := &stubPredictor{prediction: math.Log1p(3000)}
	estimator := NewEstimator(predictor, testLogger())

	est, err := estimator.Estimate(context.Background(), fullProfile())
	require.NoError(t, err)
	require.InDelta(t, 3000, est.BaselineCO2Kg, 1e-6)
}

func TestEstimateFlooredAtZero(t *testing.T) {
	predictor := &stubPredictor{prediction: -50}
	estimator := NewEstimator(predictor, testLogger())

	est, err := estimator.Estimate(context.Background(), fullProfile())
	require.NoError(t, err)
	require.Equal(t, 0.0, est.BaselineCO2Kg)
}

func TestEstimateFeatureOrder(t *testing.T) {
	predictor := &stubPredictor{prediction: 1}
	estimator := NewEstimator(predictor, testLogger())

	_, err := estimator.Estimate(context.Background(), fullProfile())
	require.NoError(t, err)
	require.Equal(t, [NumFeatures]float64{12.0, 1.0, 100, 48, 5, 200, 30, 10, 3.206}, predictor.lastInput)
}

func TestEstimateSubstitutesDefaults(t *testing.T) {
	predictor := &stubPredictor{prediction: 1}
	estimator := NewEstimator(predictor, testLogger())

	profile := vessel.Profile{
		AvgSpeedKnots:      vessel.Missing(),
		SpeedStdKnots:      vessel.Missing(),
		TotalDistanceKm:    vessel.Missing(),
		TimeAtSeaHours:     vessel.Missing(),
		AccelerationEvents: vessel.Missing(),
		LengthM:            vessel.Missing(),
		WidthM:             vessel.Missing(),
		DraftM:             vessel.Missing(),
		CO2Factor:          vessel.Missing(),
	}

	_, err := estimator.Estimate(context.Background(), profile)
	require.NoError(t, err)
	require.Equal(t, [NumFeatures]float64{10, 2, 100, 24, 10, 100, 20, 8, 3.206}, predictor.lastInput)
}

func TestEstimateClampsRanges(t *testing.T) {
	predictor := &stubPredictor{prediction: 1}
	estimator := NewEstimator(predictor, testLogger())

	profile := vessel.Profile{
		AvgSpeedKnots:      120,   // above 50
		SpeedStdKnots:      -3,    // below 0
		TotalDistanceKm:    1e6,   // unbounded above
		TimeAtSeaHours:     -10,   // below 0
		AccelerationEvents: 1e4,   // unbounded above
		LengthM:            900,   // above 500
		WidthM:             150,   // above 100
		DraftM:             75,    // above 50
		CO2Factor:          12,    // above 10
	}

	_, err := estimator.Estimate(context.Background(), profile)
	require.NoError(t, err)
	require.Equal(t, [NumFeatures]float64{50, 0, 1e6, 0, 1e4, 500, 100, 50, 10}, predictor.lastInput)
}

func TestEstimateUnavailableWhenNotConfigured(t *testing.T) {
	estimator := NewEstimator(nil, testLogger())

	_, err := estimator.Estimate(context.Background(), fullProfile())
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "estimation_unavailable"))
}

func TestEstimateUnavailableOnPredictorError(t *testing.T) {
	predictor := &stubPredictor{err: errors.New("model server down")}
	estimator := NewEstimator(predictor, testLogger())

	_, err := estimator.Estimate(context.Background(), fullProfile())
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "estimation_unavailable"))
}

func TestEstimateIdempotent(t *testing.T) {
	predictor := &stubPredictor{prediction: math.Log1p(1234.5)}
	estimator := NewEstimator(predictor, testLogger())

	first, err := estimator.Estimate(context.Background(), fullProfile())
	require.NoError(t, err)
	second, err := estimator.Estimate(context.Background(), fullProfile())
	require.NoError(t, err)
	require.Equal(t, first, second)
}
