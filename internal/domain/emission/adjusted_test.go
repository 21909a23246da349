package emission

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// speedPredictor makes the regression sensitive to the speed feature so the
// weather perturbation is visible in the output: CO2 = avg_speed * 250.
type speedPredictor struct{}

func (speedPredictor) Predict(ctx context.Context, features [NumFeatures]float64) (float64, error) {
	return math.Log1p(features[0] * 250), nil
}

func TestAdjustForWeatherReestimatesAtScaledSpeed(t *testing.T) {
	calculator := NewCalculator(NewEstimator(speedPredictor{}, testLogger()), testLogger())

	adj := calculator.AdjustForWeather(context.Background(), fullProfile(), 1.5)
	require.InDelta(t, 3000, adj.BaseCO2Kg, 1e-6)
	require.InDelta(t, 4500, adj.AdjustedCO2Kg, 1e-6)
	require.InDelta(t, 1500, adj.DeltaKg, 1e-6)
	require.InDelta(t, 18.0, adj.AdjustedSpeedKnots, 1e-9)
	require.Equal(t, 1.5, adj.ResistanceFactor)
	require.False(t, adj.Degraded)
}

func TestAdjustForWeatherNeverBelowBase(t *testing.T) {
	calculator := NewCalculator(NewEstimator(speedPredictor{}, testLogger()), testLogger())

	factors := []float64{1.0, 1.05, 1.5, 2.0, 3.0}
	for _, factor := range factors {
		adj := calculator.AdjustForWeather(context.Background(), fullProfile(), factor)
		require.GreaterOrEqual(t, adj.AdjustedCO2Kg, adj.BaseCO2Kg, "factor %.2f", factor)
	}
}

func TestAdjustForWeatherSanitizesFactor(t *testing.T) {
	calculator := NewCalculator(NewEstimator(speedPredictor{}, testLogger()), testLogger())

	adj := calculator.AdjustForWeather(context.Background(), fullProfile(), 0.5)
	require.Equal(t, 1.0, adj.ResistanceFactor)
	require.InDelta(t, adj.BaseCO2Kg, adj.AdjustedCO2Kg, 1e-9)

	adj = calculator.AdjustForWeather(context.Background(), fullProfile(), math.NaN())
	require.Equal(t, 1.0, adj.ResistanceFactor)
}

func TestAdjustForWeatherDegradesOnEstimatorFailure(t *testing.T) {
	predictor := &stubPredictor{err: errors.New("down")}
	calculator := NewCalculator(NewEstimator(predictor, testLogger()), testLogger())

	adj := calculator.AdjustForWeather(context.Background(), fullProfile(), 1.3)
	require.True(t, adj.Degraded)
	require.Equal(t, 0.0, adj.BaseCO2Kg)
	require.Equal(t, 0.0, adj.AdjustedCO2Kg)
	require.Equal(t, 1.3, adj.ResistanceFactor)
}

func TestAdjustBaselineReusesKnownBaseline(t *testing.T) {
	calculator := NewCalculator(NewEstimator(speedPredictor{}, testLogger()), testLogger())

	adj, err := calculator.AdjustBaseline(context.Background(), fullProfile(), 2800, 1.5)
	require.NoError(t, err)
	require.Equal(t, 2800.0, adj.BaseCO2Kg)
	require.InDelta(t, 4500, adj.AdjustedCO2Kg, 1e-6)
	require.InDelta(t, 1700, adj.DeltaKg, 1e-6)
}

func TestAdjustBaselineErrorsWhenReestimateFails(t *testing.T) {
	predictor := &stubPredictor{err: errors.New("down")}
	calculator := NewCalculator(NewEstimator(predictor, testLogger()), testLogger())

	_, err := calculator.AdjustBaseline(context.Background(), fullProfile(), 2800, 1.5)
	require.Error(t, err)
}
