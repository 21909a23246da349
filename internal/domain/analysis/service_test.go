package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maritime-esg/esg-analytics/internal/domain/emission"
	"github.com/maritime-esg/esg-analytics/internal/domain/esg"
	"github.com/maritime-esg/esg-analytics/internal/domain/vessel"
	"github.com/maritime-esg/esg-analytics/internal/domain/weather"
	apperrors "github.com/maritime-esg/esg-analytics/pkg/errors"
)

type stubPredictor struct {
	prediction float64
	err        error
}

func (p *stubPredictor) Predict(ctx context.Context, features [emission.NumFeatures]float64) (float64, error) {
	if p.err != nil {
		return 0, p.err
	}
	return p.prediction, nil
}

// speedPredictor responds to the speed feature so weather re-estimation is
// observable: CO2 = avg_speed * 250.
type speedPredictor struct{}

func (speedPredictor) Predict(ctx context.Context, features [emission.NumFeatures]float64) (float64, error) {
	return math.Log1p(features[0] * 250), nil
}

type stubRecommender struct {
	text  string
	err   error
	delay time.Duration
	calls int
}

func (r *stubRecommender) Recommend(ctx context.Context, in RecommendationInput) (string, error) {
	r.calls++
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return r.text, r.err
}

type stubRepo struct {
	mu    sync.Mutex
	saved []AssessmentRecord
	done  chan struct{}
}

func newStubRepo() *stubRepo {
	return &stubRepo{done: make(chan struct{}, 8)}
}

func (r *stubRepo) Save(ctx context.Context, rec AssessmentRecord) error {
	r.mu.Lock()
	r.saved = append(r.saved, rec)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testProfile() vessel.Profile {
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

func newTestService(predictor emission.Predictor, recommender Recommender, repo AssessmentRepository) *Service {
	estimator := emission.NewEstimator(predictor, testLogger())
	calculator := emission.NewCalculator(estimator, testLogger())
	scorer := esg.NewEngine(esg.DefaultPolicy())
	return NewService(estimator, calculator, scorer, weather.DefaultResistancePolicy(), recommender, repo, 100*time.Millisecond, testLogger())
}

func TestAnalyzeBaselineOnly(t *testing.T) {
	svc := newTestService(&stubPredictor{prediction: math.Log1p(3000)}, nil, nil)

	result, err := svc.Analyze(context.Background(), Input{MMSI: "563001", Profile: testProfile()})
	require.NoError(t, err)
	require.InDelta(t, 3000, result.EstimatedCO2Kg, 1e-6)
	require.Equal(t, 90, result.Score)
	require.Len(t, result.RiskFlags, 1)
	require.Equal(t, esg.RatingExcellent, result.Interpretation.Rating)
	require.Equal(t, RecommendationSourceFallback, result.RecommendationSource)
	require.Nil(t, result.Weather)
}

func TestAnalyzeScoresAdjustedCO2(t *testing.T) {
	// Baseline intensity 3000/100 = 30 is under the 50 threshold; a 2.0
	// resistance factor doubles the effective speed, so the re-estimate
	// lands at 6000 and crosses it.
	svc := newTestService(speedPredictor{}, nil, nil)

	obs := weather.Observation{ResistanceFactor: 2.0, WaveHeightM: 1.0}
	result, err := svc.Analyze(context.Background(), Input{MMSI: "563001", Profile: testProfile(), Weather: &obs})
	require.NoError(t, err)
	require.NotNil(t, result.Emissions)
	require.InDelta(t, 3000, result.Emissions.BaseCO2Kg, 1e-6)
	require.InDelta(t, 6000, result.Emissions.AdjustedCO2Kg, 1e-6)
	require.InDelta(t, 24.0, result.Emissions.AdjustedSpeedKnots, 1e-9)
	require.Equal(t, 65, result.Score)
	require.Contains(t, result.RiskFlags[0], "High CO2 intensity")
}

func TestAnalyzeAppendsWeatherFlagsInOrder(t *testing.T) {
	svc := newTestService(&stubPredictor{prediction: math.Log1p(100)}, nil, nil)

	obs := weather.Observation{
		WindSpeedMS:      15.0,
		Condition:        weather.ConditionThunderstorm,
		WaveHeightM:      4.0,
		ResistanceFactor: 1.3,
		StormFlag:        true,
		RoughSeaFlag:     true,
	}
	result, err := svc.Analyze(context.Background(), Input{MMSI: "563001", Profile: testProfile(), Weather: &obs})
	require.NoError(t, err)

	n := len(result.RiskFlags)
	require.GreaterOrEqual(t, n, 3)
	require.Equal(t, "Storm conditions on route", result.RiskFlags[n-3])
	require.Contains(t, result.RiskFlags[n-2], "Rough sea conditions")
	require.Contains(t, result.RiskFlags[n-1], "Strong winds")
}

func TestAnalyzeTreatsMissingAccelerationAsZeroEvents(t *testing.T) {
	svc := newTestService(&stubPredictor{prediction: math.Log1p(3000)}, nil, nil)

	profile := testProfile()
	profile.AccelerationEvents = vessel.Missing()

	result, err := svc.Analyze(context.Background(), Input{MMSI: "563001", Profile: profile})
	require.NoError(t, err)
	require.Equal(t, 90, result.Score)
	require.Len(t, result.RiskFlags, 1)
	require.Contains(t, result.RiskFlags[0], "High average speed")
}

func TestAnalyzePropagatesOnlyEstimationUnavailable(t *testing.T) {
	svc := newTestService(&stubPredictor{err: errors.New("down")}, nil, nil)

	_, err := svc.Analyze(context.Background(), Input{MMSI: "563001", Profile: testProfile()})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "estimation_unavailable"))
}

func TestAnalyzeUsesLLMRecommendation(t *testing.T) {
	recommender := &stubRecommender{text: "1. Slow steaming on long legs"}
	svc := newTestService(&stubPredictor{prediction: math.Log1p(3000)}, recommender, nil)

	result, err := svc.Analyze(context.Background(), Input{MMSI: "563001", Profile: testProfile()})
	require.NoError(t, err)
	require.Equal(t, "1. Slow steaming on long legs", result.Recommendation)
	require.Equal(t, RecommendationSourceLLM, result.RecommendationSource)
}

func TestAnalyzeFallsBackOnRecommenderError(t *testing.T) {
	recommender := &stubRecommender{err: errors.New("ollama down")}
	svc := newTestService(&stubPredictor{prediction: math.Log1p(3000)}, recommender, nil)

	result, err := svc.Analyze(context.Background(), Input{MMSI: "563001", Profile: testProfile()})
	require.NoError(t, err)
	require.Equal(t, RecommendationSourceFallback, result.RecommendationSource)
	require.Equal(t, "Industry-leading practices. Share best practices with fleet.", result.Recommendation)
}

func TestAnalyzeFallsBackOnRecommenderTimeout(t *testing.T) {
	recommender := &stubRecommender{text: "too late", delay: time.Second}
	svc := newTestService(&stubPredictor{prediction: math.Log1p(3000)}, recommender, nil)

	start := time.Now()
	result, err := svc.Analyze(context.Background(), Input{MMSI: "563001", Profile: testProfile()})
	require.NoError(t, err)
	require.Less(t, time.Since(start), 500*time.Millisecond)
	require.Equal(t, RecommendationSourceFallback, result.RecommendationSource)
}

func TestAnalyzeSkipsRecommenderWhenAsked(t *testing.T) {
	recommender := &stubRecommender{text: "unused"}
	svc := newTestService(&stubPredictor{prediction: math.Log1p(3000)}, recommender, nil)

	result, err := svc.Analyze(context.Background(), Input{MMSI: "563001", Profile: testProfile(), SkipRecommender: true})
	require.NoError(t, err)
	require.Equal(t, 0, recommender.calls)
	require.Equal(t, RecommendationSourceFallback, result.RecommendationSource)
}

func TestAnalyzePersistsAssessment(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(&stubPredictor{prediction: math.Log1p(3000)}, nil, repo)

	result, err := svc.Analyze(context.Background(), Input{MMSI: "563001", Profile: testProfile()})
	require.NoError(t, err)

	select {
	case <-repo.done:
	case <-time.After(time.Second):
		t.Fatal("assessment was not persisted")
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.saved, 1)
	require.Equal(t, "563001", repo.saved[0].MMSI)
	require.Equal(t, result.Score, repo.saved[0].Score)
}

func TestFallbackRecommendationBuckets(t *testing.T) {
	require.Contains(t, fallbackRecommendation(95), "Industry-leading")
	require.Contains(t, fallbackRecommendation(75), "Maintain current practices")
	require.Contains(t, fallbackRecommendation(55), "Review operational practices")
	require.Contains(t, fallbackRecommendation(35), "Immediate action required")
	require.Contains(t, fallbackRecommendation(10), "Urgent intervention needed")
}
