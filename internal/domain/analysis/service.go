package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/maritime-esg/esg-analytics/internal/domain/emission"
	"github.com/maritime-esg/esg-analytics/internal/domain/esg"
	"github.com/maritime-esg/esg-analytics/internal/domain/vessel"
	"github.com/maritime-esg/esg-analytics/internal/domain/weather"
	apperrors "github.com/maritime-esg/esg-analytics/pkg/errors"
)

// Recommender generates a short natural-language recommendation from an
// assessment summary. Optional collaborator; failures never affect the
// assessment itself.
type Recommender interface {
	Recommend(ctx context.Context, input RecommendationInput) (string, error)
}

// RecommendationInput carries the performance figures the recommender
// summarizes.
type RecommendationInput struct {
	Score           int
	Rating          string
	EstimatedCO2Kg  float64
	TotalDistanceKm float64
	AvgSpeedKnots   float64
	AccelEvents     int
	TimeAtSeaHours  float64
	RiskFlags       []string
}

// AssessmentRecord is the persisted form of one completed analysis.
type AssessmentRecord struct {
	MMSI        string
	Score       int
	Rating      string
	CO2Kg       float64
	RiskFlags   []string
	AssessedAt  time.Time
	WeatherUsed bool
}

// AssessmentRepository stores completed assessments for fleet reporting.
type AssessmentRepository interface {
	Save(ctx context.Context, rec AssessmentRecord) error
}

// Input is one analysis request: an operational profile plus optional weather.
type Input struct {
	MMSI            string
	Profile         vessel.Profile
	Weather         *weather.Observation
	SkipRecommender bool
}

// Result is the complete vessel analysis.
type Result struct {
	MMSI                 string                      `json:"mmsi"`
	EstimatedCO2Kg       float64                     `json:"estimated_co2_kg"`
	Emissions            *emission.AdjustedEmissions `json:"emissions,omitempty"`
	Score                int                         `json:"esg_score"`
	RiskFlags            []string                    `json:"risk_flags"`
	Interpretation       esg.Interpretation          `json:"interpretation"`
	Recommendation       string                      `json:"recommendation,omitempty"`
	RecommendationSource string                      `json:"recommendation_source,omitempty"`
	Weather              *weather.Observation        `json:"weather,omitempty"`
	AssessedAt           time.Time                   `json:"assessed_at"`
}

// Recommendation sources reported in Result.
const (
	RecommendationSourceLLM      = "llm"
	RecommendationSourceFallback = "fallback"
)

// Service orchestrates estimation, weather adjustment, scoring, interpretation
// and recommendation into a single analysis call.
type Service struct {
	estimator   *emission.Estimator
	calculator  *emission.Calculator
	scorer      *esg.Engine
	policy      weather.ResistancePolicy
	recommender Recommender
	repo        AssessmentRepository
	logger      *slog.Logger

	recommendTimeout time.Duration
	now              func() time.Time
}

// NewService constructs the orchestrator. recommender and repo may be nil;
// both degrade to deterministic behavior.
func NewService(
	estimator *emission.Estimator,
	calculator *emission.Calculator,
	scorer *esg.Engine,
	policy weather.ResistancePolicy,
	recommender Recommender,
	repo AssessmentRepository,
	recommendTimeout time.Duration,
	logger *slog.Logger,
) *Service {
	if recommendTimeout <= 0 {
		recommendTimeout = 4 * time.Second
	}
	return &Service{
		estimator:        estimator,
		calculator:       calculator,
		scorer:           scorer,
		policy:           policy,
		recommender:      recommender,
		repo:             repo,
		logger:           logger.With("component", "analysis.service"),
		recommendTimeout: recommendTimeout,
		now:              time.Now,
	}
}

// Analyze runs the full assessment pipeline. The only propagated error is an
// unavailable estimator; every other collaborator degrades in place.
func (s *Service) Analyze(ctx context.Context, in Input) (Result, error) {
	est, err := s.estimator.Estimate(ctx, in.Profile)
	if err != nil {
		return Result{}, apperrors.Wrap("estimation_unavailable", "vessel analysis failed", err)
	}

	result := Result{
		MMSI:           in.MMSI,
		EstimatedCO2Kg: est.BaselineCO2Kg,
		AssessedAt:     s.now().UTC(),
	}

	// Score the adjusted figure when weather is present so penalties reflect
	// actual expected emissions, not calm-water ones.
	scoringCO2 := est.BaselineCO2Kg
	if in.Weather != nil {
		result.Weather = in.Weather
		adj, err := s.calculator.AdjustBaseline(ctx, in.Profile, est.BaselineCO2Kg, in.Weather.ResistanceFactor)
		if err != nil {
			s.logger.Warn("weather adjustment failed, scoring baseline", "mmsi", in.MMSI, "error", err)
		} else {
			result.Emissions = &adj
			scoringCO2 = adj.AdjustedCO2Kg
		}
	}

	score, flags := s.scorer.Score(
		scoringCO2,
		in.Profile.TotalDistanceKm,
		in.Profile.AvgSpeedKnots,
		accelEventCount(in.Profile.AccelerationEvents),
		in.Profile.TimeAtSeaHours,
	)
	if in.Weather != nil {
		flags = appendWeatherFlags(flags, *in.Weather, s.policy)
	}

	result.Score = score
	result.RiskFlags = flags
	result.Interpretation = esg.Interpret(score)
	result.Recommendation, result.RecommendationSource = s.recommend(ctx, result, in)

	s.persist(result, in)
	return result, nil
}

// accelEventCount converts the possibly-missing event count to a whole
// number. NaN marks an absent value; converting NaN to int directly is
// implementation-defined, so absent counts as zero events.
func accelEventCount(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return int(v)
}

// appendWeatherFlags adds weather risk flags after the scoring flags, always
// in the order storm, rough sea, strong wind.
func appendWeatherFlags(flags []string, obs weather.Observation, policy weather.ResistancePolicy) []string {
	if obs.StormFlag {
		flags = append(flags, "Storm conditions on route")
	}
	if obs.RoughSeaFlag {
		flags = append(flags, fmt.Sprintf("Rough sea conditions (wave height %.1f m)", obs.WaveHeightM))
	}
	if obs.WindSpeedMS > policy.StrongWindMS {
		flags = append(flags, fmt.Sprintf("Strong winds (%.1f m/s)", obs.WindSpeedMS))
	}
	return flags
}

// recommend asks the LLM under a strict deadline, falling back to a fixed
// per-rating string on any failure. Never returns an error.
func (s *Service) recommend(ctx context.Context, r Result, in Input) (string, string) {
	if in.SkipRecommender || s.recommender == nil {
		return fallbackRecommendation(r.Score), RecommendationSourceFallback
	}

	rctx, cancel := context.WithTimeout(ctx, s.recommendTimeout)
	defer cancel()

	text, err := s.recommender.Recommend(rctx, RecommendationInput{
		Score:           r.Score,
		Rating:          r.Interpretation.Rating,
		EstimatedCO2Kg:  r.EstimatedCO2Kg,
		TotalDistanceKm: in.Profile.TotalDistanceKm,
		AvgSpeedKnots:   in.Profile.AvgSpeedKnots,
		AccelEvents:     accelEventCount(in.Profile.AccelerationEvents),
		TimeAtSeaHours:  in.Profile.TimeAtSeaHours,
		RiskFlags:       r.RiskFlags,
	})
	if err != nil || text == "" {
		if err != nil {
			s.logger.Debug("recommendation fell back to default", "mmsi", in.MMSI, "error", err)
		}
		return fallbackRecommendation(r.Score), RecommendationSourceFallback
	}
	return text, RecommendationSourceLLM
}

// fallbackRecommendation returns the fixed recommendation for a score's
// rating bucket.
func fallbackRecommendation(score int) string {
	switch {
	case score >= 90:
		return "Industry-leading practices. Share best practices with fleet."
	case score >= 70:
		return "Maintain current practices, minor optimizations possible."
	case score >= 50:
		return "Review operational practices. Focus on reducing identified risks."
	case score >= 30:
		return "Immediate action required. Implement fuel efficiency programs."
	default:
		return "Critical environmental performance. Urgent intervention needed."
	}
}

// persist writes the assessment to the fleet repository without blocking the
// response. Failures are logged only.
func (s *Service) persist(r Result, in Input) {
	if s.repo == nil {
		return
	}
	rec := AssessmentRecord{
		MMSI:        r.MMSI,
		Score:       r.Score,
		Rating:      r.Interpretation.Rating,
		CO2Kg:       r.EstimatedCO2Kg,
		RiskFlags:   r.RiskFlags,
		AssessedAt:  r.AssessedAt,
		WeatherUsed: in.Weather != nil,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.Save(ctx, rec); err != nil {
			s.logger.Warn("assessment save failed", "mmsi", rec.MMSI, "error", err)
		}
	}()
}
