package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/maritime-esg/esg-analytics/internal/domain/analysis"
)

const maxRecommendationLines = 3

// Recommender generates short vessel recommendations through the chat client.
type Recommender struct {
	client *Client
}

// NewRecommender wraps an Ollama client as the analysis recommender.
func NewRecommender(client *Client) *Recommender {
	return &Recommender{client: client}
}

// Recommend asks the model for 2-3 actionable points and caps the reply at
// three lines.
func (r *Recommender) Recommend(ctx context.Context, in analysis.RecommendationInput) (string, error) {
	intensity := 0.0
	if in.TotalDistanceKm > 0 {
		intensity = in.EstimatedCO2Kg / in.TotalDistanceKm
	}

	flagSummary := "None"
	if len(in.RiskFlags) > 0 {
		flagSummary = strings.Join(in.RiskFlags, ", ")
	}

	prompt := fmt.Sprintf(`Given this vessel's performance data, provide EXACTLY 2-3 brief, actionable recommendations to improve their environmental score. Keep each point under 15 words.

Current Performance:
- ESG Score: %d/100 (%s)
- CO2 Emissions: %.1f kg
- Distance: %.1f km
- CO2 Intensity: %.2f kg/km
- Average Speed: %.1f knots
- Acceleration Events: %d
- Time at Sea: %.1f hours

Risk Flags: %s

Format your response as a numbered list with 2-3 points only. Be specific and actionable. Focus on the biggest improvement opportunities.`,
		in.Score, in.Rating, in.EstimatedCO2Kg, in.TotalDistanceKm, intensity,
		in.AvgSpeedKnots, in.AccelEvents, in.TimeAtSeaHours, flagSummary)

	reply, err := r.client.Chat(ctx, prompt, nil, false)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, maxRecommendationLines)
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == maxRecommendationLines {
			break
		}
	}
	return strings.Join(lines, "\n"), nil
}

var _ analysis.Recommender = (*Recommender)(nil)
