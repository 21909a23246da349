package analysis

import (
	"context"
	"time"
)

// FleetSummary aggregates the persisted assessments.
type FleetSummary struct {
	VesselCount     int            `json:"vessel_count"`
	AssessmentCount int            `json:"assessment_count"`
	AverageScore    float64        `json:"average_score"`
	TotalCO2Kg      float64        `json:"total_co2_kg"`
	RatingCounts    map[string]int `json:"rating_counts"`
	LastAssessedAt  time.Time      `json:"last_assessed_at"`
}

// FleetReader serves the aggregate view over stored assessments.
type FleetReader interface {
	Summary(ctx context.Context) (FleetSummary, error)
}
