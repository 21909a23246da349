package fleetrepo

import (
	"context"
	"sync"

	"github.com/maritime-esg/esg-analytics/internal/domain/analysis"
)

// MemoryRepository keeps assessments in memory. Useful for tests and local
// dev without Postgres.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []analysis.AssessmentRecord
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Save(ctx context.Context, rec analysis.AssessmentRecord) error {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Summary(ctx context.Context) (analysis.FleetSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := analysis.FleetSummary{RatingCounts: make(map[string]int)}
	vessels := make(map[string]struct{})
	totalScore := 0
	for _, rec := range r.records {
		vessels[rec.MMSI] = struct{}{}
		totalScore += rec.Score
		summary.TotalCO2Kg += rec.CO2Kg
		summary.RatingCounts[rec.Rating]++
		if rec.AssessedAt.After(summary.LastAssessedAt) {
			summary.LastAssessedAt = rec.AssessedAt
		}
	}
	summary.AssessmentCount = len(r.records)
	summary.VesselCount = len(vessels)
	if summary.AssessmentCount > 0 {
		summary.AverageScore = float64(totalScore) / float64(summary.AssessmentCount)
	}
	return summary, nil
}

// Records returns a copy of everything stored.
func (r *MemoryRepository) Records() []analysis.AssessmentRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]analysis.AssessmentRecord, len(r.records))
	copy(out, r.records)
	return out
}

var (
	_ analysis.AssessmentRepository = (*MemoryRepository)(nil)
	_ analysis.FleetReader          = (*MemoryRepository)(nil)
)
