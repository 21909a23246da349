package fleetrepo

import "github.com/maritime-esg/esg-analytics/internal/domain/analysis"

// Repository combines the assessment write side and the fleet summary read
// side; both backends implement it.
type Repository interface {
	analysis.AssessmentRepository
	analysis.FleetReader
}

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
