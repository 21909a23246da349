package fleetrepo

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maritime-esg/esg-analytics/internal/domain/analysis"
)

// PostgresRepository persists assessments using pgx.
//
// Expected schema:
//
//	CREATE TABLE vessel_assessments (
//	    id           BIGSERIAL PRIMARY KEY,
//	    mmsi         TEXT NOT NULL,
//	    score        INT NOT NULL,
//	    rating       TEXT NOT NULL,
//	    co2_kg       DOUBLE PRECISION NOT NULL,
//	    risk_flags   TEXT[] NOT NULL DEFAULT '{}',
//	    weather_used BOOLEAN NOT NULL DEFAULT FALSE,
//	    assessed_at  TIMESTAMPTZ NOT NULL
//	);
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save inserts one completed assessment.
func (r *PostgresRepository) Save(ctx context.Context, rec analysis.AssessmentRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO vessel_assessments (mmsi, score, rating, co2_kg, risk_flags, weather_used, assessed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.MMSI, rec.Score, rec.Rating, rec.CO2Kg, rec.RiskFlags, rec.WeatherUsed, rec.AssessedAt)
	return err
}

// Summary aggregates all stored assessments.
func (r *PostgresRepository) Summary(ctx context.Context) (analysis.FleetSummary, error) {
	summary := analysis.FleetSummary{RatingCounts: make(map[string]int)}

	var lastAssessed sql.NullTime
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT mmsi), COALESCE(AVG(score), 0), COALESCE(SUM(co2_kg), 0), MAX(assessed_at)
		FROM vessel_assessments
	`).Scan(
		&summary.AssessmentCount,
		&summary.VesselCount,
		&summary.AverageScore,
		&summary.TotalCO2Kg,
		&lastAssessed,
	)
	if err != nil {
		return analysis.FleetSummary{}, err
	}
	if lastAssessed.Valid {
		summary.LastAssessedAt = lastAssessed.Time.UTC()
	}

	rows, err := r.pool.Query(ctx, `
		SELECT rating, COUNT(*)
		FROM vessel_assessments
		GROUP BY rating
	`)
	if err != nil {
		return analysis.FleetSummary{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			rating string
			count  int
		)
		if err := rows.Scan(&rating, &count); err != nil {
			return analysis.FleetSummary{}, err
		}
		summary.RatingCounts[rating] = count
	}
	return summary, rows.Err()
}

var (
	_ analysis.AssessmentRepository = (*PostgresRepository)(nil)
	_ analysis.FleetReader          = (*PostgresRepository)(nil)
)
