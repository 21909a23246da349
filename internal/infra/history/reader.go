package history

import (
	"context"
	"sort"
	"time"
)

// Record is one processed AIS aggregate as written by the feature pipeline.
// Timestamps stay in their stored ISO 8601 form; sorting parses them
// tolerantly and pushes unparseable entries to the front.
type Record struct {
	MMSI                string  `json:"mmsi"`
	Timestamp           string  `json:"timestamp"`
	AvgSpeedKnots       float64 `json:"avg_speed,omitempty"`
	SpeedStdKnots       float64 `json:"speed_std,omitempty"`
	TotalDistanceKm     float64 `json:"total_distance_km,omitempty"`
	TimeAtSeaHours      float64 `json:"time_at_sea_hours,omitempty"`
	AccelerationEvents  float64 `json:"acceleration_events,omitempty"`
	EstimatedCO2Kg      float64 `json:"estimated_co2_kg,omitempty"`
	ESGEnvironmentScore float64 `json:"esg_environment_score,omitempty"`
}

// ESGView is the ESG-relevant slice of a vessel's latest record.
type ESGView struct {
	MMSI                string  `json:"mmsi"`
	EstimatedCO2Kg      float64 `json:"estimated_co2_kg"`
	ESGEnvironmentScore float64 `json:"esg_environment_score"`
	Timestamp           string  `json:"timestamp"`
}

// Reader serves processed AIS records per vessel.
type Reader interface {
	Latest(ctx context.Context, mmsi string) (Record, bool, error)
	History(ctx context.Context, mmsi string) ([]Record, error)
	ESG(ctx context.Context, mmsi string) (ESGView, bool, error)
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func sortByTimestamp(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return parseTimestamp(records[i].Timestamp).Before(parseTimestamp(records[j].Timestamp))
	})
}

func esgView(rec Record) ESGView {
	return ESGView{
		MMSI:                rec.MMSI,
		EstimatedCO2Kg:      rec.EstimatedCO2Kg,
		ESGEnvironmentScore: rec.ESGEnvironmentScore,
		Timestamp:           rec.Timestamp,
	}
}
