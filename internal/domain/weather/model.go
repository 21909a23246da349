package weather

import (
	"math"
	"time"
)

// Recognized condition values, lower-cased from the provider's weather group.
const (
	ConditionClear        = "clear"
	ConditionClouds       = "clouds"
	ConditionRain         = "rain"
	ConditionDrizzle      = "drizzle"
	ConditionThunderstorm = "thunderstorm"
	ConditionTornado      = "tornado"
	ConditionSnow         = "snow"
	ConditionMist         = "mist"
)

// Observation is one weather reading for a grid cell, enriched with the
// resistance factor and risk flags derived under the active policy.
//
// Degraded marks an observation substituted for a failed or unconfigured
// provider fetch; downstream consumers can detect reduced data quality without
// treating it as an error.
type Observation struct {
	WindSpeedMS      float64   `json:"wind_speed_ms"`
	WindDirectionDeg float64   `json:"wind_direction_deg"`
	Condition        string    `json:"condition"`
	WaveHeightM      float64   `json:"wave_height_m"`
	WaveEstimated    bool      `json:"wave_estimated"`
	ResistanceFactor float64   `json:"weather_resistance_factor"`
	StormFlag        bool      `json:"storm_flag"`
	RoughSeaFlag     bool      `json:"rough_sea_flag"`
	ObservedAt       time.Time `json:"timestamp"`
	Degraded         bool      `json:"degraded,omitempty"`
}

// ResistancePolicy converts wind and wave conditions into a propulsive
// resistance multiplier. One policy instance serves every call site so the
// wind/wave penalties and the emission adjustment stay consistent.
type ResistancePolicy struct {
	WindThresholdMS float64
	WindCoeff       float64
	WaveThresholdM  float64
	WaveCoeff       float64
	FactorCap       float64
	StrongWindMS    float64
	RoughSeaWaveM   float64
}

// DefaultResistancePolicy returns the calibrated policy constants.
func DefaultResistancePolicy() ResistancePolicy {
	return ResistancePolicy{
		WindThresholdMS: 5.0,
		WindCoeff:       0.01,
		WaveThresholdM:  1.0,
		WaveCoeff:       0.05,
		FactorCap:       3.0,
		StrongWindMS:    12.0,
		RoughSeaWaveM:   3.0,
	}
}

// Factor computes the resistance multiplier, always in [1.0, FactorCap].
func (p ResistancePolicy) Factor(windSpeedMS, waveHeightM float64) float64 {
	factor := 1.0
	if windSpeedMS > p.WindThresholdMS {
		factor += p.WindCoeff * (windSpeedMS - p.WindThresholdMS)
	}
	if !math.IsNaN(waveHeightM) && waveHeightM > p.WaveThresholdM {
		factor += p.WaveCoeff * (waveHeightM - p.WaveThresholdM)
	}
	if factor > p.FactorCap {
		factor = p.FactorCap
	}
	if factor < 1.0 {
		factor = 1.0
	}
	return factor
}

// EstimateWaveHeight derives significant wave height from wind speed using a
// Beaufort-style step table. This is an approximation for providers that do
// not report sea state; observations built from it carry WaveEstimated=true.
func (p ResistancePolicy) EstimateWaveHeight(windSpeedMS float64) float64 {
	switch {
	case windSpeedMS < 1.5:
		return 0.1
	case windSpeedMS < 3.3:
		return 0.4
	case windSpeedMS < 5.4:
		return 0.8
	case windSpeedMS < 7.9:
		return 1.2
	case windSpeedMS < 10.7:
		return 2.0
	case windSpeedMS < 13.8:
		return 3.0
	case windSpeedMS < 17.1:
		return 4.0
	case windSpeedMS < 20.7:
		return 5.5
	default:
		return 7.0
	}
}

// IsStormCondition reports whether a condition value counts as a storm.
func IsStormCondition(condition string) bool {
	return condition == ConditionThunderstorm || condition == ConditionTornado
}
