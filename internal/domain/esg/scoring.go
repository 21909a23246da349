package esg

import (
	"fmt"
	"math"
)

// Engine computes deterministic environmental scores for vessels.
//
// Scoring starts from 100 and applies independent penalties in a fixed order.
// Every check always runs, so the risk flag list is reproducible for identical
// inputs: [co2 intensity, acceleration, speed, duration].
type Engine struct {
	policy Policy
}

// NewEngine constructs a scoring engine bound to one policy version.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Policy exposes the active policy for audit endpoints.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Score rates a vessel's environmental performance from operational metrics.
// Pure and deterministic; defensive against zero distance. The returned score
// is truncated to an integer in [0, 100].
func (e *Engine) Score(
	baselineCO2Kg float64,
	totalDistanceKm float64,
	avgSpeedKnots float64,
	accelerationEvents int,
	timeAtSeaHours float64,
) (int, []string) {
	score := 100
	flags := []string{}

	// CO2 intensity normalizes emissions by distance. A vessel that emitted
	// without moving gets infinite intensity so the penalty always triggers.
	var intensity float64
	switch {
	case totalDistanceKm > 0:
		intensity = baselineCO2Kg / totalDistanceKm
	case baselineCO2Kg > 0:
		intensity = math.Inf(1)
	default:
		intensity = 0
	}
	if intensity > e.policy.CO2IntensityThreshold {
		score -= e.policy.PenaltyCO2Intensity
		flags = append(flags, fmt.Sprintf(
			"High CO2 intensity (%.2f kg/km > %.1f kg/km threshold)",
			intensity, e.policy.CO2IntensityThreshold))
	}

	if accelerationEvents > e.policy.AccelerationThreshold {
		score -= e.policy.PenaltyAcceleration
		flags = append(flags, fmt.Sprintf(
			"Excessive acceleration events (%d > %d threshold)",
			accelerationEvents, e.policy.AccelerationThreshold))
	}

	if avgSpeedKnots > e.policy.SpeedLimitKnots {
		score -= e.policy.PenaltyHighSpeed
		flags = append(flags, fmt.Sprintf(
			"High average speed (%.2f knots > %.1f knots threshold)",
			avgSpeedKnots, e.policy.SpeedLimitKnots))
	}

	if timeAtSeaHours > e.policy.LongDurationHours {
		score -= e.policy.PenaltyLongDuration
		flags = append(flags, fmt.Sprintf(
			"Extended operational duration (%.2f hours > %.1f hours threshold)",
			timeAtSeaHours, e.policy.LongDurationHours))
	}

	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}

	return score, flags
}
