package esg

// Policy is the versioned set of scoring thresholds and penalties. Scores are
// only comparable across time under the same policy version, so the values are
// injected from configuration as one auditable unit instead of being scattered
// as literals.
type Policy struct {
	Version string

	// CO2 intensity above this many kg per km draws the largest penalty.
	CO2IntensityThreshold float64
	// More speed changes than this indicate inefficient operations.
	AccelerationThreshold int
	// Average speed above this limit (knots) indicates non-optimal cruising.
	SpeedLimitKnots float64
	// Continuous operation beyond this many hours suggests route inefficiency.
	LongDurationHours float64

	PenaltyCO2Intensity int
	PenaltyAcceleration int
	PenaltyHighSpeed    int
	PenaltyLongDuration int
}

// DefaultPolicy mirrors the fleet benchmarks the scoring model was calibrated
// against.
func DefaultPolicy() Policy {
	return Policy{
		Version:               "2026.1",
		CO2IntensityThreshold: 50.0,
		AccelerationThreshold: 15,
		SpeedLimitKnots:       10.0,
		LongDurationHours:     720.0,
		PenaltyCO2Intensity:   25,
		PenaltyAcceleration:   15,
		PenaltyHighSpeed:      10,
		PenaltyLongDuration:   10,
	}
}
