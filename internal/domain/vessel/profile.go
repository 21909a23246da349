package vessel

import "math"

// KmPerNauticalMile converts speed in knots to distance covered in km/h.
const KmPerNauticalMile = 1.852

// Profile is the operational aggregate for one voyage or observation window.
// Numeric fields may be NaN to mark a value missing from the source payload;
// the emission estimator substitutes fleet-average defaults and clamps ranges,
// so a partially populated profile is always analyzable.
type Profile struct {
	AvgSpeedKnots      float64
	SpeedStdKnots      float64
	TotalDistanceKm    float64
	TimeAtSeaHours     float64
	AccelerationEvents float64
	LengthM            float64
	WidthM             float64
	DraftM             float64
	CO2Factor          float64
}

// ProjectionDefaults holds the hull parameters assumed for synthetic voyages.
type ProjectionDefaults struct {
	Hours     float64
	LengthM   float64
	WidthM    float64
	DraftM    float64
	CO2Factor float64
}

// Project expands an instantaneous speed reading into a synthetic
// day-in-the-life voyage so the estimator sees a full operational window.
func Project(speedKnots float64, d ProjectionDefaults) Profile {
	if speedKnots < 0 || math.IsNaN(speedKnots) {
		speedKnots = 0
	}
	return Profile{
		AvgSpeedKnots:      speedKnots,
		SpeedStdKnots:      0.5,
		TotalDistanceKm:    speedKnots * KmPerNauticalMile * d.Hours,
		TimeAtSeaHours:     d.Hours,
		AccelerationEvents: math.Trunc(speedKnots / 4),
		LengthM:            d.LengthM,
		WidthM:             d.WidthM,
		DraftM:             d.DraftM,
		CO2Factor:          d.CO2Factor,
	}
}

// Missing marks a profile field absent from the source payload.
func Missing() float64 {
	return math.NaN()
}

// Num converts an optional payload value into a profile field.
func Num(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
