package emission

import (
	"math"

	"github.com/maritime-esg/esg-analytics/internal/domain/vessel"
)

// NumFeatures is the width of the estimator's input vector.
const NumFeatures = 9

// featureSpec documents one input feature: its fleet-average default and the
// range it is clamped into before inference. Order MUST match the order the
// regressor was trained with.
type featureSpec struct {
	name    string
	def     float64
	min     float64
	max     float64
	bounded bool
}

var featureSpecs = [NumFeatures]featureSpec{
	{name: "avg_speed", def: 10.0, min: 0, max: 50, bounded: true},
	{name: "speed_std", def: 2.0, min: 0, max: 20, bounded: true},
	{name: "total_distance_km", def: 100.0, min: 0},
	{name: "time_at_sea_hours", def: 24.0, min: 0},
	{name: "acceleration_events", def: 10, min: 0},
	{name: "length", def: 100.0, min: 0, max: 500, bounded: true},
	{name: "width", def: 20.0, min: 0, max: 100, bounded: true},
	{name: "draft", def: 8.0, min: 0, max: 50, bounded: true},
	{name: "co2_factor", def: 3.206, min: 0, max: 10, bounded: true},
}

// rawFeatures lays a profile out in training order.
func rawFeatures(p vessel.Profile) [NumFeatures]float64 {
	return [NumFeatures]float64{
		p.AvgSpeedKnots,
		p.SpeedStdKnots,
		p.TotalDistanceKm,
		p.TimeAtSeaHours,
		p.AccelerationEvents,
		p.LengthM,
		p.WidthM,
		p.DraftM,
		p.CO2Factor,
	}
}

// sanitizeFeature applies the missing-value default and range clamps for one
// feature. Returns the usable value and whether it was altered.
func sanitizeFeature(spec featureSpec, v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return spec.def, true
	}
	if v < spec.min {
		return spec.min, true
	}
	if spec.bounded && v > spec.max {
		return spec.max, true
	}
	return v, false
}
