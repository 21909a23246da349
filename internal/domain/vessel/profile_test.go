package vessel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func panamaxDefaults() ProjectionDefaults {
	return ProjectionDefaults{
		Hours:     24,
		LengthM:   225,
		WidthM:    32,
		DraftM:    12,
		CO2Factor: 3.114,
	}
}

func TestProjectDayVoyage(t *testing.T) {
	p := Project(12.0, panamaxDefaults())

	require.Equal(t, 12.0, p.AvgSpeedKnots)
	require.Equal(t, 0.5, p.SpeedStdKnots)
	require.InDelta(t, 12.0*1.852*24, p.TotalDistanceKm, 1e-9)
	require.Equal(t, 24.0, p.TimeAtSeaHours)
	require.Equal(t, 3.0, p.AccelerationEvents)
	require.Equal(t, 225.0, p.LengthM)
	require.Equal(t, 3.114, p.CO2Factor)
}

func TestProjectTruncatesAccelerationEvents(t *testing.T) {
	require.Equal(t, 3.0, Project(15.9, panamaxDefaults()).AccelerationEvents)
	require.Equal(t, 4.0, Project(16.0, panamaxDefaults()).AccelerationEvents)
	require.Equal(t, 0.0, Project(2.0, panamaxDefaults()).AccelerationEvents)
}

func TestProjectSanitizesSpeed(t *testing.T) {
	require.Equal(t, 0.0, Project(-4, panamaxDefaults()).AvgSpeedKnots)
	require.Equal(t, 0.0, Project(math.NaN(), panamaxDefaults()).TotalDistanceKm)
}

func TestNum(t *testing.T) {
	v := 3.5
	require.Equal(t, 3.5, Num(&v))
	require.True(t, math.IsNaN(Num(nil)))
	require.True(t, math.IsNaN(Missing()))
}
