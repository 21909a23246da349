package tracking

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSimulatorSeedsAllSectors(t *testing.T) {
	sim := NewSimulator(5, 42)
	require.Equal(t, 20, sim.FleetSize())

	events := sim.Advance()
	require.Len(t, events, 20)

	counts := map[string]int{}
	for _, ev := range events {
		counts[ev.Sector]++
		require.True(t, ev.Simulated)
		require.NotEmpty(t, ev.MMSI)
		require.NotEmpty(t, ev.Name)
	}
	require.Equal(t, map[string]int{
		"Singapore":     5,
		"India":         5,
		"Visakhapatnam": 5,
		"Mangalore":     5,
	}, counts)
}

func TestSimulatorMMSINumbering(t *testing.T) {
	sim := NewSimulator(2, 1)

	mmsis := map[string]string{}
	for _, ev := range sim.Advance() {
		mmsis[ev.MMSI] = ev.Name
	}

	require.Equal(t, "SG Lion 1", mmsis["563000"])
	require.Equal(t, "SG Lion 2", mmsis["563001"])
	require.Equal(t, "IND Sagar 1", mmsis["419000"])
	require.Equal(t, "VSKP Port 1", mmsis["419500"])
	require.Equal(t, "NMPT Port 2", mmsis["419801"])
}

func TestSimulatorResetChangesDensity(t *testing.T) {
	sim := NewSimulator(5, 7)
	require.Equal(t, 20, sim.FleetSize())

	sim.Reset(2)
	require.Equal(t, 8, sim.FleetSize())

	sim.Reset(0)
	require.Equal(t, 20, sim.FleetSize())
}

func TestSimulatorSpawnsInsideSectorBounds(t *testing.T) {
	sim := NewSimulator(10, 99)
	for _, ev := range sim.Advance() {
		// One tick drifts at most 0.001 degrees past the spawn box.
		require.NotEqual(t, "Unknown", SectorName(ev.Lat, ev.Lon), "mmsi %s at %f,%f", ev.MMSI, ev.Lat, ev.Lon)
	}
}

func TestSimulatorSpeedStaysInBand(t *testing.T) {
	sim := NewSimulator(5, 3)
	for i := 0; i < 200; i++ {
		for _, ev := range sim.Advance() {
			require.GreaterOrEqual(t, ev.SpeedKnots, 0.0)
			require.LessOrEqual(t, ev.SpeedKnots, 25.0)
		}
	}
}

func TestSimulatorDeterministicForSeed(t *testing.T) {
	a := NewSimulator(3, 12345)
	b := NewSimulator(3, 12345)

	ea := a.Advance()
	eb := b.Advance()
	require.Len(t, eb, len(ea))
	for i := range ea {
		ea[i].ObservedAt = eb[i].ObservedAt
	}
	require.Equal(t, ea, eb)
}

func TestSectorName(t *testing.T) {
	require.Equal(t, "Singapore", SectorName(1.25, 103.8))
	require.Equal(t, "India", SectorName(18.9, 72.8))
	require.Equal(t, "Visakhapatnam", SectorName(17.7, 83.3))
	require.Equal(t, "Mangalore", SectorName(12.9, 74.8))
	require.Equal(t, "Unknown", SectorName(0, 0))
}

func TestSectorBoundingBoxes(t *testing.T) {
	boxes := SectorBoundingBoxes()
	require.Len(t, boxes, 4)

	sg := boxes[0]
	require.InDelta(t, 103.6, sg[0][0], 1e-9)
	require.InDelta(t, 1.15, sg[0][1], 1e-9)
	require.InDelta(t, 104.0, sg[1][0], 1e-9)
	require.InDelta(t, 1.35, sg[1][1], 1e-9)
}

func TestFallbackAssessment(t *testing.T) {
	score, color, flags := fallbackAssessment(10)
	require.Equal(t, 99, score)
	require.Equal(t, "green", color)
	require.Equal(t, []string{"Model Unavailable"}, flags)

	score, color, _ = fallbackAssessment(15)
	require.Equal(t, 79, score)
	require.Equal(t, "green", color)

	score, color, _ = fallbackAssessment(19)
	require.Equal(t, 49, score)
	require.Equal(t, "red", color)
}
