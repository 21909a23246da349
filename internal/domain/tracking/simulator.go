package tracking

import (
	"fmt"
	"math/rand"
	"time"
)

// PositionEvent is one vessel position update, produced uniformly by the
// simulator and by live AIS feeds.
type PositionEvent struct {
	MMSI       string
	Name       string
	Sector     string
	Lat        float64
	Lon        float64
	SpeedKnots float64
	HeadingDeg float64
	ObservedAt time.Time
	Simulated  bool
}

// sector describes one simulated port approach: spawn center, spawn spread,
// speed band, MMSI numbering and display naming.
type sector struct {
	name       string
	centerLat  float64
	centerLon  float64
	spreadLat  float64
	spreadLon  float64
	minSpeed   float64
	speedRange float64
	mmsiPrefix string
	mmsiOffset int
	nameFormat string
}

// Simulated port sectors: Singapore Strait plus three Indian port approaches.
var sectors = []sector{
	{
		name:      "Singapore",
		centerLat: 1.25, centerLon: 103.8,
		spreadLat: 0.1, spreadLon: 0.2,
		minSpeed: 10.0, speedRange: 10.0,
		mmsiPrefix: "563", nameFormat: "SG Lion %d",
	},
	{
		name:      "India",
		centerLat: 18.9, centerLon: 72.8,
		spreadLat: 0.1, spreadLon: 0.1,
		minSpeed: 8.0, speedRange: 8.0,
		mmsiPrefix: "419", nameFormat: "IND Sagar %d",
	},
	{
		name:      "Visakhapatnam",
		centerLat: 17.7, centerLon: 83.3,
		spreadLat: 0.05, spreadLon: 0.05,
		minSpeed: 5.0, speedRange: 5.0,
		mmsiPrefix: "419", mmsiOffset: 500, nameFormat: "VSKP Port %d",
	},
	{
		name:      "Mangalore",
		centerLat: 12.9, centerLon: 74.8,
		spreadLat: 0.05, spreadLon: 0.05,
		minSpeed: 6.0, speedRange: 6.0,
		mmsiPrefix: "419", mmsiOffset: 800, nameFormat: "NMPT Port %d",
	},
}

// SectorBoundingBoxes returns [[lonMin, latMin], [lonMax, latMax]] boxes for
// AIS feed subscriptions covering all simulated sectors.
func SectorBoundingBoxes() [][][]float64 {
	boxes := make([][][]float64, 0, len(sectors))
	for _, s := range sectors {
		boxes = append(boxes, [][]float64{
			{s.centerLon - s.spreadLon, s.centerLat - s.spreadLat},
			{s.centerLon + s.spreadLon, s.centerLat + s.spreadLat},
		})
	}
	return boxes
}

// SectorName maps a coordinate to the sector it falls in, or "Unknown".
func SectorName(lat, lon float64) string {
	for _, s := range sectors {
		if lat >= s.centerLat-s.spreadLat && lat <= s.centerLat+s.spreadLat &&
			lon >= s.centerLon-s.spreadLon && lon <= s.centerLon+s.spreadLon {
			return s.name
		}
	}
	return "Unknown"
}

type simVessel struct {
	mmsi    string
	name    string
	sector  string
	lat     float64
	lon     float64
	speed   float64
	heading float64
}

// Simulator generates fleet movements across the fixed sectors when no live
// AIS feed is configured. Not safe for concurrent use; the tracking loop owns
// it and only touches it between fan-outs.
type Simulator struct {
	rng     *rand.Rand
	vessels []*simVessel
	now     func() time.Time
}

// NewSimulator seeds a fleet with perSector vessels in every sector.
func NewSimulator(perSector int, seed int64) *Simulator {
	s := &Simulator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
	s.Reset(perSector)
	return s
}

// Reset respawns the fleet with a new per-sector density.
func (s *Simulator) Reset(perSector int) {
	if perSector <= 0 {
		perSector = 5
	}
	s.vessels = s.vessels[:0]
	for _, sec := range sectors {
		for i := 0; i < perSector; i++ {
			s.vessels = append(s.vessels, &simVessel{
				mmsi:    fmt.Sprintf("%s%03d", sec.mmsiPrefix, sec.mmsiOffset+i),
				name:    fmt.Sprintf(sec.nameFormat, i+1),
				sector:  sec.name,
				lat:     sec.centerLat + (s.rng.Float64()-0.5)*sec.spreadLat,
				lon:     sec.centerLon + (s.rng.Float64()-0.5)*sec.spreadLon,
				speed:   sec.minSpeed + s.rng.Float64()*sec.speedRange,
				heading: s.rng.Float64() * 360,
			})
		}
	}
}

// Advance moves every vessel one tick and returns the resulting positions.
func (s *Simulator) Advance() []PositionEvent {
	now := s.now().UTC()
	events := make([]PositionEvent, 0, len(s.vessels))
	for _, v := range s.vessels {
		latDir, lonDir := 1.0, -1.0
		if v.heading >= 180 {
			latDir = -1.0
		}
		if v.heading > 90 && v.heading < 270 {
			lonDir = 1.0
		}
		v.lat += s.rng.Float64() * 0.001 * latDir
		v.lon += s.rng.Float64() * 0.001 * lonDir
		v.speed += s.rng.Float64() - 0.5
		if v.speed < 0 {
			v.speed = 0
		} else if v.speed > 25 {
			v.speed = 25
		}

		events = append(events, PositionEvent{
			MMSI:       v.mmsi,
			Name:       v.name,
			Sector:     v.sector,
			Lat:        v.lat,
			Lon:        v.lon,
			SpeedKnots: v.speed,
			HeadingDeg: v.heading,
			ObservedAt: now,
			Simulated:  true,
		})
	}
	return events
}

// FleetSize reports the current number of simulated vessels.
func (s *Simulator) FleetSize() int {
	return len(s.vessels)
}
