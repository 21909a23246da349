package tracking

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maritime-esg/esg-analytics/internal/domain/analysis"
	"github.com/maritime-esg/esg-analytics/internal/domain/emission"
	"github.com/maritime-esg/esg-analytics/internal/domain/vessel"
	"github.com/maritime-esg/esg-analytics/internal/domain/weather"
)

// Analyzer runs the full assessment pipeline for one vessel.
type Analyzer interface {
	Analyze(ctx context.Context, in analysis.Input) (analysis.Result, error)
}

// WeatherFetcher resolves weather at a coordinate. Never fails.
type WeatherFetcher interface {
	Fetch(ctx context.Context, lat, lon float64) weather.Observation
}

// Broadcaster pushes a serialized snapshot to every live subscriber.
type Broadcaster interface {
	Broadcast(message []byte)
}

// Feed produces live AIS position events. Run blocks until the context is
// canceled or the upstream connection is lost.
type Feed interface {
	Run(ctx context.Context, events chan<- PositionEvent) error
}

// Config wires runtime settings for the tracking loop.
type Config struct {
	TickInterval     time.Duration
	VesselsPerSector int
	Seed             int64
	Projection       vessel.ProjectionDefaults
}

// Snapshot is one vessel's state broadcast per tick.
type Snapshot struct {
	MMSI       string    `json:"mmsi"`
	VesselName string    `json:"vessel_name"`
	Sector     string    `json:"sector"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	SpeedKnots float64   `json:"speed"`
	HeadingDeg float64   `json:"heading"`
	Timestamp  time.Time `json:"timestamp"`

	ESGScore  int      `json:"esg_score"`
	ESGColor  string   `json:"esg_color"`
	RiskFlags []string `json:"risk_flags"`

	Weather   *weather.Observation        `json:"weather,omitempty"`
	Emissions *emission.AdjustedEmissions `json:"emissions,omitempty"`

	Degraded  bool `json:"degraded,omitempty"`
	Simulated bool `json:"is_simulation,omitempty"`
}

type controlMessage struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Service drives the live tracking loop: every tick it advances the fleet,
// analyzes each vessel concurrently and broadcasts one snapshot per vessel.
// The loop starts lazily on the first subscriber and keeps running with zero
// subscribers (broadcast is then a no-op).
type Service struct {
	cfg         Config
	analyzer    Analyzer
	weather     WeatherFetcher
	broadcaster Broadcaster
	feed        Feed
	logger      *slog.Logger

	startOnce    sync.Once
	stopOnce     sync.Once
	cancel       context.CancelFunc
	pendingCount atomic.Int64
}

// NewService constructs the tracking service. feed may be nil; the loop then
// runs on the built-in simulator.
func NewService(
	cfg Config,
	analyzer Analyzer,
	weatherFetcher WeatherFetcher,
	broadcaster Broadcaster,
	feed Feed,
	logger *slog.Logger,
) *Service {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 2 * time.Second
	}
	if cfg.VesselsPerSector <= 0 {
		cfg.VesselsPerSector = 5
	}
	s := &Service{
		cfg:         cfg,
		analyzer:    analyzer,
		weather:     weatherFetcher,
		broadcaster: broadcaster,
		feed:        feed,
		logger:      logger.With("component", "tracking.service"),
	}
	s.pendingCount.Store(-1)
	return s
}

// EnsureStarted launches the loop on first call; later calls are no-ops. The
// loop runs until Stop and does not restart.
func (s *Service) EnsureStarted() {
	s.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		go s.run(ctx)
	})
}

// Stop terminates a running loop. Safe to call without a prior start.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// HandleControl processes a subscriber control message. An UPDATE_COUNT
// request takes effect at the start of the next tick.
func (s *Service) HandleControl(raw []byte) {
	var msg controlMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.logger.Warn("ignoring malformed control message", "error", err)
		return
	}
	if msg.Type == "UPDATE_COUNT" {
		count := msg.Count
		if count <= 0 {
			count = 5
		}
		s.pendingCount.Store(int64(count))
		s.logger.Info("fleet density update queued", "per_sector", count)
	}
}

func (s *Service) run(ctx context.Context) {
	if s.feed != nil {
		s.logger.Info("tracking loop started", "mode", "ais_feed")
		if err := s.runFeed(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("ais feed stopped, switching to simulation", "error", err)
		} else if ctx.Err() != nil {
			return
		}
	}
	s.logger.Info("tracking loop started", "mode", "simulation",
		"tick", s.cfg.TickInterval, "per_sector", s.cfg.VesselsPerSector)
	s.runSimulation(ctx)
}

// runFeed consumes live AIS positions, analyzing and broadcasting each as it
// arrives.
func (s *Service) runFeed(ctx context.Context) error {
	events := make(chan PositionEvent, 64)
	errc := make(chan error, 1)
	go func() { errc <- s.feed.Run(ctx, events) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			return err
		case ev := <-events:
			s.broadcast(s.analyzeEvent(ctx, ev))
		}
	}
}

// runSimulation drives the fixed-interval tick loop over simulated vessels.
func (s *Service) runSimulation(ctx context.Context) {
	sim := NewSimulator(s.cfg.VesselsPerSector, s.cfg.Seed)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("tracking loop stopped")
			return
		case <-ticker.C:
			if count := s.pendingCount.Swap(-1); count > 0 {
				sim.Reset(int(count))
				s.logger.Info("fleet density updated", "per_sector", count, "fleet_size", sim.FleetSize())
			}
			s.tick(ctx, sim.Advance())
		}
	}
}

// tick fans one vessel analysis goroutine out per position event and joins
// them all before returning. Snapshot broadcast order across vessels is not
// guaranteed.
func (s *Service) tick(ctx context.Context, events []PositionEvent) {
	var wg sync.WaitGroup
	for _, ev := range events {
		wg.Add(1)
		go func(ev PositionEvent) {
			defer wg.Done()
			s.broadcast(s.analyzeEvent(ctx, ev))
		}(ev)
	}
	wg.Wait()
}

// analyzeEvent projects one position reading into a synthetic voyage and runs
// the assessment pipeline, substituting the deterministic fallback when the
// pipeline fails.
func (s *Service) analyzeEvent(ctx context.Context, ev PositionEvent) Snapshot {
	snap := Snapshot{
		MMSI:       ev.MMSI,
		VesselName: ev.Name,
		Sector:     ev.Sector,
		Lat:        ev.Lat,
		Lon:        ev.Lon,
		SpeedKnots: ev.SpeedKnots,
		HeadingDeg: ev.HeadingDeg,
		Timestamp:  ev.ObservedAt,
		Simulated:  ev.Simulated,
	}
	if snap.Sector == "" {
		snap.Sector = SectorName(ev.Lat, ev.Lon)
	}

	obs := s.weather.Fetch(ctx, ev.Lat, ev.Lon)
	profile := vessel.Project(ev.SpeedKnots, s.cfg.Projection)

	result, err := s.analyzer.Analyze(ctx, analysis.Input{
		MMSI:            ev.MMSI,
		Profile:         profile,
		Weather:         &obs,
		SkipRecommender: true,
	})
	if err != nil {
		s.logger.Warn("vessel analysis failed, using fallback score", "mmsi", ev.MMSI, "error", err)
		score, color, flags := fallbackAssessment(ev.SpeedKnots)
		snap.ESGScore = score
		snap.ESGColor = color
		snap.RiskFlags = flags
		snap.Weather = &obs
		snap.Degraded = true
		return snap
	}

	snap.ESGScore = result.Score
	snap.ESGColor = result.Interpretation.Color
	snap.RiskFlags = result.RiskFlags
	snap.Weather = &obs
	snap.Emissions = result.Emissions
	return snap
}

func (s *Service) broadcast(snap Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error("snapshot marshal failed", "mmsi", snap.MMSI, "error", err)
		return
	}
	s.broadcaster.Broadcast(payload)
}
