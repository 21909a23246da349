package weather

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/singleflight"
)

// Provider fetches a raw observation for a coordinate. Implementations return
// wind and condition data; wave height may be NaN when the upstream endpoint
// does not report sea state.
type Provider interface {
	Current(ctx context.Context, lat, lon float64) (Observation, error)
}

// Store caches enriched observations by grid-cell key.
type Store interface {
	Get(ctx context.Context, key string) (Observation, bool, error)
	Set(ctx context.Context, key string, obs Observation, ttl time.Duration) error
}

// Config wires runtime settings for the weather service.
type Config struct {
	GridResolution float64
	CacheTTL       time.Duration

	DefaultWindMS     float64
	DefaultWindDirDeg float64
	DefaultWaveM      float64
	DefaultCondition  string
}

// Service resolves weather per coordinate with grid caching and degradation.
// Fetch never fails: provider errors yield the fixed default observation.
type Service struct {
	cfg      Config
	policy   ResistancePolicy
	provider Provider
	store    Store
	logger   *slog.Logger
	inflight singleflight.Group
	now      func() time.Time
}

// NewService constructs the weather service.
func NewService(cfg Config, policy ResistancePolicy, provider Provider, store Store, logger *slog.Logger) *Service {
	if cfg.GridResolution <= 0 {
		cfg.GridResolution = 0.25
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &Service{
		cfg:      cfg,
		policy:   policy,
		provider: provider,
		store:    store,
		logger:   logger.With("component", "weather.service"),
		now:      time.Now,
	}
}

// Policy exposes the active resistance policy.
func (s *Service) Policy() ResistancePolicy {
	return s.policy
}

// Fetch returns the observation for a coordinate, served from the grid cache
// when fresh. Concurrent misses for the same cell collapse into a single
// upstream call. Degrades to Default() on any provider failure.
func (s *Service) Fetch(ctx context.Context, lat, lon float64) Observation {
	if s.provider == nil {
		return s.Default()
	}

	key := s.gridKey(lat, lon)

	if obs, ok, err := s.store.Get(ctx, key); err == nil && ok {
		return obs
	} else if err != nil {
		s.logger.Warn("weather cache read failed", "key", key, "error", err)
	}

	result, err, _ := s.inflight.Do(key, func() (any, error) {
		// Re-check after winning the flight: a concurrent caller may have
		// populated the cell while this goroutine waited.
		if obs, ok, err := s.store.Get(ctx, key); err == nil && ok {
			return obs, nil
		}

		raw, err := s.provider.Current(ctx, lat, lon)
		if err != nil {
			return Observation{}, err
		}

		obs := s.enrich(raw)
		if err := s.store.Set(ctx, key, obs, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("weather cache write failed", "key", key, "error", err)
		}
		return obs, nil
	})
	if err != nil {
		s.logger.Warn("weather fetch degraded to defaults", "key", key, "error", err)
		return s.Default()
	}
	return result.(Observation)
}

// Default is the fixed observation substituted when the provider is
// unreachable or unconfigured. It satisfies every Observation invariant and
// is derived from the same resistance policy as live data.
func (s *Service) Default() Observation {
	obs := Observation{
		WindSpeedMS:      s.cfg.DefaultWindMS,
		WindDirectionDeg: s.cfg.DefaultWindDirDeg,
		Condition:        s.cfg.DefaultCondition,
		WaveHeightM:      s.cfg.DefaultWaveM,
		ObservedAt:       s.now().UTC(),
		Degraded:         true,
	}
	if obs.Condition == "" {
		obs.Condition = ConditionClouds
	}
	obs.ResistanceFactor = s.policy.Factor(obs.WindSpeedMS, obs.WaveHeightM)
	obs.StormFlag = IsStormCondition(obs.Condition)
	obs.RoughSeaFlag = obs.WaveHeightM > s.policy.RoughSeaWaveM
	return obs
}

// enrich fills derived fields on a raw provider observation.
func (s *Service) enrich(raw Observation) Observation {
	obs := raw
	if math.IsNaN(obs.WaveHeightM) {
		obs.WaveHeightM = s.policy.EstimateWaveHeight(obs.WindSpeedMS)
		obs.WaveEstimated = true
	}
	obs.ResistanceFactor = s.policy.Factor(obs.WindSpeedMS, obs.WaveHeightM)
	obs.StormFlag = IsStormCondition(obs.Condition)
	obs.RoughSeaFlag = obs.WaveHeightM > s.policy.RoughSeaWaveM
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = s.now().UTC()
	}
	return obs
}

// gridKey quantizes a coordinate to its cache cell.
func (s *Service) gridKey(lat, lon float64) string {
	res := s.cfg.GridResolution
	gridLat := math.Round(lat/res) * res
	gridLon := math.Round(lon/res) * res
	return fmt.Sprintf("%.2f,%.2f", gridLat, gridLon)
}
