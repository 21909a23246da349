package weathercache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/maritime-esg/esg-analytics/internal/domain/weather"
)

// ValkeyStore shares the weather grid cache across instances through a
// Valkey-compatible database. TTL handling is delegated to the server.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "weather"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Get(ctx context.Context, key string) (weather.Observation, bool, error) {
	cmd := s.client.B().Get().Key(s.cellKey(key)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return weather.Observation{}, false, nil
		}
		return weather.Observation{}, false, err
	}
	var obs weather.Observation
	if err := json.Unmarshal([]byte(payload), &obs); err != nil {
		return weather.Observation{}, false, err
	}
	return obs, true, nil
}

func (s *ValkeyStore) Set(ctx context.Context, key string, obs weather.Observation, ttl time.Duration) error {
	payload, err := json.Marshal(obs)
	if err != nil {
		return err
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	cmd := s.client.B().Set().Key(s.cellKey(key)).Value(string(payload)).Ex(ttl).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) cellKey(key string) string {
	return s.prefix + ":cell:" + key
}

var _ weather.Store = (*ValkeyStore)(nil)
