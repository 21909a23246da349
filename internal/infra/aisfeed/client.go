package aisfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/maritime-esg/esg-analytics/internal/domain/tracking"
)

const defaultStreamURL = "wss://stream.aisstream.io/v0/stream"

type subscribeMessage struct {
	APIKey             string        `json:"APIKey"`
	BoundingBoxes      [][][]float64 `json:"BoundingBoxes"`
	FiltersShipMMSI    []string      `json:"FiltersShipMMSI,omitempty"`
	FilterMessageTypes []string      `json:"FilterMessageTypes"`
}

type streamMessage struct {
	MessageType string `json:"MessageType"`
	Message     struct {
		PositionReport struct {
			UserID    int64   `json:"UserID"`
			Latitude  float64 `json:"Latitude"`
			Longitude float64 `json:"Longitude"`
			Sog       float64 `json:"Sog"`
			Cog       float64 `json:"Cog"`
		} `json:"PositionReport"`
	} `json:"Message"`
}

// Client subscribes to aisstream.io position reports over WebSocket and
// implements the tracking feed. Sector bounding boxes bound the subscription
// to the monitored port approaches.
type Client struct {
	apiKey    string
	streamURL string
	logger    *slog.Logger
	now       func() time.Time
}

// NewClient constructs the feed client.
func NewClient(apiKey, streamURL string, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("aisstream api key cannot be empty")
	}
	if strings.TrimSpace(streamURL) == "" {
		streamURL = defaultStreamURL
	}
	return &Client{
		apiKey:    apiKey,
		streamURL: streamURL,
		logger:    logger.With("component", "aisfeed.client"),
		now:       time.Now,
	}, nil
}

// Run connects, subscribes and forwards position reports until the context is
// canceled or the connection drops.
func (c *Client) Run(ctx context.Context, events chan<- tracking.PositionEvent) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.streamURL, nil)
	if err != nil {
		return fmt.Errorf("dial ais stream: %w", err)
	}
	defer conn.Close()

	sub := subscribeMessage{
		APIKey:             c.apiKey,
		BoundingBoxes:      tracking.SectorBoundingBoxes(),
		FilterMessageTypes: []string{"PositionReport"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe ais stream: %w", err)
	}
	c.logger.Info("ais stream subscribed", "sectors", len(sub.BoundingBoxes))

	// Unblock ReadMessage when the context goes away.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read ais stream: %w", err)
		}

		var msg streamMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.logger.Warn("skipping malformed ais message", "error", err)
			continue
		}
		if !strings.Contains(msg.MessageType, "PositionReport") {
			continue
		}

		report := msg.Message.PositionReport
		mmsi := fmt.Sprintf("%d", report.UserID)
		ev := tracking.PositionEvent{
			MMSI:       mmsi,
			Name:       vesselDisplayName(mmsi),
			Sector:     tracking.SectorName(report.Latitude, report.Longitude),
			Lat:        report.Latitude,
			Lon:        report.Longitude,
			SpeedKnots: report.Sog,
			HeadingDeg: report.Cog,
			ObservedAt: c.now().UTC(),
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Feed outpaces the analysis loop; drop rather than buffer stale
			// positions.
		}
	}
}

func vesselDisplayName(mmsi string) string {
	suffix := mmsi
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return "Vessel " + suffix
}

var _ tracking.Feed = (*Client)(nil)
