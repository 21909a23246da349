package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maritime-esg/esg-analytics/internal/domain/weather"
)

const (
	defaultBaseURL = "https://api.openweathermap.org"
	defaultTimeout = 5 * time.Second
)

// currentResponse mirrors the subset of the OpenWeatherMap current-weather
// payload this client consumes.
type currentResponse struct {
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	DT int64 `json:"dt"`
}

// Client fetches current weather from OpenWeatherMap. The API reports no sea
// state, so observations leave wave height NaN for the weather service to
// derive.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs an OpenWeatherMap client.
func NewClient(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openweathermap api key cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Current fetches the current observation for a coordinate.
func (c *Client) Current(ctx context.Context, lat, lon float64) (weather.Observation, error) {
	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%.4f", lat))
	query.Set("lon", fmt.Sprintf("%.4f", lon))
	query.Set("appid", c.apiKey)
	query.Set("units", "metric")

	endpoint := c.baseURL + "/data/2.5/weather?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return weather.Observation{}, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return weather.Observation{}, fmt.Errorf("request weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return weather.Observation{}, fmt.Errorf("weather request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return weather.Observation{}, fmt.Errorf("decode weather response: %w", err)
	}

	condition := weather.ConditionClouds
	if len(out.Weather) > 0 && out.Weather[0].Main != "" {
		condition = strings.ToLower(out.Weather[0].Main)
	}

	obs := weather.Observation{
		WindSpeedMS:      out.Wind.Speed,
		WindDirectionDeg: math.Mod(out.Wind.Deg+360, 360),
		Condition:        condition,
		WaveHeightM:      math.NaN(),
	}
	if out.DT > 0 {
		obs.ObservedAt = time.Unix(out.DT, 0).UTC()
	}
	return obs, nil
}

var _ weather.Provider = (*Client)(nil)
