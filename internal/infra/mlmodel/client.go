package mlmodel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maritime-esg/esg-analytics/internal/domain/emission"
)

const defaultTimeout = 10 * time.Second

// predictRequest is the payload sent to the model-serving sidecar.
type predictRequest struct {
	Features []float64 `json:"features"`
}

// predictResponse carries the regressor output in log1p space.
type predictResponse struct {
	Prediction float64 `json:"prediction"`
}

// ModelInfo describes the model the sidecar currently serves.
type ModelInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	FeatureNames []string `json:"feature_names"`
	TrainedAt    string   `json:"trained_at,omitempty"`
}

// Client performs HTTP requests to the model-serving sidecar.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a model client.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("model server url cannot be empty")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Predict runs one inference. The returned value is in log1p space.
func (c *Client) Predict(ctx context.Context, features [emission.NumFeatures]float64) (float64, error) {
	payload, err := json.Marshal(predictRequest{Features: features[:]})
	if err != nil {
		return 0, fmt.Errorf("encode predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request prediction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return 0, fmt.Errorf("model server request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode prediction: %w", err)
	}
	return out.Prediction, nil
}

// Info fetches metadata about the served model.
func (c *Client) Info(ctx context.Context) (ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/model/info", nil)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("build model info request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("request model info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return ModelInfo{}, fmt.Errorf("model info request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var info ModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return ModelInfo{}, fmt.Errorf("decode model info: %w", err)
	}
	return info, nil
}

var _ emission.Predictor = (*Client)(nil)
