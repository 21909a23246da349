package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/maritime-esg/esg-analytics/internal/infra/config"
)

func newRateLimitedEngine(cfg config.RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := gin.New()
	router.Use(errorHandlingMiddleware(logger), rateLimitMiddleware(cfg, logger))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func pingFrom(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitEnforcesBurst(t *testing.T) {
	router := newRateLimitedEngine(config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 60,
		Burst:             2,
	})

	require.Equal(t, http.StatusOK, pingFrom(router, "10.0.0.1:4000").Code)
	require.Equal(t, http.StatusOK, pingFrom(router, "10.0.0.1:4000").Code)

	rec := pingFrom(router, "10.0.0.1:4000")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "rate_limit_exceeded", body["error"]["code"])
}

func TestRateLimitIsolatesClientIPs(t *testing.T) {
	router := newRateLimitedEngine(config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 60,
		Burst:             1,
	})

	require.Equal(t, http.StatusOK, pingFrom(router, "10.0.0.1:4000").Code)
	require.Equal(t, http.StatusTooManyRequests, pingFrom(router, "10.0.0.1:4000").Code)

	// A different client still has its own full bucket.
	require.Equal(t, http.StatusOK, pingFrom(router, "10.0.0.2:4000").Code)
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	router := newRateLimitedEngine(config.RateLimitConfig{Enabled: false})

	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, pingFrom(router, "10.0.0.1:4000").Code)
	}
}
