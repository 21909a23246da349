package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maritime-esg/esg-analytics/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, wsHandler *WSHandler, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.CORSOrigins),
		errorHandlingMiddleware(logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, logger),
	)

	api := router.Group("/api/v1")
	{
		api.GET("/health", handler.Health)
		api.POST("/predict-emissions", handler.PredictEmissions)
		api.POST("/analyze", handler.Analyze)
		api.POST("/emissions/adjusted", handler.AdjustedEmissions)
		api.GET("/weather", handler.Weather)
		api.GET("/vessels/:mmsi/latest", handler.VesselLatest)
		api.GET("/vessels/:mmsi/history", handler.VesselHistory)
		api.GET("/esg/:mmsi", handler.VesselESG)
		api.GET("/fleet/summary", handler.FleetSummary)
		api.POST("/chat", handler.Chat)
		api.GET("/ws/live", wsHandler.Live)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
