package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maritime-esg/esg-analytics/internal/domain/analysis"
	"github.com/maritime-esg/esg-analytics/internal/domain/emission"
	"github.com/maritime-esg/esg-analytics/internal/domain/vessel"
	"github.com/maritime-esg/esg-analytics/internal/domain/weather"
	"github.com/maritime-esg/esg-analytics/internal/infra/history"
	"github.com/maritime-esg/esg-analytics/internal/infra/llm/ollama"
	apperrors "github.com/maritime-esg/esg-analytics/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	estimator   *emission.Estimator
	calculator  *emission.Calculator
	analysisSvc *analysis.Service
	weatherSvc  *weather.Service
	historySvc  history.Reader
	fleetReader analysis.FleetReader
	chatClient  *ollama.Client
	chatTimeout time.Duration
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler. chatClient may be nil; the
// chat endpoint then returns a degraded reply.
func NewHandler(
	estimator *emission.Estimator,
	calculator *emission.Calculator,
	analysisSvc *analysis.Service,
	weatherSvc *weather.Service,
	historySvc history.Reader,
	fleetReader analysis.FleetReader,
	chatClient *ollama.Client,
	chatTimeout time.Duration,
	logger *slog.Logger,
) *Handler {
	if chatTimeout <= 0 {
		chatTimeout = 30 * time.Second
	}
	return &Handler{
		estimator:   estimator,
		calculator:  calculator,
		analysisSvc: analysisSvc,
		weatherSvc:  weatherSvc,
		historySvc:  historySvc,
		fleetReader: fleetReader,
		chatClient:  chatClient,
		chatTimeout: chatTimeout,
		logger:      logger.With("component", "http.handler"),
	}
}

// profilePayload is the wire form of a vessel profile. Pointer fields
// distinguish absent values from zeros; absent becomes NaN at the domain
// boundary.
type profilePayload struct {
	MMSI               string   `json:"mmsi"`
	AvgSpeed           *float64 `json:"avg_speed"`
	SpeedStd           *float64 `json:"speed_std"`
	TotalDistanceKm    *float64 `json:"total_distance_km"`
	TimeAtSeaHours     *float64 `json:"time_at_sea_hours"`
	AccelerationEvents *float64 `json:"acceleration_events"`
	Length             *float64 `json:"length"`
	Width              *float64 `json:"width"`
	Draft              *float64 `json:"draft"`
	CO2Factor          *float64 `json:"co2_factor"`
}

func (p profilePayload) toProfile() vessel.Profile {
	return vessel.Profile{
		AvgSpeedKnots:      vessel.Num(p.AvgSpeed),
		SpeedStdKnots:      vessel.Num(p.SpeedStd),
		TotalDistanceKm:    vessel.Num(p.TotalDistanceKm),
		TimeAtSeaHours:     vessel.Num(p.TimeAtSeaHours),
		AccelerationEvents: vessel.Num(p.AccelerationEvents),
		LengthM:            vessel.Num(p.Length),
		WidthM:             vessel.Num(p.Width),
		DraftM:             vessel.Num(p.Draft),
		CO2Factor:          vessel.Num(p.CO2Factor),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PredictEmissions runs the baseline estimator directly.
func (h *Handler) PredictEmissions(c *gin.Context) {
	var req profilePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", errMessage(err), err))
		return
	}

	est, err := h.estimator.Estimate(c.Request.Context(), req.toProfile())
	if err != nil {
		abortWithError(c, estimationError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mmsi":             req.MMSI,
		"estimated_co2_kg": est.BaselineCO2Kg,
	})
}

type analyzeRequest struct {
	profilePayload
	Lat                   *float64 `json:"lat"`
	Lon                   *float64 `json:"lon"`
	IncludeRecommendation *bool    `json:"include_ai_recommendation"`
}

// Analyze runs the full assessment pipeline, with weather when coordinates
// are supplied.
func (h *Handler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", errMessage(err), err))
		return
	}

	in := analysis.Input{
		MMSI:            req.MMSI,
		Profile:         req.toProfile(),
		SkipRecommender: req.IncludeRecommendation != nil && !*req.IncludeRecommendation,
	}
	if req.Lat != nil && req.Lon != nil {
		obs := h.weatherSvc.Fetch(c.Request.Context(), *req.Lat, *req.Lon)
		in.Weather = &obs
	}

	result, err := h.analysisSvc.Analyze(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, estimationError(err))
		return
	}

	c.JSON(http.StatusOK, result)
}

type adjustedRequest struct {
	profilePayload
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// AdjustedEmissions returns baseline and weather-adjusted figures for a
// profile at a position.
func (h *Handler) AdjustedEmissions(c *gin.Context) {
	var req adjustedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", errMessage(err), err))
		return
	}
	if req.Lat == nil || req.Lon == nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "lat and lon are required", nil))
		return
	}

	obs := h.weatherSvc.Fetch(c.Request.Context(), *req.Lat, *req.Lon)
	adjusted := h.calculator.AdjustForWeather(c.Request.Context(), req.toProfile(), obs.ResistanceFactor)

	c.JSON(http.StatusOK, gin.H{
		"mmsi":      req.MMSI,
		"emissions": adjusted,
		"weather":   obs,
	})
}

// Weather returns the cached observation for a coordinate.
func (h *Handler) Weather(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "lat and lon query parameters are required", nil))
		return
	}

	c.JSON(http.StatusOK, h.weatherSvc.Fetch(c.Request.Context(), lat, lon))
}

// VesselLatest returns the newest processed record for a vessel.
func (h *Handler) VesselLatest(c *gin.Context) {
	mmsi := c.Param("mmsi")
	rec, ok, err := h.historySvc.Latest(c.Request.Context(), mmsi)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "history_failed", errMessage(err), err))
		return
	}
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "no records for vessel "+mmsi, nil))
		return
	}
	c.JSON(http.StatusOK, rec)
}

// VesselHistory returns every processed record for a vessel, oldest first.
func (h *Handler) VesselHistory(c *gin.Context) {
	mmsi := c.Param("mmsi")
	records, err := h.historySvc.History(c.Request.Context(), mmsi)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "history_failed", errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"mmsi": mmsi, "count": len(records), "records": records})
}

// VesselESG returns the ESG slice of a vessel's latest record.
func (h *Handler) VesselESG(c *gin.Context) {
	mmsi := c.Param("mmsi")
	view, ok, err := h.historySvc.ESG(c.Request.Context(), mmsi)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "history_failed", errMessage(err), err))
		return
	}
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "no records for vessel "+mmsi, nil))
		return
	}
	c.JSON(http.StatusOK, view)
}

// FleetSummary returns the aggregate over persisted assessments.
func (h *Handler) FleetSummary(c *gin.Context) {
	summary, err := h.fleetReader.Summary(c.Request.Context())
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "fleet_summary_failed", errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, summary)
}

type chatRequest struct {
	Message string           `json:"message"`
	History []ollama.Message `json:"history"`
}

// Chat proxies the ESG assistant. Model failures produce a degraded reply,
// not an error status.
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", errMessage(err), err))
		return
	}
	if req.Message == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "message cannot be empty", nil))
		return
	}

	model := "unconfigured"
	if h.chatClient != nil {
		model = h.chatClient.Model()
	}

	reply, err := h.chat(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("chat degraded", "error", err)
		c.JSON(http.StatusOK, gin.H{
			"message":   "I'm having trouble connecting to the AI model. Please ensure Ollama is running with the '" + model + "' model.",
			"model":     model,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"success":   false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   reply,
		"model":     model,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"success":   true,
	})
}

func (h *Handler) chat(ctx context.Context, req chatRequest) (string, error) {
	if h.chatClient == nil {
		return "", apperrors.Wrap("llm_unavailable", "chat model not configured", nil)
	}
	cctx, cancel := context.WithTimeout(ctx, h.chatTimeout)
	defer cancel()
	return h.chatClient.Chat(cctx, req.Message, req.History, true)
}

func estimationError(err error) *HTTPError {
	if apperrors.IsCode(err, "estimation_unavailable") {
		return NewHTTPError(http.StatusServiceUnavailable, "estimation_unavailable", errMessage(err), err)
	}
	return NewHTTPError(http.StatusInternalServerError, "analysis_failed", errMessage(err), err)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
