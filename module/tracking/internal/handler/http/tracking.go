package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
)

type locationService interface {
	RecordLocation(ctx context.Context, sample *domain.LocationSample) (*domain.LocationSample, error)
	RecordLocationsBulk(ctx context.Context, samples []domain.LocationSample) *domain.BulkResult
	GetCurrentLocation(ctx context.Context, vehicleID string) (*domain.CurrentLocation, error)
	GetMultipleCurrentLocations(ctx context.Context, vehicleIDs []string) []domain.CurrentLocation
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.LocationSample, error)
}

type speedService interface {
	GetSpeedAnalytics(ctx context.Context, vehicleID string, start, end time.Time) (*domain.SpeedAnalytics, error)
	GetFleetSpeedStats(ctx context.Context, schoolID string, start, end time.Time) (*domain.FleetSpeedStats, error)
	ListViolations(ctx context.Context, query *domain.ViolationQuery) ([]domain.SpeedViolation, error)
}

type geofenceService interface {
	Create(ctx context.Context, gf *domain.Geofence) (*domain.Geofence, error)
	List(ctx context.Context, vehicleID string) ([]domain.Geofence, error)
	Update(ctx context.Context, gf *domain.Geofence) error
	Delete(ctx context.Context, id string) error
	CheckViolation(ctx context.Context, vehicleID string, lat, lon float64) error
}

type etaService interface {
	CalculateETA(ctx context.Context, vehicleID string) (*domain.ETAEstimate, error)
	AnalyzeETA(ctx context.Context, vehicleID string) (*domain.ETAAnalysis, error)
	PredictETA(ctx context.Context, vehicleID, stopID string) (*domain.ETAPrediction, error)
	AdvanceStop(vehicleID string, completedIndex int)
}

type statsService interface {
	GetTrackingStats(ctx context.Context, vehicleID string, days int) (*domain.TrackingStats, error)
}

type TrackingHandler struct {
	locations locationService
	speed     speedService
	geofences geofenceService
	eta       etaService
	stats     statsService
}

func NewTrackingHandler(locations locationService, speed speedService, geofences geofenceService, eta etaService, stats statsService) *TrackingHandler {
	return &TrackingHandler{
		locations: locations,
		speed:     speed,
		geofences: geofences,
		eta:       eta,
		stats:     stats,
	}
}

func (h *TrackingHandler) Register(r *gin.RouterGroup) {
	r.POST("/locations", h.RecordLocation)
	r.POST("/locations/bulk", h.RecordLocationsBulk)
	r.GET("/locations/current", h.GetMultipleCurrentLocations)
	r.GET("/locations/history", h.GetHistory)

	r.GET("/vehicles/:vehicle_id/location", h.GetCurrentLocation)
	r.GET("/vehicles/:vehicle_id/speed", h.GetSpeedAnalytics)
	r.GET("/vehicles/:vehicle_id/stats", h.GetTrackingStats)

	r.GET("/fleet/speed", h.GetFleetSpeedStats)
	r.GET("/violations", h.ListViolations)

	r.POST("/vehicles/:vehicle_id/geofences", h.CreateGeofence)
	r.GET("/vehicles/:vehicle_id/geofences", h.ListGeofences)
	r.GET("/vehicles/:vehicle_id/geofences/check", h.CheckGeofence)
	r.PUT("/geofences/:geofence_id", h.UpdateGeofence)
	r.DELETE("/geofences/:geofence_id", h.DeleteGeofence)

	r.GET("/vehicles/:vehicle_id/eta", h.CalculateETA)
	r.GET("/vehicles/:vehicle_id/eta/analysis", h.AnalyzeETA)
	r.GET("/vehicles/:vehicle_id/eta/predict/:stop_id", h.PredictETA)
	r.POST("/vehicles/:vehicle_id/progress", h.AdvanceStop)
}

// writeError maps the domain taxonomy onto status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type sampleRequest struct {
	VehicleID string   `json:"vehicle_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Speed     *float64 `json:"speed"`
	Heading   *float64 `json:"heading"`
	Accuracy  *float64 `json:"accuracy"`
	Altitude  *float64 `json:"altitude"`
	Timestamp int64    `json:"timestamp"`
	TripID    string   `json:"trip_id"`
}

func (r *sampleRequest) toSample() domain.LocationSample {
	s := domain.LocationSample{
		VehicleID: r.VehicleID,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Speed:     r.Speed,
		Heading:   r.Heading,
		Accuracy:  r.Accuracy,
		Altitude:  r.Altitude,
		TripID:    r.TripID,
	}
	if r.Timestamp > 0 {
		s.Timestamp = time.Unix(r.Timestamp, 0)
	}
	return s
}

func (h *TrackingHandler) RecordLocation(c *gin.Context) {
	var req sampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sample := req.toSample()
	created, err := h.locations.RecordLocation(c.Request.Context(), &sample)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *TrackingHandler) RecordLocationsBulk(c *gin.Context) {
	var reqs []sampleRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	samples := make([]domain.LocationSample, len(reqs))
	for i := range reqs {
		samples[i] = reqs[i].toSample()
	}
	c.JSON(http.StatusOK, h.locations.RecordLocationsBulk(c.Request.Context(), samples))
}

func (h *TrackingHandler) GetCurrentLocation(c *gin.Context) {
	loc, err := h.locations.GetCurrentLocation(c.Request.Context(), c.Param("vehicle_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

func (h *TrackingHandler) GetMultipleCurrentLocations(c *gin.Context) {
	ids := strings.Split(c.Query("ids"), ",")
	filtered := ids[:0]
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			filtered = append(filtered, id)
		}
	}
	c.JSON(http.StatusOK, h.locations.GetMultipleCurrentLocations(c.Request.Context(), filtered))
}

func (h *TrackingHandler) GetHistory(c *gin.Context) {
	query := &domain.HistoryQuery{
		VehicleID: c.Query("vehicle_id"),
		TripID:    c.Query("trip_id"),
		Start:     unixQuery(c, "start"),
		End:       unixQuery(c, "end"),
		Page:      intQuery(c, "page", 1),
		Limit:     intQuery(c, "limit", 100),
	}

	samples, err := h.locations.GetHistory(c.Request.Context(), query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, samples)
}

func (h *TrackingHandler) GetSpeedAnalytics(c *gin.Context) {
	start := unixQuery(c, "start")
	end := unixQuery(c, "end")
	if start.IsZero() || end.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end are required"})
		return
	}

	analytics, err := h.speed.GetSpeedAnalytics(c.Request.Context(), c.Param("vehicle_id"), start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (h *TrackingHandler) GetFleetSpeedStats(c *gin.Context) {
	start := unixQuery(c, "start")
	end := unixQuery(c, "end")
	if start.IsZero() || end.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end are required"})
		return
	}

	stats, err := h.speed.GetFleetSpeedStats(c.Request.Context(), c.Query("school_id"), start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *TrackingHandler) ListViolations(c *gin.Context) {
	query := &domain.ViolationQuery{
		VehicleID: c.Query("vehicle_id"),
		Severity:  domain.Severity(c.Query("severity")),
		Start:     unixQuery(c, "start"),
		End:       unixQuery(c, "end"),
		Page:      intQuery(c, "page", 1),
		Limit:     intQuery(c, "limit", 50),
	}

	violations, err := h.speed.ListViolations(c.Request.Context(), query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, violations)
}

func (h *TrackingHandler) CreateGeofence(c *gin.Context) {
	var gf domain.Geofence
	if err := c.ShouldBindJSON(&gf); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	gf.VehicleID = c.Param("vehicle_id")

	created, err := h.geofences.Create(c.Request.Context(), &gf)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *TrackingHandler) ListGeofences(c *gin.Context) {
	fences, err := h.geofences.List(c.Request.Context(), c.Param("vehicle_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, fences)
}

func (h *TrackingHandler) UpdateGeofence(c *gin.Context) {
	var gf domain.Geofence
	if err := c.ShouldBindJSON(&gf); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	gf.ID = c.Param("geofence_id")

	if err := h.geofences.Update(c.Request.Context(), &gf); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gf)
}

func (h *TrackingHandler) DeleteGeofence(c *gin.Context) {
	if err := h.geofences.Delete(c.Request.Context(), c.Param("geofence_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TrackingHandler) CheckGeofence(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lon, err2 := strconv.ParseFloat(c.Query("lon"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon are required"})
		return
	}

	if err := h.geofences.CheckViolation(c.Request.Context(), c.Param("vehicle_id"), lat, lon); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checked": true})
}

func (h *TrackingHandler) CalculateETA(c *gin.Context) {
	est, err := h.eta.CalculateETA(c.Request.Context(), c.Param("vehicle_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, est)
}

func (h *TrackingHandler) AnalyzeETA(c *gin.Context) {
	analysis, err := h.eta.AnalyzeETA(c.Request.Context(), c.Param("vehicle_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if analysis == nil {
		c.JSON(http.StatusOK, gin.H{"available": false})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *TrackingHandler) PredictETA(c *gin.Context) {
	pred, err := h.eta.PredictETA(c.Request.Context(), c.Param("vehicle_id"), c.Param("stop_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pred)
}

func (h *TrackingHandler) AdvanceStop(c *gin.Context) {
	var req struct {
		CompletedStopIndex *int `json:"completed_stop_index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.CompletedStopIndex == nil || *req.CompletedStopIndex < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "completed_stop_index is required"})
		return
	}

	h.eta.AdvanceStop(c.Param("vehicle_id"), *req.CompletedStopIndex)
	c.JSON(http.StatusOK, gin.H{"next_stop_index": *req.CompletedStopIndex + 1})
}

func (h *TrackingHandler) GetTrackingStats(c *gin.Context) {
	stats, err := h.stats.GetTrackingStats(c.Request.Context(), c.Param("vehicle_id"), intQuery(c, "days", 7))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func unixQuery(c *gin.Context, key string) time.Time {
	v, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil || v <= 0 {
		return time.Time{}
	}
	return time.Unix(v, 0)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
