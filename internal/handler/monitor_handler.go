package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exproctor/internal/middleware"
	"github.com/stemsi/exproctor/internal/model"
	"github.com/stemsi/exproctor/internal/relay"
	"github.com/stemsi/exproctor/internal/response"
	"github.com/stemsi/exproctor/internal/service"
)

const (
	refreshInterval   = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second // prevent slow queries from blocking the SSE loop
)

// MonitorHandler streams exam progress to the exam's owner over SSE.
type MonitorHandler struct {
	resultService *service.ResultService
	hub           *relay.Hub
	refreshEvery  time.Duration
	log           zerolog.Logger
}

func NewMonitorHandler(resultService *service.ResultService, hub *relay.Hub, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		resultService: resultService,
		hub:           hub,
		refreshEvery:  refreshInterval,
		log:           log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorExamSSE godoc
// GET /api/v1/results/exam/:exam_id/monitor
// Sends a "snapshot" event on connect and every refresh interval afterwards.
func (h *MonitorHandler) MonitorExamSSE(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	reqCtx := c.Request.Context()

	// Ownership and existence errors must be reported before the stream starts.
	snap, err := h.snapshot(reqCtx, examID, claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.log.Info().Str("exam_id", examID.String()).Str("teacher_id", claims.UserID.String()).Msg("Teacher attached to exam monitor")

	c.SSEvent("snapshot", snap)
	c.Writer.Flush()

	refreshTicker := time.NewTicker(h.refreshEvery)
	defer refreshTicker.Stop()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Str("exam_id", examID.String()).Msg("Teacher detached from exam monitor")
			return

		case <-refreshTicker.C:
			snap, err := h.snapshot(reqCtx, examID, claims.UserID)
			if err != nil {
				// Keep the stream open; the next tick retries.
				h.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Monitor refresh failed")
				continue
			}
			c.SSEvent("snapshot", snap)
			c.Writer.Flush()

		case <-keepAliveTicker.C:
			c.SSEvent("ping", gin.H{"type": "ping"})
			c.Writer.Flush()
		}
	}
}

func (h *MonitorHandler) snapshot(ctx context.Context, examID, teacherID uuid.UUID) (*model.MonitorSnapshot, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	snap, err := h.resultService.MonitorSnapshot(fetchCtx, examID, teacherID)
	if err != nil {
		return nil, err
	}
	snap.LiveConnections = h.hub.RoomSize(examID.String())
	return snap, nil
}
