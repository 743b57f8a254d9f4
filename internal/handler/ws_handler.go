package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exproctor/internal/middleware"
	"github.com/stemsi/exproctor/internal/model"
	"github.com/stemsi/exproctor/internal/relay"
	"github.com/stemsi/exproctor/internal/service"
	ws "github.com/stemsi/exproctor/internal/websocket"
	"github.com/stemsi/exproctor/internal/worker"
)

// maxEventLength matches the limit on the HTTP proctoring-log route.
const maxEventLength = 255

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// ProctorWSHandler serves the proctoring relay socket. It authorizes every
// client action against the caller's token and hands routing to the hub.
type ProctorWSHandler struct {
	hub           *relay.Hub
	resultService *service.ResultService
	queue         *worker.ProctoringQueue
	queueSize     int
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewProctorWSHandler creates a new ProctorWSHandler.
func NewProctorWSHandler(
	hub *relay.Hub,
	resultService *service.ResultService,
	queue *worker.ProctoringQueue,
	queueSize int,
	log zerolog.Logger,
	allowedOrigins []string,
) *ProctorWSHandler {
	return &ProctorWSHandler{
		hub:           hub,
		resultService: resultService,
		queue:         queue,
		queueSize:     queueSize,
		log:           log.With().Str("component", "proctor_ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// Proctor godoc
// WS /ws/v1/proctor?token=...
// Upgrades to WebSocket for proctoring signaling and control.
func (h *ProctorWSHandler) Proctor(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(conn, h.queueSize, h.log)
	wsLog := h.log.With().
		Str("conn_id", client.ID()).
		Str("user_id", claims.UserID.String()).
		Str("role", string(claims.Role)).
		Logger()

	h.hub.Register(client)
	go client.WritePump()
	defer func() {
		h.hub.Unregister(client.ID())
		client.Close()
	}()

	wsLog.Info().Msg("Client connected")

	client.PrepareRead()
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Event {
		case ws.ActionJoinProctoringRoom:
			h.handleJoinProctoringRoom(client, claims, msg.Data)
		case ws.ActionJoinExamRoom:
			h.handleJoinExamRoom(c.Request.Context(), client, claims, msg.Data)
		case ws.ActionWebRTCOffer:
			h.handleSignal(client, relay.SignalOffer, msg.Data)
		case ws.ActionWebRTCAnswer:
			h.handleSignal(client, relay.SignalAnswer, msg.Data)
		case ws.ActionWebRTCICECandidate:
			h.handleSignal(client, relay.SignalICECandidate, msg.Data)
		case ws.ActionExpelStudent:
			h.handleExpel(client, claims, msg.Data)
		case ws.ActionProctoringEvent:
			h.handleProctoringEvent(c.Request.Context(), client, claims, msg.Data, wsLog)
		default:
			wsLog.Warn().Str("action", string(msg.Event)).Msg("Unknown action")
			sendError(client, "unknown action: "+string(msg.Event))
		}
	}
}

func (h *ProctorWSHandler) handleJoinProctoringRoom(client *ws.Client, claims *service.Claims, data json.RawMessage) {
	if claims.Role != model.RoleTeacher {
		sendError(client, "only teachers can join a proctoring room")
		return
	}

	var req ws.JoinProctoringRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		sendError(client, "invalid payload")
		return
	}
	examID, ok := canonicalExamID(req.ExamID)
	if !ok {
		sendError(client, "examId must be a valid exam id")
		return
	}

	if err := h.hub.JoinAsTeacher(client.ID(), examID); err != nil {
		sendError(client, err.Error())
	}
}

func (h *ProctorWSHandler) handleJoinExamRoom(ctx context.Context, client *ws.Client, claims *service.Claims, data json.RawMessage) {
	if claims.Role != model.RoleStudent {
		sendError(client, "only students can join an exam room")
		return
	}

	var req ws.JoinExamRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		sendError(client, "invalid payload")
		return
	}
	examID, ok := canonicalExamID(req.ExamID)
	if !ok {
		sendError(client, "examId must be a valid exam id")
		return
	}
	// Events from this room are persisted later, so the exam must exist now.
	if err := h.resultService.CheckExam(ctx, uuid.MustParse(examID)); err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			sendError(client, "exam not found")
			return
		}
		h.log.Error().Err(err).Str("conn_id", client.ID()).Msg("Failed to look up exam")
		sendError(client, "internal error")
		return
	}

	// The identity announced to proctors is the verified one.
	name := req.StudentName
	if name == "" {
		name = claims.Name
	}
	if req.StudentID != "" && req.StudentID != claims.UserID.String() {
		h.log.Warn().
			Str("conn_id", client.ID()).
			Str("claimed", req.StudentID).
			Msg("Ignoring student id that does not match the token")
	}

	if err := h.hub.JoinAsStudent(client.ID(), examID, claims.UserID.String(), name); err != nil {
		sendError(client, err.Error())
	}
}

func (h *ProctorWSHandler) handleSignal(client *ws.Client, kind relay.SignalKind, data json.RawMessage) {
	var req ws.SignalRequest
	if err := json.Unmarshal(data, &req); err != nil || req.TargetConnectionID == "" {
		sendError(client, "targetConnectionId is required")
		return
	}

	var payload json.RawMessage
	switch kind {
	case relay.SignalOffer:
		payload = req.Offer
	case relay.SignalAnswer:
		payload = req.Answer
	case relay.SignalICECandidate:
		payload = req.Candidate
	}

	h.hub.Relay(kind, client.ID(), req.TargetConnectionID, payload)
}

func (h *ProctorWSHandler) handleExpel(client *ws.Client, claims *service.Claims, data json.RawMessage) {
	if claims.Role != model.RoleTeacher {
		sendError(client, "only teachers can expel students")
		return
	}

	var req ws.ExpelStudentRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Target() == "" {
		sendError(client, "targetConnectionId is required")
		return
	}

	if h.hub.Expel(req.Target()) {
		h.log.Info().
			Str("conn_id", client.ID()).
			Str("target", req.Target()).
			Msg("Student expelled")
	}
}

// handleProctoringEvent broadcasts the event live and queues it for
// persistence. When the queue is unavailable the event is stored directly.
func (h *ProctorWSHandler) handleProctoringEvent(ctx context.Context, client *ws.Client, claims *service.Claims, data json.RawMessage, wsLog zerolog.Logger) {
	if claims.Role != model.RoleStudent {
		sendError(client, "only students can report proctoring events")
		return
	}

	p, ok := h.hub.Participant(client.ID())
	if !ok || p.ExamID == "" {
		sendError(client, "join an exam room first")
		return
	}

	var req ws.ProctoringEventRequest
	if err := json.Unmarshal(data, &req); err != nil || strings.TrimSpace(req.Event) == "" {
		sendError(client, "event is required")
		return
	}
	if len(req.Event) > maxEventLength {
		sendError(client, "event is too long")
		return
	}

	ev := model.ProctoringEvent{
		ExamID:      uuid.MustParse(p.ExamID),
		StudentID:   claims.UserID,
		StudentName: p.StudentName,
		Event:       req.Event,
		Timestamp:   time.Now().UTC(),
	}

	h.resultService.Broadcast(ev)

	if err := h.queue.Enqueue(ctx, ev); err != nil {
		wsLog.Warn().Err(err).Msg("Proctoring queue unavailable, storing directly")
		if err := h.resultService.RecordProctoringEvent(ctx, ev); err != nil {
			wsLog.Error().Err(err).Msg("Failed to store proctoring event")
		}
	}
}

func sendError(client *ws.Client, msg string) {
	client.Send(relay.Frame{Event: relay.EventError, Data: relay.ErrorData{Error: msg}})
}

// canonicalExamID returns the canonical form of an exam id, so every
// spelling of one id maps to the same room.
func canonicalExamID(raw string) (string, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
