// Package relay routes proctoring signaling and control frames between the
// teacher and student connections of an exam. It never inspects the payloads
// it forwards.
package relay

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"github.com/stemsi/exproctor/internal/model"
)

const shardCount = 32

var ErrUnknownConnection = errors.New("connection is not registered")

// Peer is a live connection as seen by the hub.
type Peer interface {
	ID() string
	// Send queues a frame without blocking. It returns false when the frame
	// was dropped because the connection is closed or its queue is full.
	Send(Frame) bool
}

// Participant describes what a connection joined as. ExamID is empty until
// the connection joins a room.
type Participant struct {
	ConnID      string
	Role        model.Role
	ExamID      string
	StudentID   string
	StudentName string
}

type member struct {
	peer        Peer
	participant Participant
}

type connShard struct {
	mu    sync.RWMutex
	conns map[string]*member
}

type roomShard struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Peer
}

// Hub is the connection registry and room table. Locks are sharded by
// connection id and by exam id; when both are needed the connection shard
// is always taken first.
type Hub struct {
	conns [shardCount]connShard
	rooms [shardCount]roomShard
	log   zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	h := &Hub{log: log.With().Str("component", "relay_hub").Logger()}
	for i := range h.conns {
		h.conns[i].conns = make(map[string]*member)
		h.rooms[i].rooms = make(map[string]map[string]Peer)
	}
	return h
}

func (h *Hub) connShard(connID string) *connShard {
	return &h.conns[xxhash.Sum64String(connID)%shardCount]
}

func (h *Hub) roomShard(examID string) *roomShard {
	return &h.rooms[xxhash.Sum64String(examID)%shardCount]
}

// Register adds a connection and tells it its connection id.
func (h *Hub) Register(p Peer) {
	cs := h.connShard(p.ID())
	cs.mu.Lock()
	cs.conns[p.ID()] = &member{peer: p, participant: Participant{ConnID: p.ID()}}
	cs.mu.Unlock()

	p.Send(Frame{Event: EventConnected, Data: Connected{ConnectionID: p.ID()}})
}

// Unregister removes a connection from the registry and from its room.
// When the connection was a joined student the remaining members receive
// student_left.
func (h *Hub) Unregister(connID string) {
	cs := h.connShard(connID)
	cs.mu.Lock()
	m, ok := cs.conns[connID]
	if !ok {
		cs.mu.Unlock()
		return
	}
	delete(cs.conns, connID)
	p := m.participant
	if p.ExamID != "" {
		h.leaveRoom(p.ExamID, connID)
	}
	cs.mu.Unlock()

	if p.ExamID != "" && p.Role == model.RoleStudent {
		h.broadcast(p.ExamID, connID, Frame{
			Event: EventStudentLeft,
			Data:  StudentLeft{StudentID: p.StudentID, ConnectionID: connID},
		})
	}
}

// Participant returns what connID joined as.
func (h *Hub) Participant(connID string) (Participant, bool) {
	cs := h.connShard(connID)
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	m, ok := cs.conns[connID]
	if !ok {
		return Participant{}, false
	}
	return m.participant, true
}

// JoinAsTeacher puts the connection in the room of examID. Any number of
// teachers may watch the same exam.
func (h *Hub) JoinAsTeacher(connID, examID string) error {
	return h.join(Participant{ConnID: connID, Role: model.RoleTeacher, ExamID: examID})
}

// JoinAsStudent puts the connection in the room of examID and announces it to
// every other member of the room.
func (h *Hub) JoinAsStudent(connID, examID, studentID, studentName string) error {
	err := h.join(Participant{
		ConnID:      connID,
		Role:        model.RoleStudent,
		ExamID:      examID,
		StudentID:   studentID,
		StudentName: studentName,
	})
	if err != nil {
		return err
	}

	h.broadcast(examID, connID, Frame{
		Event: EventStudentJoined,
		Data:  StudentJoined{StudentID: studentID, StudentName: studentName, ConnectionID: connID},
	})
	return nil
}

// join records the participant and moves the connection into its room. The
// last join wins: a connection belongs to at most one room.
func (h *Hub) join(p Participant) error {
	cs := h.connShard(p.ConnID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	m, ok := cs.conns[p.ConnID]
	if !ok {
		return ErrUnknownConnection
	}
	if prev := m.participant.ExamID; prev != "" && prev != p.ExamID {
		h.leaveRoom(prev, p.ConnID)
	}
	m.participant = p

	rs := h.roomShard(p.ExamID)
	rs.mu.Lock()
	room, ok := rs.rooms[p.ExamID]
	if !ok {
		room = make(map[string]Peer)
		rs.rooms[p.ExamID] = room
	}
	room[p.ConnID] = m.peer
	rs.mu.Unlock()

	h.log.Debug().
		Str("conn_id", p.ConnID).
		Str("exam_id", p.ExamID).
		Str("role", string(p.Role)).
		Msg("Joined room")
	return nil
}

func (h *Hub) leaveRoom(examID, connID string) {
	rs := h.roomShard(examID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	room, ok := rs.rooms[examID]
	if !ok {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(rs.rooms, examID)
	}
}

// Relay forwards a signaling payload from one connection to exactly one
// target. A target that no longer exists is not an error: the frame is
// dropped and false is returned.
func (h *Hub) Relay(kind SignalKind, fromConnID, targetConnID string, payload json.RawMessage) bool {
	return h.sendTo(targetConnID, Frame{
		Event: kind.event(),
		Data: map[string]any{
			kind.payloadKey():  payload,
			"fromConnectionId": fromConnID,
		},
	})
}

// Expel tells the target connection it has been removed from the exam.
// Delivery is best effort.
func (h *Hub) Expel(targetConnID string) bool {
	return h.sendTo(targetConnID, Frame{Event: EventExamExpelled})
}

// BroadcastProctoringEvent sends payload to every member of the exam room and
// returns how many connections accepted it.
func (h *Hub) BroadcastProctoringEvent(examID string, payload any) int {
	return h.broadcast(examID, "", Frame{Event: EventProctoringEvent, Data: payload})
}

func (h *Hub) sendTo(connID string, f Frame) bool {
	cs := h.connShard(connID)
	cs.mu.RLock()
	m, ok := cs.conns[connID]
	cs.mu.RUnlock()
	if !ok {
		h.log.Debug().Str("target", connID).Str("event", f.Event).Msg("Unroutable frame dropped")
		return false
	}
	if !m.peer.Send(f) {
		h.log.Debug().Str("target", connID).Str("event", f.Event).Msg("Outbound queue full, frame dropped")
		return false
	}
	return true
}

// broadcast sends f to every member of the room except skipConnID.
func (h *Hub) broadcast(examID, skipConnID string, f Frame) int {
	rs := h.roomShard(examID)
	rs.mu.RLock()
	room := rs.rooms[examID]
	targets := make([]Peer, 0, len(room))
	for id, p := range room {
		if id != skipConnID {
			targets = append(targets, p)
		}
	}
	rs.mu.RUnlock()

	delivered := 0
	for _, p := range targets {
		if p.Send(f) {
			delivered++
		}
	}
	return delivered
}

// RoomSize returns the number of connections in the exam room.
func (h *Hub) RoomSize(examID string) int {
	rs := h.roomShard(examID)
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.rooms[examID])
}

// Stats returns the number of registered connections and non-empty rooms.
func (h *Hub) Stats() (connections, rooms int) {
	for i := range h.conns {
		h.conns[i].mu.RLock()
		connections += len(h.conns[i].conns)
		h.conns[i].mu.RUnlock()

		h.rooms[i].mu.RLock()
		rooms += len(h.rooms[i].rooms)
		h.rooms[i].mu.RUnlock()
	}
	return connections, rooms
}
