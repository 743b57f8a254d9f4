package websocket

import "encoding/json"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionJoinProctoringRoom Action = "join_proctoring_room"
	ActionJoinExamRoom       Action = "join_exam_room"
	ActionWebRTCOffer        Action = "webrtc_offer"
	ActionWebRTCAnswer       Action = "webrtc_answer"
	ActionWebRTCICECandidate Action = "webrtc_ice_candidate"
	ActionExpelStudent       Action = "expel_student"
	ActionProctoringEvent    Action = "proctoring_event"
)

// RequestEnvelope is used to peek at the action before decoding its data.
type RequestEnvelope struct {
	Event Action          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// JoinProctoringRoomRequest is sent by a teacher to watch an exam.
type JoinProctoringRoomRequest struct {
	ExamID string `json:"examId"`
}

// JoinExamRoomRequest is sent by a student entering an exam.
type JoinExamRoomRequest struct {
	ExamID      string `json:"examId"`
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
}

// SignalRequest carries one WebRTC message. Exactly one of Offer, Answer or
// Candidate is set, depending on the action.
type SignalRequest struct {
	Offer              json.RawMessage `json:"offer,omitempty"`
	Answer             json.RawMessage `json:"answer,omitempty"`
	Candidate          json.RawMessage `json:"candidate,omitempty"`
	TargetConnectionID string          `json:"targetConnectionId"`
}

// ExpelStudentRequest is sent by a teacher to remove a student.
// StudentSocketID is accepted for older clients.
type ExpelStudentRequest struct {
	TargetConnectionID string `json:"targetConnectionId"`
	StudentSocketID    string `json:"studentSocketId"`
}

// Target returns the connection to expel.
func (r ExpelStudentRequest) Target() string {
	if r.TargetConnectionID != "" {
		return r.TargetConnectionID
	}
	return r.StudentSocketID
}

// ProctoringEventRequest reports a proctoring event from a joined student.
type ProctoringEventRequest struct {
	Event string `json:"event"`
}
