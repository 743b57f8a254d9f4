package relay

import "time"

// Server → client event names.
const (
	EventConnected          = "connected"
	EventStudentJoined      = "student_joined"
	EventStudentLeft        = "student_left"
	EventWebRTCOffer        = "webrtc_offer"
	EventWebRTCAnswer       = "webrtc_answer"
	EventWebRTCICECandidate = "webrtc_ice_candidate"
	EventExamExpelled       = "exam_expelled"
	EventProctoringEvent    = "proctoring_event"
	EventError              = "error"
)

// Frame is one server → client message.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// SignalKind names a WebRTC signaling message relayed between two peers.
type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalICECandidate SignalKind = "ice_candidate"
)

// Valid reports whether k is a known signaling kind.
func (k SignalKind) Valid() bool {
	switch k {
	case SignalOffer, SignalAnswer, SignalICECandidate:
		return true
	}
	return false
}

func (k SignalKind) event() string {
	switch k {
	case SignalOffer:
		return EventWebRTCOffer
	case SignalAnswer:
		return EventWebRTCAnswer
	default:
		return EventWebRTCICECandidate
	}
}

// payloadKey is the field the opaque payload travels under, matching what
// browser clients send: offer, answer or candidate.
func (k SignalKind) payloadKey() string {
	if k == SignalICECandidate {
		return "candidate"
	}
	return string(k)
}

// StudentJoined is broadcast to a room when a student joins it.
type StudentJoined struct {
	StudentID    string `json:"studentId"`
	StudentName  string `json:"studentName"`
	ConnectionID string `json:"connectionId"`
}

// StudentLeft is broadcast to a room when a joined student disconnects.
type StudentLeft struct {
	StudentID    string `json:"studentId"`
	ConnectionID string `json:"connectionId"`
}

// Connected is sent to a connection right after registration.
type Connected struct {
	ConnectionID string `json:"connectionId"`
}

// ErrorData carries a protocol error back to the sender.
type ErrorData struct {
	Error string `json:"error"`
}

// ProctoringEventData is broadcast to a room when a student's proctoring
// event is recorded.
type ProctoringEventData struct {
	ExamID      string    `json:"examId"`
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName,omitempty"`
	Event       string    `json:"event"`
	Timestamp   time.Time `json:"timestamp"`
}
