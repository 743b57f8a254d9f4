package model

import (
	"time"

	"github.com/google/uuid"
)

// ResultStatus enumerates result states.
type ResultStatus string

const (
	ResultStatusOngoing   ResultStatus = "ongoing"
	ResultStatusCompleted ResultStatus = "completed"
)

// AnswerEntry is one submitted answer.
type AnswerEntry struct {
	QuestionID      uuid.UUID `json:"question_id" binding:"required"`
	SubmittedAnswer string    `json:"submitted_answer"`
}

// ProctoringEntry is one logged proctoring event.
type ProctoringEntry struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is a student's attempt at an exam. There is at most one per (exam, student).
type Result struct {
	ID            uuid.UUID         `json:"id"`
	ExamID        uuid.UUID         `json:"exam_id"`
	StudentID     uuid.UUID         `json:"student_id"`
	Status        ResultStatus      `json:"status"`
	Score         int               `json:"score"`
	TotalMarks    int               `json:"total_marks"`
	Answers       []AnswerEntry     `json:"answers"`
	ProctoringLog []ProctoringEntry `json:"proctoring_log"`
	SubmittedAt   *time.Time        `json:"submitted_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ExamResult joins a result with the student's identity for teacher views.
type ExamResult struct {
	Result
	StudentName      string `json:"student_name"`
	StudentCollegeID string `json:"student_college_id"`
}

// SubmitExamRequest is the payload for submitting an exam.
type SubmitExamRequest struct {
	ExamID  uuid.UUID     `json:"exam_id" binding:"required"`
	Answers []AnswerEntry `json:"answers" binding:"dive"`
}

// ProctoringLogRequest is the payload for reporting a proctoring event.
type ProctoringLogRequest struct {
	ExamID uuid.UUID `json:"exam_id" binding:"required"`
	Event  string    `json:"event" binding:"required,notblank,max=255"`
}

// ProctoringEvent is a proctoring entry addressed to a student's result.
type ProctoringEvent struct {
	ExamID      uuid.UUID `json:"exam_id"`
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name,omitempty"`
	Event       string    `json:"event"`
	Timestamp   time.Time `json:"timestamp"`
}

// Entry returns the log entry stored for the event.
func (e ProctoringEvent) Entry() ProctoringEntry {
	return ProctoringEntry{Event: e.Event, Timestamp: e.Timestamp}
}

// MonitorStudent is one student's row in an exam monitor snapshot.
type MonitorStudent struct {
	StudentID        uuid.UUID        `json:"student_id"`
	Name             string           `json:"name"`
	CollegeID        string           `json:"college_id"`
	Status           ResultStatus     `json:"status"`
	Score            int              `json:"score"`
	TotalMarks       int              `json:"total_marks"`
	ProctoringEvents int              `json:"proctoring_events"`
	LastEvent        *ProctoringEntry `json:"last_event,omitempty"`
}

// MonitorSnapshot summarizes the progress of an exam for its owner.
type MonitorSnapshot struct {
	ExamID           uuid.UUID        `json:"exam_id"`
	Joined           int              `json:"joined"`
	Ongoing          int              `json:"ongoing"`
	Completed        int              `json:"completed"`
	ProctoringEvents int              `json:"proctoring_events"`
	LiveConnections  int              `json:"live_connections"`
	Students         []MonitorStudent `json:"students"`
	GeneratedAt      time.Time        `json:"generated_at"`
}
