package model

import (
	"time"

	"github.com/google/uuid"
)

// Default entry window, in minutes around the scheduled start.
const (
	DefaultLoginWindowStart   = 15
	DefaultLateEntryWindowEnd = 15
)

// Exam represents a scheduled exam. Exams are immutable once created.
type Exam struct {
	ID                 uuid.UUID   `json:"id"`
	Title              string      `json:"title"`
	CreatedBy          uuid.UUID   `json:"created_by"`
	Subject            string      `json:"subject"`
	QuestionIDs        []uuid.UUID `json:"question_ids"`
	ScheduledAt        time.Time   `json:"scheduled_at"`
	DurationMinutes    int         `json:"duration_minutes"`
	LoginWindowStart   int         `json:"login_window_start"`
	LateEntryWindowEnd int         `json:"late_entry_window_end"`
	ExamType           string      `json:"exam_type"`
	CreatedAt          time.Time   `json:"created_at"`
}

// CreateExamRequest is the payload for creating a new exam.
// Window fields are pointers so an explicit 0 is distinguishable from "use the default".
type CreateExamRequest struct {
	Title              string      `json:"title" binding:"required,min=3,max=255"`
	QuestionIDs        []uuid.UUID `json:"question_ids" binding:"required,min=1"`
	ScheduledAt        time.Time   `json:"scheduled_at" binding:"required"`
	DurationMinutes    int         `json:"duration_minutes" binding:"required,min=1,max=480"`
	LoginWindowStart   *int        `json:"login_window_start" binding:"omitempty,min=0,max=1440"`
	LateEntryWindowEnd *int        `json:"late_entry_window_end" binding:"omitempty,min=0,max=1440"`
	ExamType           string      `json:"exam_type" binding:"omitempty,max=50"`
}

// ExamPayload is the student-facing exam, cached in Redis. It never carries correct answers.
type ExamPayload struct {
	ExamID             uuid.UUID            `json:"exam_id"`
	Title              string               `json:"title"`
	Subject            string               `json:"subject"`
	ExamType           string               `json:"exam_type"`
	ScheduledAt        time.Time            `json:"scheduled_at"`
	DurationMinutes    int                  `json:"duration_minutes"`
	LoginWindowStart   int                  `json:"login_window_start"`
	LateEntryWindowEnd int                  `json:"late_entry_window_end"`
	Questions          []QuestionForStudent `json:"questions"`
}
