package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exproctor/internal/model"
)

// Lookups that find nothing return pgx.ErrNoRows, as the Postgres
// repositories do.

// UserStore persists accounts.
type UserStore interface {
	GetByCollegeID(ctx context.Context, collegeID string) (*model.User, error)
	// Create returns repository.ErrDuplicateCollegeID when the college ID is taken.
	Create(ctx context.Context, u *model.User) error
}

// ExamStore persists exams.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	ListListable(ctx context.Context, now time.Time) ([]model.Exam, error)
	ListByCreator(ctx context.Context, teacherID uuid.UUID) ([]model.Exam, error)
	Create(ctx context.Context, e *model.Exam) error
}

// QuestionStore reads the question bank.
type QuestionStore interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error)
	ListBySubject(ctx context.Context, subject string) ([]model.Question, error)
}

// ResultStore persists results. Complete and AppendProctoringEntry must be
// atomic per (exam, student).
type ResultStore interface {
	GetByExamAndStudent(ctx context.Context, examID, studentID uuid.UUID) (*model.Result, error)
	// Complete returns pgx.ErrNoRows when the result is already completed.
	Complete(ctx context.Context, res *model.Result) error
	AppendProctoringEntry(ctx context.Context, ev model.ProctoringEvent) error
	AppendProctoringEntries(ctx context.Context, events []model.ProctoringEvent) error
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamResult, error)
}

// Broadcaster fans a proctoring event out to the live members of an exam room.
type Broadcaster interface {
	BroadcastProctoringEvent(examID string, payload any) int
}
