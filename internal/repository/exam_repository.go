package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exproctor/internal/model"
)

const examColumns = `id, title, created_by, subject, question_ids, scheduled_at, duration_minutes,
	login_window_start, late_entry_window_end, exam_type, created_at`

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(&e.ID, &e.Title, &e.CreatedBy, &e.Subject, &e.QuestionIDs, &e.ScheduledAt,
		&e.DurationMinutes, &e.LoginWindowStart, &e.LateEntryWindowEnd, &e.ExamType, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func collectExams(rows pgx.Rows) ([]model.Exam, error) {
	defer rows.Close()

	exams := make([]model.Exam, 0)
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
}

// ListListable returns exams whose late-entry deadline is still after now,
// earliest first.
func (r *ExamRepository) ListListable(ctx context.Context, now time.Time) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams
		 WHERE scheduled_at + make_interval(mins => late_entry_window_end) > $1
		 ORDER BY scheduled_at ASC`, now)
	if err != nil {
		return nil, err
	}
	return collectExams(rows)
}

// ListByCreator returns the exams a teacher created, newest first.
func (r *ExamRepository) ListByCreator(ctx context.Context, teacherID uuid.UUID) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams WHERE created_by = $1 ORDER BY created_at DESC`, teacherID)
	if err != nil {
		return nil, err
	}
	return collectExams(rows)
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, created_by, subject, question_ids, scheduled_at, duration_minutes,
		                    login_window_start, late_entry_window_end, exam_type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		e.Title, e.CreatedBy, e.Subject, e.QuestionIDs, e.ScheduledAt, e.DurationMinutes,
		e.LoginWindowStart, e.LateEntryWindowEnd, e.ExamType,
	).Scan(&e.ID, &e.CreatedAt)
}
