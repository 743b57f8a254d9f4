package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exproctor/internal/model"
)

// ResultRepository handles exam result data access. Every write for one
// (exam, student) pair is a single upsert against the UNIQUE constraint.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// GetByExamAndStudent retrieves the result of one student for one exam.
func (r *ResultRepository) GetByExamAndStudent(ctx context.Context, examID, studentID uuid.UUID) (*model.Result, error) {
	res := &model.Result{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, status, score, total_marks, answers, proctoring_log,
		        submitted_at, created_at, updated_at
		 FROM results WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	).Scan(&res.ID, &res.ExamID, &res.StudentID, &res.Status, &res.Score, &res.TotalMarks,
		&res.Answers, &res.ProctoringLog, &res.SubmittedAt, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Complete stores a scored submission. An ongoing result is upgraded in place
// and keeps its proctoring log. When the result is already completed no row
// is written and pgx.ErrNoRows is returned.
func (r *ResultRepository) Complete(ctx context.Context, res *model.Result) error {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return err
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO results (exam_id, student_id, status, score, total_marks, answers, submitted_at)
		 VALUES ($1, $2, 'completed', $3, $4, $5::jsonb, $6)
		 ON CONFLICT (exam_id, student_id) DO UPDATE
		 SET status = 'completed',
		     score = EXCLUDED.score,
		     total_marks = EXCLUDED.total_marks,
		     answers = EXCLUDED.answers,
		     submitted_at = EXCLUDED.submitted_at,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE results.status = 'ongoing'
		 RETURNING id, status, proctoring_log, created_at, updated_at`,
		res.ExamID, res.StudentID, res.Score, res.TotalMarks, answers, res.SubmittedAt,
	).Scan(&res.ID, &res.Status, &res.ProctoringLog, &res.CreatedAt, &res.UpdatedAt)
}

const appendProctoringSQL = `INSERT INTO results (exam_id, student_id, status, proctoring_log)
	 VALUES ($1, $2, 'ongoing', jsonb_build_array($3::jsonb))
	 ON CONFLICT (exam_id, student_id) DO UPDATE
	 SET proctoring_log = results.proctoring_log || EXCLUDED.proctoring_log,
	     updated_at = CURRENT_TIMESTAMP`

// AppendProctoringEntry appends one entry to the student's proctoring log,
// creating an ongoing result when none exists.
func (r *ResultRepository) AppendProctoringEntry(ctx context.Context, ev model.ProctoringEvent) error {
	entry, err := json.Marshal(ev.Entry())
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, appendProctoringSQL, ev.ExamID, ev.StudentID, entry)
	return err
}

// AppendProctoringEntries appends a batch of entries. The batch runs in one
// transaction, so either every entry is stored or none is.
func (r *ResultRepository) AppendProctoringEntries(ctx context.Context, events []model.ProctoringEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, ev := range events {
		entry, err := json.Marshal(ev.Entry())
		if err != nil {
			return err
		}
		batch.Queue(appendProctoringSQL, ev.ExamID, ev.StudentID, entry)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListByExam returns every result of an exam with the student's identity,
// ordered by student name.
func (r *ResultRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.exam_id, r.student_id, r.status, r.score, r.total_marks, r.answers,
		        r.proctoring_log, r.submitted_at, r.created_at, r.updated_at, u.name, u.college_id
		 FROM results r
		 JOIN users u ON u.id = r.student_id
		 WHERE r.exam_id = $1
		 ORDER BY u.name`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]model.ExamResult, 0)
	for rows.Next() {
		var er model.ExamResult
		if err := rows.Scan(&er.ID, &er.ExamID, &er.StudentID, &er.Status, &er.Score, &er.TotalMarks,
			&er.Answers, &er.ProctoringLog, &er.SubmittedAt, &er.CreatedAt, &er.UpdatedAt,
			&er.StudentName, &er.StudentCollegeID); err != nil {
			return nil, err
		}
		results = append(results, er)
	}
	return results, rows.Err()
}
