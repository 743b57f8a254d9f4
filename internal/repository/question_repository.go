package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exproctor/internal/model"
)

// QuestionRepository handles question-bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByIDs retrieves the distinct questions among ids. Order is unspecified
// and unknown ids are skipped.
func (r *QuestionRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subject, question_text, options, correct_answer, created_by
		 FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]model.Question, 0, len(ids))
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Subject, &q.QuestionText, &q.Options, &q.CorrectAnswer, &q.CreatedBy); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListBySubject retrieves a subject's question bank, newest first.
func (r *QuestionRepository) ListBySubject(ctx context.Context, subject string) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subject, question_text, options, correct_answer, created_by
		 FROM questions WHERE subject = $1 ORDER BY created_at DESC`, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]model.Question, 0)
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Subject, &q.QuestionText, &q.Options, &q.CorrectAnswer, &q.CreatedBy); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (subject, question_text, options, correct_answer, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		q.Subject, q.QuestionText, q.Options, q.CorrectAnswer, q.CreatedBy,
	).Scan(&q.ID)
}

// CreateBatch inserts questions in a single transaction.
func (r *QuestionRepository) CreateBatch(ctx context.Context, questions []model.Question) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	for i := range questions {
		q := &questions[i]
		err := tx.QueryRow(ctx,
			`INSERT INTO questions (subject, question_text, options, correct_answer, created_by)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			q.Subject, q.QuestionText, q.Options, q.CorrectAnswer, q.CreatedBy,
		).Scan(&q.ID)
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(questions), nil
}
