package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exproctor/internal/config"
	"github.com/stemsi/exproctor/internal/model"
	"github.com/stemsi/exproctor/internal/window"
)

// ExamService handles exam authoring and the student-facing exam reads.
type ExamService struct {
	exams     ExamStore
	questions QuestionStore
	rdb       *redis.Client
	cacheTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NewExamService creates a new ExamService.
func NewExamService(exams ExamStore, questions QuestionStore, rdb *redis.Client, cacheTTL time.Duration, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams:     exams,
		questions: questions,
		rdb:       rdb,
		cacheTTL:  cacheTTL,
		log:       log.With().Str("component", "exam_service").Logger(),
		now:       time.Now,
	}
}

// CreateExam validates the question selection against the teacher's subject
// and stores the exam. A question may be selected more than once.
func (s *ExamService) CreateExam(ctx context.Context, teacherID uuid.UUID, subject string, req model.CreateExamRequest) (*model.Exam, error) {
	questions, err := s.questions.ListByIDs(ctx, distinct(req.QuestionIDs))
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	known := make(map[uuid.UUID]bool, len(questions))
	for _, q := range questions {
		if q.Subject == subject {
			known[q.ID] = true
		}
	}
	for _, id := range req.QuestionIDs {
		if !known[id] {
			return nil, ErrInvalidQuestions
		}
	}

	exam := &model.Exam{
		Title:              req.Title,
		CreatedBy:          teacherID,
		Subject:            subject,
		QuestionIDs:        req.QuestionIDs,
		ScheduledAt:        req.ScheduledAt.UTC(),
		DurationMinutes:    req.DurationMinutes,
		LoginWindowStart:   model.DefaultLoginWindowStart,
		LateEntryWindowEnd: model.DefaultLateEntryWindowEnd,
		ExamType:           req.ExamType,
	}
	if req.LoginWindowStart != nil {
		exam.LoginWindowStart = *req.LoginWindowStart
	}
	if req.LateEntryWindowEnd != nil {
		exam.LateEntryWindowEnd = *req.LateEntryWindowEnd
	}

	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	if err := s.WarmExamCache(ctx, exam); err != nil {
		s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Failed to warm exam cache")
	}
	return exam, nil
}

// QuestionBank returns the questions a teacher of subject can put in an exam.
func (s *ExamService) QuestionBank(ctx context.Context, subject string) ([]model.Question, error) {
	return s.questions.ListBySubject(ctx, subject)
}

// ListByTeacher returns the exams the teacher created.
func (s *ExamService) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.Exam, error) {
	return s.exams.ListByCreator(ctx, teacherID)
}

// ListAvailableForStudent returns the exams whose late-entry deadline has not
// passed, earliest first.
func (s *ExamService) ListAvailableForStudent(ctx context.Context) ([]model.Exam, error) {
	now := s.now()

	candidates, err := s.exams.ListListable(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	exams := make([]model.Exam, 0, len(candidates))
	for _, e := range candidates {
		if window.IsListable(now, e.ScheduledAt, e.LateEntryWindowEnd) {
			exams = append(exams, e)
		}
	}
	return exams, nil
}

// GetExamForStudent returns the exam with its questions, answers stripped,
// when now is inside the entry window. Outside the window it returns a
// *window.Violation.
func (s *ExamService) GetExamForStudent(ctx context.Context, examID uuid.UUID) (*model.ExamPayload, error) {
	now := s.now()

	payload, err := s.examPayload(ctx, examID)
	if err != nil {
		return nil, err
	}

	if err := window.Evaluate(now, payload.ScheduledAt, payload.LoginWindowStart, payload.LateEntryWindowEnd).Err(); err != nil {
		return nil, err
	}
	return payload, nil
}

// examPayload reads the payload through the Redis cache. Cache failures fall
// back to PostgreSQL.
func (s *ExamService) examPayload(ctx context.Context, examID uuid.UUID) (*model.ExamPayload, error) {
	key := config.CacheKey.ExamPayloadKey(examID.String())

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var payload model.ExamPayload
		if err := json.Unmarshal(data, &payload); err == nil {
			return &payload, nil
		}
		s.log.Warn().Str("exam_id", examID.String()).Msg("Discarding malformed cached payload")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Exam cache read failed")
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	payload, err := s.buildPayload(ctx, exam)
	if err != nil {
		return nil, err
	}
	s.cachePayload(ctx, payload)
	return payload, nil
}

// WarmExamCache stores the student payload of exam in Redis.
func (s *ExamService) WarmExamCache(ctx context.Context, exam *model.Exam) error {
	payload, err := s.buildPayload(ctx, exam)
	if err != nil {
		return err
	}
	return s.cachePayload(ctx, payload)
}

func (s *ExamService) buildPayload(ctx context.Context, exam *model.Exam) (*model.ExamPayload, error) {
	questions, err := examQuestions(ctx, s.questions, exam)
	if err != nil {
		return nil, err
	}

	studentQuestions := make([]model.QuestionForStudent, len(questions))
	for i, q := range questions {
		studentQuestions[i] = q.ForStudent(i + 1)
	}

	return &model.ExamPayload{
		ExamID:             exam.ID,
		Title:              exam.Title,
		Subject:            exam.Subject,
		ExamType:           exam.ExamType,
		ScheduledAt:        exam.ScheduledAt,
		DurationMinutes:    exam.DurationMinutes,
		LoginWindowStart:   exam.LoginWindowStart,
		LateEntryWindowEnd: exam.LateEntryWindowEnd,
		Questions:          studentQuestions,
	}, nil
}

func (s *ExamService) cachePayload(ctx context.Context, payload *model.ExamPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	key := config.CacheKey.ExamPayloadKey(payload.ExamID.String())
	if err := s.rdb.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", payload.ExamID.String()).Msg("Exam cache write failed")
		return fmt.Errorf("cache payload: %w", err)
	}
	return nil
}

// examQuestions loads the questions of exam in presentation order. Repeated
// ids yield repeated questions; ids missing from the bank are skipped.
func examQuestions(ctx context.Context, store QuestionStore, exam *model.Exam) ([]model.Question, error) {
	found, err := store.ListByIDs(ctx, distinct(exam.QuestionIDs))
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	byID := make(map[uuid.UUID]model.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}

	ordered := make([]model.Question, 0, len(exam.QuestionIDs))
	for _, id := range exam.QuestionIDs {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

func distinct(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
