package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exproctor/internal/model"
	"github.com/stemsi/exproctor/internal/relay"
	"github.com/stemsi/exproctor/internal/scoring"
)

// ResultService is the submission ledger: it scores submissions, keeps at
// most one result per (exam, student) and records proctoring events.
type ResultService struct {
	exams       ExamStore
	questions   QuestionStore
	results     ResultStore
	broadcaster Broadcaster
	log         zerolog.Logger
	now         func() time.Time
}

// NewResultService creates a new ResultService. broadcaster may be nil, in
// which case proctoring events are only stored.
func NewResultService(exams ExamStore, questions QuestionStore, results ResultStore, broadcaster Broadcaster, log zerolog.Logger) *ResultService {
	return &ResultService{
		exams:       exams,
		questions:   questions,
		results:     results,
		broadcaster: broadcaster,
		log:         log.With().Str("component", "result_service").Logger(),
		now:         time.Now,
	}
}

// Submit scores the answers and stores the completed result. An ongoing
// result is upgraded in place. A second submission returns
// ErrAlreadySubmitted, also when two submissions race.
func (s *ResultService) Submit(ctx context.Context, examID, studentID uuid.UUID, answers []model.AnswerEntry) (*model.Result, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	existing, err := s.results.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get result: %w", err)
	}
	if existing != nil && existing.Status == model.ResultStatusCompleted {
		return nil, ErrAlreadySubmitted
	}

	questions, err := examQuestions(ctx, s.questions, exam)
	if err != nil {
		return nil, err
	}
	outcome := scoring.Score(questions, answers)

	if answers == nil {
		answers = []model.AnswerEntry{}
	}
	submittedAt := s.now()
	res := &model.Result{
		ExamID:      examID,
		StudentID:   studentID,
		Status:      model.ResultStatusCompleted,
		Score:       outcome.Score,
		TotalMarks:  outcome.TotalMarks,
		Answers:     answers,
		SubmittedAt: &submittedAt,
	}

	// The pre-check above is advisory; the store decides races.
	if err := s.results.Complete(ctx, res); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("complete result: %w", err)
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Str("student_id", studentID.String()).
		Int("score", res.Score).
		Int("total_marks", res.TotalMarks).
		Msg("Exam submitted")
	return res, nil
}

// AppendProctoringEvent broadcasts the event to the exam room and stores it
// in the student's proctoring log. The broadcast does not wait for the store
// write, and a failed write is still returned. Unknown exams return
// ErrExamNotFound and nothing is broadcast.
func (s *ResultService) AppendProctoringEvent(ctx context.Context, ev model.ProctoringEvent) error {
	if err := s.CheckExam(ctx, ev.ExamID); err != nil {
		return err
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now()
	}

	s.Broadcast(ev)

	if err := s.results.AppendProctoringEntry(ctx, ev); err != nil {
		s.log.Error().Err(err).
			Str("exam_id", ev.ExamID.String()).
			Str("student_id", ev.StudentID.String()).
			Msg("Failed to store proctoring event")
		return fmt.Errorf("append proctoring entry: %w", err)
	}
	return nil
}

// CheckExam returns ErrExamNotFound when no exam has the given id.
func (s *ResultService) CheckExam(ctx context.Context, examID uuid.UUID) error {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrExamNotFound
		}
		return fmt.Errorf("get exam: %w", err)
	}
	return nil
}

// Broadcast sends the event to the live members of the exam room without
// storing it.
func (s *ResultService) Broadcast(ev model.ProctoringEvent) int {
	if s.broadcaster == nil {
		return 0
	}
	return s.broadcaster.BroadcastProctoringEvent(ev.ExamID.String(), relay.ProctoringEventData{
		ExamID:      ev.ExamID.String(),
		StudentID:   ev.StudentID.String(),
		StudentName: ev.StudentName,
		Event:       ev.Event,
		Timestamp:   ev.Timestamp,
	})
}

// RecordProctoringEvent stores the event without broadcasting it.
func (s *ResultService) RecordProctoringEvent(ctx context.Context, ev model.ProctoringEvent) error {
	if err := s.results.AppendProctoringEntry(ctx, ev); err != nil {
		return fmt.Errorf("append proctoring entry: %w", err)
	}
	return nil
}

// RecordProctoringEvents stores a batch of events atomically without
// broadcasting them.
func (s *ResultService) RecordProctoringEvents(ctx context.Context, events []model.ProctoringEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := s.results.AppendProctoringEntries(ctx, events); err != nil {
		return fmt.Errorf("append proctoring entries: %w", err)
	}
	return nil
}

// ResultsForExam returns every result of an exam to the teacher who created it.
func (s *ResultService) ResultsForExam(ctx context.Context, examID, teacherID uuid.UUID) ([]model.ExamResult, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.CreatedBy != teacherID {
		return nil, ErrNotExamOwner
	}

	results, err := s.results.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

// ResultForStudent returns the student's own result for an exam.
func (s *ResultService) ResultForStudent(ctx context.Context, examID, studentID uuid.UUID) (*model.Result, error) {
	res, err := s.results.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return res, nil
}

// MonitorSnapshot aggregates the results of an exam for the teacher who
// created it. LiveConnections is left for the caller to fill in.
func (s *ResultService) MonitorSnapshot(ctx context.Context, examID, teacherID uuid.UUID) (*model.MonitorSnapshot, error) {
	results, err := s.ResultsForExam(ctx, examID, teacherID)
	if err != nil {
		return nil, err
	}

	snap := &model.MonitorSnapshot{
		ExamID:      examID,
		Joined:      len(results),
		Students:    make([]model.MonitorStudent, 0, len(results)),
		GeneratedAt: s.now().UTC(),
	}
	for _, r := range results {
		switch r.Status {
		case model.ResultStatusOngoing:
			snap.Ongoing++
		case model.ResultStatusCompleted:
			snap.Completed++
		}
		snap.ProctoringEvents += len(r.ProctoringLog)

		row := model.MonitorStudent{
			StudentID:        r.StudentID,
			Name:             r.StudentName,
			CollegeID:        r.StudentCollegeID,
			Status:           r.Status,
			Score:            r.Score,
			TotalMarks:       r.TotalMarks,
			ProctoringEvents: len(r.ProctoringLog),
		}
		if n := len(r.ProctoringLog); n > 0 {
			last := r.ProctoringLog[n-1]
			row.LastEvent = &last
		}
		snap.Students = append(snap.Students, row)
	}
	return snap, nil
}
