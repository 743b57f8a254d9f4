package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/exproctor/internal/model"
	"github.com/stemsi/exproctor/internal/repository"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*model.User)}
}

func (f *fakeUsers) GetByCollegeID(_ context.Context, collegeID string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[collegeID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.CollegeID]; ok {
		return repository.ErrDuplicateCollegeID
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	cp := *u
	f.users[u.CollegeID] = &cp
	return nil
}

type fakeExams struct {
	mu    sync.Mutex
	exams map[uuid.UUID]*model.Exam
	gets  int
}

func newFakeExams(exams ...*model.Exam) *fakeExams {
	f := &fakeExams{exams: make(map[uuid.UUID]*model.Exam)}
	for _, e := range exams {
		f.exams[e.ID] = e
	}
	return f
}

func (f *fakeExams) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	e, ok := f.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

// ListListable deliberately skips the deadline filter so the service-side
// check is exercised.
func (f *fakeExams) ListListable(_ context.Context, _ time.Time) ([]model.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Exam, 0, len(f.exams))
	for _, e := range f.exams {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (f *fakeExams) ListByCreator(_ context.Context, teacherID uuid.UUID) ([]model.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Exam, 0)
	for _, e := range f.exams {
		if e.CreatedBy == teacherID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeExams) Create(_ context.Context, e *model.Exam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	cp := *e
	f.exams[e.ID] = &cp
	return nil
}

type fakeQuestions struct {
	questions map[uuid.UUID]model.Question
}

func newFakeQuestions(qs ...model.Question) *fakeQuestions {
	f := &fakeQuestions{questions: make(map[uuid.UUID]model.Question)}
	for _, q := range qs {
		f.questions[q.ID] = q
	}
	return f
}

func (f *fakeQuestions) ListByIDs(_ context.Context, ids []uuid.UUID) ([]model.Question, error) {
	out := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := f.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestions) ListBySubject(_ context.Context, subject string) ([]model.Question, error) {
	out := make([]model.Question, 0)
	for _, q := range f.questions {
		if q.Subject == subject {
			out = append(out, q)
		}
	}
	return out, nil
}

type resultKey struct{ exam, student uuid.UUID }

// fakeResults mirrors the single-statement upserts of the Postgres store.
type fakeResults struct {
	mu        sync.Mutex
	results   map[resultKey]*model.Result
	appendErr error
	// onAppend runs at the start of every single-event append.
	onAppend func()
}

func newFakeResults() *fakeResults {
	return &fakeResults{results: make(map[resultKey]*model.Result)}
}

func (f *fakeResults) GetByExamAndStudent(_ context.Context, examID, studentID uuid.UUID) (*model.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.results[resultKey{examID, studentID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *r
	cp.ProctoringLog = append([]model.ProctoringEntry(nil), r.ProctoringLog...)
	return &cp, nil
}

func (f *fakeResults) Complete(_ context.Context, res *model.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := resultKey{res.ExamID, res.StudentID}
	existing, ok := f.results[key]
	if ok && existing.Status == model.ResultStatusCompleted {
		return pgx.ErrNoRows
	}
	if !ok {
		existing = &model.Result{ID: uuid.New(), ExamID: res.ExamID, StudentID: res.StudentID, ProctoringLog: []model.ProctoringEntry{}}
		f.results[key] = existing
	}
	existing.Status = model.ResultStatusCompleted
	existing.Score = res.Score
	existing.TotalMarks = res.TotalMarks
	existing.Answers = res.Answers
	existing.SubmittedAt = res.SubmittedAt

	res.ID = existing.ID
	res.ProctoringLog = append([]model.ProctoringEntry(nil), existing.ProctoringLog...)
	return nil
}

func (f *fakeResults) AppendProctoringEntry(_ context.Context, ev model.ProctoringEvent) error {
	if f.onAppend != nil {
		f.onAppend()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appendLocked(ev)
	return nil
}

func (f *fakeResults) AppendProctoringEntries(_ context.Context, events []model.ProctoringEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	for _, ev := range events {
		f.appendLocked(ev)
	}
	return nil
}

func (f *fakeResults) appendLocked(ev model.ProctoringEvent) {
	key := resultKey{ev.ExamID, ev.StudentID}
	r, ok := f.results[key]
	if !ok {
		r = &model.Result{
			ID:        uuid.New(),
			ExamID:    ev.ExamID,
			StudentID: ev.StudentID,
			Status:    model.ResultStatusOngoing,
			Answers:   []model.AnswerEntry{},
		}
		f.results[key] = r
	}
	r.ProctoringLog = append(r.ProctoringLog, ev.Entry())
}

func (f *fakeResults) ListByExam(_ context.Context, examID uuid.UUID) ([]model.ExamResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ExamResult, 0)
	for k, r := range f.results {
		if k.exam == examID {
			out = append(out, model.ExamResult{Result: *r})
		}
	}
	return out, nil
}

func (f *fakeResults) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}

type broadcastCall struct {
	examID  string
	payload any
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (f *fakeBroadcaster) BroadcastProctoringEvent(examID string, payload any) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, broadcastCall{examID: examID, payload: payload})
	return 1
}

var errStoreDown = errors.New("store unavailable")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
