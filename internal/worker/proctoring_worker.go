package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exproctor/internal/config"
	"github.com/stemsi/exproctor/internal/model"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ProctoringRecorder stores proctoring events without broadcasting them.
type ProctoringRecorder interface {
	RecordProctoringEvents(ctx context.Context, events []model.ProctoringEvent) error
	RecordProctoringEvent(ctx context.Context, ev model.ProctoringEvent) error
}

// ProctoringQueue pushes proctoring events for asynchronous persistence.
type ProctoringQueue struct {
	rdb *redis.Client
}

// NewProctoringQueue creates a new ProctoringQueue.
func NewProctoringQueue(rdb *redis.Client) *ProctoringQueue {
	return &ProctoringQueue{rdb: rdb}
}

// Enqueue appends ev to the persistence queue.
func (q *ProctoringQueue) Enqueue(ctx context.Context, ev model.ProctoringEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal proctoring event: %w", err)
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistProctoringQueue, data).Err(); err != nil {
		return fmt.Errorf("enqueue proctoring event: %w", err)
	}
	return nil
}

// ProctoringWorker drains persist_proctoring_queue into the result store in
// batches. Failed entries go back to the queue.
type ProctoringWorker struct {
	rdb          *redis.Client
	recorder     ProctoringRecorder
	log          zerolog.Logger
	requeueDelay time.Duration
}

// NewProctoringWorker creates a new ProctoringWorker.
func NewProctoringWorker(rdb *redis.Client, recorder ProctoringRecorder, log zerolog.Logger) *ProctoringWorker {
	return &ProctoringWorker{
		rdb:          rdb,
		recorder:     recorder,
		log:          log.With().Str("component", "proctoring_worker").Logger(),
		requeueDelay: 2 * time.Second,
	}
}

// Start runs the worker loop until ctx is cancelled. Call in a goroutine.
func (w *ProctoringWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	buffer := make([]model.ProctoringEvent, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// BLPop returns immediately when data exists, otherwise after PollTimeout.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistProctoringQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			select {
			case <-ctx.Done():
			case <-time.After(3 * time.Second):
			}
			continue
		}

		if len(result) < 2 {
			continue
		}

		var ev model.ProctoringEvent
		if err := json.Unmarshal([]byte(result[1]), &ev); err != nil {
			// Malformed entries cannot be retried.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}
		if len(buffer) == 0 {
			lastFlushTime = time.Now()
		}
		buffer = append(buffer, ev)
	}
}

// flushSafe tries the batch in one transaction, then entry by entry. Entries
// the database rejects for good are dead-lettered; the rest are requeued.
func (w *ProctoringWorker) flushSafe(ctx context.Context, batch []model.ProctoringEvent) {
	err := w.recorder.RecordProctoringEvents(ctx, batch)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Flushed proctoring events")
		return
	}
	w.log.Warn().Err(err).Int("count", len(batch)).Msg("Batch insert failed, attempting row-by-row recovery")

	requeueList := make([]model.ProctoringEvent, 0)
	deadList := make([]model.ProctoringEvent, 0)
	for _, ev := range batch {
		if err := w.recorder.RecordProctoringEvent(ctx, ev); err != nil {
			if isPermanent(err) {
				w.log.Error().Err(err).
					Str("exam_id", ev.ExamID.String()).
					Str("student_id", ev.StudentID.String()).
					Msg("Insert rejected, moving to dead-letter queue")
				deadList = append(deadList, ev)
				continue
			}
			w.log.Error().Err(err).
				Str("exam_id", ev.ExamID.String()).
				Str("student_id", ev.StudentID.String()).
				Msg("Insert failed, requeueing")
			requeueList = append(requeueList, ev)
		}
	}

	if len(deadList) > 0 {
		if err := w.push(ctx, config.WorkerKey.DeadProctoringQueue, deadList); err != nil {
			w.log.Error().Err(err).Int("count", len(deadList)).Msg("Failed to dead-letter rejected items, dropping them")
		}
	}
	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

// isPermanent reports whether retrying the insert can never succeed:
// foreign key and unique violations, and data exceptions.
func isPermanent(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "23503", "23505":
		return true
	}
	return strings.HasPrefix(pgErr.Code, "22")
}

func (w *ProctoringWorker) requeue(ctx context.Context, items []model.ProctoringEvent) {
	if err := w.push(ctx, config.WorkerKey.PersistProctoringQueue, items); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
	// Back off so a hard database outage does not spin.
	time.Sleep(w.requeueDelay)
}

func (w *ProctoringWorker) push(ctx context.Context, key string, items []model.ProctoringEvent) error {
	// The worker context may already be cancelled during shutdown.
	ctx = context.WithoutCancel(ctx)

	pipe := w.rdb.Pipeline()
	for _, ev := range items {
		data, _ := json.Marshal(ev)
		pipe.RPush(ctx, key, data)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (w *ProctoringWorker) shutdown(buffer []model.ProctoringEvent) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
	w.log.Info().Msg("Worker stopped")
}
