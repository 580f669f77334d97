package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pagehub/pagehub-backend/internal/config"
	"github.com/pagehub/pagehub-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ActivityQueue is the subset of the Redis client the worker consumes.
type ActivityQueue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// ActivitySink persists audit records.
type ActivitySink interface {
	BulkInsert(ctx context.Context, records []*model.ActivityRecord) error
	Insert(ctx context.Context, rec *model.ActivityRecord) error
}

// ActivityWorker drains the audit queue into Postgres in batches.
type ActivityWorker struct {
	queue ActivityQueue
	sink  ActivitySink
	log   zerolog.Logger

	errorBackoff   time.Duration
	requeueBackoff time.Duration
}

func NewActivityWorker(queue ActivityQueue, sink ActivitySink, log zerolog.Logger) *ActivityWorker {
	return &ActivityWorker{
		queue:          queue,
		sink:           sink,
		log:            log.With().Str("component", "activity_worker").Logger(),
		errorBackoff:   3 * time.Second,
		requeueBackoff: 2 * time.Second,
	}
}

// Start blocks until ctx is cancelled, then flushes what it holds.
func (w *ActivityWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ActivityWorker started")

	buffer := make([]*model.ActivityRecord, 0, BatchSize)
	lastFlush := time.Now()

	for {
		if len(buffer) > 0 && (len(buffer) >= BatchSize || time.Since(lastFlush) >= BatchTimeout) {
			w.flush(ctx, buffer)
			buffer = buffer[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		result, err := w.queue.BLPop(ctx, PollTimeout, config.WorkerKey.PersistActivityQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Dur("backoff", w.errorBackoff).Msg("Redis error, backing off")
			sleep(ctx, w.errorBackoff)
			continue
		}
		if len(result) < 2 {
			continue
		}

		var rec model.ActivityRecord
		if err := json.Unmarshal([]byte(result[1]), &rec); err != nil {
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed activity record")
			continue
		}
		buffer = append(buffer, &rec)
	}
}

// flush tries COPY first, then row-by-row. Rows that fail for reasons other
// than bad data are pushed back onto the queue.
func (w *ActivityWorker) flush(ctx context.Context, batch []*model.ActivityRecord) {
	err := w.sink.BulkInsert(ctx, batch)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Activity batch persisted")
		return
	}
	w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, retrying row by row")

	requeue := make([]*model.ActivityRecord, 0)
	for _, rec := range batch {
		err := w.sink.Insert(ctx, rec)
		if err == nil {
			continue
		}
		if isDataError(err) {
			w.log.Error().Err(err).Int("admin_id", rec.AdminID).Msg("Dropping activity record rejected by database")
			continue
		}
		w.log.Error().Err(err).Int("admin_id", rec.AdminID).Msg("Insert failed, requeueing")
		requeue = append(requeue, rec)
	}

	if len(requeue) > 0 {
		w.requeue(ctx, requeue)
	}
}

func (w *ActivityWorker) requeue(ctx context.Context, items []*model.ActivityRecord) {
	values := make([]interface{}, 0, len(items))
	for _, rec := range items {
		data, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		values = append(values, data)
	}

	if err := w.queue.RPush(ctx, config.WorkerKey.PersistActivityQueue, values...).Err(); err != nil {
		w.log.Error().Err(err).Int("count", len(values)).Msg("CRITICAL: failed to requeue activity records, data lost")
		return
	}
	w.log.Info().Int("count", len(values)).Msg("Requeued activity records")
	// Avoid thrashing while the database is down.
	sleep(ctx, w.requeueBackoff)
}

func (w *ActivityWorker) shutdown(buffer []*model.ActivityRecord) {
	w.log.Info().Int("pending", len(buffer)).Msg("ActivityWorker stopping, flushing buffer")
	if len(buffer) == 0 {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w.flush(shutdownCtx, buffer)
}

// isDataError reports Postgres errors of class 22 (data exception) and 23
// (integrity violation). Retrying those can never succeed.
func isDataError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || len(pgErr.Code) < 2 {
		return false
	}
	class := pgErr.Code[:2]
	return class == "22" || class == "23"
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
