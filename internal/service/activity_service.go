package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pagehub/pagehub-backend/internal/config"
	"github.com/pagehub/pagehub-backend/internal/model"
	"github.com/rs/zerolog"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

// ActivityService records admin actions through the persistence queue and
// reads them back.
type ActivityService struct {
	queue ListPusher
	store ActivityStore
	now   func() time.Time
	log   zerolog.Logger
}

// NewActivityService creates a new ActivityService.
func NewActivityService(queue ListPusher, store ActivityStore, log zerolog.Logger) *ActivityService {
	return &ActivityService{
		queue: queue,
		store: store,
		now:   time.Now,
		log:   log.With().Str("component", "activity_service").Logger(),
	}
}

// Record enqueues an audit entry. Recording never fails the caller's
// request; enqueue errors are only logged.
func (s *ActivityService) Record(ctx context.Context, rec model.ActivityRecord) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if rec.Action == "" {
		rec.Action = model.ActionOther
	}

	data, err := json.Marshal(rec)
	if err != nil {
		s.log.Error().Err(err).Int("admin_id", rec.AdminID).Msg("Failed to encode activity")
		return
	}
	if err := s.queue.RPush(ctx, config.WorkerKey.PersistActivityQueue, data).Err(); err != nil {
		s.log.Error().Err(err).Int("admin_id", rec.AdminID).Str("action", string(rec.Action)).Msg("Failed to enqueue activity")
	}
}

// Details encodes free-form metadata for an activity record.
func Details(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

// List returns the admin's most recent activity, newest first.
func (s *ActivityService) List(ctx context.Context, adminID, limit int) ([]*model.ActivityRecord, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	return s.store.ListByAdmin(ctx, adminID, limit)
}
