package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pagehub/pagehub-backend/internal/config"
	"github.com/pagehub/pagehub-backend/internal/model"
	"github.com/pagehub/pagehub-backend/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityRecord_EnqueuesJSON(t *testing.T) {
	rdb := newFakeRedis()
	svc := NewActivityService(rdb, &memActivityStore{}, zerolog.Nop())

	svc.Record(context.Background(), model.ActivityRecord{
		AdminID:   3,
		Action:    model.ActionCreatePost,
		Details:   Details(map[string]any{"pages": 2}),
		IPAddress: "10.0.0.1",
	})

	queued := rdb.lists[config.WorkerKey.PersistActivityQueue]
	require.Len(t, queued, 1)

	var rec model.ActivityRecord
	require.NoError(t, json.Unmarshal([]byte(queued[0]), &rec))
	assert.Equal(t, 3, rec.AdminID)
	assert.Equal(t, model.ActionCreatePost, rec.Action)
	assert.JSONEq(t, `{"pages":2}`, string(rec.Details))
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestActivityRecord_QueueErrorIsSwallowed(t *testing.T) {
	rdb := newFakeRedis()
	rdb.err = errors.New("connection refused")
	svc := NewActivityService(rdb, &memActivityStore{}, zerolog.Nop())

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), model.ActivityRecord{AdminID: 1})
	})
}

func TestActivityList_ClampsLimit(t *testing.T) {
	store := &memActivityStore{records: []*model.ActivityRecord{
		{ID: 2, AdminID: 1, Action: model.ActionLogin},
		{ID: 1, AdminID: 2, Action: model.ActionLogin},
	}}
	svc := NewActivityService(newFakeRedis(), store, zerolog.Nop())

	recs, err := svc.List(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, defaultActivityLimit, store.lastLimit)

	_, err = svc.List(context.Background(), 1, 10_000)
	require.NoError(t, err)
	assert.Equal(t, maxActivityLimit, store.lastLimit)
}

func TestProgressBroker_EmitsResultsThenDone(t *testing.T) {
	rdb := newFakeRedis()
	broker := NewProgressBroker(rdb, zerolog.Nop())
	ctx := context.Background()
	id := "3f1c7a3e-9b0e-4d55-8f65-7c7a2e3a9d10"

	report := broker.Reporter(ctx, id)
	require.NotNil(t, report)

	results := []model.PublishResult{
		{PageID: "p1", Status: model.PublishSuccess},
		{PageID: "p2", Status: model.PublishError, Message: "bad token"},
	}
	for i, r := range results {
		report(i, len(results), r)
	}
	broker.Done(ctx, id, results, nil)

	msgs := rdb.published[config.CacheKey.PublishProgressChannel(id)]
	require.Len(t, msgs, 3)

	var ev websocket.ProgressEvent
	require.NoError(t, json.Unmarshal([]byte(msgs[1]), &ev))
	assert.Equal(t, websocket.EventResult, ev.Event)
	assert.Equal(t, 1, ev.Index)
	assert.Equal(t, "bad token", ev.Result.Message)

	var done websocket.DoneEvent
	require.NoError(t, json.Unmarshal([]byte(msgs[2]), &done))
	assert.Equal(t, websocket.EventDone, done.Event)
	assert.Equal(t, 1, done.Succeeded)
	assert.Equal(t, 1, done.Failed)
	assert.Empty(t, done.Error)
}

func TestProgressBroker_NoDispatchID(t *testing.T) {
	rdb := newFakeRedis()
	broker := NewProgressBroker(rdb, zerolog.Nop())

	assert.Nil(t, broker.Reporter(context.Background(), ""))
	broker.Done(context.Background(), "", nil, ErrNoPagesFound)
	assert.Empty(t, rdb.published)
}
