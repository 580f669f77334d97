package service

import (
	"context"
	"encoding/json"

	"github.com/pagehub/pagehub-backend/internal/config"
	"github.com/pagehub/pagehub-backend/internal/model"
	"github.com/pagehub/pagehub-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// ProgressBroker publishes multi-page publish progress to the dispatch's
// Redis channel, where the WebSocket stream picks it up.
type ProgressBroker struct {
	pub ChannelPublisher
	log zerolog.Logger
}

// NewProgressBroker creates a new ProgressBroker.
func NewProgressBroker(pub ChannelPublisher, log zerolog.Logger) *ProgressBroker {
	return &ProgressBroker{
		pub: pub,
		log: log.With().Str("component", "progress_broker").Logger(),
	}
}

// Reporter returns a ProgressFunc that emits one result event per page for
// dispatchID. It returns nil when dispatchID is empty.
func (b *ProgressBroker) Reporter(ctx context.Context, dispatchID string) ProgressFunc {
	if dispatchID == "" {
		return nil
	}
	return func(index, total int, result model.PublishResult) {
		b.emit(ctx, dispatchID, websocket.ProgressEvent{
			Event:  websocket.EventResult,
			Index:  index,
			Total:  total,
			Result: result,
		})
	}
}

// Done emits the terminal event for dispatchID. A nil err with results
// summarises the outcome; a non-nil err marks the dispatch aborted.
func (b *ProgressBroker) Done(ctx context.Context, dispatchID string, results []model.PublishResult, err error) {
	if dispatchID == "" {
		return
	}
	done := websocket.DoneEvent{Event: websocket.EventDone, Total: len(results)}
	for _, r := range results {
		if r.Status == model.PublishSuccess {
			done.Succeeded++
		} else {
			done.Failed++
		}
	}
	if err != nil {
		done.Error = PublishMessage(err)
	}
	b.emit(ctx, dispatchID, done)
}

func (b *ProgressBroker) emit(ctx context.Context, dispatchID string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to encode progress event")
		return
	}
	channel := config.CacheKey.PublishProgressChannel(dispatchID)
	if err := b.pub.Publish(ctx, channel, data).Err(); err != nil {
		b.log.Warn().Err(err).Str("channel", channel).Msg("Failed to publish progress event")
	}
}
