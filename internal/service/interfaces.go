package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pagehub/pagehub-backend/internal/model"
	"github.com/pagehub/pagehub-backend/internal/platform"
	"github.com/redis/go-redis/v9"
)

// AdminStore is the admin persistence the account manager needs.
type AdminStore interface {
	GetByID(ctx context.Context, id int) (*model.Admin, error)
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	GetByResetToken(ctx context.Context, token string) (*model.Admin, error)
	Create(ctx context.Context, a *model.Admin) error
	MarkLoggedIn(ctx context.Context, id int, at time.Time) error
	MarkLoggedOut(ctx context.Context, id int) error
	UpdatePassword(ctx context.Context, id int, hash string) error
	SetResetToken(ctx context.Context, id int, token string, expires time.Time) error
}

// PageStore is the page registry.
type PageStore interface {
	Upsert(ctx context.Context, in model.UpsertPageInput) (*model.LinkedPage, error)
	FindByPageID(ctx context.Context, pageID string) (*model.LinkedPage, error)
	ListAll(ctx context.Context) ([]*model.LinkedPage, error)
	ListByFilter(ctx context.Context, filter model.PageFilter) ([]*model.LinkedPage, error)
}

// ActivityStore reads persisted audit records.
type ActivityStore interface {
	ListByAdmin(ctx context.Context, adminID, limit int) ([]*model.ActivityRecord, error)
}

// PagePlatform is the external platform API used for linking, reading and
// publishing.
type PagePlatform interface {
	ExchangeToken(ctx context.Context, shortLivedToken string) (string, error)
	ListAccounts(ctx context.Context, userToken string) ([]platform.Account, error)
	PagePicture(ctx context.Context, pageID, pageToken string) (string, error)
	PagePosts(ctx context.Context, pageID, pageToken string) (*platform.Collection, error)
	PageAbout(ctx context.Context, pageID, pageToken string) (json.RawMessage, error)
	PageInsights(ctx context.Context, pageID, pageToken string) (*platform.Collection, error)
	PostInsights(ctx context.Context, postID, pageToken string) (*platform.Collection, error)
	PublishFeed(ctx context.Context, pageID, pageToken, message, link string) (json.RawMessage, error)
	PublishPhoto(ctx context.Context, pageID, pageToken string, upload platform.Upload) (json.RawMessage, error)
	PublishVideo(ctx context.Context, pageID, pageToken string, upload platform.Upload) (json.RawMessage, error)
}

// SessionCache is the subset of the Redis client used for admin sessions.
type SessionCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ListPusher is the subset of the Redis client used to enqueue work.
type ListPusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// ChannelPublisher is the subset of the Redis client used for Pub/Sub fan-out.
type ChannelPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}
