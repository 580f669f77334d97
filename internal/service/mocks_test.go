package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pagehub/pagehub-backend/internal/config"
	"github.com/pagehub/pagehub-backend/internal/model"
	"github.com/pagehub/pagehub-backend/internal/platform"
	"github.com/pagehub/pagehub-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// ─── Platform mock ──────────────────────────────────────────────────

type mockPlatform struct {
	mock.Mock
}

func (m *mockPlatform) ExchangeToken(ctx context.Context, shortLivedToken string) (string, error) {
	args := m.Called(ctx, shortLivedToken)
	return args.String(0), args.Error(1)
}

func (m *mockPlatform) ListAccounts(ctx context.Context, userToken string) ([]platform.Account, error) {
	args := m.Called(ctx, userToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]platform.Account), args.Error(1)
}

func (m *mockPlatform) PagePicture(ctx context.Context, pageID, pageToken string) (string, error) {
	args := m.Called(ctx, pageID, pageToken)
	return args.String(0), args.Error(1)
}

func (m *mockPlatform) PagePosts(ctx context.Context, pageID, pageToken string) (*platform.Collection, error) {
	args := m.Called(ctx, pageID, pageToken)
	return collectionArg(args)
}

func (m *mockPlatform) PageAbout(ctx context.Context, pageID, pageToken string) (json.RawMessage, error) {
	args := m.Called(ctx, pageID, pageToken)
	return rawArg(args)
}

func (m *mockPlatform) PageInsights(ctx context.Context, pageID, pageToken string) (*platform.Collection, error) {
	args := m.Called(ctx, pageID, pageToken)
	return collectionArg(args)
}

func (m *mockPlatform) PostInsights(ctx context.Context, postID, pageToken string) (*platform.Collection, error) {
	args := m.Called(ctx, postID, pageToken)
	return collectionArg(args)
}

func (m *mockPlatform) PublishFeed(ctx context.Context, pageID, pageToken, message, link string) (json.RawMessage, error) {
	args := m.Called(ctx, pageID, pageToken, message, link)
	return rawArg(args)
}

func (m *mockPlatform) PublishPhoto(ctx context.Context, pageID, pageToken string, upload platform.Upload) (json.RawMessage, error) {
	args := m.Called(ctx, pageID, pageToken, upload)
	return rawArg(args)
}

func (m *mockPlatform) PublishVideo(ctx context.Context, pageID, pageToken string, upload platform.Upload) (json.RawMessage, error) {
	args := m.Called(ctx, pageID, pageToken, upload)
	return rawArg(args)
}

func collectionArg(args mock.Arguments) (*platform.Collection, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.Collection), args.Error(1)
}

func rawArg(args mock.Arguments) (json.RawMessage, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return json.RawMessage(args.String(0)), args.Error(1)
}

// ─── In-memory stores ───────────────────────────────────────────────

type memAdminStore struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]*model.Admin
}

func newMemAdminStore() *memAdminStore {
	return &memAdminStore{nextID: 1, byID: make(map[int]*model.Admin)}
}

func (s *memAdminStore) GetByID(_ context.Context, id int) (*model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memAdminStore) GetByEmail(_ context.Context, email string) (*model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memAdminStore) GetByResetToken(_ context.Context, token string) (*model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byID {
		if a.ResetPasswordToken != nil && *a.ResetPasswordToken == token {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memAdminStore) Create(_ context.Context, a *model.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Email == a.Email {
			return repository.ErrDuplicate
		}
	}
	a.ID = s.nextID
	s.nextID++
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	s.byID[a.ID] = &cp
	return nil
}

func (s *memAdminStore) update(id int, fn func(a *model.Admin)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(a)
	return nil
}

func (s *memAdminStore) MarkLoggedIn(_ context.Context, id int, at time.Time) error {
	return s.update(id, func(a *model.Admin) { a.IsLoggedIn = true; a.LastLogin = &at })
}

func (s *memAdminStore) MarkLoggedOut(_ context.Context, id int) error {
	return s.update(id, func(a *model.Admin) { a.IsLoggedIn = false })
}

func (s *memAdminStore) UpdatePassword(_ context.Context, id int, hash string) error {
	return s.update(id, func(a *model.Admin) {
		a.PasswordHash = hash
		a.ResetPasswordToken = nil
		a.ResetPasswordExpires = nil
	})
}

func (s *memAdminStore) SetResetToken(_ context.Context, id int, token string, expires time.Time) error {
	return s.update(id, func(a *model.Admin) {
		a.ResetPasswordToken = &token
		a.ResetPasswordExpires = &expires
	})
}

type memPageStore struct {
	mu      sync.Mutex
	order   []string
	byID    map[string]*model.LinkedPage
	upserts int
	failOn  map[string]error
}

func newMemPageStore(pages ...*model.LinkedPage) *memPageStore {
	s := &memPageStore{byID: make(map[string]*model.LinkedPage), failOn: make(map[string]error)}
	for _, p := range pages {
		s.order = append(s.order, p.PageID)
		s.byID[p.PageID] = p
	}
	return s
}

func (s *memPageStore) Upsert(_ context.Context, in model.UpsertPageInput) (*model.LinkedPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOn[in.PageID]; err != nil {
		return nil, err
	}
	s.upserts++
	p, ok := s.byID[in.PageID]
	if !ok {
		p = &model.LinkedPage{ID: len(s.order) + 1, PageID: in.PageID}
		s.order = append(s.order, in.PageID)
		s.byID[in.PageID] = p
	}
	p.PageName = in.PageName
	p.PageCategory = in.PageCategory
	p.PageProfilePicture = in.PageProfilePicture
	p.PageAccessToken = in.PageAccessToken
	p.DetachmentName = in.DetachmentName
	p.DistrictName = in.DistrictName
	cp := *p
	return &cp, nil
}

func (s *memPageStore) FindByPageID(_ context.Context, pageID string) (*model.LinkedPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[pageID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memPageStore) ListAll(ctx context.Context) ([]*model.LinkedPage, error) {
	return s.ListByFilter(ctx, model.PageFilter{})
}

func (s *memPageStore) ListByFilter(_ context.Context, filter model.PageFilter) ([]*model.LinkedPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.LinkedPage, 0)
	for _, id := range s.order {
		if p := s.byID[id]; filter.Matches(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memActivityStore struct {
	records   []*model.ActivityRecord
	lastLimit int
}

func (s *memActivityStore) ListByAdmin(_ context.Context, adminID, limit int) ([]*model.ActivityRecord, error) {
	s.lastLimit = limit
	out := make([]*model.ActivityRecord, 0)
	for _, r := range s.records {
		if r.AdminID == adminID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

// ─── Redis fake ─────────────────────────────────────────────────────

type fakeRedis struct {
	mu        sync.Mutex
	kv        map[string]string
	ttl       map[string]time.Duration
	lists     map[string][]string
	published map[string][]string
	err       error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		kv:        make(map[string]string),
		ttl:       make(map[string]time.Duration),
		lists:     make(map[string][]string),
		published: make(map[string][]string),
	}
}

func (r *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return redis.NewStatusResult("", r.err)
	}
	r.kv[key] = value.(string)
	r.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (r *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return redis.NewStringResult("", r.err)
	}
	v, ok := r.kv[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (r *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := r.kv[k]; ok {
			delete(r.kv, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (r *fakeRedis) RPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return redis.NewIntResult(0, r.err)
	}
	for _, v := range values {
		r.lists[key] = append(r.lists[key], string(v.([]byte)))
	}
	return redis.NewIntResult(int64(len(r.lists[key])), nil)
}

func (r *fakeRedis) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return redis.NewIntResult(0, r.err)
	}
	r.published[channel] = append(r.published[channel], string(message.([]byte)))
	return redis.NewIntResult(1, nil)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4,
		RegistrationCodes: map[string]string{
			"SuperAdmin":      "super-code",
			"DetachmentAdmin": "detachment-code",
			"DistrictAdmin":   "district-code",
		},
	}
}
