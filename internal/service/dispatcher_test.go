package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pagehub/pagehub-backend/internal/config"
	"github.com/pagehub/pagehub-backend/internal/model"
	"github.com/pagehub/pagehub-backend/internal/platform"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var textPost = model.PublishRequest{ContentType: model.ContentText, Message: "hello"}

func TestValidatePublishRequest(t *testing.T) {
	file := &model.Attachment{Filename: "a.jpg", Data: []byte("x")}

	tests := []struct {
		name string
		req  model.PublishRequest
		want error
	}{
		{"text with message", model.PublishRequest{ContentType: model.ContentText, Message: "hi"}, nil},
		{"text with link only", model.PublishRequest{ContentType: model.ContentText, Link: "https://x.y"}, nil},
		{"text empty", model.PublishRequest{ContentType: model.ContentText, Message: "  "}, ErrMessageOrLinkRequired},
		{"photo with file", model.PublishRequest{ContentType: model.ContentPhoto, Attachment: file}, nil},
		{"photo without file", model.PublishRequest{ContentType: model.ContentPhoto, Message: "hi"}, ErrAttachmentRequired},
		{"video with empty file", model.PublishRequest{ContentType: model.ContentVideo, Attachment: &model.Attachment{}}, ErrAttachmentRequired},
		{"unknown type", model.PublishRequest{ContentType: "audio", Message: "hi"}, ErrInvalidMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePublishRequest(tt.req)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestPublisher_RoutesByContentType(t *testing.T) {
	api := new(mockPlatform)
	pub := NewPublisher(api)
	page := &model.LinkedPage{PageID: "p1", PageAccessToken: "t1"}
	file := &model.Attachment{Filename: "clip.mp4", Data: []byte("bytes")}
	upload := platform.Upload{Message: "caption", Filename: "clip.mp4", Data: []byte("bytes")}
	ctx := context.Background()

	api.On("PublishFeed", mock.Anything, "p1", "t1", "hi", "https://x.y").Return(`{"id":"p1_1"}`, nil)
	api.On("PublishPhoto", mock.Anything, "p1", "t1", upload).Return(`{"id":"ph"}`, nil)
	api.On("PublishVideo", mock.Anything, "p1", "t1", upload).Return(`{"id":"v"}`, nil)

	raw, err := pub.Publish(ctx, page, model.PublishRequest{ContentType: model.ContentText, Message: "hi", Link: "https://x.y"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p1_1"}`, string(raw))

	raw, err = pub.Publish(ctx, page, model.PublishRequest{ContentType: model.ContentPhoto, Message: "caption", Attachment: file})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"ph"}`, string(raw))

	raw, err = pub.Publish(ctx, page, model.PublishRequest{ContentType: model.ContentVideo, Message: "caption", Attachment: file})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"v"}`, string(raw))
}

func TestPublisher_WrapsUpstreamFailure(t *testing.T) {
	api := new(mockPlatform)
	pub := NewPublisher(api)
	page := &model.LinkedPage{PageID: "p1", PageAccessToken: "t1"}

	api.On("PublishFeed", mock.Anything, "p1", "t1", "hello", "").
		Return(nil, &platform.APIError{Status: 400, Message: "Error validating access token", Code: 190})

	_, err := pub.Publish(context.Background(), page, textPost)
	assert.ErrorIs(t, err, ErrPublish)
	assert.Equal(t, "Error validating access token", PublishMessage(err))
}

func TestSinglePublisher_ValidatesBeforeLookup(t *testing.T) {
	api := new(mockPlatform)
	store := newMemPageStore(seededPages()...)
	single := NewSinglePublisher(store, NewPublisher(api), zerolog.Nop())
	ctx := context.Background()

	_, err := single.PublishToPage(ctx, "missing", model.PublishRequest{ContentType: model.ContentPhoto})
	assert.ErrorIs(t, err, ErrAttachmentRequired)

	_, err = single.PublishToPage(ctx, "missing", textPost)
	assert.ErrorIs(t, err, ErrPageNotFound)

	api.On("PublishFeed", mock.Anything, "p3", "t3", "hello", "").Return(`{"id":"p3_1"}`, nil)
	raw, err := single.PublishToPage(ctx, "p3", textPost)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p3_1"}`, string(raw))
	api.AssertNumberOfCalls(t, "PublishFeed", 1)
}

// failingMiddle fails p2 and succeeds on every other page.
func failingMiddle(api *mockPlatform) {
	api.On("PublishFeed", mock.Anything, "p1", "t1", "hello", "").Return(`{"id":"p1_1"}`, nil)
	api.On("PublishFeed", mock.Anything, "p2", "t2", "hello", "").
		Return(nil, &platform.APIError{Status: 400, Message: "Error validating access token"})
	api.On("PublishFeed", mock.Anything, "p3", "t3", "hello", "").Return(`{"id":"p3_1"}`, nil)
}

func TestPublishToMany_BestEffortKeepsOrderAndFailures(t *testing.T) {
	api := new(mockPlatform)
	failingMiddle(api)
	d := NewDispatcher(newMemPageStore(seededPages()...), NewPublisher(api), PolicyBestEffort, 1, zerolog.Nop())

	var seen []int
	results, err := d.PublishToMany(context.Background(), model.PageFilter{}, textPost, func(index, total int, _ model.PublishResult) {
		assert.Equal(t, 3, total)
		seen = append(seen, index)
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "p1", results[0].PageID)
	assert.Equal(t, model.PublishSuccess, results[0].Status)
	assert.JSONEq(t, `{"id":"p1_1"}`, string(results[0].Data))

	assert.Equal(t, "p2", results[1].PageID)
	assert.Equal(t, model.PublishError, results[1].Status)
	assert.Equal(t, "Error validating access token", results[1].Message)

	assert.Equal(t, "p3", results[2].PageID)
	assert.Equal(t, model.PublishSuccess, results[2].Status)

	assert.Equal(t, []int{0, 1, 2}, seen)
	api.AssertNumberOfCalls(t, "PublishFeed", 3)
}

func TestPublishToMany_FailFastStopsAfterFailure(t *testing.T) {
	api := new(mockPlatform)
	failingMiddle(api)
	d := NewDispatcher(newMemPageStore(seededPages()...), NewPublisher(api), PolicyFailFast, 1, zerolog.Nop())

	results, err := d.PublishToMany(context.Background(), model.PageFilter{}, textPost, nil)
	assert.Nil(t, results)
	assert.ErrorIs(t, err, ErrPublish)
	assert.Contains(t, err.Error(), "p2")
	assert.Contains(t, err.Error(), "Error validating access token")

	api.AssertCalled(t, "PublishFeed", mock.Anything, "p1", "t1", "hello", "")
	api.AssertCalled(t, "PublishFeed", mock.Anything, "p2", "t2", "hello", "")
	api.AssertNotCalled(t, "PublishFeed", mock.Anything, "p3", "t3", "hello", "")
}

func TestPublishToMany_FailFastAllSucceed(t *testing.T) {
	api := new(mockPlatform)
	api.On("PublishFeed", mock.Anything, mock.Anything, mock.Anything, "hello", "").Return(`{"id":"ok"}`, nil)
	d := NewDispatcher(newMemPageStore(seededPages()...), NewPublisher(api), PolicyFailFast, 2, zerolog.Nop())

	results, err := d.PublishToMany(context.Background(), model.PageFilter{}, textPost, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, id := range []string{"p1", "p2", "p3"} {
		assert.Equal(t, id, results[i].PageID)
		assert.Equal(t, model.PublishSuccess, results[i].Status)
	}
}

func TestPublishToMany_EmptyTargetsMakesNoCalls(t *testing.T) {
	api := new(mockPlatform)
	d := NewDispatcher(newMemPageStore(seededPages()...), NewPublisher(api), PolicyBestEffort, 1, zerolog.Nop())

	_, err := d.PublishToMany(context.Background(),
		model.PageFilter{Field: model.FilterDistrictName, Value: "Z"}, textPost, nil)
	assert.ErrorIs(t, err, ErrNoPagesFound)

	_, err = NewDispatcher(newMemPageStore(), NewPublisher(api), PolicyFailFast, 1, zerolog.Nop()).
		PublishToMany(context.Background(), model.PageFilter{}, textPost, nil)
	assert.ErrorIs(t, err, ErrNoPagesFound)

	api.AssertNotCalled(t, "PublishFeed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPublishToMany_InvalidRequestMakesNoCalls(t *testing.T) {
	api := new(mockPlatform)
	d := NewDispatcher(newMemPageStore(seededPages()...), NewPublisher(api), PolicyBestEffort, 1, zerolog.Nop())

	_, err := d.PublishToMany(context.Background(), model.PageFilter{},
		model.PublishRequest{ContentType: model.ContentText}, nil)
	assert.ErrorIs(t, err, ErrMessageOrLinkRequired)

	_, err = d.PublishToMany(context.Background(), model.PageFilter{},
		model.PublishRequest{ContentType: model.ContentVideo, Message: "clip"}, nil)
	assert.ErrorIs(t, err, ErrAttachmentRequired)

	assert.Empty(t, api.Calls)
}

func TestPublishToMany_FilterSelectsTargets(t *testing.T) {
	api := new(mockPlatform)
	api.On("PublishFeed", mock.Anything, mock.Anything, mock.Anything, "hello", "").Return(`{}`, nil)
	d := NewDispatcher(newMemPageStore(seededPages()...), NewPublisher(api), PolicyBestEffort, 1, zerolog.Nop())

	results, err := d.PublishToMany(context.Background(),
		model.PageFilter{Field: model.FilterDetachmentName, Value: "North"}, textPost, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "p1", results[0].PageID)
	assert.Equal(t, "p3", results[1].PageID)
}

// slowPlatform records how many publishes run at once.
type slowPlatform struct {
	mockPlatform
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *slowPlatform) PublishFeed(ctx context.Context, pageID, _, _, _ string) (json.RawMessage, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return json.RawMessage(`{"id":"` + pageID + `"}`), nil
}

func TestPublishToMany_BoundedConcurrencyPreservesOrder(t *testing.T) {
	var pages []*model.LinkedPage
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		pages = append(pages, &model.LinkedPage{PageID: id, PageAccessToken: "t"})
	}
	api := &slowPlatform{}
	d := NewDispatcher(newMemPageStore(pages...), NewPublisher(api), PolicyBestEffort, 2, zerolog.Nop())

	var mu sync.Mutex
	calls := 0
	results, err := d.PublishToMany(context.Background(), model.PageFilter{}, textPost, func(int, int, model.PublishResult) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	require.NoError(t, err)

	require.Len(t, results, len(pages))
	for i, p := range pages {
		assert.Equal(t, p.PageID, results[i].PageID)
	}
	assert.LessOrEqual(t, api.peak.Load(), int32(2))
	assert.Equal(t, len(pages), calls)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyBestEffort, p)

	p, err = ParsePolicy("fail_fast")
	require.NoError(t, err)
	assert.Equal(t, PolicyFailFast, p)

	_, err = ParsePolicy("sometimes")
	assert.Error(t, err)
}

// firstFailsPlatform fails p1 at once and publishes every other page after a
// short delay, noting whether it saw its context cancelled meanwhile.
type firstFailsPlatform struct {
	mockPlatform
	sawCancel atomic.Bool
}

func (f *firstFailsPlatform) PublishFeed(ctx context.Context, pageID, _, _, _ string) (json.RawMessage, error) {
	if pageID == "p1" {
		return nil, &platform.APIError{Status: 400, Message: "(#200) Permissions error"}
	}
	time.Sleep(50 * time.Millisecond)
	if err := ctx.Err(); err != nil {
		f.sawCancel.Store(true)
		return nil, err
	}
	return json.RawMessage(`{"id":"` + pageID + `_1"}`), nil
}

func TestPublishToMany_FailFastLetsInFlightPagesFinish(t *testing.T) {
	pages := []*model.LinkedPage{
		{PageID: "p1", PageAccessToken: "t1"},
		{PageID: "p2", PageAccessToken: "t2"},
	}
	api := &firstFailsPlatform{}
	d := NewDispatcher(newMemPageStore(pages...), NewPublisher(api), PolicyFailFast, 2, zerolog.Nop())

	var mu sync.Mutex
	reported := map[string]model.PublishStatus{}
	_, err := d.PublishToMany(context.Background(), model.PageFilter{}, textPost, func(_ int, _ int, r model.PublishResult) {
		mu.Lock()
		reported[r.PageID] = r.Status
		mu.Unlock()
	})

	assert.ErrorIs(t, err, ErrPublish)
	assert.Contains(t, err.Error(), "p1")
	assert.False(t, api.sawCancel.Load())
	assert.Equal(t, model.PublishSuccess, reported["p2"])
}

func TestPublishToMany_TransportFailureHidesCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	client := platform.NewClient(config.PlatformConfig{GraphURL: base, Timeout: time.Second}, zerolog.Nop())
	pages := newMemPageStore(&model.LinkedPage{PageID: "p1", PageAccessToken: "PAGE-TOKEN-SECRET"})
	d := NewDispatcher(pages, NewPublisher(client), PolicyBestEffort, 1, zerolog.Nop())

	results, err := d.PublishToMany(context.Background(), model.PageFilter{}, textPost, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.PublishError, results[0].Status)
	assert.NotEmpty(t, results[0].Message)
	assert.NotContains(t, results[0].Message, "PAGE-TOKEN-SECRET")
	assert.NotContains(t, results[0].Message, base)
}
