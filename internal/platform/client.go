// Package platform is the outbound client for the external page platform's
// Graph-style HTTP API: OAuth token exchange, page listing, page reads and
// the feed/photo/video publish endpoints.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pagehub/pagehub-backend/internal/config"
	"github.com/rs/zerolog"
)

const (
	postFields    = "id,message,story,attachments,reactions,shares,comments,permalink_url,status_type,created_time,updated_time"
	aboutFields   = "id,name,about,fan_count,followers_count,category,link,website,location,is_published,is_verified,cover,picture"
	pageMetrics   = "page_impressions,page_impressions_unique,page_post_engagements,page_views_total,page_video_views,page_fan_adds,page_fan_removes"
	postMetrics   = "post_impressions,post_impressions_unique,post_clicks,post_clicks_by_type,post_video_views,post_video_avg_time_watched,post_reactions_by_type_total,post_reactions_like_total,post_reactions_love_total,post_reactions_wow_total,post_reactions_haha_total,post_reactions_sorry_total,post_reactions_anger_total"
	maxErrorBytes = 64 * 1024
)

// Client talks to the external platform. Every call is bounded by the
// configured timeout.
type Client struct {
	http      *http.Client
	graphURL  string
	videoURL  string
	appID     string
	appSecret string
	log       zerolog.Logger
}

// NewClient creates a Client from the platform configuration.
func NewClient(cfg config.PlatformConfig, log zerolog.Logger) *Client {
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		graphURL:  cfg.GraphURL,
		videoURL:  cfg.VideoURL,
		appID:     cfg.AppID,
		appSecret: cfg.AppSecret,
		log:       log.With().Str("component", "platform_client").Logger(),
	}
}

// ExchangeToken trades a short-lived user token for a long-lived one.
func (c *Client) ExchangeToken(ctx context.Context, shortLivedToken string) (string, error) {
	q := url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {c.appID},
		"client_secret":     {c.appSecret},
		"fb_exchange_token": {shortLivedToken},
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.getJSON(ctx, c.graphURL+"/oauth/access_token", q, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", &APIError{Message: "token exchange returned no access token"}
	}
	return out.AccessToken, nil
}

// ListAccounts returns the pages administered by the holder of userToken,
// each with its page-scoped credential, in the order the platform returns them.
func (c *Client) ListAccounts(ctx context.Context, userToken string) ([]Account, error) {
	var out struct {
		Data []Account `json:"data"`
	}
	if err := c.getJSON(ctx, c.graphURL+"/me/accounts", url.Values{"access_token": {userToken}}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// PagePicture returns the profile picture URL of a page.
func (c *Client) PagePicture(ctx context.Context, pageID, pageToken string) (string, error) {
	q := url.Values{"access_token": {pageToken}, "redirect": {"false"}}

	var out struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.pageURL(c.graphURL, pageID, "picture"), q, &out); err != nil {
		return "", err
	}
	return out.Data.URL, nil
}

// PagePosts lists a page's posts.
func (c *Client) PagePosts(ctx context.Context, pageID, pageToken string) (*Collection, error) {
	q := url.Values{"access_token": {pageToken}, "fields": {postFields}}
	return c.getCollection(ctx, c.pageURL(c.graphURL, pageID, "posts"), q)
}

// PageAbout returns a page's basic information.
func (c *Client) PageAbout(ctx context.Context, pageID, pageToken string) (json.RawMessage, error) {
	q := url.Values{"access_token": {pageToken}, "fields": {aboutFields}}

	var out json.RawMessage
	if err := c.getJSON(ctx, c.pageURL(c.graphURL, pageID, ""), q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PageInsights returns a page's analytics metrics.
func (c *Client) PageInsights(ctx context.Context, pageID, pageToken string) (*Collection, error) {
	q := url.Values{"access_token": {pageToken}, "metric": {pageMetrics}}
	return c.getCollection(ctx, c.pageURL(c.graphURL, pageID, "insights"), q)
}

// PostInsights returns analytics metrics for one post, using the owning
// page's credential.
func (c *Client) PostInsights(ctx context.Context, postID, pageToken string) (*Collection, error) {
	q := url.Values{"access_token": {pageToken}, "metric": {postMetrics}}
	return c.getCollection(ctx, c.pageURL(c.graphURL, postID, "insights"), q)
}

// PublishFeed posts a text/link entry to a page feed.
func (c *Client) PublishFeed(ctx context.Context, pageID, pageToken, message, link string) (json.RawMessage, error) {
	body, err := json.Marshal(struct {
		Message string `json:"message,omitempty"`
		Link    string `json:"link,omitempty"`
	}{message, link})
	if err != nil {
		return nil, err
	}

	endpoint := c.pageURL(c.graphURL, pageID, "feed") + "?" + url.Values{"access_token": {pageToken}}.Encode()
	return c.send(ctx, http.MethodPost, endpoint, "application/json", bytes.NewReader(body))
}

// PublishPhoto uploads a photo with a caption to a page.
func (c *Client) PublishPhoto(ctx context.Context, pageID, pageToken string, upload Upload) (json.RawMessage, error) {
	body, contentType, err := multipartBody(map[string]string{"message": upload.Message}, upload)
	if err != nil {
		return nil, err
	}

	endpoint := c.pageURL(c.graphURL, pageID, "photos") + "?" + url.Values{"access_token": {pageToken}}.Encode()
	return c.send(ctx, http.MethodPost, endpoint, contentType, body)
}

// PublishVideo uploads a video with a description to a page. The credential
// travels in the multipart body.
func (c *Client) PublishVideo(ctx context.Context, pageID, pageToken string, upload Upload) (json.RawMessage, error) {
	body, contentType, err := multipartBody(map[string]string{
		"access_token": pageToken,
		"description":  upload.Message,
	}, upload)
	if err != nil {
		return nil, err
	}

	return c.send(ctx, http.MethodPost, c.pageURL(c.videoURL, pageID, "videos"), contentType, body)
}

// ─── Internal helpers ──────────────────────────────────────────────────

func (c *Client) pageURL(base, id, edge string) string {
	u := base + "/" + url.PathEscape(id)
	if edge != "" {
		u += "/" + edge
	}
	return u
}

func (c *Client) getCollection(ctx context.Context, endpoint string, q url.Values) (*Collection, error) {
	out := &Collection{}
	if err := c.getJSON(ctx, endpoint, q, out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = json.RawMessage("[]")
	}
	if out.Paging == nil {
		out.Paging = json.RawMessage("{}")
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, q url.Values, dst any) error {
	raw, err := c.send(ctx, http.MethodGet, endpoint+"?"+q.Encode(), "", nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &APIError{Message: "malformed platform response: " + err.Error()}
	}
	return nil
}

// send performs one request and returns the raw body. Transport failures,
// non-2xx statuses and error payloads inside 2xx bodies all become errors.
func (c *Client) send(ctx context.Context, method, endpoint, contentType string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		err = classifyTransport(err)
		c.log.Debug().Err(err).Str("method", method).Str("path", req.URL.Path).Msg("platform call failed")
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("platform call")

	if apiErr := decodeError(raw); apiErr != nil {
		apiErr.Status = resp.StatusCode
		return nil, apiErr
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw[:min(len(raw), maxErrorBytes)]))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	return raw, nil
}

// decodeError extracts an {"error": {...}} payload, if present.
func decodeError(raw []byte) *APIError {
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error == nil {
		return nil
	}
	if envelope.Error.Message == "" {
		envelope.Error.Message = "platform returned an error"
	}
	return envelope.Error
}

// classifyTransport maps a transport failure to ErrTimeout or ErrUnavailable.
// The request URL is dropped from the message since it carries credentials
// in its query string.
func classifyTransport(err error) error {
	cause := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		cause = urlErr.Op + ": " + urlErr.Err.Error()
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s", ErrTimeout, cause)
	}
	return fmt.Errorf("%w: %s", ErrUnavailable, cause)
}

func multipartBody(fields map[string]string, upload Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, name := range []string{"access_token", "message", "description"} {
		if v, ok := fields[name]; ok {
			if err := w.WriteField(name, v); err != nil {
				return nil, "", err
			}
		}
	}

	part, err := w.CreateFormFile("file", upload.Filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
