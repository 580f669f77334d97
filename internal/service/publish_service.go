package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pagehub/pagehub-backend/internal/model"
	"github.com/pagehub/pagehub-backend/internal/platform"
	"github.com/rs/zerolog"
)

// Publish errors.
var (
	ErrInvalidMediaType      = errors.New("invalid media type")
	ErrMessageOrLinkRequired = errors.New("message or link is required for text posts")
	ErrAttachmentRequired    = errors.New("a file is required for photo and video posts")
	ErrPublish               = errors.New("publish failed")
)

// ValidatePublishRequest checks a request before any page is resolved or
// any external call is made.
func ValidatePublishRequest(req model.PublishRequest) error {
	switch req.ContentType {
	case model.ContentText:
		if strings.TrimSpace(req.Message) == "" && strings.TrimSpace(req.Link) == "" {
			return ErrMessageOrLinkRequired
		}
	case model.ContentPhoto, model.ContentVideo:
		if req.Attachment == nil || len(req.Attachment.Data) == 0 {
			return ErrAttachmentRequired
		}
	default:
		return ErrInvalidMediaType
	}
	return nil
}

// Publisher sends one content item to one page.
type Publisher struct {
	platform PagePlatform
}

// NewPublisher creates a new Publisher.
func NewPublisher(platform PagePlatform) *Publisher {
	return &Publisher{platform: platform}
}

// Publish sends req to page and returns the platform's raw response. Every
// platform failure is wrapped in ErrPublish.
func (p *Publisher) Publish(ctx context.Context, page *model.LinkedPage, req model.PublishRequest) (json.RawMessage, error) {
	if err := ValidatePublishRequest(req); err != nil {
		return nil, err
	}

	var (
		raw json.RawMessage
		err error
	)
	switch req.ContentType {
	case model.ContentVideo:
		raw, err = p.platform.PublishVideo(ctx, page.PageID, page.PageAccessToken, uploadOf(req))
	case model.ContentPhoto:
		raw, err = p.platform.PublishPhoto(ctx, page.PageID, page.PageAccessToken, uploadOf(req))
	case model.ContentText:
		raw, err = p.platform.PublishFeed(ctx, page.PageID, page.PageAccessToken, req.Message, req.Link)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return raw, nil
}

func uploadOf(req model.PublishRequest) platform.Upload {
	return platform.Upload{
		Message:  req.Message,
		Filename: req.Attachment.Filename,
		Data:     req.Attachment.Data,
	}
}

// PublishMessage returns the text reported to callers for a publish failure.
func PublishMessage(err error) string {
	return upstreamMessage(err)
}

// SinglePublisher publishes to one page looked up in the registry, so the
// caller never supplies a page credential.
type SinglePublisher struct {
	pages     PageStore
	publisher *Publisher
	log       zerolog.Logger
}

// NewSinglePublisher creates a new SinglePublisher.
func NewSinglePublisher(pages PageStore, publisher *Publisher, log zerolog.Logger) *SinglePublisher {
	return &SinglePublisher{
		pages:     pages,
		publisher: publisher,
		log:       log.With().Str("component", "single_publisher").Logger(),
	}
}

// PublishToPage validates req, resolves the page and publishes to it.
func (s *SinglePublisher) PublishToPage(ctx context.Context, pageID string, req model.PublishRequest) (json.RawMessage, error) {
	if err := ValidatePublishRequest(req); err != nil {
		return nil, err
	}

	page, err := findPage(ctx, s.pages, pageID)
	if err != nil {
		return nil, err
	}

	raw, err := s.publisher.Publish(ctx, page, req)
	if err != nil {
		s.log.Warn().Err(err).Str("page_id", pageID).Msg("publish to page failed")
		return nil, err
	}
	return raw, nil
}
