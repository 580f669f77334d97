package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pagehub/pagehub-backend/internal/model"
	"github.com/pagehub/pagehub-backend/internal/platform"
	"github.com/pagehub/pagehub-backend/internal/repository"
	"github.com/rs/zerolog"
)

// Page errors.
var (
	ErrTokenExchange      = errors.New("token exchange failed")
	ErrPageFetch          = errors.New("failed to fetch pages")
	ErrPageNotFound       = errors.New("page not found")
	ErrInvalidFilterField = errors.New("invalid filter field")
	ErrUpstream           = errors.New("platform request failed")
)

// PageService links external pages into the registry and proxies page reads.
type PageService struct {
	pages    PageStore
	platform PagePlatform
	log      zerolog.Logger
}

// NewPageService creates a new PageService.
func NewPageService(pages PageStore, platform PagePlatform, log zerolog.Logger) *PageService {
	return &PageService{
		pages:    pages,
		platform: platform,
		log:      log.With().Str("component", "page_service").Logger(),
	}
}

// LinkPages exchanges a short-lived user token, lists the pages the user
// administers and upserts each of them in the order the platform returned.
// Any failure aborts the remaining pages; exchange and listing failures abort
// before the registry is touched.
func (s *PageService) LinkPages(ctx context.Context, shortLivedToken string, grouping model.PageGrouping) ([]*model.LinkedPage, error) {
	longLived, err := s.platform.ExchangeToken(ctx, shortLivedToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTokenExchange, upstreamMessage(err))
	}

	accounts, err := s.platform.ListAccounts(ctx, longLived)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPageFetch, upstreamMessage(err))
	}

	linked := make([]*model.LinkedPage, 0, len(accounts))
	for _, acct := range accounts {
		picture, err := s.platform.PagePicture(ctx, acct.ID, acct.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("%w: picture for page %s: %s", ErrPageFetch, acct.ID, upstreamMessage(err))
		}

		page, err := s.pages.Upsert(ctx, model.UpsertPageInput{
			PageID:             acct.ID,
			PageName:           acct.Name,
			PageCategory:       acct.Category,
			PageProfilePicture: picture,
			PageAccessToken:    acct.AccessToken,
			PageGrouping:       grouping,
		})
		if err != nil {
			return nil, fmt.Errorf("upsert page %s: %w", acct.ID, err)
		}
		linked = append(linked, page)
	}

	s.log.Info().Int("count", len(linked)).Msg("pages linked")
	return linked, nil
}

// ResolveFilter validates a caller-supplied filter. If either argument is
// empty the result selects every page.
func ResolveFilter(fieldName, fieldValue string) (model.PageFilter, error) {
	if fieldName == "" || fieldValue == "" {
		return model.PageFilter{}, nil
	}
	field := model.PageFilterField(fieldName)
	if _, ok := field.Column(); !ok {
		return model.PageFilter{}, ErrInvalidFilterField
	}
	return model.PageFilter{Field: field, Value: fieldValue}, nil
}

// ListPages lists pages matching the filter, or every page when no filter
// is given.
func (s *PageService) ListPages(ctx context.Context, fieldName, fieldValue string) ([]*model.LinkedPage, error) {
	filter, err := ResolveFilter(fieldName, fieldValue)
	if err != nil {
		return nil, err
	}
	if filter.IsEmpty() {
		return s.pages.ListAll(ctx)
	}
	return s.pages.ListByFilter(ctx, filter)
}

// GetPage returns a linked page by its external ID.
func (s *PageService) GetPage(ctx context.Context, pageID string) (*model.LinkedPage, error) {
	return findPage(ctx, s.pages, pageID)
}

func findPage(ctx context.Context, pages PageStore, pageID string) (*model.LinkedPage, error) {
	page, err := pages.FindByPageID(ctx, pageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return page, nil
}

// GetPosts lists a page's posts.
func (s *PageService) GetPosts(ctx context.Context, pageID string) (*platform.Collection, error) {
	page, err := s.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	posts, err := s.platform.PagePosts(ctx, page.PageID, page.PageAccessToken)
	return posts, wrapUpstream(err)
}

// GetAbout returns a page's profile information.
func (s *PageService) GetAbout(ctx context.Context, pageID string) (json.RawMessage, error) {
	page, err := s.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	about, err := s.platform.PageAbout(ctx, page.PageID, page.PageAccessToken)
	return about, wrapUpstream(err)
}

// GetInsights returns a page's analytics.
func (s *PageService) GetInsights(ctx context.Context, pageID string) (*platform.Collection, error) {
	page, err := s.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	insights, err := s.platform.PageInsights(ctx, page.PageID, page.PageAccessToken)
	return insights, wrapUpstream(err)
}

// GetPostInsights returns analytics for one post of a linked page.
func (s *PageService) GetPostInsights(ctx context.Context, pageID, postID string) (*platform.Collection, error) {
	page, err := s.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	insights, err := s.platform.PostInsights(ctx, postID, page.PageAccessToken)
	return insights, wrapUpstream(err)
}

func wrapUpstream(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUpstream, upstreamMessage(err))
}

// upstreamMessage extracts the platform's own message when there is one.
func upstreamMessage(err error) string {
	var apiErr *platform.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
