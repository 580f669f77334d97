package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pagehub/pagehub-backend/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrNoPagesFound is returned when a dispatch resolves to no target pages.
var ErrNoPagesFound = errors.New("no pages found")

// Policy decides how a multi-page publish reacts to a per-page failure.
type Policy string

const (
	// PolicyBestEffort attempts every page and reports each outcome.
	PolicyBestEffort Policy = "best_effort"
	// PolicyFailFast aborts on the first failure and returns only that error.
	PolicyFailFast Policy = "fail_fast"
)

// ParsePolicy converts a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyBestEffort, PolicyFailFast:
		return Policy(s), nil
	case "":
		return PolicyBestEffort, nil
	}
	return "", fmt.Errorf("unknown publish policy %q", s)
}

// ProgressFunc observes each page outcome as it completes. index is the
// page's position in the target list. Calls are serialized.
type ProgressFunc func(index, total int, result model.PublishResult)

// Dispatcher fans one publish request out to a set of pages. At most
// concurrency pages are in flight; results keep the target order.
type Dispatcher struct {
	pages       PageStore
	publisher   *Publisher
	policy      Policy
	concurrency int
	log         zerolog.Logger
}

// NewDispatcher creates a new Dispatcher. A concurrency below 1 means
// sequential dispatch.
func NewDispatcher(pages PageStore, publisher *Publisher, policy Policy, concurrency int, log zerolog.Logger) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{
		pages:       pages,
		publisher:   publisher,
		policy:      policy,
		concurrency: concurrency,
		log:         log.With().Str("component", "dispatcher").Str("policy", string(policy)).Logger(),
	}
}

// Policy returns the policy this dispatcher was deployed with.
func (d *Dispatcher) Policy() Policy {
	return d.policy
}

// PublishToMany publishes req to every page matching filter. An empty filter
// targets all pages.
//
// Under the best-effort policy per-page failures never fail the call: each
// is recorded in the returned list. Under fail-fast the first failure is
// returned and no page is started after it; pages already in flight finish.
func (d *Dispatcher) PublishToMany(ctx context.Context, filter model.PageFilter, req model.PublishRequest, progress ProgressFunc) ([]model.PublishResult, error) {
	if err := ValidatePublishRequest(req); err != nil {
		return nil, err
	}

	var (
		targets []*model.LinkedPage
		err     error
	)
	if filter.IsEmpty() {
		targets, err = d.pages.ListAll(ctx)
	} else {
		targets, err = d.pages.ListByFilter(ctx, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve targets: %w", err)
	}
	if len(targets) == 0 {
		return nil, ErrNoPagesFound
	}

	report := serialized(progress, len(targets))

	if d.policy == PolicyFailFast {
		return d.failFast(ctx, targets, req, report)
	}
	return d.bestEffort(ctx, targets, req, report), nil
}

func (d *Dispatcher) bestEffort(ctx context.Context, targets []*model.LinkedPage, req model.PublishRequest, report func(int, model.PublishResult)) []model.PublishResult {
	results := make([]model.PublishResult, len(targets))

	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)
	for i, page := range targets {
		g.Go(func() error {
			results[i] = d.publishOne(ctx, page, req)
			report(i, results[i])
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Status == model.PublishError {
			failed++
		}
	}
	d.log.Info().Int("pages", len(targets)).Int("failed", failed).Msg("dispatch finished")
	return results
}

func (d *Dispatcher) failFast(ctx context.Context, targets []*model.LinkedPage, req model.PublishRequest, report func(int, model.PublishResult)) ([]model.PublishResult, error) {
	results := make([]model.PublishResult, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, page := range targets {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// The group context is cancelled before a failed slot is released,
			// so a page waiting for that slot sees the abort here.
			if gctx.Err() != nil {
				return nil
			}
			// Pages already started run to completion on ctx.
			results[i] = d.publishOne(ctx, page, req)
			report(i, results[i])
			if results[i].Status == model.PublishError {
				return fmt.Errorf("%w: page %s: %s", ErrPublish, page.PageID, results[i].Message)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		d.log.Warn().Err(err).Int("pages", len(targets)).Msg("dispatch aborted")
		return nil, err
	}

	d.log.Info().Int("pages", len(targets)).Msg("dispatch finished")
	return results, nil
}

func (d *Dispatcher) publishOne(ctx context.Context, page *model.LinkedPage, req model.PublishRequest) model.PublishResult {
	raw, err := d.publisher.Publish(ctx, page, req)
	if err != nil {
		d.log.Debug().Err(err).Str("page_id", page.PageID).Msg("publish to page failed")
		return model.PublishResult{PageID: page.PageID, Status: model.PublishError, Message: PublishMessage(err)}
	}
	return model.PublishResult{PageID: page.PageID, Status: model.PublishSuccess, Data: raw}
}

func serialized(progress ProgressFunc, total int) func(int, model.PublishResult) {
	if progress == nil {
		return func(int, model.PublishResult) {}
	}
	var mu sync.Mutex
	return func(index int, result model.PublishResult) {
		mu.Lock()
		defer mu.Unlock()
		progress(index, total, result)
	}
}
