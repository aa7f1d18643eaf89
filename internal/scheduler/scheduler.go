// Package scheduler drives the periodic check cycle over all tracked keywords.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"carouspot/internal/detect"
	"carouspot/internal/model"
	"carouspot/internal/notify"
	"carouspot/internal/registry"
)

// Source is the interface for fetching the current listing snapshot of a keyword.
type Source interface {
	Search(ctx context.Context, keyword string) ([]model.Listing, error)
}

// Dispatcher is the interface for delivering rendered messages to subscribers.
type Dispatcher interface {
	Deliver(ctx context.Context, chatIDs []int64, chunks []string) notify.Report
}

// Scheduler periodically scrapes every tracked keyword and notifies
// subscribers about new listings.
type Scheduler struct {
	reg          registry.Registry
	source       Source
	dispatcher   Dispatcher
	log          *slog.Logger
	tick         time.Duration
	initialDelay time.Duration
}

// New creates a Scheduler. The defaults match the reference behavior: a
// half-hour cycle with a short startup delay.
func New(reg registry.Registry, source Source, dispatcher Dispatcher, log *slog.Logger) *Scheduler {
	return &Scheduler{
		reg:          reg,
		source:       source,
		dispatcher:   dispatcher,
		log:          log,
		tick:         30 * time.Minute,
		initialDelay: 5 * time.Second,
	}
}

// SetTickInterval overrides the default cycle interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// SetInitialDelay overrides the delay before the first cycle.
func (s *Scheduler) SetInitialDelay(d time.Duration) {
	s.initialDelay = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.initialDelay):
	}

	s.checkAll(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAll(ctx)
		}
	}
}

func (s *Scheduler) checkAll(ctx context.Context) {
	keywords, err := s.reg.ListKeywords(ctx)
	if err != nil {
		s.log.Error("list keywords", "error", err)
		return
	}

	for _, kw := range keywords {
		if ctx.Err() != nil {
			return
		}
		s.processKeyword(ctx, kw)
	}
}

// processKeyword is the per-keyword error boundary: nothing that goes wrong
// in here escapes the cycle.
func (s *Scheduler) processKeyword(ctx context.Context, kw model.Keyword) {
	s.log.Debug("checking keyword", "keyword", kw.Keyword, "cursor", kw.Cursor)

	snapshot, err := s.source.Search(ctx, kw.Keyword)
	if err != nil {
		// Skipped this cycle, retried on the next tick.
		s.log.Error("fetch listings", "keyword", kw.Keyword, "error", err)
		return
	}

	now := time.Now().UTC()
	newListings, next := detect.New(snapshot, kw.Cursor)

	if len(newListings) == 0 {
		if err := s.reg.TouchChecked(ctx, kw.Keyword, now); err != nil {
			s.log.Error("touch checked", "keyword", kw.Keyword, "error", err)
		}
		return
	}

	// The cursor is committed before dispatch: a crash in between can lose
	// one batch of notifications but never re-sends one.
	if err := s.reg.AdvanceCursor(ctx, kw.Keyword, next, now); err != nil {
		s.log.Error("advance cursor", "keyword", kw.Keyword, "error", err)
		return
	}

	subscribers, err := s.reg.ActiveSubscribers(ctx, kw.Keyword)
	if err != nil {
		s.log.Error("list active subscribers", "keyword", kw.Keyword, "error", err)
		return
	}
	if len(subscribers) == 0 {
		return
	}

	chunks := notify.Render(kw.Keyword, newListings)
	rep := s.dispatcher.Deliver(ctx, subscribers, chunks)

	s.log.Info("sent notifications",
		"keyword", kw.Keyword,
		"listings", len(newListings),
		"cursor", next,
		"delivered", rep.Delivered,
		"transient_failures", rep.Transient,
		"deactivated", len(rep.Deactivated),
	)
}
