// Package calendar combines stored events, federal holidays and external
// subscriptions into the views the API and CLI serve.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"milify/internal/feed"
	"milify/internal/holiday"
	"milify/internal/ics"
	appLog "milify/internal/log"
	"milify/internal/model"
	"milify/internal/recurrence"
	"milify/internal/store"
)

// ErrBadRange is returned when a window ends before it starts.
var ErrBadRange = errors.New("calendar: end before start")

// WindowOptions selects the extra layers merged into a window.
type WindowOptions struct {
	Holidays      bool
	Subscriptions bool
}

type Service struct {
	store    store.Store
	subs     *ics.Subscriptions
	feedOpts feed.Options
	now      func() time.Time
}

// NewService wires a Service. subs may be nil when no subscriptions are
// configured.
func NewService(st store.Store, subs *ics.Subscriptions, feedOpts feed.Options) *Service {
	return &Service{
		store:    st,
		subs:     subs,
		feedOpts: feedOpts,
		now:      time.Now,
	}
}

// Window returns every occurrence visible to userID in [from, to], sorted by
// date, start time and title.
func (s *Service) Window(ctx context.Context, userID string, from, to civil.Date, opts WindowOptions) ([]model.CalendarEvent, error) {
	if to.Before(from) {
		return nil, ErrBadRange
	}

	events, err := s.store.ListEvents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list events for %s: %w", userID, err)
	}

	out := recurrence.Window(events, from, to)
	if opts.Holidays {
		out = append(out, holiday.Between(from, to)...)
	}
	if opts.Subscriptions && s.subs != nil {
		out = append(out, s.subs.Window(from, to)...)
	}
	model.SortEvents(out)

	appLog.Debug("calendar window",
		"user", userID,
		"from", from.String(),
		"to", to.String(),
		"templates", len(events),
		"occurrences", len(out),
	)
	return out, nil
}

// Feed renders userID's events as an iCalendar document. Recurring events
// are emitted once with an RRULE, not expanded.
func (s *Service) Feed(ctx context.Context, userID string) (string, error) {
	events, err := s.store.ListEvents(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("list events for %s: %w", userID, err)
	}
	return feed.Build(s.feedOpts, events, s.now()), nil
}

// FeedForToken resolves a private feed token and renders its owner's feed.
// Unknown tokens yield store.ErrInvalidToken.
func (s *Service) FeedForToken(ctx context.Context, token string) (string, error) {
	userID, err := s.store.UserForFeedToken(ctx, token)
	if err != nil {
		return "", err
	}
	return s.Feed(ctx, userID)
}

// IssueFeedToken replaces userID's feed token.
func (s *Service) IssueFeedToken(ctx context.Context, userID string) (string, error) {
	return s.store.IssueFeedToken(ctx, userID)
}

// SaveEvent stores ev, generating an ID when it has none and deriving
// IsRecurring from the rule.
func (s *Service) SaveEvent(ctx context.Context, ev model.CalendarEvent) (model.CalendarEvent, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.EventType == "" {
		ev.EventType = model.EventTypeEvent
	}
	if ev.Source == "" {
		ev.Source = model.SourceCalendar
	}
	ev.IsRecurring = ev.Recurrence.IsRecurring()

	if err := s.store.PutEvent(ctx, ev); err != nil {
		return model.CalendarEvent{}, err
	}
	appLog.Info("event saved", "id", ev.ID, "user", ev.UserID, "recurring", ev.IsRecurring)
	return ev, nil
}
