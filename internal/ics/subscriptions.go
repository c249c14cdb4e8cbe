package ics

import (
	"context"
	"errors"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	appLog "milify/internal/log"
	"milify/internal/model"
)

// Subscriptions keeps the last parsed snapshot of every configured feed.
// Refresh replaces the snapshot; readers never see a partial update.
type Subscriptions struct {
	fetcher *Fetcher
	sources []Source
	loc     *time.Location

	mu          sync.RWMutex
	events      []ParsedEvent
	refreshedAt time.Time
}

// NewSubscriptions returns an empty set; call Refresh to populate it.
func NewSubscriptions(fetcher *Fetcher, sources []Source, loc *time.Location) *Subscriptions {
	if loc == nil {
		loc = time.Local
	}
	return &Subscriptions{fetcher: fetcher, sources: sources, loc: loc}
}

// Refresh fetches and parses every source. Sources that fail keep their
// previous events; the returned error joins the individual failures.
func (s *Subscriptions) Refresh(ctx context.Context) error {
	if len(s.sources) == 0 {
		return nil
	}

	results, errs := s.fetcher.FetchAll(ctx, s.sources)

	fresh := make(map[string][]ParsedEvent, len(results))
	for _, res := range results {
		events, err := ParseICS(res.Source, res.Body)
		if err != nil {
			appLog.Error("subscription parse failed", err, "id", res.Source.ID, "url", redactURL(res.Source.URL))
			errs = append(errs, err)
			continue
		}
		fresh[res.Source.ID] = events
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]ParsedEvent, 0, len(s.events))
	for _, ev := range s.events {
		if _, replaced := fresh[ev.Source.ID]; !replaced {
			next = append(next, ev)
		}
	}
	for _, src := range s.sources {
		next = append(next, fresh[src.ID]...)
	}
	s.events = next
	s.refreshedAt = time.Now()

	appLog.Info("subscriptions refreshed",
		"sources", len(s.sources),
		"ok", len(fresh),
		"events", len(next),
	)
	return errors.Join(errs...)
}

// Window returns the subscription occurrences in [from, to].
func (s *Subscriptions) Window(from, to civil.Date) []model.CalendarEvent {
	s.mu.RLock()
	events := s.events
	s.mu.RUnlock()

	return Occurrences(events, ExpandOptions{Location: s.loc, From: from, To: to})
}

// RefreshedAt reports when Refresh last completed; zero if never.
func (s *Subscriptions) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}
