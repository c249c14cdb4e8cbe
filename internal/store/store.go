// Package store defines where calendar events and iCal feed tokens are kept.
// Implementations live in the file and postgres subpackages.
package store

import (
	"context"
	"errors"
	"fmt"

	"milify/internal/model"
)

var (
	// ErrInvalidEvent is returned by PutEvent for events missing an ID,
	// owner or title.
	ErrInvalidEvent = errors.New("store: invalid event")
	// ErrInvalidToken is returned when a feed token matches no user.
	ErrInvalidToken = errors.New("store: invalid feed token")
)

// Store is the read side the expander, the feed and the HTTP API need.
type Store interface {
	// ListEvents returns the user's template events, recurring or not, in
	// start date order. An unknown user yields an empty slice.
	ListEvents(ctx context.Context, userID string) ([]model.CalendarEvent, error)

	// UserForFeedToken resolves a private feed token to its owner, or
	// returns ErrInvalidToken.
	UserForFeedToken(ctx context.Context, token string) (string, error)

	// IssueFeedToken creates a new token for userID. Earlier tokens of the
	// same user are revoked.
	IssueFeedToken(ctx context.Context, userID string) (string, error)

	// PutEvent inserts or replaces an event by ID.
	PutEvent(ctx context.Context, ev model.CalendarEvent) error

	Close() error
}

// CheckEvent validates the fields every stored event must carry.
func CheckEvent(ev model.CalendarEvent) error {
	switch {
	case ev.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidEvent)
	case ev.UserID == "":
		return fmt.Errorf("%w: missing user_id", ErrInvalidEvent)
	case ev.Title == "":
		return fmt.Errorf("%w: missing title", ErrInvalidEvent)
	case ev.StartDate.IsZero():
		return fmt.Errorf("%w: missing start_date", ErrInvalidEvent)
	case ev.Recurrence != nil && !ev.Recurrence.Type.Known():
		return fmt.Errorf("%w: unknown recurrence type %q", ErrInvalidEvent, ev.Recurrence.Type)
	}
	return nil
}
