package model

import (
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// EventType classifies a calendar entry. meeting, call and video also show up
// in the communication hub.
type EventType string

const (
	EventTypeEvent    EventType = "event"
	EventTypeMeeting  EventType = "meeting"
	EventTypeCall     EventType = "call"
	EventTypeVideo    EventType = "video"
	EventTypeReminder EventType = "reminder"
	EventTypeTask     EventType = "task"
)

// Source records where an event came from.
type Source string

const (
	SourceCalendar     Source = "calendar"
	SourceScheduled    Source = "scheduled"
	SourceHoliday      Source = "holiday"
	SourceSubscription Source = "subscription"
)

// CalendarEvent is a user-authored event. When Recurrence is set it acts as
// the template from which occurrences are derived; occurrences reuse the same
// type with ID, StartDate, EndDate and SourceID rewritten.
type CalendarEvent struct {
	ID        string     `json:"id" yaml:"id"`
	UserID    string     `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Title     string     `json:"title" yaml:"title"`
	StartDate civil.Date `json:"start_date" yaml:"start_date"`
	EndDate   civil.Date `json:"end_date,omitzero" yaml:"end_date,omitempty"`
	IsAllDay  bool       `json:"is_all_day" yaml:"is_all_day"`

	// StartTime / EndTime are wall-clock "HH:MM" or "HH:MM:SS"; empty for
	// all-day events.
	StartTime string `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty" yaml:"end_time,omitempty"`

	Color     string `json:"color,omitempty" yaml:"color,omitempty"`
	Completed bool   `json:"completed,omitempty" yaml:"completed,omitempty"`
	IsHoliday bool   `json:"is_holiday,omitempty" yaml:"is_holiday,omitempty"`

	EventType   EventType `json:"event_type,omitempty" yaml:"event_type,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	MeetingLink string    `json:"meeting_link,omitempty" yaml:"meeting_link,omitempty"`
	Location    string    `json:"location,omitempty" yaml:"location,omitempty"`

	IsRecurring bool        `json:"is_recurring,omitempty" yaml:"is_recurring,omitempty"`
	Recurrence  *Recurrence `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`

	Source   Source `json:"source,omitempty" yaml:"source,omitempty"`
	SourceID string `json:"source_id,omitempty" yaml:"source_id,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
}

// Overlaps reports whether the event's [StartDate, EndDate] span intersects
// [from, to]. A zero EndDate is treated as StartDate.
func (e CalendarEvent) Overlaps(from, to civil.Date) bool {
	end := e.EndDate
	if end.IsZero() || end.Before(e.StartDate) {
		end = e.StartDate
	}
	return !e.StartDate.After(to) && !end.Before(from)
}

// FormatMilitaryTime trims a "HH:MM:SS" wall-clock string to "HH:MM".
func FormatMilitaryTime(t string) string {
	if len(t) > 5 {
		return t[:5]
	}
	return t
}

// SortEvents orders events by start date, then start time, then title.
func SortEvents(events []CalendarEvent) {
	slices.SortStableFunc(events, func(a, b CalendarEvent) int {
		switch {
		case a.StartDate.Before(b.StartDate):
			return -1
		case a.StartDate.After(b.StartDate):
			return 1
		}
		if c := strings.Compare(a.StartTime, b.StartTime); c != 0 {
			return c
		}
		return strings.Compare(a.Title, b.Title)
	})
}
