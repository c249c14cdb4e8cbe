package ics

import (
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/teambition/rrule-go"

	appLog "milify/internal/log"
	"milify/internal/model"
	"milify/internal/recurrence"
)

// ExpandOptions selects the window and zone subscription occurrences are
// rendered in.
type ExpandOptions struct {
	// Location is the zone timed events are converted into before taking
	// their date; nil means time.Local.
	Location *time.Location

	From, To civil.Date

	// MaxPerEvent caps the occurrences of one recurring event; zero means
	// recurrence.DefaultMaxOccurrences.
	MaxPerEvent int
}

// Occurrences expands parsed subscription events into date-only calendar
// occurrences within [From, To]. RECURRENCE-ID overrides replace the
// instance they point at and EXDATEs drop theirs.
func Occurrences(events []ParsedEvent, opts ExpandOptions) []model.CalendarEvent {
	if opts.To.Before(opts.From) {
		return []model.CalendarEvent{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MaxPerEvent <= 0 {
		opts.MaxPerEvent = recurrence.DefaultMaxOccurrences
	}

	base := make([]ParsedEvent, 0, len(events))
	overrides := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		base = append(base, ev)
	}

	out := make([]model.CalendarEvent, 0)
	for _, ev := range base {
		if ev.RawRRule == "" {
			if occ := toCalendarEvent(ev, ev.Start, ev.End, opts.Location); occ.Overlaps(opts.From, opts.To) {
				out = append(out, occ)
			}
			continue
		}
		out = append(out, expandRecurring(ev, overrides[ev.UID], opts)...)
	}
	model.SortEvents(out)
	return out
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, opts ExpandOptions) []model.CalendarEvent {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("subscription rrule rejected", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Query a day of slack either side; the date test below is exact.
	zone := ev.Start.Location()
	lo := opts.From.AddDays(-1).In(zone)
	hi := opts.To.AddDays(2).In(zone)

	dur := ev.End.Sub(ev.Start)
	out := make([]model.CalendarEvent, 0)
	for _, start := range set.Between(lo, hi, true) {
		inst, instStart, instEnd := ev, start, start.Add(dur)
		if o, ok := findOverride(overrides, start); ok {
			inst, instStart, instEnd = o, o.Start, o.End
		}

		occ := toCalendarEvent(inst, instStart, instEnd, opts.Location)
		if !occ.Overlaps(opts.From, opts.To) {
			continue
		}
		if len(out) == opts.MaxPerEvent {
			appLog.Error("subscription expansion truncated",
				errors.New("max occurrences reached"),
				"uid", ev.UID,
				"cap", opts.MaxPerEvent,
			)
			break
		}
		out = append(out, occ)
	}
	return out
}

func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, o := range overrides {
		if o.RecurrenceID.Equal(start) {
			return o, true
		}
	}
	return ParsedEvent{}, false
}

// toCalendarEvent renders one instance. All-day DTEND is exclusive, so the
// last covered date is the day before it.
func toCalendarEvent(ev ParsedEvent, start, end time.Time, loc *time.Location) model.CalendarEvent {
	occ := model.CalendarEvent{
		Title:       ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		IsAllDay:    ev.AllDay,
		Color:       ev.Source.Color,
		EventType:   model.EventTypeEvent,
		Source:      model.SourceSubscription,
		SourceID:    ev.UID,
	}

	if ev.AllDay {
		occ.StartDate = civil.DateOf(start)
		occ.EndDate = civil.DateOf(end).AddDays(-1)
	} else {
		s, e := start.In(loc), end.In(loc)
		occ.StartDate = civil.DateOf(s)
		occ.EndDate = civil.DateOf(e)
		occ.StartTime = s.Format("15:04")
		occ.EndTime = e.Format("15:04")
	}
	if occ.EndDate.Before(occ.StartDate) {
		occ.EndDate = occ.StartDate
	}

	occ.ID = fmt.Sprintf("sub_%s_%s_%s", ev.Source.ID, ev.UID, occ.StartDate)
	return occ
}
