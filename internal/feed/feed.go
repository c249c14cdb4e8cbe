// Package feed renders a user's calendar as a subscribable iCalendar feed.
package feed

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"milify/internal/model"
)

// Options controls calendar-level properties of the feed.
type Options struct {
	Name      string
	ProductID string
	UIDDomain string

	// Location interprets StartTime/EndTime wall clocks. Nil means UTC.
	Location *time.Location
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = "Milify Calendar"
	}
	if o.ProductID == "" {
		o.ProductID = "-//Milify//Calendar//EN"
	}
	if o.UIDDomain == "" {
		o.UIDDomain = "milify.app"
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

// Build serializes events into a VCALENDAR. Recurring events are emitted
// once with an RRULE rather than pre-expanded; tasks become VTODOs.
func Build(opts Options, events []model.CalendarEvent, now time.Time) string {
	opts = opts.withDefaults()

	cal := ical.NewCalendar()
	cal.SetProductId(opts.ProductID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(opts.Name)
	cal.SetXWRTimezone("UTC")

	for _, ev := range events {
		uid := ev.ID + "@" + opts.UIDDomain
		start, end := span(ev, opts.Location)

		stamp := ev.CreatedAt
		if stamp.IsZero() {
			stamp = now
		}
		modified := ev.UpdatedAt
		if modified.IsZero() {
			modified = stamp
		}

		if ev.EventType == model.EventTypeTask {
			todo := cal.AddTodo(uid)
			todo.SetDtStampTime(stamp.UTC())
			setSpan(&todo.ComponentBase, ev, start, time.Time{}, opts.Location)
			describe(&todo.ComponentBase, ev, start)
			if ev.Completed {
				todo.SetProperty(ical.ComponentPropertyStatus, "COMPLETED")
			}
			todo.SetModifiedAt(modified.UTC())
			continue
		}

		vevent := cal.AddEvent(uid)
		vevent.SetDtStampTime(stamp.UTC())
		setSpan(&vevent.ComponentBase, ev, start, end, opts.Location)
		describe(&vevent.ComponentBase, ev, start)
		vevent.SetModifiedAt(modified.UTC())
	}

	return cal.Serialize()
}

func describe(c *ical.ComponentBase, ev model.CalendarEvent, start time.Time) {
	c.SetSummary(ev.Title)
	if ev.Description != "" {
		c.SetDescription(ev.Description)
	}
	if ev.Location != "" {
		c.SetLocation(ev.Location)
	}
	if ev.MeetingLink != "" {
		c.SetProperty(ical.ComponentPropertyUrl, ev.MeetingLink)
	}
	if rule, ok := RRule(ev.Recurrence, start); ok {
		c.AddRrule(rule)
	}
}

const localStamp = "20060102T150405"

// setSpan writes DTSTART, and DTEND unless end is zero. Timed series keep
// their wall clock in loc with a TZID, so the RRULE steps through local
// days the way the expander does. Everything else is written in UTC.
func setSpan(c *ical.ComponentBase, ev model.CalendarEvent, start, end time.Time, loc *time.Location) {
	tzid := loc.String()
	switch {
	case ev.IsAllDay:
		c.SetAllDayStartAt(start)
		if !end.IsZero() {
			c.SetAllDayEndAt(end)
		}
	case ev.Recurrence.IsRecurring() && tzid != "UTC" && tzid != "Local":
		c.SetProperty(ical.ComponentPropertyDtStart, start.In(loc).Format(localStamp), ical.WithTZID(tzid))
		if !end.IsZero() {
			c.SetProperty(ical.ComponentPropertyDtEnd, end.In(loc).Format(localStamp), ical.WithTZID(tzid))
		}
	default:
		c.SetStartAt(start)
		if !end.IsZero() {
			c.SetEndAt(end)
		}
	}
}

// span returns the DTSTART/DTEND instants of ev. All-day events are UTC
// midnights ending on the (exclusive) day after EndDate; timed events are
// in loc and last one hour when they have no end.
func span(ev model.CalendarEvent, loc *time.Location) (time.Time, time.Time) {
	endDate := ev.EndDate
	if endDate.IsZero() || endDate.Before(ev.StartDate) {
		endDate = ev.StartDate
	}

	if ev.IsAllDay {
		return ev.StartDate.In(time.UTC), endDate.AddDays(1).In(time.UTC)
	}

	start := atClock(ev.StartDate.In(loc), ev.StartTime)
	if ev.EndTime == "" {
		return start, start.Add(time.Hour)
	}
	end := atClock(endDate.In(loc), ev.EndTime)
	if !end.After(start) {
		end = start.Add(time.Hour)
	}
	return start, end
}

// atClock places a "HH:MM[:SS]" wall clock on day. Unparseable values leave
// day at midnight.
func atClock(day time.Time, clock string) time.Time {
	clock = strings.TrimSpace(clock)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, day.Location())
		}
	}
	return day
}
