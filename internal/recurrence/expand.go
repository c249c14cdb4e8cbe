package recurrence

import (
	"iter"
	"slices"

	"cloud.google.com/go/civil"

	"milify/internal/model"
)

// DefaultMaxOccurrences bounds an expansion when the rule sets no EndCount.
const DefaultMaxOccurrences = 365

// bounds carries the stop conditions shared by every rule type.
type bounds struct {
	max        int
	count      int
	endDate    *civil.Date
	rangeStart civil.Date
	rangeEnd   civil.Date
}

func newBounds(rule model.Recurrence, rangeStart, rangeEnd civil.Date) *bounds {
	limit := rule.EndCount
	if limit <= 0 {
		limit = DefaultMaxOccurrences
	}
	return &bounds{
		max:        limit,
		endDate:    rule.EndDate,
		rangeStart: rangeStart,
		rangeEnd:   rangeEnd,
	}
}

// past reports whether d lies after the rule's end date or the range end.
func (b *bounds) past(d civil.Date) bool {
	if b.endDate != nil && d.After(*b.endDate) {
		return true
	}
	return d.After(b.rangeEnd)
}

// emit yields d if it is inside the range. It returns false once iteration
// must stop, either because the consumer quit or the cap was reached.
func (b *bounds) emit(d civil.Date, yield func(civil.Date) bool) bool {
	if d.Before(b.rangeStart) {
		return true
	}
	b.count++
	if !yield(d) {
		return false
	}
	return b.count < b.max
}

// Dates lazily yields the dates on which a series starting at start recurs
// under rule, restricted to [rangeStart, rangeEnd]. Nothing is yielded for
// non-recurring rules.
func Dates(start civil.Date, rule model.Recurrence, rangeStart, rangeEnd civil.Date) iter.Seq[civil.Date] {
	return func(yield func(civil.Date) bool) {
		if !rule.IsRecurring() {
			return
		}
		b := newBounds(rule, rangeStart, rangeEnd)
		interval := rule.EffectiveInterval()

		switch rule.Type {
		case model.RecurrenceDaily:
			sequential(b, yield, func(i int) civil.Date {
				return start.AddDays(i * interval)
			})

		case model.RecurrenceWeekdays:
			for i := 0; ; i++ {
				d := start.AddDays(i)
				if b.past(d) {
					return
				}
				if isWeekend(d) {
					continue
				}
				if !b.emit(d, yield) {
					return
				}
			}

		case model.RecurrenceWeekly, model.RecurrenceBiweekly:
			weekInterval := interval
			if rule.Type == model.RecurrenceBiweekly {
				weekInterval = 2
			}
			weekly(b, yield, start, weekInterval, targetDays(rule.DaysOfWeek, start))

		case model.RecurrenceMonthly:
			monthly(b, yield, start, interval, rule)

		case model.RecurrenceYearly:
			sequential(b, yield, func(i int) civil.Date {
				return addMonths(start, 12*i*interval)
			})
		}
	}
}

func sequential(b *bounds, yield func(civil.Date) bool, next func(i int) civil.Date) {
	for i := 0; ; i++ {
		d := next(i)
		if b.past(d) {
			return
		}
		if !b.emit(d, yield) {
			return
		}
	}
}

func weekly(b *bounds, yield func(civil.Date) bool, start civil.Date, weekInterval int, days []int) {
	for w := 0; ; w++ {
		weekStart := start.AddDays(7 * w * weekInterval)
		base := weekday(weekStart)
		for _, dow := range days {
			d := weekStart.AddDays(dow - base)
			if d.Before(start) {
				continue
			}
			if b.past(d) {
				break
			}
			if !b.emit(d, yield) {
				return
			}
		}
		if b.past(weekStart) {
			return
		}
	}
}

func monthly(b *bounds, yield func(civil.Date) bool, start civil.Date, interval int, rule model.Recurrence) {
	dow := weekday(start)
	if rule.DayOfWeek != nil && *rule.DayOfWeek >= 0 && *rule.DayOfWeek <= 6 {
		dow = *rule.DayOfWeek
	}
	nth := (start.Day + 6) / 7
	if rule.WeekOfMonth != nil {
		nth = *rule.WeekOfMonth
	}

	first := civil.Date{Year: start.Year, Month: start.Month, Day: 1}
	for m := 0; ; m++ {
		month := addMonths(first, m*interval)
		if b.past(month) {
			return
		}
		d, ok := nthWeekday(month.Year, month.Month, dow, nth)
		if !ok || d.Before(start) {
			continue
		}
		if b.past(d) {
			return
		}
		if !b.emit(d, yield) {
			return
		}
	}
}

// targetDays returns the sorted, de-duplicated valid weekdays of days, or the
// weekday of start when none are given.
func targetDays(days []int, start civil.Date) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d >= 0 && d <= 6 {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return []int{weekday(start)}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Expand materializes the occurrences of event within [rangeStart, rangeEnd].
//
// A non-recurring event comes back as a single-element slice holding the
// event unchanged, without checking it against the range. The same fallback
// applies when a recurring event has no date inside the range, so callers
// must read a lone unmodified template as "nothing expanded".
func Expand(event model.CalendarEvent, rangeStart, rangeEnd civil.Date) []model.CalendarEvent {
	if !event.Recurrence.IsRecurring() {
		return []model.CalendarEvent{event}
	}

	var out []model.CalendarEvent
	for d := range Dates(event.StartDate, *event.Recurrence, rangeStart, rangeEnd) {
		out = append(out, occurrence(event, d))
	}
	if len(out) == 0 {
		return []model.CalendarEvent{event}
	}
	return out
}

func occurrence(event model.CalendarEvent, d civil.Date) model.CalendarEvent {
	occ := event
	occ.ID = event.ID + "_rec_" + d.String()
	occ.StartDate = d
	occ.EndDate = d
	if event.SourceID == "" {
		occ.SourceID = event.ID
	}
	return occ
}

// Window expands every event and keeps only what actually falls inside
// [from, to]. Unlike Expand it never returns a template as a fallback, and
// non-recurring events outside the window are dropped. The result is
// ordered by date, start time and title.
func Window(events []model.CalendarEvent, from, to civil.Date) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if !ev.Recurrence.IsRecurring() {
			if ev.Overlaps(from, to) {
				out = append(out, ev)
			}
			continue
		}
		for d := range Dates(ev.StartDate, *ev.Recurrence, from, to) {
			out = append(out, occurrence(ev, d))
		}
	}
	model.SortEvents(out)
	return out
}
