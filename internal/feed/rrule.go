package feed

import (
	"time"

	"github.com/teambition/rrule-go"

	"milify/internal/model"
)

var weekdays = []rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// RRule converts a recurrence into an RFC 5545 RRULE value (without the
// "RRULE:" prefix). start is the series' DTSTART in the zone it is published
// in; its date supplies the weekday defaults the expander also uses and its
// location places UNTIL. ok is false for non-recurring rules.
func RRule(r *model.Recurrence, start time.Time) (string, bool) {
	if !r.IsRecurring() {
		return "", false
	}

	opt := rrule.ROption{
		Interval: r.EffectiveInterval(),
		Wkst:     rrule.SU,
	}

	switch r.Type {
	case model.RecurrenceDaily:
		opt.Freq = rrule.DAILY
	case model.RecurrenceWeekdays:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 1
		opt.Byweekday = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}
	case model.RecurrenceWeekly, model.RecurrenceBiweekly:
		opt.Freq = rrule.WEEKLY
		if r.Type == model.RecurrenceBiweekly {
			opt.Interval = 2
		}
		for _, d := range r.DaysOfWeek {
			if d >= 0 && d <= 6 {
				opt.Byweekday = append(opt.Byweekday, weekdays[d])
			}
		}
		if len(opt.Byweekday) == 0 {
			opt.Byweekday = []rrule.Weekday{weekdays[start.Weekday()]}
		}
	case model.RecurrenceMonthly:
		opt.Freq = rrule.MONTHLY
		dow := int(start.Weekday())
		if r.DayOfWeek != nil && *r.DayOfWeek >= 0 && *r.DayOfWeek <= 6 {
			dow = *r.DayOfWeek
		}
		n := (start.Day() + 6) / 7
		if r.WeekOfMonth != nil {
			n = *r.WeekOfMonth
		}
		opt.Byweekday = []rrule.Weekday{weekdays[dow].Nth(n)}
	case model.RecurrenceYearly:
		opt.Freq = rrule.YEARLY
	default:
		return "", false
	}

	if r.EndDate != nil {
		// Inclusive through the end of the cutoff day.
		d := r.EndDate
		opt.Until = time.Date(d.Year, d.Month, d.Day, 23, 59, 59, 0, start.Location()).UTC()
	}
	if r.EndCount > 0 {
		opt.Count = r.EndCount
	}

	return opt.RRuleString(), true
}
