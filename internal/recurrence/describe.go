package recurrence

import (
	"fmt"
	"strings"

	"milify/internal/model"
)

var (
	dayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	ordinals = [...]string{"", "1st", "2nd", "3rd", "4th", "5th"}
)

// Describe renders r as a short human-readable phrase such as
// "Every 2 weeks on Mon, Wed". It returns "" for none and unknown types.
func Describe(r model.Recurrence) string {
	n := r.EffectiveInterval()

	switch r.Type {
	case model.RecurrenceDaily:
		if n == 1 {
			return "Every day"
		}
		return fmt.Sprintf("Every %d days", n)

	case model.RecurrenceWeekdays:
		return "Every weekday (Mon-Fri)"

	case model.RecurrenceWeekly:
		if names := joinDays(r.DaysOfWeek); names != "" {
			if n == 1 {
				return "Weekly on " + names
			}
			return fmt.Sprintf("Every %d weeks on %s", n, names)
		}
		if n == 1 {
			return "Weekly"
		}
		return fmt.Sprintf("Every %d weeks", n)

	case model.RecurrenceBiweekly:
		if names := joinDays(r.DaysOfWeek); names != "" {
			return "Every 2 weeks on " + names
		}
		return "Every 2 weeks"

	case model.RecurrenceMonthly:
		nth := 1
		if r.WeekOfMonth != nil && *r.WeekOfMonth >= 1 && *r.WeekOfMonth < len(ordinals) {
			nth = *r.WeekOfMonth
		}
		day := 0
		if r.DayOfWeek != nil && *r.DayOfWeek >= 0 && *r.DayOfWeek < len(dayNames) {
			day = *r.DayOfWeek
		}
		if n == 1 {
			return fmt.Sprintf("Monthly on the %s %s", ordinals[nth], dayNames[day])
		}
		return fmt.Sprintf("Every %d months on the %s %s", n, ordinals[nth], dayNames[day])

	case model.RecurrenceYearly:
		if n == 1 {
			return "Yearly"
		}
		return fmt.Sprintf("Every %d years", n)
	}
	return ""
}

func joinDays(days []int) string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		if d >= 0 && d < len(dayNames) {
			names = append(names, dayNames[d])
		}
	}
	return strings.Join(names, ", ")
}
