package model

import "cloud.google.com/go/civil"

type RecurrenceType string

const (
	RecurrenceNone     RecurrenceType = "none"
	RecurrenceDaily    RecurrenceType = "daily"
	RecurrenceWeekdays RecurrenceType = "weekdays"
	RecurrenceWeekly   RecurrenceType = "weekly"
	RecurrenceBiweekly RecurrenceType = "biweekly"
	RecurrenceMonthly  RecurrenceType = "monthly"
	RecurrenceYearly   RecurrenceType = "yearly"
)

type EndType string

const (
	EndNever EndType = "never"
	EndDate  EndType = "date"
	EndCount EndType = "count"
)

// Recurrence describes how a template event repeats. Weekday numbers are
// 0=Sunday..6=Saturday.
type Recurrence struct {
	Type     RecurrenceType `json:"type" yaml:"type"`
	Interval int            `json:"interval" yaml:"interval"`

	// DaysOfWeek applies to weekly and biweekly rules.
	DaysOfWeek []int `json:"daysOfWeek,omitempty" yaml:"days_of_week,omitempty"`

	// WeekOfMonth (1-5) and DayOfWeek apply to monthly rules, e.g. the 3rd
	// Tuesday. Nil means "take it from the template's start date".
	WeekOfMonth *int `json:"weekOfMonth,omitempty" yaml:"week_of_month,omitempty"`
	DayOfWeek   *int `json:"dayOfWeek,omitempty" yaml:"day_of_week,omitempty"`

	EndType  EndType     `json:"endType,omitempty" yaml:"end_type,omitempty"`
	EndDate  *civil.Date `json:"endDate,omitempty" yaml:"end_date,omitempty"`
	EndCount int         `json:"endCount,omitempty" yaml:"end_count,omitempty"`
}

// DefaultRecurrence is the value a fresh event form starts with.
func DefaultRecurrence() Recurrence {
	return Recurrence{Type: RecurrenceNone, Interval: 1, EndType: EndNever}
}

// IsRecurring reports whether r produces more than the template itself.
// Unknown rule types do not recur.
func (r *Recurrence) IsRecurring() bool {
	return r != nil && r.Type.recurs()
}

func (t RecurrenceType) recurs() bool {
	switch t {
	case RecurrenceDaily, RecurrenceWeekdays, RecurrenceWeekly, RecurrenceBiweekly,
		RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// Known reports whether t is empty, none or one of the recurring types.
func (t RecurrenceType) Known() bool {
	return t == "" || t == RecurrenceNone || t.recurs()
}

// EffectiveInterval returns Interval, treating non-positive values as 1.
func (r Recurrence) EffectiveInterval() int {
	if r.Interval <= 0 {
		return 1
	}
	return r.Interval
}

// IntPtr is a small helper for the optional monthly fields.
func IntPtr(v int) *int { return &v }
