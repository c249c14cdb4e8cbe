// Package holiday generates the US federal holidays shown on every calendar.
package holiday

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"milify/internal/model"
)

// Color is reserved for federal holidays.
const Color = "holiday"

type rule struct {
	name string
	date func(year int) civil.Date
}

var federal = []rule{
	{"New Year's Day", fixed(time.January, 1)},
	{"Martin Luther King Jr. Day", nth(time.January, time.Monday, 3)},
	{"Presidents' Day", nth(time.February, time.Monday, 3)},
	{"Memorial Day", lastMonday(time.May)},
	{"Juneteenth", fixed(time.June, 19)},
	{"Independence Day", fixed(time.July, 4)},
	{"Labor Day", nth(time.September, time.Monday, 1)},
	{"Columbus Day", nth(time.October, time.Monday, 2)},
	{"Veterans Day", fixed(time.November, 11)},
	{"Thanksgiving Day", nth(time.November, time.Thursday, 4)},
	{"Christmas Day", fixed(time.December, 25)},
}

func fixed(m time.Month, day int) func(int) civil.Date {
	return func(year int) civil.Date {
		return civil.Date{Year: year, Month: m, Day: day}
	}
}

func nth(m time.Month, wd time.Weekday, n int) func(int) civil.Date {
	return func(year int) civil.Date {
		first := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
		offset := (int(wd) - int(first.Weekday()) + 7) % 7
		return civil.DateOf(first.AddDate(0, 0, offset+(n-1)*7))
	}
}

func lastMonday(m time.Month) func(int) civil.Date {
	return func(year int) civil.Date {
		last := time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC)
		diff := (int(last.Weekday()) + 6) % 7
		return civil.DateOf(last.AddDate(0, 0, -diff))
	}
}

// Federal returns the federal holidays of year in calendar order.
func Federal(year int) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(federal))
	for _, h := range federal {
		d := h.date(year)
		out = append(out, model.CalendarEvent{
			ID:        "holiday-" + d.String() + "-" + strings.ReplaceAll(h.name, " ", "-"),
			Title:     h.name,
			StartDate: d,
			EndDate:   d,
			IsAllDay:  true,
			IsHoliday: true,
			Color:     Color,
			Source:    model.SourceHoliday,
		})
	}
	return out
}

// Between returns the holidays falling inside [from, to].
func Between(from, to civil.Date) []model.CalendarEvent {
	var out []model.CalendarEvent
	for y := from.Year; y <= to.Year; y++ {
		for _, h := range Federal(y) {
			if !h.StartDate.Before(from) && !h.StartDate.After(to) {
				out = append(out, h)
			}
		}
	}
	return out
}
