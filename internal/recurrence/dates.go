package recurrence

import (
	"time"

	"cloud.google.com/go/civil"
)

// weekday returns 0=Sunday..6=Saturday.
func weekday(d civil.Date) int {
	return int(d.In(time.UTC).Weekday())
}

func isWeekend(d civil.Date) bool {
	wd := weekday(d)
	return wd == 0 || wd == 6
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// addMonths moves d by n months, clamping the day to the end of the target
// month (Jan 31 + 1 month = Feb 28/29).
func addMonths(d civil.Date, n int) civil.Date {
	m := int(d.Month) - 1 + n
	y := d.Year + m/12
	m %= 12
	if m < 0 {
		m += 12
		y--
	}
	month := time.Month(m + 1)
	day := d.Day
	if last := daysIn(y, month); day > last {
		day = last
	}
	return civil.Date{Year: y, Month: month, Day: day}
}

// nthWeekday returns the n-th (1-based) dow of the given month. ok is false
// when the month has no such day, e.g. a 5th Friday in a four-Friday month.
func nthWeekday(year int, month time.Month, dow, n int) (civil.Date, bool) {
	if n < 1 || dow < 0 || dow > 6 {
		return civil.Date{}, false
	}
	first := civil.Date{Year: year, Month: month, Day: 1}
	offset := (dow - weekday(first) + 7) % 7
	d := first.AddDays(offset + (n-1)*7)
	if d.Year != year || d.Month != month {
		return civil.Date{}, false
	}
	return d, true
}
