package ics

import (
	"strings"
	"testing"
	"time"

	_ "time/tzdata"
)

// installationCalendar has a weekly formation with one EXDATE and one moved
// instance, plus an all-day event.
var installationCalendar = strings.ReplaceAll(`BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Fort Example//Events//EN
BEGIN:VEVENT
UID:formation@example.mil
DTSTAMP:20260101T000000Z
DTSTART;TZID=America/New_York:20260105T063000
DTEND;TZID=America/New_York:20260105T073000
RRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=4
EXDATE;TZID=America/New_York:20260112T063000
SUMMARY:Unit formation
LOCATION:Parade field
END:VEVENT
BEGIN:VEVENT
UID:fun-run@example.mil
DTSTAMP:20260101T000000Z
DTSTART;VALUE=DATE:20260110
DTEND;VALUE=DATE:20260111
SUMMARY:Family fun run
END:VEVENT
BEGIN:VEVENT
UID:formation@example.mil
DTSTAMP:20260101T000000Z
RECURRENCE-ID;TZID=America/New_York:20260119T063000
DTSTART;TZID=America/New_York:20260119T080000
DTEND;TZID=America/New_York:20260119T090000
SUMMARY:Unit formation (late start)
END:VEVENT
END:VCALENDAR
`, "\n", "\r\n")

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	return loc
}
