package feed

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	ical "github.com/arran4/golang-ical"
	goical "github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milify/internal/model"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func sampleEvents() []model.CalendarEvent {
	created := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	return []model.CalendarEvent{
		{
			ID:          "evt-1",
			Title:       "FRG meeting; bring snacks, chairs",
			StartDate:   civil.Date{Year: 2026, Month: 3, Day: 2},
			EndDate:     civil.Date{Year: 2026, Month: 3, Day: 2},
			StartTime:   "14:00:00",
			EndTime:     "15:30",
			Location:    "Bldg 1450",
			Description: "Quarterly\nreadiness brief",
			CreatedAt:   created,
		},
		{
			ID:        "evt-2",
			Title:     "PT",
			StartDate: civil.Date{Year: 2026, Month: 3, Day: 2},
			EndDate:   civil.Date{Year: 2026, Month: 3, Day: 2},
			IsAllDay:  true,
			Recurrence: &model.Recurrence{
				Type:       model.RecurrenceBiweekly,
				DaysOfWeek: []int{1},
				EndCount:   5,
			},
		},
		{
			ID:        "task-1",
			Title:     "Update DEERS",
			StartDate: civil.Date{Year: 2026, Month: 3, Day: 5},
			EndDate:   civil.Date{Year: 2026, Month: 3, Day: 5},
			IsAllDay:  true,
			EventType: model.EventTypeTask,
			Completed: true,
		},
	}
}

func TestBuild_CalendarProperties(t *testing.T) {
	out := Build(Options{Name: "Family Calendar"}, sampleEvents(), now)

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "VERSION:2.0")
	assert.Contains(t, out, "PRODID:-//Milify//Calendar//EN")
	assert.Contains(t, out, "CALSCALE:GREGORIAN")
	assert.Contains(t, out, "METHOD:PUBLISH")
	assert.Contains(t, out, "X-WR-CALNAME:Family Calendar")
	assert.Contains(t, out, "X-WR-TIMEZONE:UTC")
	assert.Contains(t, strings.TrimSpace(out), "END:VCALENDAR")
}

func TestBuild_Components(t *testing.T) {
	out := Build(Options{}, sampleEvents(), now)

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2)

	timed := events[0]
	assert.Equal(t, "evt-1@milify.app", timed.Id())
	assert.Equal(t, "20260302T140000Z", timed.GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20260302T153000Z", timed.GetProperty(ical.ComponentPropertyDtEnd).Value)
	assert.Equal(t, "20260201T093000Z", timed.GetProperty(ical.ComponentPropertyDtstamp).Value)
	assert.Equal(t, "Bldg 1450", timed.GetProperty(ical.ComponentPropertyLocation).Value)

	allDay := events[1]
	assert.Equal(t, "PT", allDay.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "20260302", allDay.GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20260303", allDay.GetProperty(ical.ComponentPropertyDtEnd).Value)
	rrule := allDay.GetProperty(ical.ComponentPropertyRrule)
	require.NotNil(t, rrule)
	assert.Contains(t, rrule.Value, "FREQ=WEEKLY")
	assert.Contains(t, rrule.Value, "INTERVAL=2")
	assert.Contains(t, rrule.Value, "COUNT=5")
	assert.Contains(t, rrule.Value, "BYDAY=MO")

	var todos []*ical.VTodo
	for _, c := range cal.Components {
		if td, ok := c.(*ical.VTodo); ok {
			todos = append(todos, td)
		}
	}
	require.Len(t, todos, 1)
	assert.Equal(t, "COMPLETED", todos[0].GetProperty(ical.ComponentPropertyStatus).Value)
	assert.Nil(t, todos[0].GetProperty(ical.ComponentPropertyDtEnd))
}

func TestBuild_TimedEventInConfiguredZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	ev := sampleEvents()[0]
	ev.EndTime = ""
	out := Build(Options{Location: loc}, []model.CalendarEvent{ev}, now)

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 1)
	// 14:00 EST is 19:00 UTC; no end time means one hour.
	assert.Equal(t, "20260302T190000Z", cal.Events()[0].GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20260302T200000Z", cal.Events()[0].GetProperty(ical.ComponentPropertyDtEnd).Value)
}

func TestBuild_DecodesWithIndependentParser(t *testing.T) {
	out := Build(Options{}, sampleEvents(), now)

	cal, err := goical.NewDecoder(strings.NewReader(out)).Decode()
	require.NoError(t, err)

	var vevents, vtodos int
	for _, child := range cal.Children {
		switch child.Name {
		case goical.CompEvent:
			vevents++
		case goical.CompToDo:
			vtodos++
		}
	}
	assert.Equal(t, 2, vevents)
	assert.Equal(t, 1, vtodos)

	summary, err := cal.Events()[0].Props.Text(goical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "FRG meeting; bring snacks, chairs", summary)
}

func TestBuild_Empty(t *testing.T) {
	out := Build(Options{}, nil, now)

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	assert.Empty(t, cal.Events())
}
