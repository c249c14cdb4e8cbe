package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"cloud.google.com/go/civil"

	"milify/internal/calendar"
	appLog "milify/internal/log"
	"milify/internal/model"
	"milify/internal/recurrence"
	"milify/internal/store"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type eventsResponse struct {
	Events []model.CalendarEvent `json:"events"`
	Start  civil.Date            `json:"start"`
	End    civil.Date            `json:"end"`
}

// handleEvents returns the occurrences of a user's calendar in a window.
//
// GET /api/events?user=U&start=YYYY-MM-DD&end=YYYY-MM-DD[&holidays=1][&subscriptions=1]
//
// holidays defaults to the include_holidays config setting.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	user := q.Get("user")
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing user")
		return
	}
	start, err := civil.ParseDate(q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date")
		return
	}
	end, err := civil.ParseDate(q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date")
		return
	}

	opts := calendar.WindowOptions{
		Holidays:      parseBoolDefault(q.Get("holidays"), s.cfg.IncludeHolidays),
		Subscriptions: parseBoolDefault(q.Get("subscriptions"), false),
	}

	events, err := s.calendar.Window(r.Context(), user, start, end, opts)
	switch {
	case errors.Is(err, calendar.ErrBadRange):
		writeError(w, http.StatusBadRequest, "end is before start")
		return
	case err != nil:
		appLog.Error("api events: window failed", err, "user", user)
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}

	writeJSON(w, http.StatusOK, eventsResponse{Events: events, Start: start, End: end})
}

// handleCreateEvent stores a calendar event.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.CalendarEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	saved, err := s.calendar.SaveEvent(r.Context(), ev)
	switch {
	case errors.Is(err, store.ErrInvalidEvent):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		appLog.Error("api events: save failed", err, "user", ev.UserID)
		writeError(w, http.StatusInternalServerError, "failed to save event")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

type describeResponse struct {
	Description string `json:"description"`
}

// handleDescribe renders a recurrence rule as the label the event form shows.
func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	var rule model.Recurrence
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, describeResponse{Description: recurrence.Describe(rule)})
}

func parseBoolDefault(v string, def bool) bool {
	switch v {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return def
	}
}
