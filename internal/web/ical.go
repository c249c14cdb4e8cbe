package web

import (
	"errors"
	"net/http"

	appLog "milify/internal/log"
	"milify/internal/store"
)

// handleICal serves a user's private subscription feed.
//
// GET /api/calendar/ical?token=<uuid>
func (s *Server) handleICal(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "Missing token")
		return
	}

	body, err := s.calendar.FeedForToken(r.Context(), token)
	switch {
	case errors.Is(err, store.ErrInvalidToken):
		writeError(w, http.StatusForbidden, "Invalid token")
		return
	case err != nil:
		appLog.Error("ical feed failed", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch")
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/calendar; charset=utf-8")
	h.Set("Content-Disposition", `attachment; filename="milify-calendar.ics"`)
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
