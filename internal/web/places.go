package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"milify/internal/model"
)

// coords parses and range-checks the lat/lng query parameters.
func coords(r *http.Request) (lat, lng float64, ok bool) {
	q := r.URL.Query()
	lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(q.Get("lng"), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}

// handlePlacesGet returns the cached businesses near lat/lng, or 404 when the
// zone has no fresh entry.
func (s *Server) handlePlacesGet(w http.ResponseWriter, r *http.Request) {
	lat, lng, ok := coords(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid lat/lng")
		return
	}
	entry, hit := s.places.Get(lat, lng)
	if !hit {
		writeError(w, http.StatusNotFound, "not cached")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handlePlacesPut caches the businesses in the body for the zone of lat/lng.
func (s *Server) handlePlacesPut(w http.ResponseWriter, r *http.Request) {
	lat, lng, ok := coords(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid lat/lng")
		return
	}
	var businesses []model.Business
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&businesses); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, s.places.Set(lat, lng, businesses))
}

func (s *Server) handlePlacesClear(w http.ResponseWriter, _ *http.Request) {
	s.places.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlacesStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.places.Stats())
}
