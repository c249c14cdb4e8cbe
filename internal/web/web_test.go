package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milify/internal/calendar"
	"milify/internal/config"
	"milify/internal/feed"
	"milify/internal/geocache"
	"milify/internal/model"
	"milify/internal/store/file"
)

type fixture struct {
	srv   *httptest.Server
	cal   *calendar.Service
	cache *geocache.Cache
	cfg   *config.Config
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.IncludeHolidays = false
	if mutate != nil {
		mutate(cfg)
	}

	st, err := file.Open(filepath.Join(t.TempDir(), "calendar.yaml"))
	require.NoError(t, err)
	cal := calendar.NewService(st, nil, feed.Options{})
	cache := geocache.New("", time.Hour)

	srv := httptest.NewServer(NewServer(cfg, cal, cache).Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, cal: cal, cache: cache, cfg: cfg}
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if f.cfg.BasicAuth != nil {
		req.SetBasicAuth(f.cfg.BasicAuth.Username, f.cfg.BasicAuth.Password)
	}
	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEventsWindow(t *testing.T) {
	f := newFixture(t, nil)

	body := `{
		"user_id": "u1",
		"title": "Weekly formation",
		"start_date": "2026-03-02",
		"start_time": "06:30",
		"recurrence": {"type": "weekly", "interval": 1, "daysOfWeek": [1, 3]}
	}`
	resp := f.do(t, http.MethodPost, "/api/events", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.CalendarEvent](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsRecurring)

	resp = f.do(t, http.MethodGet, "/api/events?user=u1&start=2026-03-01&end=2026-03-14", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[eventsResponse](t, resp)

	var dates []string
	for _, ev := range got.Events {
		dates = append(dates, ev.StartDate.String())
		assert.Equal(t, created.ID, ev.SourceID)
	}
	assert.Equal(t, []string{"2026-03-02", "2026-03-04", "2026-03-09", "2026-03-11"}, dates)
	assert.Equal(t, civil.Date{Year: 2026, Month: 3, Day: 1}, got.Start)
}

func TestEventsHolidaysFlag(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodGet, "/api/events?user=u1&start=2026-07-01&end=2026-07-31&holidays=1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[eventsResponse](t, resp)
	require.Len(t, got.Events, 1)
	assert.Equal(t, "2026-07-04", got.Events[0].StartDate.String())
	assert.True(t, got.Events[0].IsHoliday)

	resp = f.do(t, http.MethodGet, "/api/events?user=u1&start=2026-07-01&end=2026-07-31", "")
	got = decode[eventsResponse](t, resp)
	assert.Empty(t, got.Events)
}

func TestEventsBadRequests(t *testing.T) {
	f := newFixture(t, nil)

	for _, path := range []string{
		"/api/events?start=2026-01-01&end=2026-01-31",
		"/api/events?user=u1&start=2026-13-01&end=2026-01-31",
		"/api/events?user=u1&start=2026-01-01",
		"/api/events?user=u1&start=2026-02-01&end=2026-01-01",
	} {
		resp := f.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}

	resp := f.do(t, http.MethodPost, "/api/events", `{"user_id": "u1", "start_date": "2026-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/events", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/events",
		`{"user_id": "u1", "title": "PT", "start_date": "2026-03-02", "recurrence": {"type": "Weekly"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDescribe(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodPost, "/api/recurrence/describe",
		`{"type": "monthly", "interval": 1, "weekOfMonth": 3, "dayOfWeek": 2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[describeResponse](t, resp)
	assert.Equal(t, "Monthly on the 3rd Tue", got.Description)
}

func TestICalFeed(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.cal.SaveEvent(ctx, model.CalendarEvent{
		ID: "pcs", UserID: "u1", Title: "PCS move", StartDate: civil.Date{Year: 2026, Month: 6, Day: 1}, IsAllDay: true,
	})
	require.NoError(t, err)
	token, err := f.cal.IssueFeedToken(ctx, "u1")
	require.NoError(t, err)

	resp := f.do(t, http.MethodGet, "/api/calendar/ical", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/calendar/ical?token=wrong", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/calendar/ical?token="+token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/calendar; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="milify-calendar.ics"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "SUMMARY:PCS move")
}

func TestPlacesCache(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodGet, "/api/places/cache?lat=38.8977&lng=-77.0365", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodPut, "/api/places/cache?lat=38.8977&lng=-77.0365",
		`[{"id": "b1", "name": "Commissary", "lat": 38.9, "lng": -77.04, "address": "1 Main St", "category": "grocery", "discount": "10%"}]`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/places/cache?lat=38.9012&lng=-77.0401", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entry := decode[model.CachedLocation](t, resp)
	require.Len(t, entry.Businesses, 1)
	assert.Equal(t, "Commissary", entry.Businesses[0].Name)

	resp = f.do(t, http.MethodGet, "/api/places/cache/stats", "")
	stats := decode[geocache.Stats](t, resp)
	assert.Equal(t, 1, stats.Entries)

	resp = f.do(t, http.MethodDelete, "/api/places/cache", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, f.cache.Stats().Entries)

	resp = f.do(t, http.MethodGet, "/api/places/cache?lat=200&lng=0", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBasicAuth(t *testing.T) {
	f := newFixture(t, func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "s3cret"}
	})

	anon := func(path string) int {
		resp, err := f.srv.Client().Get(f.srv.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, anon("/health"))
	assert.Equal(t, http.StatusForbidden, anon("/api/calendar/ical?token=x"))
	assert.Equal(t, http.StatusUnauthorized, anon("/api/places/cache/stats"))

	resp := f.do(t, http.MethodGet, "/api/places/cache/stats", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
