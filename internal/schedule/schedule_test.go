package schedule

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"milify/internal/geocache"
	"milify/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAddRejectsBadSpec(t *testing.T) {
	s := New(time.UTC)
	defer s.Stop()

	err := s.Add("broken", "not a cron spec", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestRunAllInOrder(t *testing.T) {
	s := New(time.UTC)
	defer s.Stop()

	var order []string
	require.NoError(t, s.Add("first", "0 * * * *", func(context.Context) error {
		order = append(order, "first")
		return errors.New("logged, not fatal")
	}))
	require.NoError(t, s.Add("second", "*/30 * * * *", func(context.Context) error {
		order = append(order, "second")
		return nil
	}))

	s.RunAll()
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestStopCancelsJobContext(t *testing.T) {
	s := New(time.UTC)

	var seen context.Context
	require.NoError(t, s.Add("probe", "@hourly", func(ctx context.Context) error {
		seen = ctx
		return nil
	}))
	s.Start()
	s.RunAll()
	s.Stop()

	require.NotNil(t, seen)
	assert.ErrorIs(t, seen.Err(), context.Canceled)
}

func TestGeoCacheCleanup(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "geocache.json")
	cache := geocache.New(path, time.Hour, geocache.WithClock(func() time.Time { return now }))

	cache.Set(38.9, -77.04, []model.Business{{ID: "1", Name: "Commissary"}})
	now = now.Add(2 * time.Hour)
	cache.Set(35.14, -79.0, []model.Business{{ID: "2", Name: "PX"}})

	require.NoError(t, GeoCacheCleanup(cache)(context.Background()))
	assert.Equal(t, 1, cache.Stats().Entries)

	reloaded := geocache.New(path, time.Hour, geocache.WithClock(func() time.Time { return now }))
	require.NoError(t, reloaded.Load())
	_, ok := reloaded.Get(35.14, -79.0)
	assert.True(t, ok)
}
