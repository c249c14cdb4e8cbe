package geocache

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milify/internal/model"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)}
}

var commissary = []model.Business{{
	ID:       "b1",
	Name:     "Lowe's",
	Lat:      38.9012,
	Lng:      -77.0401,
	Category: model.CategoryRetail,
	Discount: "10% off year-round",
}}

func TestKey(t *testing.T) {
	tests := []struct {
		lat, lng float64
		want     string
	}{
		{38.8977, -77.0365, "38.9,-77.04"},
		{38.90, -77.04, "38.9,-77.04"},
		{35.1234, 139.6789, "35.12,139.68"},
		{0.001, -0.004, "0,0"},
		{-33.865, 151.209, "-33.86,151.21"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Key(tt.lat, tt.lng))
	}
}

func TestGetSet(t *testing.T) {
	clock := newClock()
	c := New("", 0, WithClock(clock.Now))

	_, ok := c.Get(38.9, -77.04)
	assert.False(t, ok)

	c.Set(38.9012, -77.0401, commissary)

	// Nearby coordinates land in the same zone.
	got, ok := c.Get(38.8977, -77.0365)
	require.True(t, ok)
	assert.Equal(t, commissary, got.Businesses)
	assert.Equal(t, clock.Now(), got.Timestamp)
}

func TestExpiry(t *testing.T) {
	clock := newClock()
	c := New("", time.Hour, WithClock(clock.Now))
	c.Set(38.9, -77.04, commissary)

	clock.Advance(59 * time.Minute)
	_, ok := c.Get(38.9, -77.04)
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok = c.Get(38.9, -77.04)
	assert.False(t, ok)
}

func TestPrune(t *testing.T) {
	clock := newClock()
	c := New("", DefaultTTL, WithClock(clock.Now))
	c.Set(38.9, -77.04, commissary)
	clock.Advance(23 * time.Hour)
	c.Set(35.12, 139.68, nil)
	clock.Advance(2 * time.Hour)

	assert.Equal(t, 1, c.Prune())
	assert.Equal(t, 1, c.Stats().Entries)
	_, ok := c.Get(35.12, 139.68)
	assert.True(t, ok)
}

func TestClearAndStats(t *testing.T) {
	c := New("", 0)
	assert.Equal(t, Stats{Entries: 0, Size: "2 bytes"}, c.Stats())

	c.Set(38.9, -77.04, commissary)
	st := c.Stats()
	assert.Equal(t, 1, st.Entries)
	assert.Contains(t, st.Size, "bytes")

	many := make([]model.Business, 20)
	for i := range many {
		many[i] = commissary[0]
	}
	c.Set(35.12, 139.68, many)
	assert.Contains(t, c.Stats().Size, "KB")

	c.Clear()
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "geocache.json")
	clock := newClock()

	c := New(path, 0, WithClock(clock.Now))
	require.NoError(t, c.Load(), "missing file is not an error")
	c.Set(38.9, -77.04, commissary)
	require.NoError(t, c.Save())

	restored := New(path, 0, WithClock(clock.Now))
	require.NoError(t, restored.Load())
	got, ok := restored.Get(38.9, -77.04)
	require.True(t, ok)
	assert.Equal(t, "Lowe's", got.Businesses[0].Name)
	assert.True(t, clock.Now().Equal(got.Timestamp))
}

func TestConcurrentAccess(t *testing.T) {
	c := New("", 0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(float64(i), float64(j), commissary)
				c.Get(float64(i), float64(j))
				c.Stats()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 800, c.Stats().Entries)
}
