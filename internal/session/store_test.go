package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/NastyaGoryachaya/crypto-converter/internal/domain"
	"github.com/NastyaGoryachaya/crypto-converter/internal/service/converter"
	"github.com/NastyaGoryachaya/crypto-converter/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	mu    sync.Mutex
	calls int
}

func (f *stubFetcher) FetchRate(context.Context, domain.CryptoID, domain.CurrencyCode) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 100, nil
}

func (f *stubFetcher) FetchHistory(context.Context, domain.CryptoID, domain.CurrencyCode) (domain.HistoricalSeries, error) {
	return domain.HistoricalSeries{}, nil
}

type countingGauge struct {
	mu     sync.Mutex
	active int
}

func (g *countingGauge) WidgetMounted()   { g.mu.Lock(); g.active++; g.mu.Unlock() }
func (g *countingGauge) WidgetUnmounted() { g.mu.Lock(); g.active--; g.mu.Unlock() }

func (g *countingGauge) value() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *countingGauge, *fakeClock) {
	t.Helper()
	f := &stubFetcher{}
	g := &countingGauge{}
	clk := &fakeClock{t: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(context.Background(), converter.Deps{Rates: f, History: f, Logger: logger.Discard()}, ttl, g, logger.Discard())
	s.now = clk.now
	t.Cleanup(s.Close)
	return s, g, clk
}

func TestStore_MountGetUnmount(t *testing.T) {
	s, g, _ := newTestStore(t, time.Minute)

	id, w := s.Mount(domain.DefaultInput().WithCrypto(domain.Litecoin))
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, 1, g.value())

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Same(t, w, got)
	assert.Equal(t, domain.Litecoin, got.Snapshot().Input.Crypto)

	require.NoError(t, s.Unmount(id))
	assert.Equal(t, 0, g.value())

	_, err = s.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Unmount(id), ErrNotFound)
}

func TestStore_GetOrMount(t *testing.T) {
	s, g, _ := newTestStore(t, time.Minute)

	a := s.GetOrMount("tg:42")
	b := s.GetOrMount("tg:42")

	assert.Same(t, a, b)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, g.value())
	assert.Equal(t, domain.DefaultInput(), a.Snapshot().Input)
}

func TestStore_SweepExpired(t *testing.T) {
	s, g, clk := newTestStore(t, 10*time.Minute)

	oldID, _ := s.Mount(domain.DefaultInput())
	clk.t = clk.t.Add(8 * time.Minute)
	freshID, _ := s.Mount(domain.DefaultInput())

	clk.t = clk.t.Add(5 * time.Minute)
	assert.Equal(t, 1, s.Sweep(clk.t))

	_, err := s.Get(oldID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(freshID)
	assert.NoError(t, err)
	assert.Equal(t, 1, g.value())
}

func TestStore_TouchExtendsLifetime(t *testing.T) {
	s, _, clk := newTestStore(t, 10*time.Minute)

	id, _ := s.Mount(domain.DefaultInput())
	clk.t = clk.t.Add(9 * time.Minute)
	s.Touch(id)
	clk.t = clk.t.Add(9 * time.Minute)

	assert.Zero(t, s.Sweep(clk.t))
	assert.Equal(t, 1, s.Len())
}

func TestStore_ZeroTTLNeverExpires(t *testing.T) {
	s, _, clk := newTestStore(t, 0)

	s.Mount(domain.DefaultInput())
	assert.Zero(t, s.Sweep(clk.t.Add(24*time.Hour)))
}
