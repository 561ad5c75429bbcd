package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type brokenStore struct {
	getErr, setErr, removeErr error
	data                      []byte
}

func (b *brokenStore) Get(context.Context, string) ([]byte, error) { return b.data, b.getErr }
func (b *brokenStore) Set(context.Context, string, []byte) error   { return b.setErr }
func (b *brokenStore) Remove(context.Context, string) error        { return b.removeErr }

func newLimiter(t *testing.T, cfg Config, store Store, clock Clock) *Limiter {
	t.Helper()
	l, err := New(cfg, store, WithClock(clock))
	require.NoError(t, err)
	return l
}

func TestNewRejectsBadConfig(t *testing.T) {
	store := NewMemoryStore()
	for _, cfg := range []Config{
		{MaxRequests: 0, Window: time.Minute, StorageKey: "k"},
		{MaxRequests: 1, Window: 0, StorageKey: "k"},
		{MaxRequests: 1, Window: time.Minute, StorageKey: " "},
	} {
		_, err := New(cfg, store)
		assert.Error(t, err)
	}
	_, err := New(Config{MaxRequests: 1, Window: time.Minute, StorageKey: "k"}, nil)
	assert.Error(t, err)
}

func TestSlidingWindowAdmitsN(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	cfg := Config{MaxRequests: 3, Window: time.Minute, StorageKey: "test"}
	l := newLimiter(t, cfg, NewMemoryStore(), clock)

	for i := 0; i < 3; i++ {
		assert.Equal(t, Recorded, l.Record(context.Background()), "call %d", i+1)
	}
	assert.Equal(t, Denied, l.Record(context.Background()))
	assert.False(t, l.Record(context.Background()).Allowed())

	clock.Advance(time.Minute + time.Millisecond)
	d := l.Check(context.Background())
	assert.True(t, d.Allowed)
	assert.Equal(t, 3, d.Remaining)
}

func TestFifteenMinuteScenario(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(0)}
	cfg := Config{MaxRequests: 5, Window: 900000 * time.Millisecond, StorageKey: "video"}
	l := newLimiter(t, cfg, NewMemoryStore(), clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.True(t, l.Record(ctx).Allowed())
	}

	d := l.Check(ctx)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Contains(t, d.Message, "15 min")
	assert.Contains(t, d.Message, "Try again in 15 min")
	assert.Equal(t, int64(900000), d.ResetAt.UnixMilli())

	clock.now = time.UnixMilli(900001)
	d = l.Check(ctx)
	assert.True(t, d.Allowed)
	assert.Equal(t, 5, d.Remaining)
	assert.Empty(t, d.Message)
}

func TestWindowBoundaryIsStrict(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(10_000)}
	cfg := Config{MaxRequests: 1, Window: time.Second, StorageKey: "edge"}
	l := newLimiter(t, cfg, NewMemoryStore(), clock)
	ctx := context.Background()

	require.Equal(t, Recorded, l.Record(ctx))

	clock.Advance(999 * time.Millisecond)
	assert.False(t, l.Check(ctx).Allowed)

	// exactly one window old: out of window
	clock.Advance(time.Millisecond)
	assert.True(t, l.Check(ctx).Allowed)
	assert.Equal(t, 0, l.Status(ctx).Current)
}

func TestCheckDoesNotWrite(t *testing.T) {
	store := NewMemoryStore()
	clock := &fakeClock{now: time.UnixMilli(5000)}
	l := newLimiter(t, SaveScript, store, clock)

	for i := 0; i < 20; i++ {
		l.Check(context.Background())
	}
	data, err := store.Get(context.Background(), SaveScript.StorageKey)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestResetTimeUsesOldestRecord(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(100_000)}
	cfg := Config{MaxRequests: 5, Window: time.Minute, StorageKey: "reset"}
	l := newLimiter(t, cfg, NewMemoryStore(), clock)
	ctx := context.Background()

	d := l.Check(ctx)
	assert.Equal(t, int64(160_000), d.ResetAt.UnixMilli())

	l.Record(ctx)
	clock.Advance(10 * time.Second)
	l.Record(ctx)

	st := l.Status(ctx)
	assert.Equal(t, 2, st.Current)
	assert.Equal(t, 5, st.Max)
	assert.Equal(t, 3, st.Remaining)
	assert.Equal(t, time.Minute, st.Window)
	assert.Equal(t, int64(160_000), st.ResetAt.UnixMilli())
}

func TestPrunedLogIsPersisted(t *testing.T) {
	store := NewMemoryStore()
	clock := &fakeClock{now: time.UnixMilli(1_000_000)}
	cfg := Config{MaxRequests: 5, Window: time.Minute, StorageKey: "prune"}
	old, _ := json.Marshal([]Record{{Timestamp: 1}, {Timestamp: 2}})
	require.NoError(t, store.Set(context.Background(), cfg.StorageKey, old))

	l := newLimiter(t, cfg, store, clock)
	require.Equal(t, Recorded, l.Record(context.Background()))

	raw, err := store.Get(context.Background(), cfg.StorageKey)
	require.NoError(t, err)
	var got []Record
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, []Record{{Timestamp: 1_000_000}}, got)
}

func TestMalformedStorageDegradesToEmpty(t *testing.T) {
	store := NewMemoryStore()
	cfg := Config{MaxRequests: 2, Window: time.Minute, StorageKey: "bad"}
	require.NoError(t, store.Set(context.Background(), cfg.StorageKey, []byte("{not json")))

	l := newLimiter(t, cfg, store, &fakeClock{now: time.UnixMilli(1)})
	d := l.Check(context.Background())
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Remaining)
	assert.True(t, d.Degraded)

	assert.Equal(t, Recorded, l.Record(context.Background()))
	assert.Equal(t, 1, l.Status(context.Background()).Current)
}

func TestStoreErrorsNeverEscape(t *testing.T) {
	cfg := Config{MaxRequests: 1, Window: time.Minute, StorageKey: "err"}
	boom := errors.New("boom")
	store := &brokenStore{getErr: boom, setErr: boom, removeErr: boom}
	l := newLimiter(t, cfg, store, &fakeClock{now: time.UnixMilli(1)})
	ctx := context.Background()

	d := l.Check(ctx)
	assert.True(t, d.Allowed)
	assert.True(t, d.Degraded)

	res := l.Record(ctx)
	assert.Equal(t, RecordedUnpersisted, res)
	assert.True(t, res.Allowed())

	assert.NotPanics(t, func() { l.Reset(ctx) })
}

func TestResetClearsLog(t *testing.T) {
	store := NewMemoryStore()
	cfg := Config{MaxRequests: 1, Window: time.Hour, StorageKey: "r"}
	l := newLimiter(t, cfg, store, &fakeClock{now: time.UnixMilli(42)})
	ctx := context.Background()

	l.Record(ctx)
	require.False(t, l.Check(ctx).Allowed)
	l.Reset(ctx)
	assert.True(t, l.Check(ctx).Allowed)
}

func TestPresetsAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	clock := &fakeClock{now: time.UnixMilli(1)}
	video := newLimiter(t, VideoAnalysis, store, clock)
	save := newLimiter(t, SaveScript, store, clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		video.Record(ctx)
	}
	assert.False(t, video.Check(ctx).Allowed)
	assert.True(t, save.Check(ctx).Allowed)
	assert.Equal(t, 10, save.Check(ctx).Remaining)
}

func TestScopedKeys(t *testing.T) {
	assert.Equal(t, "reelscript_save_script_limit:u1", SaveScript.Scoped("u1").StorageKey)
	assert.Equal(t, SaveScript, SaveScript.Scoped(""))
}

func TestStatusJSON(t *testing.T) {
	st := Status{Current: 1, Max: 5, Remaining: 4, Window: 15 * time.Minute, ResetAt: time.UnixMilli(1234)}
	data, err := json.Marshal(st)
	require.NoError(t, err)
	assert.JSONEq(t, `{"currentRequests":1,"maxRequests":5,"remainingRequests":4,"windowMs":900000,"resetTime":1234}`, string(data))
}

func TestFormatReset(t *testing.T) {
	now := time.Unix(0, 0)
	assert.Equal(t, "now", FormatReset(now, now))
	assert.Equal(t, "45 sec", FormatReset(now.Add(45*time.Second), now))
	assert.Equal(t, "3 min 20 sec", FormatReset(now.Add(200*time.Second), now))
	assert.Equal(t, "1 min 0 sec", FormatReset(now.Add(59500*time.Millisecond), now))
}
