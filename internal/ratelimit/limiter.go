// Package ratelimit implements a sliding-window limiter whose request log
// lives in a pluggable key/value Store, so the window survives restarts.
//
// The read-modify-write in Record is not atomic across processes. Two
// concurrent callers on the same key can both pass the check and one write
// can be lost. The limiter is advisory UX throttling, not a security
// boundary.
package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Clock interface supaya gampang ditest
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Config is fixed once a Limiter is built.
type Config struct {
	MaxRequests int
	Window      time.Duration
	StorageKey  string
}

// Scoped derives a config whose log is kept under a per-scope key.
func (c Config) Scoped(scope string) Config {
	if scope == "" {
		return c
	}
	c.StorageKey = c.StorageKey + ":" + scope
	return c
}

func (c Config) validate() error {
	switch {
	case c.MaxRequests <= 0:
		return errors.New("ratelimit: MaxRequests must be positive")
	case c.Window <= 0:
		return errors.New("ratelimit: Window must be positive")
	case strings.TrimSpace(c.StorageKey) == "":
		return errors.New("ratelimit: StorageKey is required")
	}
	return nil
}

// Record is one admitted request, stored as epoch milliseconds.
type Record struct {
	Timestamp int64 `json:"timestamp"`
}

// Decision is the result of Check.
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remainingRequests"`
	ResetAt   time.Time `json:"resetTime"`
	Message   string    `json:"message,omitempty"`
	// Degraded is set when stored history could not be read and was
	// treated as empty.
	Degraded bool `json:"degraded,omitempty"`
}

// Status is a read-only snapshot of a limiter.
type Status struct {
	Current   int           `json:"currentRequests"`
	Max       int           `json:"maxRequests"`
	Remaining int           `json:"remainingRequests"`
	Window    time.Duration `json:"windowMs"`
	ResetAt   time.Time     `json:"resetTime"`
}

// MarshalJSON reports the window in milliseconds and times as epoch millis.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Current   int   `json:"currentRequests"`
		Max       int   `json:"maxRequests"`
		Remaining int   `json:"remainingRequests"`
		Window    int64 `json:"windowMs"`
		ResetAt   int64 `json:"resetTime"`
	}{s.Current, s.Max, s.Remaining, s.Window.Milliseconds(), s.ResetAt.UnixMilli()})
}

// RecordResult is the outcome of Record.
type RecordResult int

const (
	// Denied means the window is full and nothing was written.
	Denied RecordResult = iota
	// Recorded means the request was admitted and persisted.
	Recorded
	// RecordedUnpersisted means the request was admitted but the log could
	// not be written; the next Check will not see it.
	RecordedUnpersisted
)

func (r RecordResult) Allowed() bool { return r != Denied }

func (r RecordResult) String() string {
	switch r {
	case Recorded:
		return "recorded"
	case RecordedUnpersisted:
		return "recorded_unpersisted"
	default:
		return "denied"
	}
}

type Limiter struct {
	cfg   Config
	store Store
	clock Clock
	log   zerolog.Logger
}

type Option func(*Limiter)

func WithClock(c Clock) Option {
	return func(l *Limiter) { l.clock = c }
}

func WithLogger(log zerolog.Logger) Option {
	return func(l *Limiter) { l.log = log }
}

func New(cfg Config, store Store, opts ...Option) (*Limiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("ratelimit: store is required")
	}
	l := &Limiter{cfg: cfg, store: store, clock: systemClock{}, log: zerolog.Nop()}
	for _, o := range opts {
		o(l)
	}
	l.log = l.log.With().Str("limiter", cfg.StorageKey).Logger()
	return l, nil
}

// MustNew is New for the fixed presets, where a config error is a bug.
func MustNew(cfg Config, store Store, opts ...Option) *Limiter {
	l, err := New(cfg, store, opts...)
	if err != nil {
		panic(err)
	}
	return l
}

func (l *Limiter) Config() Config { return l.cfg }

// Check reports whether one more request fits in the window. It never writes.
func (l *Limiter) Check(ctx context.Context) Decision {
	now := l.clock.Now()
	records, degraded := l.load(ctx)
	records = l.prune(records, now)
	return l.decide(records, now, degraded)
}

// Record admits and logs one request if the window has room.
func (l *Limiter) Record(ctx context.Context) RecordResult {
	now := l.clock.Now()
	records, degraded := l.load(ctx)
	records = l.prune(records, now)

	if d := l.decide(records, now, degraded); !d.Allowed {
		return Denied
	}

	records = append(records, Record{Timestamp: now.UnixMilli()})
	if err := l.save(ctx, records); err != nil {
		l.log.Warn().Err(err).Msg("failed to persist rate limit log, request admitted anyway")
		return RecordedUnpersisted
	}
	return Recorded
}

func (l *Limiter) Status(ctx context.Context) Status {
	now := l.clock.Now()
	records, _ := l.load(ctx)
	records = l.prune(records, now)
	d := l.decide(records, now, false)
	return Status{
		Current:   len(records),
		Max:       l.cfg.MaxRequests,
		Remaining: d.Remaining,
		Window:    l.cfg.Window,
		ResetAt:   d.ResetAt,
	}
}

// Reset drops the whole log for this limiter. Storage failures are logged.
func (l *Limiter) Reset(ctx context.Context) {
	if err := l.store.Remove(ctx, l.cfg.StorageKey); err != nil {
		l.log.Warn().Err(err).Msg("failed to reset rate limit log")
	}
}

func (l *Limiter) decide(records []Record, now time.Time, degraded bool) Decision {
	count := len(records)
	d := Decision{
		Allowed:   count < l.cfg.MaxRequests,
		Remaining: max(0, l.cfg.MaxRequests-count),
		ResetAt:   now.Add(l.cfg.Window),
		Degraded:  degraded,
	}
	if count > 0 {
		d.ResetAt = time.UnixMilli(oldest(records)).Add(l.cfg.Window)
	}
	if !d.Allowed {
		d.Message = l.message(d.ResetAt, now)
	}
	return d
}

func (l *Limiter) message(resetAt, now time.Time) string {
	mins := int(math.Ceil(float64(resetAt.Sub(now).Milliseconds()) / 60000))
	return fmt.Sprintf("Request limit reached (%d per %d min). Try again in %d min.",
		l.cfg.MaxRequests, int(l.cfg.Window.Minutes()), mins)
}

// prune keeps records strictly newer than now-window.
func (l *Limiter) prune(records []Record, now time.Time) []Record {
	cutoff := now.Add(-l.cfg.Window).UnixMilli()
	kept := records[:0]
	for _, r := range records {
		if r.Timestamp > cutoff {
			kept = append(kept, r)
		}
	}
	return kept
}

func (l *Limiter) load(ctx context.Context) ([]Record, bool) {
	data, err := l.store.Get(ctx, l.cfg.StorageKey)
	if err != nil {
		l.log.Warn().Err(err).Msg("failed to read rate limit log, treating as empty")
		return nil, true
	}
	if len(data) == 0 {
		return nil, false
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		l.log.Warn().Err(err).Msg("malformed rate limit log, treating as empty")
		return nil, true
	}
	return records, false
}

func (l *Limiter) save(ctx context.Context, records []Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return l.store.Set(ctx, l.cfg.StorageKey, data)
}

func oldest(records []Record) int64 {
	o := records[0].Timestamp
	for _, r := range records[1:] {
		if r.Timestamp < o {
			o = r.Timestamp
		}
	}
	return o
}

// FormatReset renders the time left until resetAt, e.g. "3 min 20 sec".
func FormatReset(resetAt, now time.Time) string {
	diff := resetAt.Sub(now)
	if diff <= 0 {
		return "now"
	}
	mins := int(diff / time.Minute)
	secs := int(math.Ceil(float64(diff%time.Minute) / float64(time.Second)))
	if secs == 60 {
		mins++
		secs = 0
	}
	if mins > 0 {
		return fmt.Sprintf("%d min %d sec", mins, secs)
	}
	return fmt.Sprintf("%d sec", secs)
}
