package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/reelscript/internal/domain/analysis"
	"github.com/bryanwahyu/reelscript/internal/ratelimit"
)

// Limits builds per-user sliding-window limiters over one shared store.
type Limits struct {
	Store    ratelimit.Store
	Clock    Clock
	Log      zerolog.Logger
	Analysis ratelimit.Config
	Save     ratelimit.Config
}

func NewLimits(store ratelimit.Store, clock Clock, log zerolog.Logger) *Limits {
	return &Limits{
		Store:    store,
		Clock:    clock,
		Log:      log,
		Analysis: ratelimit.VideoAnalysis,
		Save:     ratelimit.SaveScript,
	}
}

func (l *Limits) limiter(cfg ratelimit.Config, user string) *ratelimit.Limiter {
	opts := []ratelimit.Option{ratelimit.WithLogger(l.Log)}
	if l.Clock != nil {
		opts = append(opts, ratelimit.WithClock(l.Clock))
	}
	return ratelimit.MustNew(cfg.Scoped(user), l.Store, opts...)
}

func (l *Limits) AnalysisFor(user string) *ratelimit.Limiter { return l.limiter(l.Analysis, user) }

func (l *Limits) SaveFor(user string) *ratelimit.Limiter { return l.limiter(l.Save, user) }

// Admit records one request on lim or returns a ThrottledError.
func Admit(ctx context.Context, lim *ratelimit.Limiter) error {
	if lim.Record(ctx).Allowed() {
		return nil
	}
	d := lim.Check(ctx)
	return &analysis.ThrottledError{Message: d.Message, ResetAt: d.ResetAt}
}

// LimitsStatus is what a user sees for both limiters.
type LimitsStatus struct {
	Analysis ratelimit.Status `json:"analysis"`
	Save     ratelimit.Status `json:"save"`
}

func (l *Limits) Status(ctx context.Context, user string) LimitsStatus {
	return LimitsStatus{
		Analysis: l.AnalysisFor(user).Status(ctx),
		Save:     l.SaveFor(user).Status(ctx),
	}
}

// Reset clears both limiters for the user.
func (l *Limits) Reset(ctx context.Context, user string) {
	l.AnalysisFor(user).Reset(ctx)
	l.SaveFor(user).Reset(ctx)
}
