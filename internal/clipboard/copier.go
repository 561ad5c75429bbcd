// Package clipboard copies text to the user's clipboard through an ordered
// list of mechanisms and reports which one worked.
package clipboard

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Method identifies the mechanism that performed a copy.
type Method int

const (
	MethodNone Method = iota
	MethodPreferred
	MethodLegacy
)

func (m Method) String() string {
	switch m {
	case MethodPreferred:
		return "preferred"
	case MethodLegacy:
		return "legacy"
	default:
		return "none"
	}
}

// Outcome of a copy attempt. Method is MethodNone on failure.
type Outcome struct {
	Method Method
}

func (o Outcome) OK() bool { return o.Method != MethodNone }

// Tier is one copy mechanism.
type Tier interface {
	Method() Method
	Available() bool
	Copy(ctx context.Context, text string) error
}

type Copier struct {
	tiers []Tier
	log   zerolog.Logger
}

func New(log zerolog.Logger, tiers ...Tier) *Copier {
	return &Copier{tiers: tiers, log: log}
}

// Default wires the OS clipboard first and an OSC 52 terminal copy second.
func Default(log zerolog.Logger, term *os.File) *Copier {
	return New(log,
		NativeTier{},
		NewLegacyTier(NewTerminalSurface(term), DetectMode(os.Getenv)),
	)
}

// Copy tries each available tier in order and stops at the first success.
// It never panics and never returns an error; failures are logged.
func (c *Copier) Copy(ctx context.Context, text string) Outcome {
	for _, t := range c.tiers {
		if !t.Available() {
			c.log.Debug().Stringer("method", t.Method()).Msg("clipboard tier unavailable")
			continue
		}
		if err := attempt(ctx, t, text); err != nil {
			c.log.Warn().Err(err).Stringer("method", t.Method()).Msg("clipboard copy failed, trying next")
			continue
		}
		return Outcome{Method: t.Method()}
	}
	return Outcome{Method: MethodNone}
}

// CopyToClipboard is Copy reduced to success or failure.
func (c *Copier) CopyToClipboard(ctx context.Context, text string) bool {
	return c.Copy(ctx, text).OK()
}

func attempt(ctx context.Context, t Tier, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("clipboard tier panicked: %v", r)
		}
	}()
	return t.Copy(ctx, text)
}

// CopyOrShow copies text and, when every tier fails, prints it as a
// selectable block on w so the user can copy it by hand.
func (c *Copier) CopyOrShow(ctx context.Context, w io.Writer, text string) Outcome {
	out := c.Copy(ctx, text)
	if !out.OK() {
		SelectText(w, text)
	}
	return out
}
