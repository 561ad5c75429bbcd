package clipboard

import (
	"context"
	"errors"
	"strings"
)

// ErrCopyRejected is returned when the copy command ran but reported failure.
var ErrCopyRejected = errors.New("copy command rejected")

// SelectMode controls how a node's contents get selected before copying.
type SelectMode int

const (
	// SelectDirect selects the node's contents as is.
	SelectDirect SelectMode = iota
	// SelectTmux wraps the selection in a tmux passthrough; tmux drops the
	// plain form unless allow-passthrough is configured.
	SelectTmux
	// SelectScreen wraps the selection for GNU screen.
	SelectScreen
)

// Node is a temporary holder for the text to copy.
type Node interface {
	Text() string
}

// Surface hosts temporary nodes. Every attached node must be detached.
type Surface interface {
	Available() bool
	Attach(text string) (Node, error)
	Select(n Node, mode SelectMode) error
	ExecCopy(ctx context.Context, n Node) error
	Detach(n Node)
}

// LegacyTier copies by staging the text in a temporary node, selecting it
// and running the surface's copy command.
type LegacyTier struct {
	surface Surface
	mode    SelectMode
}

func NewLegacyTier(s Surface, mode SelectMode) *LegacyTier {
	return &LegacyTier{surface: s, mode: mode}
}

func (*LegacyTier) Method() Method { return MethodLegacy }

func (t *LegacyTier) Available() bool {
	return t.surface != nil && t.surface.Available()
}

// Copy creates exactly one node and always removes it, including when the
// copy command fails or panics.
func (t *LegacyTier) Copy(ctx context.Context, text string) error {
	node, err := t.surface.Attach(text)
	if err != nil {
		return err
	}
	defer t.surface.Detach(node)

	if err := t.surface.Select(node, t.mode); err != nil {
		return err
	}
	return t.surface.ExecCopy(ctx, node)
}

// DetectMode picks the selection mode from the environment.
func DetectMode(getenv func(string) string) SelectMode {
	term := getenv("TERM")
	switch {
	case getenv("TMUX") != "" || strings.HasPrefix(term, "tmux"):
		return SelectTmux
	case getenv("STY") != "" || strings.HasPrefix(term, "screen"):
		return SelectScreen
	default:
		return SelectDirect
	}
}
