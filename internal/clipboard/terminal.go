package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/aymanbagabas/go-osc52/v2"
	"golang.org/x/term"
)

var errNotSelected = errors.New("node has no selection")

// TerminalSurface copies by emitting an OSC 52 escape sequence, which most
// terminal emulators forward to the local clipboard, also over SSH.
type TerminalSurface struct {
	out   io.Writer
	isTTY func() bool

	mu       sync.Mutex
	attached map[*termNode]struct{}
}

type termNode struct {
	text string
	seq  *osc52.Sequence
}

func (n *termNode) Text() string { return n.text }

func NewTerminalSurface(f *os.File) *TerminalSurface {
	if f == nil {
		return newTerminalSurface(nil, func() bool { return false })
	}
	return newTerminalSurface(f, func() bool { return term.IsTerminal(int(f.Fd())) })
}

func newTerminalSurface(w io.Writer, isTTY func() bool) *TerminalSurface {
	return &TerminalSurface{out: w, isTTY: isTTY, attached: make(map[*termNode]struct{})}
}

func (s *TerminalSurface) Available() bool {
	return s.out != nil && s.isTTY()
}

func (s *TerminalSurface) Attach(text string) (Node, error) {
	n := &termNode{text: text}
	s.mu.Lock()
	s.attached[n] = struct{}{}
	s.mu.Unlock()
	return n, nil
}

func (s *TerminalSurface) Select(n Node, mode SelectMode) error {
	tn, ok := n.(*termNode)
	if !ok {
		return fmt.Errorf("foreign node %T", n)
	}
	seq := osc52.New(tn.text)
	switch mode {
	case SelectTmux:
		seq = seq.Tmux()
	case SelectScreen:
		seq = seq.Screen()
	}
	tn.seq = &seq
	return nil
}

func (s *TerminalSurface) ExecCopy(_ context.Context, n Node) error {
	tn, ok := n.(*termNode)
	if !ok || tn.seq == nil {
		return errNotSelected
	}
	if !s.isTTY() {
		return ErrCopyRejected
	}
	_, err := tn.seq.WriteTo(s.out)
	return err
}

func (s *TerminalSurface) Detach(n Node) {
	tn, ok := n.(*termNode)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.attached, tn)
	s.mu.Unlock()
}

// Attached is the number of nodes not yet detached.
func (s *TerminalSurface) Attached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attached)
}
