package clipboard

import (
	"context"

	atotto "github.com/atotto/clipboard"
)

// NativeTier writes to the OS clipboard (pbcopy, xclip/xsel, wl-copy or the
// Windows API). The write is awaited without a timeout of its own; only ctx
// can abandon it.
type NativeTier struct{}

func (NativeTier) Method() Method { return MethodPreferred }

func (NativeTier) Available() bool { return !atotto.Unsupported }

func (NativeTier) Copy(ctx context.Context, text string) error {
	done := make(chan error, 1)
	go func() { done <- atotto.WriteAll(text) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
