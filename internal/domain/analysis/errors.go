package analysis

import (
	"errors"
	"fmt"
	"time"
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrInvalidVideo covers unsupported types, oversized files and overlong clips.
var ErrInvalidVideo = errors.New("invalid video")

// ErrBlocked means the provider produced no candidates, usually a safety filter.
var ErrBlocked = errors.New("ai returned no candidates, the video may have been blocked by safety filters")

// ErrBadReply wraps a model reply that held no usable analysis object.
var ErrBadReply = errors.New("ai returned an unusable reply")

// ThrottledError is returned when a sliding-window limiter denies an action.
type ThrottledError struct {
	Message string
	ResetAt time.Time
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("throttled: %s", e.Message)
}

// RetryAfter is the whole seconds until the window frees a slot, at least 1.
func (e *ThrottledError) RetryAfter(now time.Time) int {
	secs := int(e.ResetAt.Sub(now).Seconds() + 0.999)
	if secs < 1 {
		return 1
	}
	return secs
}
