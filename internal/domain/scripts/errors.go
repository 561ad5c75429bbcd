package scripts

import "errors"

var (
	ErrNotFound     = errors.New("script not found")
	ErrLimitReached = errors.New("saved script limit reached")
	ErrBadFormat    = errors.New("unknown text format")
)
