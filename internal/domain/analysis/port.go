package analysis

import (
	"context"
	"io"
	"time"
)

// Generator sends a video to the AI endpoint and returns its raw text reply.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GenerateRequest carries the video either inline or as a fetchable URL.
// Providers that cannot take inline bytes use URL.
type GenerateRequest struct {
	MIMEType string
	Data     []byte
	URL      string
}

// VideoStore keeps uploaded videos while they are analysed.
type VideoStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// DurationProber reads the playback length of a video.
type DurationProber interface {
	Duration(ctx context.Context, data []byte) (time.Duration, error)
}
