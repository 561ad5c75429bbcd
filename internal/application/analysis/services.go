package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/reelscript/internal/application"
	domain "github.com/bryanwahyu/reelscript/internal/domain/analysis"
	"github.com/bryanwahyu/reelscript/internal/sanitize"
)

const (
	DefaultMaxBytes    = 100 << 20
	DefaultMaxDuration = 180 * time.Second
	presignTTL         = time.Hour
)

// RetryPolicy controls how often a failed generation is retried.
type RetryPolicy struct {
	MaxTries int
	Initial  time.Duration
}

var DefaultRetry = RetryPolicy{MaxTries: 3, Initial: time.Second}

type Service struct {
	Generator domain.Generator
	Videos    domain.VideoStore     // optional; when nil the video is sent inline
	Prober    domain.DurationProber // optional
	Limits    *application.Limits

	// Demo builds the placeholder result used when DemoFallback is on and
	// the real analysis fails.
	Demo         func() domain.Result
	DemoFallback bool
	KeepUploads  bool

	MaxBytes    int64
	MaxDuration time.Duration
	Timeout     time.Duration
	Retry       RetryPolicy
	Log         zerolog.Logger
}

// Process validates, rate-limits and analyses one uploaded video.
func (s *Service) Process(ctx context.Context, up domain.Upload) (domain.Result, error) {
	if err := s.validate(up); err != nil {
		return domain.Result{}, err
	}

	if s.Limits != nil {
		if err := application.Admit(ctx, s.Limits.AnalysisFor(up.UserID)); err != nil {
			return domain.Result{}, err
		}
	}

	if err := s.checkDuration(ctx, up); err != nil {
		return domain.Result{}, err
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	log := s.Log.With().Str("user", up.UserID).Str("file", up.Filename).Logger()
	res, err := s.analyze(ctx, up)
	if err == nil {
		log.Info().Str("title", res.Title).Int("scenes", len(res.Script)).Msg("video analysed")
		return res, nil
	}

	if errors.Is(err, domain.ErrQuotaExceeded) || !s.DemoFallback || s.Demo == nil {
		log.Error().Err(err).Msg("video analysis failed")
		return domain.Result{}, err
	}

	log.Warn().Err(err).Msg("video analysis failed, serving demo result")
	demo := s.Demo()
	demo.IsDemoMode = true
	return demo, nil
}

func (s *Service) validate(up domain.Upload) error {
	if !sanitize.IsVideoMIME(up.MIMEType) {
		return fmt.Errorf("%w: unsupported type %q, use MP4, MOV or WEBM", domain.ErrInvalidVideo, up.MIMEType)
	}
	if len(up.Data) == 0 {
		return fmt.Errorf("%w: empty file", domain.ErrInvalidVideo)
	}
	maxBytes := s.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if int64(len(up.Data)) > maxBytes {
		return fmt.Errorf("%w: file is %d MB, limit is %d MB", domain.ErrInvalidVideo, len(up.Data)>>20, maxBytes>>20)
	}
	return nil
}

// checkDuration is skipped when no prober is configured or it cannot read
// the file.
func (s *Service) checkDuration(ctx context.Context, up domain.Upload) error {
	if s.Prober == nil {
		return nil
	}
	maxDur := s.MaxDuration
	if maxDur <= 0 {
		maxDur = DefaultMaxDuration
	}
	d, err := s.Prober.Duration(ctx, up.Data)
	if err != nil {
		s.Log.Debug().Err(err).Msg("duration probe failed, skipping check")
		return nil
	}
	if d > maxDur {
		return fmt.Errorf("%w: video is %.0fs, limit is %.0fs", domain.ErrInvalidVideo, d.Seconds(), maxDur.Seconds())
	}
	return nil
}

func (s *Service) analyze(ctx context.Context, up domain.Upload) (domain.Result, error) {
	req := domain.GenerateRequest{MIMEType: up.MIMEType, Data: up.Data}

	if s.Videos != nil {
		key := fmt.Sprintf("%s/%s_%s", sanitize.Filename(up.UserID), uuid.NewString(), sanitize.Filename(up.Filename))
		if err := s.Videos.Put(ctx, key, bytes.NewReader(up.Data), int64(len(up.Data)), up.MIMEType); err != nil {
			return domain.Result{}, fmt.Errorf("store video: %w", err)
		}
		if !s.KeepUploads {
			defer s.removeUpload(key)
		}
		url, err := s.Videos.PresignedURL(ctx, key, presignTTL)
		if err != nil {
			return domain.Result{}, fmt.Errorf("presign video: %w", err)
		}
		req.URL = url
	}

	reply, err := s.generate(ctx, req)
	if err != nil {
		return domain.Result{}, err
	}

	body, err := sanitize.ExtractJSON(reply)
	if err != nil {
		return domain.Result{}, fmt.Errorf("%w: %v", domain.ErrBadReply, err)
	}
	res, err := sanitize.Decode(body)
	if err != nil {
		return domain.Result{}, fmt.Errorf("%w: %v", domain.ErrBadReply, err)
	}
	return res, nil
}

func (s *Service) removeUpload(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Videos.Delete(ctx, key); err != nil {
		s.Log.Warn().Err(err).Str("key", key).Msg("failed to delete uploaded video")
	}
}

func (s *Service) generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	policy := s.Retry
	if policy.MaxTries <= 0 {
		policy = DefaultRetry
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.Initial
	bo.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(policy.MaxTries-1)), ctx)

	var reply string
	op := func() error {
		out, err := s.Generator.Generate(ctx, req)
		if err != nil {
			if errors.Is(err, domain.ErrQuotaExceeded) || errors.Is(err, domain.ErrBlocked) {
				return backoff.Permanent(err)
			}
			return err
		}
		reply = out
		return nil
	}
	notify := func(err error, wait time.Duration) {
		s.Log.Warn().Err(err).Dur("retry_in", wait).Msg("ai generation failed, retrying")
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return "", fmt.Errorf("generate analysis: %w", err)
	}
	return reply, nil
}
