package scripts

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/reelscript/internal/application"
	domain "github.com/bryanwahyu/reelscript/internal/domain/scripts"
	"github.com/bryanwahyu/reelscript/internal/sanitize"
)

// DefaultMaxSaved is the per-user cap on saved scripts.
const DefaultMaxSaved = 30

// Text formats accepted by Service.Text.
const (
	FormatScript = "script"
	FormatFull   = "full"
)

type Service struct {
	Repo     domain.Repository
	Limits   *application.Limits
	Clock    application.Clock
	MaxSaved int
	Log      zerolog.Logger
}

func (s *Service) maxSaved() int {
	if s.MaxSaved <= 0 {
		return DefaultMaxSaved
	}
	return s.MaxSaved
}

// Save sanitizes raw and stores it for user. It fails with ErrLimitReached
// when the user already has the maximum number of scripts and with a
// ThrottledError when saves come in too fast.
func (s *Service) Save(ctx context.Context, user string, raw any) (*domain.SavedScript, error) {
	result, err := sanitize.Sanitize(raw)
	if err != nil {
		return nil, err
	}

	n, err := s.Repo.Count(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("count scripts: %w", err)
	}
	if n >= s.maxSaved() {
		return nil, fmt.Errorf("%w (%d), delete scripts you no longer need", domain.ErrLimitReached, s.maxSaved())
	}

	if s.Limits != nil {
		if err := application.Admit(ctx, s.Limits.SaveFor(user)); err != nil {
			return nil, err
		}
	}

	script := &domain.SavedScript{
		ID:      domain.ScriptID(uuid.NewString()),
		UserID:  user,
		SavedAt: s.Clock.Now().UTC(),
		Result:  result,
	}
	if err := s.Repo.Save(ctx, script); err != nil {
		return nil, fmt.Errorf("save script: %w", err)
	}

	s.Log.Info().Str("user", user).Str("script_id", string(script.ID)).Msg("script saved")
	return script, nil
}

// List returns the user's scripts newest first, filtered by query when it
// is not blank.
func (s *Service) List(ctx context.Context, user, query string) ([]*domain.SavedScript, error) {
	all, err := s.Repo.List(ctx, user)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].SavedAt.After(all[j].SavedAt) })

	if strings.TrimSpace(query) == "" {
		return all, nil
	}
	out := make([]*domain.SavedScript, 0, len(all))
	for _, sc := range all {
		if sc.Result.Matches(query) {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, user string, id domain.ScriptID) (*domain.SavedScript, error) {
	return s.Repo.Get(ctx, user, id)
}

func (s *Service) Delete(ctx context.Context, user string, id domain.ScriptID) error {
	if err := s.Repo.Delete(ctx, user, id); err != nil {
		return err
	}
	s.Log.Info().Str("user", user).Str("script_id", string(id)).Msg("script deleted")
	return nil
}

func (s *Service) DeleteAll(ctx context.Context, user string) (int, error) {
	n, err := s.Repo.DeleteAll(ctx, user)
	if err != nil {
		return 0, err
	}
	s.Log.Info().Str("user", user).Int("count", n).Msg("all scripts deleted")
	return n, nil
}

func (s *Service) Quota(ctx context.Context, user string) (domain.Quota, error) {
	n, err := s.Repo.Count(ctx, user)
	if err != nil {
		return domain.Quota{}, err
	}
	return domain.Quota{Count: n, Max: s.maxSaved(), Remaining: max(0, s.maxSaved()-n)}, nil
}

// Text renders a saved script for copying. format is FormatScript or
// FormatFull; empty means FormatFull.
func (s *Service) Text(ctx context.Context, user string, id domain.ScriptID, format string) (string, error) {
	sc, err := s.Repo.Get(ctx, user, id)
	if err != nil {
		return "", err
	}
	switch format {
	case "", FormatFull:
		return sc.Result.FullText(), nil
	case FormatScript:
		return sc.Result.ScriptText(), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrBadFormat, format)
	}
}
