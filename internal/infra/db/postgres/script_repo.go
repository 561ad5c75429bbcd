package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/reelscript/internal/domain/analysis"
	domain "github.com/bryanwahyu/reelscript/internal/domain/scripts"
)

type ScriptRepository struct {
	db *sql.DB
}

func NewScriptRepository(db *sql.DB) *ScriptRepository {
	return &ScriptRepository{db: db}
}

// Save inserts or updates a saved script
func (r *ScriptRepository) Save(ctx context.Context, s *domain.SavedScript) error {
	const q = `
INSERT INTO saved_scripts (id, user_id, title, result_json, is_demo, saved_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  title = EXCLUDED.title,
  result_json = EXCLUDED.result_json,
  is_demo = EXCLUDED.is_demo;`

	body, err := json.Marshal(s.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	saved := s.SavedAt
	if saved.IsZero() {
		saved = time.Now().UTC()
	}
	user := s.UserID
	if strings.TrimSpace(user) == "" {
		user = "-"
	}

	_, err = r.db.ExecContext(ctx, q, s.ID, user, s.Result.Title, string(body), s.Result.IsDemoMode, saved)
	return err
}

// Get by ID + user
func (r *ScriptRepository) Get(ctx context.Context, user string, id domain.ScriptID) (*domain.SavedScript, error) {
	const q = `
SELECT id, user_id, result_json, saved_at
FROM saved_scripts
WHERE user_id=$1 AND id=$2 LIMIT 1;`

	s, err := scanScript(r.db.QueryRowContext(ctx, q, user, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

// List returns the user's scripts ordered by saved_at desc
func (r *ScriptRepository) List(ctx context.Context, user string) ([]*domain.SavedScript, error) {
	const q = `
SELECT id, user_id, result_json, saved_at
FROM saved_scripts
WHERE user_id=$1
ORDER BY saved_at DESC, id DESC;`

	rows, err := r.db.QueryContext(ctx, q, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.SavedScript
	for rows.Next() {
		s, err := scanScript(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ScriptRepository) Count(ctx context.Context, user string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saved_scripts WHERE user_id=$1`, user).Scan(&n)
	return n, err
}

func (r *ScriptRepository) Delete(ctx context.Context, user string, id domain.ScriptID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_scripts WHERE user_id=$1 AND id=$2`, user, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ScriptRepository) DeleteAll(ctx context.Context, user string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_scripts WHERE user_id=$1`, user)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func scanScript(row interface{ Scan(...any) error }) (*domain.SavedScript, error) {
	var (
		s    domain.SavedScript
		body []byte
	)
	if err := row.Scan(&s.ID, &s.UserID, &body, &s.SavedAt); err != nil {
		return nil, err
	}
	var res analysis.Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", s.ID, err)
	}
	s.Result = res
	return &s, nil
}
