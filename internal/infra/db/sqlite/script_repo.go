package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/reelscript/internal/domain/analysis"
	domain "github.com/bryanwahyu/reelscript/internal/domain/scripts"
)

type ScriptRepository struct {
	db *sql.DB
}

func NewScriptRepository(db *DB) *ScriptRepository {
	return &ScriptRepository{db: db.Conn()}
}

func (r *ScriptRepository) Save(ctx context.Context, s *domain.SavedScript) error {
	const q = `
INSERT INTO saved_scripts (id, user_id, title, result_json, is_demo, saved_at_ms)
VALUES (?,?,?,?,?,?)
ON CONFLICT (id) DO UPDATE SET
  title = excluded.title,
  result_json = excluded.result_json,
  is_demo = excluded.is_demo;`

	body, err := json.Marshal(s.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	saved := s.SavedAt
	if saved.IsZero() {
		saved = time.Now()
	}
	demo := 0
	if s.Result.IsDemoMode {
		demo = 1
	}
	_, err = r.db.ExecContext(ctx, q, string(s.ID), s.UserID, s.Result.Title, string(body), demo, saved.UnixMilli())
	return err
}

func (r *ScriptRepository) Get(ctx context.Context, user string, id domain.ScriptID) (*domain.SavedScript, error) {
	const q = `
SELECT id, user_id, result_json, saved_at_ms
FROM saved_scripts
WHERE user_id = ? AND id = ?;`
	s, err := scanScript(r.db.QueryRowContext(ctx, q, user, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

func (r *ScriptRepository) List(ctx context.Context, user string) ([]*domain.SavedScript, error) {
	const q = `
SELECT id, user_id, result_json, saved_at_ms
FROM saved_scripts
WHERE user_id = ?
ORDER BY saved_at_ms DESC, id DESC;`
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
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saved_scripts WHERE user_id = ?`, user).Scan(&n)
	return n, err
}

func (r *ScriptRepository) Delete(ctx context.Context, user string, id domain.ScriptID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_scripts WHERE user_id = ? AND id = ?`, user, string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ScriptRepository) DeleteAll(ctx context.Context, user string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_scripts WHERE user_id = ?`, user)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func scanScript(row interface{ Scan(...any) error }) (*domain.SavedScript, error) {
	var (
		s    domain.SavedScript
		id   string
		body string
		ms   int64
	)
	if err := row.Scan(&id, &s.UserID, &body, &ms); err != nil {
		return nil, err
	}
	var res analysis.Result
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", id, err)
	}
	s.ID = domain.ScriptID(id)
	s.SavedAt = time.UnixMilli(ms).UTC()
	s.Result = res
	return &s, nil
}
