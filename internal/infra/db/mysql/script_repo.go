package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/reelscript/internal/domain/scripts"
)

type ScriptRepository struct {
	db *sql.DB
}

func NewScriptRepository(db *sql.DB) *ScriptRepository {
	return &ScriptRepository{db: db}
}

// Save insert/update SavedScript record
func (r *ScriptRepository) Save(ctx context.Context, s *domain.SavedScript) error {
	const q = `
INSERT INTO saved_scripts (id, user_id, title, result_json, is_demo, saved_at)
VALUES (?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 title=VALUES(title), result_json=VALUES(result_json), is_demo=VALUES(is_demo);
`
	body, err := encodeResult(s.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	saved := s.SavedAt
	if saved.IsZero() {
		saved = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, q, s.ID, stringOrDash(s.UserID), s.Result.Title, body, s.Result.IsDemoMode, saved)
	return err
}

// Get by ID + user
func (r *ScriptRepository) Get(ctx context.Context, user string, id domain.ScriptID) (*domain.SavedScript, error) {
	const q = `
SELECT id, user_id, result_json, saved_at
FROM saved_scripts
WHERE user_id=? AND id=? LIMIT 1;
`
	s, err := scanScript(r.db.QueryRowContext(ctx, q, user, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

// List newest first
func (r *ScriptRepository) List(ctx context.Context, user string) ([]*domain.SavedScript, error) {
	const q = `
SELECT id, user_id, result_json, saved_at
FROM saved_scripts
WHERE user_id=? ORDER BY saved_at DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.SavedScript
	for rows.Next() {
		s, err := scanScript(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ScriptRepository) Count(ctx context.Context, user string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saved_scripts WHERE user_id=?`, user).Scan(&n)
	return n, err
}

func (r *ScriptRepository) Delete(ctx context.Context, user string, id domain.ScriptID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_scripts WHERE user_id=? AND id=?`, user, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ScriptRepository) DeleteAll(ctx context.Context, user string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_scripts WHERE user_id=?`, user)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScript(row rowScanner) (*domain.SavedScript, error) {
	var s domain.SavedScript
	var body string
	if err := row.Scan(&s.ID, &s.UserID, &body, &s.SavedAt); err != nil {
		return nil, err
	}
	res, err := decodeResult(body)
	if err != nil {
		return nil, fmt.Errorf("decode result %s: %w", s.ID, err)
	}
	s.Result = res
	return &s, nil
}
