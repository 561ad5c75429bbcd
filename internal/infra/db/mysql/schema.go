package mysql

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS saved_scripts (
  id          VARCHAR(36)  NOT NULL PRIMARY KEY,
  user_id     VARCHAR(128) NOT NULL,
  title       VARCHAR(512) NOT NULL DEFAULT '',
  result_json LONGTEXT     NOT NULL,
  is_demo     TINYINT(1)   NOT NULL DEFAULT 0,
  saved_at    DATETIME(3)  NOT NULL,
  INDEX idx_saved_scripts_user (user_id, saved_at)
);`

// Migrate creates the saved_scripts table when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
