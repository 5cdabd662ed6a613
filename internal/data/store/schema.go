package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the latest migration version.
const SchemaVersion = 3

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS snapshots (
  id TEXT PRIMARY KEY,
  module TEXT NOT NULL,
  source_path TEXT NOT NULL DEFAULT '',
  content_hash TEXT NOT NULL DEFAULT '',
  ir_schema_version TEXT NOT NULL,
  ts_utc TEXT NOT NULL,
  function_count INTEGER NOT NULL DEFAULT 0,
  pattern_count INTEGER NOT NULL DEFAULT 0,
  unknown_count INTEGER NOT NULL DEFAULT 0,
  payload BLOB NOT NULL,
  created_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_module_ts ON snapshots(module, ts_utc);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_snapshots_module_hash ON snapshots(module, content_hash);
`,
	},
	{
		// RFC3339Nano text drops trailing zeros and does not sort in time
		// order; rows are ordered by integer nanoseconds instead.
		version: 3,
		sql: `
ALTER TABLE snapshots ADD COLUMN ts_unix_ns INTEGER NOT NULL DEFAULT 0;
UPDATE snapshots SET ts_unix_ns = CAST(ROUND((julianday(ts_utc) - 2440587.5) * 86400000) AS INTEGER) * 1000000;
DROP INDEX IF EXISTS idx_snapshots_module_ts;
CREATE INDEX IF NOT EXISTS idx_snapshots_module_ts_ns ON snapshots(module, ts_unix_ns);
`,
	},
}

func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema_migrations version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}

	return nil
}
