// Package store persists built IR documents in sqlite so unchanged headers
// are not rebuilt and earlier builds can be listed.
package store

import (
	"bytes"
	"cirgen/internal/core/errors"
	"cirgen/internal/engine/ir"
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Snapshot is the metadata row stored next to an encoded document.
type Snapshot struct {
	ID            string
	Module        string
	SourcePath    string
	ContentHash   string
	SchemaVersion string
	Timestamp     time.Time
	Functions     int
	Patterns      int
	UnknownTypes  int
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("store path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	// busy_timeout + WAL reduce lock conflicts while watch mode rebuilds.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite store %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Save stores doc under a fresh id. Missing metadata (timestamp, schema
// version, counts) is filled from doc.
func (s *Store) Save(ctx context.Context, snap Snapshot, doc ir.Document) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(snap.Module) == "" {
		snap.Module = doc.Name
	}
	if snap.Module == "" {
		return Snapshot{}, errors.New(errors.CodeValidationError, "snapshot module must not be empty")
	}
	snap.ID = uuid.NewString()
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}
	if snap.SchemaVersion == "" {
		snap.SchemaVersion = doc.SchemaVersion
	}
	if snap.Functions == 0 {
		snap.Functions = len(doc.Functions)
	}
	if snap.Patterns == 0 {
		for _, fn := range doc.Functions {
			snap.Patterns += len(fn.Patterns)
		}
	}

	payload, err := encodeDocument(doc)
	if err != nil {
		return Snapshot{}, err
	}

	err = s.withRetry("save snapshot", func() error {
		_, err := s.db.ExecContext(ctx, `
INSERT INTO snapshots (
  id, module, source_path, content_hash, ir_schema_version, ts_utc, ts_unix_ns,
  function_count, pattern_count, unknown_count, payload
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.ID,
			snap.Module,
			snap.SourcePath,
			snap.ContentHash,
			snap.SchemaVersion,
			snap.Timestamp.UTC().Format(time.RFC3339Nano),
			snap.Timestamp.UnixNano(),
			snap.Functions,
			snap.Patterns,
			snap.UnknownTypes,
			payload,
		)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Latest returns the newest snapshot of module.
func (s *Store) Latest(ctx context.Context, module string) (Snapshot, ir.Document, error) {
	return s.loadOne(ctx, "load latest snapshot",
		`WHERE module = ? ORDER BY ts_unix_ns DESC, id DESC LIMIT 1`, module)
}

// FindByHash returns the newest snapshot of module built from content with
// the given hash.
func (s *Store) FindByHash(ctx context.Context, module, hash string) (Snapshot, ir.Document, error) {
	return s.loadOne(ctx, "find snapshot by hash",
		`WHERE module = ? AND content_hash = ? ORDER BY ts_unix_ns DESC, id DESC LIMIT 1`, module, hash)
}

// Get returns one snapshot by id.
func (s *Store) Get(ctx context.Context, id string) (Snapshot, ir.Document, error) {
	return s.loadOne(ctx, "get snapshot", `WHERE id = ?`, id)
}

func (s *Store) loadOne(ctx context.Context, op, where string, args ...any) (Snapshot, ir.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		snap    Snapshot
		tsNanos int64
		payload []byte
	)
	err := s.withRetry(op, func() error {
		row := s.db.QueryRowContext(ctx, `
SELECT id, module, source_path, content_hash, ir_schema_version, ts_unix_ns,
  function_count, pattern_count, unknown_count, payload
FROM snapshots `+where, args...)
		return row.Scan(
			&snap.ID,
			&snap.Module,
			&snap.SourcePath,
			&snap.ContentHash,
			&snap.SchemaVersion,
			&tsNanos,
			&snap.Functions,
			&snap.Patterns,
			&snap.UnknownTypes,
			&payload,
		)
	})
	if stderrors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ir.Document{}, errors.New(errors.CodeNotFound, "snapshot not found")
	}
	if err != nil {
		return Snapshot{}, ir.Document{}, err
	}

	snap.Timestamp = time.Unix(0, tsNanos).UTC()

	if err := CheckCompatible(snap.SchemaVersion); err != nil {
		return snap, ir.Document{}, errors.AddContext(err, errors.CtxModule, snap.Module)
	}
	doc, err := decodeDocument(payload)
	if err != nil {
		return snap, ir.Document{}, err
	}
	return snap, doc, nil
}

// List returns snapshot metadata newest first. An empty module lists all
// modules; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, module string, limit int) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT id, module, source_path, content_hash, ir_schema_version, ts_unix_ns,
  function_count, pattern_count, unknown_count
FROM snapshots`
	args := make([]any, 0, 2)
	if strings.TrimSpace(module) != "" {
		query += " WHERE module = ?"
		args = append(args, module)
	}
	query += " ORDER BY ts_unix_ns DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("list snapshots", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		var (
			snap    Snapshot
			tsNanos int64
		)
		if err := rows.Scan(
			&snap.ID,
			&snap.Module,
			&snap.SourcePath,
			&snap.ContentHash,
			&snap.SchemaVersion,
			&tsNanos,
			&snap.Functions,
			&snap.Patterns,
			&snap.UnknownTypes,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snap.Timestamp = time.Unix(0, tsNanos).UTC()
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snapshots, nil
}

// Prune keeps the newest keep snapshots of module and deletes the rest.
func (s *Store) Prune(ctx context.Context, module string, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 0 {
		keep = 0
	}
	var deleted int64
	err := s.withRetry("prune snapshots", func() error {
		res, err := s.db.ExecContext(ctx, `
DELETE FROM snapshots
WHERE module = ? AND id NOT IN (
  SELECT id FROM snapshots WHERE module = ? ORDER BY ts_unix_ns DESC, id DESC LIMIT ?
)`, module, module, keep)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return int(deleted), err
}

// CheckCompatible accepts stored documents with the current major schema
// version that are not newer than this build understands.
func CheckCompatible(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.Wrap(err, errors.CodeConflict, fmt.Sprintf("invalid snapshot schema version %q", version))
	}
	current := semver.MustParse(ir.SchemaVersion)
	constraint, err := semver.NewConstraint(fmt.Sprintf(">= %d.0.0, <= %s", current.Major(), current.String()))
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "build schema constraint")
	}
	if !constraint.Check(v) {
		return errors.New(errors.CodeConflict,
			fmt.Sprintf("snapshot schema %s is incompatible with %s", v, current))
	}
	return nil
}

func encodeDocument(doc ir.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode snapshot payload: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeDocument(payload []byte) (ir.Document, error) {
	var doc ir.Document
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(&doc); err != nil {
		return ir.Document{}, fmt.Errorf("decode snapshot payload: %w", err)
	}
	return doc, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	if stderrors.Is(lastErr, sql.ErrNoRows) {
		return lastErr
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

// Ping checks that the database still answers.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New(errors.CodeInternal, "store is closed")
	}
	return s.db.PingContext(ctx)
}
