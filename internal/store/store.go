// Package store persists audit trails in SQLite. It is an external
// collaborator of the validation core: the core never touches storage, and a
// reloaded trail goes back through audit.Verify like any other.
//
// The log is append-only. Entries are keyed by a content-addressed id that
// includes their sequence number, so replaying the same append is a no-op
// and reloads are deterministic (ordered by seq, never by timestamp).
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/statevet/statevet/internal/audit"
)

//go:embed schema.sql
var schemaSQL string

// Domain prefix for stored-entry identity. Differs from the interchange
// entry domain because the stored id also covers the sequence number.
const storedEntryDomain = "statevet/stored-entry/v1"

const trailTokenKey = "trail_token"

// Store is a SQLite-backed audit trail.
type Store struct {
	db    *sql.DB
	token string
}

// Open creates or opens a trail database at path. The database is configured
// with WAL journaling, NORMAL synchronous mode, a 5-second busy timeout, and
// foreign key enforcement; a fresh database is assigned a UUIDv7 trail
// token. Idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open trail database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to trail database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection avoids
	// SQLITE_BUSY under concurrent appends.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply trail schema: %w", err)
	}

	token, err := ensureToken(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, token: token}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Token returns the trail's stable identifier, assigned on first open.
func (s *Store) Token() string {
	return s.token
}

// Append writes an entry at the next sequence position. The caller is
// expected to have validated the entry via audit.Trail.Record first; the
// store records, it does not judge.
func (s *Store) Append(ctx context.Context, e audit.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM audit_entries`).Scan(&seq); err != nil {
		return fmt.Errorf("append entry: next seq: %w", err)
	}

	id, err := storedEntryID(e, seq)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_entries
		(id, seq, entity_id, actor, from_state, to_state, action, timestamp, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, seq, e.EntityID, e.Actor, e.FromState, e.ToState, e.Action, e.Timestamp, e.Metadata)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// Load returns every stored entry in append order.
func (s *Store) Load(ctx context.Context) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_id, actor, from_state, to_state, action, timestamp, metadata
		FROM audit_entries
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load trail: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.EntityID, &e.Actor, &e.FromState, &e.ToState,
			&e.Action, &e.Timestamp, &e.Metadata); err != nil {
			return nil, fmt.Errorf("load trail: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load trail: %w", err)
	}
	return entries, nil
}

// Len returns the number of stored entries.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count trail entries: %w", err)
	}
	return n, nil
}

// storedEntryID hashes the entry's canonical bytes together with its
// sequence number, so identical transitions at different positions remain
// distinct rows while a replayed append of the same position deduplicates.
func storedEntryID(e audit.Entry, seq int64) (string, error) {
	canonical, err := audit.MarshalCanonical(e)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(storedEntryDomain))
	h.Write([]byte{0x00})
	h.Write(canonical)
	h.Write([]byte{0x00})
	fmt.Fprintf(h, "%d", seq)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// ensureToken reads the trail token, assigning a fresh UUIDv7 on first open.
func ensureToken(db *sql.DB) (string, error) {
	var token string
	err := db.QueryRow(
		`SELECT value FROM trail_meta WHERE key = ?`, trailTokenKey).Scan(&token)
	switch {
	case err == sql.ErrNoRows:
		token = uuid.Must(uuid.NewV7()).String()
		if _, err := db.Exec(
			`INSERT INTO trail_meta (key, value) VALUES (?, ?)`, trailTokenKey, token); err != nil {
			return "", fmt.Errorf("assign trail token: %w", err)
		}
		return token, nil
	case err != nil:
		return "", fmt.Errorf("read trail token: %w", err)
	}
	return token, nil
}
