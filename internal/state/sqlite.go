package state

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sort"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteState is a durable VersionedState backed by SQLite.
// Uses WAL mode for concurrent read access and a single connection to
// avoid SQLITE_BUSY on writes.
type SQLiteState struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite-backed world state at the given
// path. Applies required pragmas and the schema automatically; safe to
// call multiple times.
func OpenSQLite(path string) (*SQLiteState, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteState{db: db}, nil
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
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteState) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB so the host can colocate its
// transaction journal in the same database file.
func (s *SQLiteState) DB() *sql.DB {
	return s.db
}

// GetState returns the value for a key, or nil if absent or tombstoned.
func (s *SQLiteState) GetState(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(
		`SELECT value FROM world_state WHERE key = ? AND value IS NOT NULL`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state %q: %w", key, err)
	}
	return value, nil
}

// PutState stores a value and bumps the key's version.
func (s *SQLiteState) PutState(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO world_state (key, value, version) VALUES (?, ?, 1)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = version + 1
	`, key, value)
	if err != nil {
		return fmt.Errorf("put state %q: %w", key, err)
	}
	return nil
}

// DelState tombstones a key, preserving its version counter.
func (s *SQLiteState) DelState(key string) error {
	_, err := s.db.Exec(`
		UPDATE world_state SET value = NULL, version = version + 1 WHERE key = ?
	`, key)
	if err != nil {
		return fmt.Errorf("del state %q: %w", key, err)
	}
	return nil
}

// GetStateByRange scans [startKey, endKey) in ascending key order.
// Results are materialized before returning so the single SQLite
// connection is free for interleaved reads during iteration.
func (s *SQLiteState) GetStateByRange(startKey, endKey string) (Iterator, error) {
	rows, err := s.db.Query(`
		SELECT key, value FROM world_state
		WHERE value IS NOT NULL
		  AND (? = '' OR key >= ?)
		  AND (? = '' OR key < ?)
		ORDER BY key ASC
	`, startKey, startKey, endKey, endKey)
	if err != nil {
		return nil, fmt.Errorf("range scan: %w", err)
	}
	defer rows.Close()

	var kvs []*KV
	for rows.Next() {
		kv := &KV{}
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, fmt.Errorf("range scan: %w", err)
		}
		kvs = append(kvs, kv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("range scan: %w", err)
	}

	return &sliceIterator{kvs: kvs}, nil
}

// StateVersion returns the version of a key, 0 if never written.
func (s *SQLiteState) StateVersion(key string) (uint64, error) {
	var version uint64
	err := s.db.QueryRow(`SELECT version FROM world_state WHERE key = ?`, key).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("state version %q: %w", key, err)
	}
	return version, nil
}

// CommitBatch atomically applies an invocation's writes inside one SQL
// transaction, after re-checking every read key's version.
func (s *SQLiteState) CommitBatch(reads map[string]uint64, writes []Write) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin tx: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	for key, observed := range reads {
		var current uint64
		err := tx.QueryRow(`SELECT version FROM world_state WHERE key = ?`, key).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			current = 0
		} else if err != nil {
			return fmt.Errorf("commit batch: check %q: %w", key, err)
		}
		if current != observed {
			return ErrConflict
		}
	}

	for _, w := range sortWrites(writes) {
		if w.Delete {
			_, err = tx.Exec(`
				UPDATE world_state SET value = NULL, version = version + 1 WHERE key = ?
			`, w.Key)
		} else {
			_, err = tx.Exec(`
				INSERT INTO world_state (key, value, version) VALUES (?, ?, 1)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = version + 1
			`, w.Key, w.Value)
		}
		if err != nil {
			return fmt.Errorf("commit batch: write %q: %w", w.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: commit: %w", err)
	}
	return nil
}

func sortWrites(writes []Write) []Write {
	sorted := make([]Write, len(writes))
	copy(sorted, writes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	return sorted
}
