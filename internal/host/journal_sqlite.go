package host

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQLiteJournal persists the transaction journal in the same SQLite
// database as the world state, so a ledger file is self-contained:
// state plus the log that reproduces it.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal creates the journal table if needed.
func NewSQLiteJournal(db *sql.DB) (*SQLiteJournal, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tx_journal (
			seq       INTEGER PRIMARY KEY,
			tx_id     TEXT NOT NULL,
			submit_id TEXT NOT NULL,
			org       TEXT NOT NULL,
			op        TEXT NOT NULL,
			args      TEXT NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("create journal table: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

// Append inserts a committed transaction.
// ON CONFLICT DO NOTHING keeps re-appends of the same seq idempotent.
func (j *SQLiteJournal) Append(e Entry) error {
	args, err := json.Marshal(e.Args)
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}

	_, err = j.db.Exec(`
		INSERT INTO tx_journal (seq, tx_id, submit_id, org, op, args)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`, e.Seq, e.TxID, e.SubmitID, e.Org, e.Op, string(args))
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// Entries returns all entries ordered by seq.
func (j *SQLiteJournal) Entries() ([]Entry, error) {
	rows, err := j.db.Query(`
		SELECT seq, tx_id, submit_id, org, op, args
		FROM tx_journal
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var argsJSON string
		if err := rows.Scan(&e.Seq, &e.TxID, &e.SubmitID, &e.Org, &e.Op, &argsJSON); err != nil {
			return nil, fmt.Errorf("read journal: %w", err)
		}
		if err := json.Unmarshal([]byte(argsJSON), &e.Args); err != nil {
			return nil, fmt.Errorf("read journal: entry %d: %w", e.Seq, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return entries, nil
}
