// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger tracks which source documents have already been
// processed, keyed by content checksum. The pipeline consults it
// before spending a generative API call on an input that has not
// changed since its last run.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Ledger is the SQLite-backed record of processed inputs.
type Ledger struct {
	db *sql.DB
}

// Entry describes one processed source document.
type Entry struct {
	SourcePath  string
	Checksum    string
	OutputFile  string
	ProcessedAt time.Time
}

// Open opens or creates the ledger database at path, creating the
// parent directory and schema as needed.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	_, err := l.db.Exec(`CREATE TABLE IF NOT EXISTS processed (
		source_path TEXT PRIMARY KEY,
		checksum TEXT NOT NULL,
		output_file TEXT NOT NULL,
		processed_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Checksum returns the hex SHA-256 digest of the document content.
func Checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the entry for sourcePath, or ok=false when the path
// has never been recorded.
func (l *Ledger) Lookup(ctx context.Context, sourcePath string) (Entry, bool, error) {
	var e Entry
	var processedAt string
	err := l.db.QueryRowContext(ctx,
		`SELECT source_path, checksum, output_file, processed_at FROM processed WHERE source_path = ?`,
		sourcePath,
	).Scan(&e.SourcePath, &e.Checksum, &e.OutputFile, &processedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("looking up %s: %w", sourcePath, err)
	}

	e.ProcessedAt, err = time.Parse(time.RFC3339Nano, processedAt)
	if err != nil {
		return Entry{}, false, fmt.Errorf("parsing processed_at for %s: %w", sourcePath, err)
	}
	return e, true, nil
}

// Unchanged reports whether sourcePath was already processed with the
// same checksum. The previous entry is returned for logging.
func (l *Ledger) Unchanged(ctx context.Context, sourcePath, checksum string) (Entry, bool, error) {
	e, ok, err := l.Lookup(ctx, sourcePath)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	return e, e.Checksum == checksum, nil
}

// Record upserts the processed entry for a source document.
func (l *Ledger) Record(ctx context.Context, sourcePath, checksum, outputFile string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO processed (source_path, checksum, output_file, processed_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(source_path) DO UPDATE SET
			checksum=excluded.checksum, output_file=excluded.output_file,
			processed_at=excluded.processed_at`,
		sourcePath, checksum, outputFile, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", sourcePath, err)
	}
	return nil
}

// Entries returns every recorded entry ordered by source path.
func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT source_path, checksum, output_file, processed_at FROM processed ORDER BY source_path`)
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var processedAt string
		if err := rows.Scan(&e.SourcePath, &e.Checksum, &e.OutputFile, &processedAt); err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		if e.ProcessedAt, err = time.Parse(time.RFC3339Nano, processedAt); err != nil {
			return nil, fmt.Errorf("parsing processed_at: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
