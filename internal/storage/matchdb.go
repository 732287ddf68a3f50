// Package storage persists extraction runs to SQLite so results can be
// queried after the fact.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mvp-joe/treegrep/internal/extract"
)

// DB wraps the SQLite handle for a match database.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) a match database at path and ensures the schema
// exists.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	d := &DB{db: db}
	if err := d.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying handle.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates all tables and indexes in one transaction.
func (d *DB) createSchema() error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"runs", createRunsTable},
		{"files", createFilesTable},
		{"matches", createMatchesTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_files_run_id ON files(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_file_id ON matches(file_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_name ON matches(name)`,
	}
	for _, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	language   TEXT NOT NULL,
	query      TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
)`

const createFilesTable = `
CREATE TABLE IF NOT EXISTS files (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	path      TEXT,
	file_type TEXT NOT NULL
)`

// Coordinates are stored 1-based: the database is an output surface, so it
// carries the external coordinate space.
const createMatchesTable = `
CREATE TABLE IF NOT EXISTS matches (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id      INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	name         TEXT NOT NULL,
	kind         TEXT NOT NULL,
	text         TEXT NOT NULL,
	start_row    INTEGER NOT NULL,
	start_column INTEGER NOT NULL,
	end_row      INTEGER NOT NULL,
	end_column   INTEGER NOT NULL
)`

// SaveRun stores one batch of extraction results under a fresh run id and
// returns the id. The whole run commits atomically.
func (d *DB) SaveRun(language, query string, files []*extract.ExtractedFile) (string, error) {
	runID := uuid.NewString()

	tx, err := d.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, language, query, created_at) VALUES (?, ?, ?, ?)`,
		runID, language, query, time.Now().UTC(),
	); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	insertFile, err := tx.Prepare(`INSERT INTO files (run_id, path, file_type) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare file insert: %w", err)
	}
	defer insertFile.Close()

	insertMatch, err := tx.Prepare(`INSERT INTO matches
		(file_id, name, kind, text, start_row, start_column, end_row, end_column)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare match insert: %w", err)
	}
	defer insertMatch.Close()

	for _, file := range files {
		var path sql.NullString
		if file.File != "" {
			path = sql.NullString{String: file.File, Valid: true}
		}

		res, err := insertFile.Exec(runID, path, file.FileType)
		if err != nil {
			return "", fmt.Errorf("failed to insert file %s: %w", file.Origin(), err)
		}
		fileID, err := res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("failed to resolve file id: %w", err)
		}

		for _, m := range file.Matches {
			if _, err := insertMatch.Exec(
				fileID, m.Name, m.Kind, m.Text,
				m.Start.Row+1, m.Start.Column+1,
				m.End.Row+1, m.End.Column+1,
			); err != nil {
				return "", fmt.Errorf("failed to insert match in %s: %w", file.Origin(), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// RunStats summarizes one stored run.
type RunStats struct {
	RunID   string
	Files   int
	Matches int
}

// Stats returns file and match counts for a run.
func (d *DB) Stats(runID string) (*RunStats, error) {
	stats := &RunStats{RunID: runID}

	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM files WHERE run_id = ?`, runID,
	).Scan(&stats.Files)
	if err != nil {
		return nil, fmt.Errorf("failed to count files for run %s: %w", runID, err)
	}

	err = d.db.QueryRow(
		`SELECT COUNT(*) FROM matches m JOIN files f ON m.file_id = f.id WHERE f.run_id = ?`, runID,
	).Scan(&stats.Matches)
	if err != nil {
		return nil, fmt.Errorf("failed to count matches for run %s: %w", runID, err)
	}

	return stats, nil
}
