package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/clm/internal/apperr"
	"github.com/starford/clm/internal/diag"
	"github.com/starford/clm/internal/dirkind"
	"github.com/starford/clm/internal/titles"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path      string
	Label     dirkind.Label
	Titles    titles.Titles
	Checksum  string
	Cells     int
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Label   dirkind.Label
	Titles  titles.Titles
	Snippet string
}

// DiagnosticRow is a stored diagnostic together with its document.
type DiagnosticRow struct {
	Path string `json:"path"`
	diag.Diagnostic
}

// UpsertDocument inserts or replaces a document, its FTS entry and its
// diagnostics within a transaction.
func (db *DB) UpsertDocument(d DocumentRow, body string, diags []diag.Diagnostic) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO documents (path, label, title_de, title_en, checksum, cells, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			label      = excluded.label,
			title_de   = excluded.title_de,
			title_en   = excluded.title_en,
			checksum   = excluded.checksum,
			cells      = excluded.cells,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, d.Path, string(d.Label), d.Titles.DE, d.Titles.EN, d.Checksum, d.Cells, body, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	if err := ftsUpsert(tx, d.Path, d.Titles, body); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM diagnostics WHERE path = ?`, d.Path); err != nil {
		return fmt.Errorf("index: clear diagnostics: %w", err)
	}
	if len(diags) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO diagnostics (path, seq, severity, message, context) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare diagnostic insert: %w", err)
		}
		defer stmt.Close()
		for i, dg := range diags {
			ctxJSON, _ := json.Marshal(dg.Context)
			if _, err := stmt.Exec(d.Path, i, string(dg.Severity), dg.Message, string(ctxJSON)); err != nil {
				return fmt.Errorf("index: insert diagnostic: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document, its FTS entry and its diagnostics.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM diagnostics WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string
// if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetDocument returns the row for path or apperr.ErrNotFound.
func (db *DB) GetDocument(path string) (*DocumentRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, label, title_de, title_en, checksum, cells, updated_at
		FROM documents WHERE path = ?
	`, path)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: document %q: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	return d, nil
}

// ListDocuments returns a page of documents ordered by path, optionally
// restricted to one label, plus the total number of matches.
func (db *DB) ListDocuments(limit, offset int, label dirkind.Label) ([]DocumentRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRow(
		`SELECT count(*) FROM documents WHERE ? = '' OR label = ?`, string(label), string(label),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT path, label, title_de, title_en, checksum, cells, updated_at
		FROM documents
		WHERE ? = '' OR label = ?
		ORDER BY path
		LIMIT ? OFFSET ?
	`, string(label), string(label), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

// AllChecksums returns the checksum of every indexed document keyed by path.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Diagnostics returns the stored diagnostics of path, or of every document
// when path is empty, in document order.
func (db *DB) Diagnostics(path string) ([]DiagnosticRow, error) {
	rows, err := db.conn.Query(`
		SELECT path, severity, message, context
		FROM diagnostics
		WHERE ? = '' OR path = ?
		ORDER BY path, seq
	`, path, path)
	if err != nil {
		return nil, fmt.Errorf("index: diagnostics: %w", err)
	}
	defer rows.Close()

	var out []DiagnosticRow
	for rows.Next() {
		var (
			r       DiagnosticRow
			sev     string
			ctxJSON string
		)
		if err := rows.Scan(&r.Path, &sev, &r.Message, &ctxJSON); err != nil {
			return nil, err
		}
		r.Severity = diag.Severity(sev)
		if err := json.Unmarshal([]byte(ctxJSON), &r.Context); err != nil {
			return nil, fmt.Errorf("index: decode diagnostic context: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*DocumentRow, error) {
	var (
		d     DocumentRow
		label string
	)
	if err := s.Scan(&d.Path, &label, &d.Titles.DE, &d.Titles.EN, &d.Checksum, &d.Cells, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Label = dirkind.Label(label)
	return &d, nil
}
