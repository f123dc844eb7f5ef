package index

import (
	"database/sql"

	"github.com/starford/clm/internal/diag"
	"github.com/starford/clm/internal/dirkind"
)

// Catalog defines the document catalog operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Catalog interface {
	UpsertDocument(d DocumentRow, body string, diags []diag.Diagnostic) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	GetDocument(path string) (*DocumentRow, error)
	ListDocuments(limit, offset int, label dirkind.Label) ([]DocumentRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Diagnostics(path string) ([]DiagnosticRow, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	var out []SearchResult
	for rows.Next() {
		var (
			r     SearchResult
			label string
		)
		if err := rows.Scan(&r.Path, &label, &r.Titles.DE, &r.Titles.EN, &r.Snippet); err != nil {
			return nil, err
		}
		r.Label = dirkind.Label(label)
		out = append(out, r)
	}
	return out, rows.Err()
}
