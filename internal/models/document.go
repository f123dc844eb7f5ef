// Package models defines the domain types shared by the catalog, the API
// and the MCP server.
package models

import (
	"time"

	"github.com/starford/clm/internal/diag"
	"github.com/starford/clm/internal/dirkind"
	"github.com/starford/clm/internal/titles"
)

// Document is a classified course entry.
type Document struct {
	Path        string            `json:"path"`
	Label       dirkind.Label     `json:"label"`
	Titles      titles.Titles     `json:"titles"`
	Checksum    string            `json:"checksum,omitempty"`
	Cells       int               `json:"cells"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// DocumentMetadata is a lightweight representation returned by list operations.
type DocumentMetadata struct {
	Path      string        `json:"path"`
	Label     dirkind.Label `json:"label"`
	Checksum  string        `json:"checksum"`
	UpdatedAt time.Time     `json:"updated_at"`
}
