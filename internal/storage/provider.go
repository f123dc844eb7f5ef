// Package storage defines the rooted file-system abstraction used for
// course sources and build outputs.
package storage

import (
	"errors"
	"io/fs"
)

// ErrInvalidPath reports a path that is absolute, escapes the root or
// names the root where a file is required.
var ErrInvalidPath = errors.New("storage: invalid path")

// Provider is the interface for file operations relative to a root.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// Rel converts an absolute path below the root into a relative one.
	Rel(abs string) (string, error)
	// ReadDir returns the entries of dir (relative to root) sorted by name.
	ReadDir(dir string) ([]fs.DirEntry, error)
	// Stat returns file info for path (relative to root).
	Stat(path string) (fs.FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Remove deletes the file at path (relative to root).
	Remove(path string) error
}
