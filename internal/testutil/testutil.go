// Package testutil provides shared test helpers for setting up courses and
// catalogs.
//
// Test style follows the layer. Server packages (internal, api, index,
// storage, checksum, sse, mcpserver, pkg/config) use plain testing with
// t.Fatalf/t.Errorf. Tag engine and course pipeline packages (tags,
// notebook, titles, dirkind, diag, variant, course, coursespec, docservice)
// use testify's require and assert.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/clm/internal/index"
	"github.com/starford/clm/internal/storage"
)

// IntroNotebook is a small bilingual percent-format notebook with one cell
// per interesting tag.
const IntroNotebook = `# {{ header("Einführung", "Introduction") }}

# %% [markdown] lang="de" tags=["slide"]
# # Einführung

# %% [markdown] lang="en" tags=["slide"]
# # Introduction

# %% tags=["keep"]
import math

# %%
answer = 42

# %% tags=["alt"]
answer = 6 * 7

# %% [markdown] tags=["notes"]
# Speaker only.

# %% tags=["del"]
scratch = True
`

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "clm-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestCourse creates a temporary course directory holding files (relative
// slash-separated path to content) and returns its root and a provider.
func TestCourse(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}
