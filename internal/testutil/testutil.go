// Package testutil provides shared test helpers for setting up vaults.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/starford/vaultmetrics/internal/storage"
)

// SampleNotes is a small vault with links, a duplicate name, front matter,
// todos and one note whose front matter is never closed.
var SampleNotes = map[string]string{
	"index.md":          "---\ntags: [todo, home]\naliases: [start]\n---\nStart at [[ideas]] and [[projects/alpha|Alpha]]. #todo",
	"ideas.md":          "Loose ideas, see [[index]].",
	"projects/alpha.md": "---\ntitle: Alpha\n---\nAlpha project notes. #todo #todo",
	"archive/ideas.md":  "Old ideas.",
	"broken.md":         "---\ntitle: never closed\n",
}

// TestVault creates a temporary vault directory populated with files.
func TestVault(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	for p, content := range files {
		if err := store.Write(p, []byte(content)); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	return store.Root(), store
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
