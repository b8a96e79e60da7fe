// Package testutil provides shared test helpers for setting up sites and catalogues.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/pantry/internal/index"
	"github.com/starford/pantry/internal/parser"
	"github.com/starford/pantry/internal/storage"
)

// ListingHTML is a listing page with four cards in the default markup. The
// fourth card has no time labels.
const ListingHTML = `<!DOCTYPE html>
<html>
<head><title>Recipes</title></head>
<body>
<input id="search"><select id="prep"></select><select id="cook"></select>
<div class="recipes">
  <div class="card">
    <h4>Chicken Curry</h4>
    <p>Spicy & rich</p>
    <div class="time"><div class="prep"><span>15 min</span></div><div class="cook"><span>30 min</span></div></div>
  </div>
  <div class="card">
    <h4>Garden Salad</h4>
    <p>Fresh greens</p>
    <div class="time"><div class="prep"><span>10 min</span></div><div class="cook"><span>0 min</span></div></div>
  </div>
  <div class="card">
    <h4>Beef Stew</h4>
    <p>Slow cooked</p>
    <div class="time"><div class="prep"><span>20 min</span></div><div class="cook"><span>120 min</span></div></div>
  </div>
  <div class="card">
    <h4>Mystery Pie</h4>
    <p>Ask the chef</p>
  </div>
</div>
</body>
</html>`

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "pantry-test-*.db")
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

// TestSite creates a temporary site directory with a storage.Provider.
func TestSite(t *testing.T) (string, storage.Provider) {
	t.Helper()
	siteDir := t.TempDir()
	store, err := storage.NewFS(siteDir)
	if err != nil {
		t.Fatal(err)
	}
	return siteDir, store
}

// TestCatalog writes ListingHTML to index.html in a fresh site, captures it
// and returns the catalogue.
func TestCatalog(t *testing.T) (string, *index.DB) {
	t.Helper()
	siteDir, store := TestSite(t)
	if err := os.WriteFile(filepath.Join(siteDir, "index.html"), []byte(ListingHTML), 0o644); err != nil {
		t.Fatal(err)
	}
	db := TestDB(t)
	if err := index.NewIndexer(db, store, parser.DefaultSelectors(), Logger()).Sync(); err != nil {
		t.Fatal(err)
	}
	return siteDir, db
}
