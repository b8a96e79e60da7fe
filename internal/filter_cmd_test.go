package internal

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/pantry/internal/filter"
	"github.com/starford/pantry/internal/testutil"
)

func writePage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listing.html")
	if err := os.WriteFile(path, []byte(testutil.ListingHTML), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunFilter_JSON(t *testing.T) {
	page := writePage(t)
	var buf bytes.Buffer
	err := RunFilter(context.Background(), &buf,
		FilterRequest{Page: page, Inputs: filter.Inputs{Query: "curry"}},
		WithConfig(NewDefaultConfig()), WithLogger(testutil.Logger()))
	if err != nil {
		t.Fatalf("RunFilter: %v", err)
	}

	var out struct {
		Page         string `json:"page"`
		Label        string `json:"label"`
		VisibleCount int    `json:"visible_count"`
		Cards        []struct {
			TitleHTML string `json:"title_html"`
		} `json:"cards"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if out.Page != "listing.html" || out.Label != "Recipes (1)" || out.VisibleCount != 1 {
		t.Errorf("out = %+v", out)
	}
	if out.Cards[0].TitleHTML != "Chicken <mark>Curry</mark>" {
		t.Errorf("title html = %q", out.Cards[0].TitleHTML)
	}
}

func TestRunFilter_ExportCSV(t *testing.T) {
	page := writePage(t)
	out := filepath.Join(t.TempDir(), "result.csv")
	err := RunFilter(context.Background(), nil,
		FilterRequest{Page: page, Inputs: filter.Inputs{Cook: "30 min"}, Out: out},
		WithConfig(NewDefaultConfig()), WithLogger(testutil.Logger()))
	if err != nil {
		t.Fatalf("RunFilter: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want header + 4", len(rows))
	}
	visible := 0
	for _, r := range rows[1:] {
		if r[5] == "true" {
			visible++
		}
	}
	if visible != 3 {
		t.Errorf("visible rows = %d, want 3", visible)
	}
}

func TestRunFilter_Errors(t *testing.T) {
	err := RunFilter(context.Background(), nil, FilterRequest{Page: "x.html"})
	if !errors.Is(err, errConfigRequired) {
		t.Errorf("err = %v, want errConfigRequired", err)
	}

	err = RunFilter(context.Background(), nil,
		FilterRequest{Page: filepath.Join(t.TempDir(), "missing.html")},
		WithConfig(NewDefaultConfig()), WithLogger(testutil.Logger()))
	if err == nil {
		t.Error("expected error for missing page file")
	}
}
