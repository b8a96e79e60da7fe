// Package export writes the outcome of a filter pass as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/starford/pantry/internal/filter"
	"github.com/starford/pantry/internal/models"
)

const (
	recipesSheet = "Recipes"
	summarySheet = "Summary"
)

var header = []string{
	"position", "title", "description", "prep_minutes", "cook_minutes",
	"visible", "title_html", "description_html",
}

// WriteFile writes records and res to path, choosing the format from the
// extension (.csv or .xlsx). On failure no partial file is left behind.
func WriteFile(path string, records []models.Record, res filter.Result) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return writeFile(path, func(w io.Writer) error { return WriteCSV(w, records, res) })
	case ".xlsx":
		return writeFile(path, func(w io.Writer) error { return WriteXLSX(w, records, res) })
	default:
		return fmt.Errorf("export: unsupported extension %q (want .csv or .xlsx)", ext)
	}
}

// writeFile creates path, fills it with write and removes it again if
// anything fails.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(path)
		}
	}()

	if err = write(f); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("export: close: %w", err)
	}
	return nil
}

// WriteCSV writes one row per record in card order.
func WriteCSV(w io.Writer, records []models.Record, res filter.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, r := range records {
		if err := cw.Write(row(r, card(res, i))); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with a Recipes sheet (one row per record) and
// a Summary sheet holding the criteria and the label.
func WriteXLSX(w io.Writer, records []models.Record, res filter.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", recipesSheet); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(recipesSheet)
	if err != nil {
		return fmt.Errorf("export: stream writer: %w", err)
	}
	if err := sw.SetRow("A1", cells(header)); err != nil {
		return err
	}
	for i, r := range records {
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(addr, cells(row(r, card(res, i)))); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("export: summary sheet: %w", err)
	}
	summary := [][2]any{
		{"label", res.Label},
		{"visible_count", res.VisibleCount},
		{"total", len(records)},
		{"tokens", strings.Join(res.Criteria.Tokens, " ")},
		{"max_prep", minutes(res.Criteria.MaxPrep)},
		{"max_cook", minutes(res.Criteria.MaxCook)},
	}
	for i, kv := range summary {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &[]any{kv[0], kv[1]}); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

// card returns the pass output for the i-th record, or a zero Card when the
// result does not cover it.
func card(res filter.Result, i int) filter.Card {
	if i < len(res.Cards) {
		return res.Cards[i]
	}
	return filter.Card{}
}

func row(r models.Record, c filter.Card) []string {
	return []string{
		strconv.Itoa(r.Position),
		r.Title,
		r.Description,
		minutes(r.PrepMinutes),
		minutes(r.CookMinutes),
		strconv.FormatBool(c.Visible),
		string(c.TitleHTML),
		string(c.DescriptionHTML),
	}
}

func cells(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func minutes(m *int) string {
	if m == nil {
		return ""
	}
	return strconv.Itoa(*m)
}
