package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/pantry/internal/apperr"
	"github.com/starford/pantry/internal/models"
)

// PageRow represents a row in the pages table.
type PageRow struct {
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Checksum    string    `json:"checksum"`
	RecordCount int       `json:"record_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpsertPage replaces a page and all of its records within a transaction.
func (db *DB) UpsertPage(p PageRow, records []models.Record) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO pages (path, title, checksum, record_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title        = excluded.title,
			checksum     = excluded.checksum,
			record_count = excluded.record_count,
			updated_at   = excluded.updated_at
	`, p.Path, p.Title, p.Checksum, len(records), p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert page: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM recipes WHERE page = ?`, p.Path); err != nil {
		return fmt.Errorf("index: clear records: %w", err)
	}
	if len(records) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO recipes (page, position, title, description, prep_minutes, cook_minutes)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare record insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range records {
			if _, err := stmt.Exec(p.Path, r.Position, r.Title, r.Description, nullMinutes(r.PrepMinutes), nullMinutes(r.CookMinutes)); err != nil {
				return fmt.Errorf("index: insert record: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeletePage removes a page. Its records go with it through the
// ON DELETE CASCADE foreign key.
func (db *DB) DeletePage(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM pages WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete page: %w", err)
	}
	return nil
}

// GetChecksum returns the stored checksum for a page, or an empty string
// when the page is not catalogued.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM pages WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetPage returns a page together with its records in card order.
func (db *DB) GetPage(path string) (*models.Page, error) {
	var p models.Page
	err := db.conn.QueryRow(`SELECT path, title, checksum, updated_at FROM pages WHERE path = ?`, path).
		Scan(&p.Path, &p.Title, &p.Checksum, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get page: %w", err)
	}
	recs, err := db.Records(path)
	if err != nil {
		return nil, err
	}
	p.Records = recs
	return &p, nil
}

// ListPages returns every catalogued page ordered by path.
func (db *DB) ListPages() ([]PageRow, error) {
	rows, err := db.conn.Query(`SELECT path, title, checksum, record_count, updated_at FROM pages ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: list pages: %w", err)
	}
	defer rows.Close()

	out := []PageRow{}
	for rows.Next() {
		var p PageRow
		if err := rows.Scan(&p.Path, &p.Title, &p.Checksum, &p.RecordCount, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Records returns the captured records of a page in card order.
func (db *DB) Records(path string) ([]models.Record, error) {
	rows, err := db.conn.Query(`
		SELECT position, title, description, prep_minutes, cook_minutes
		FROM recipes
		WHERE page = ?
		ORDER BY position
	`, path)
	if err != nil {
		return nil, fmt.Errorf("index: records: %w", err)
	}
	defer rows.Close()

	out := []models.Record{}
	for rows.Next() {
		var (
			r          models.Record
			prep, cook sql.NullInt64
		)
		if err := rows.Scan(&r.Position, &r.Title, &r.Description, &prep, &cook); err != nil {
			return nil, err
		}
		r.PrepMinutes = minutesFromNull(prep)
		r.CookMinutes = minutesFromNull(cook)
		out = append(out, r)
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every catalogued page.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM pages`)
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

func nullMinutes(m *int) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*m), Valid: true}
}

func minutesFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	return models.Minutes(int(n.Int64))
}
