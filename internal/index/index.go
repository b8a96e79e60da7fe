package index

import "github.com/starford/pantry/internal/models"

// Catalog defines the interface for page catalogue operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type Catalog interface {
	UpsertPage(p PageRow, records []models.Record) error
	DeletePage(path string) error
	GetChecksum(path string) (string, error)
	GetPage(path string) (*models.Page, error)
	ListPages() ([]PageRow, error)
	Records(path string) ([]models.Record, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
