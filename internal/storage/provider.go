// Package storage defines the site file-system abstraction.
package storage

import (
	"strings"

	"github.com/starford/pantry/internal/models"
)

// Provider is the interface for site page operations.
type Provider interface {
	// List returns metadata for every listing page under dir (relative to site root).
	List(dir string) ([]models.PageMetadata, error)
	// Read returns the raw bytes of the page at path (relative to site root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to site root).
	Write(path string, content []byte) error
}

// IsPage reports whether name is a listing page file.
func IsPage(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
}
