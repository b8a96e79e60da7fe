// Package models defines the domain types for Pantry.
package models

import "time"

// Record is one recipe card captured from a listing page. Title and
// Description hold the text exactly as it was rendered and never change after
// capture.
type Record struct {
	Position    int    `json:"position"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PrepMinutes *int   `json:"prep_minutes,omitempty"`
	CookMinutes *int   `json:"cook_minutes,omitempty"`
}

// Page is a captured recipe listing page.
type Page struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Records   []Record  `json:"records"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PageMetadata is a lightweight representation returned by list operations.
type PageMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Minutes returns a pointer to m, for building records with a known time.
func Minutes(m int) *int {
	return &m
}
