// Package parser captures recipe cards from a rendered listing page.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/pantry/internal/filter"
	"github.com/starford/pantry/internal/models"
)

var spaceRe = regexp.MustCompile(`\s+`)

// Selectors locate the parts of a recipe card. Title, Description, Prep and
// Cook are evaluated relative to each card.
type Selectors struct {
	Card        string `yaml:"card"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Prep        string `yaml:"prep"`
	Cook        string `yaml:"cook"`
}

// DefaultSelectors matches the stock recipe listing markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Card:        ".recipes .card",
		Title:       "h4",
		Description: "p",
		Prep:        ".time .prep span",
		Cook:        ".time .cook span",
	}
}

// Result holds the output of capturing a page.
type Result struct {
	Title   string
	Records []models.Record
}

// Parse captures every card matched by sel.Card, in document order.
//
// Title and description text is kept exactly as rendered; a missing element
// yields an empty string. A missing or non-numeric time label leaves the
// corresponding minutes absent.
func Parse(data []byte, sel Selectors) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parser: read html: %w", err)
	}
	if sel.Card == "" {
		return nil, fmt.Errorf("parser: card selector is empty")
	}

	out := &Result{
		Title:   condense(doc.Find("title").First().Text()),
		Records: []models.Record{},
	}

	doc.Find(sel.Card).Each(func(i int, card *goquery.Selection) {
		out.Records = append(out.Records, models.Record{
			Position:    i,
			Title:       firstText(card, sel.Title),
			Description: firstText(card, sel.Description),
			PrepMinutes: minutes(card, sel.Prep),
			CookMinutes: minutes(card, sel.Cook),
		})
	})
	return out, nil
}

// firstText returns the text content of the first match, or "".
func firstText(card *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	s := card.Find(selector)
	if s.Length() == 0 {
		return ""
	}
	return s.First().Text()
}

func minutes(card *goquery.Selection, selector string) *int {
	if selector == "" || card.Find(selector).Length() == 0 {
		return nil
	}
	return filter.RecordMinutes(firstText(card, selector))
}

func condense(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
