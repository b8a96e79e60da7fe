package filter

import (
	"fmt"
	"html/template"

	"github.com/starford/pantry/internal/models"
)

// Card is the rendered state of one record after a pass.
type Card struct {
	Position        int           `json:"position"`
	Visible         bool          `json:"visible"`
	TitleHTML       template.HTML `json:"title_html"`
	DescriptionHTML template.HTML `json:"description_html"`
}

// Result is the outcome of one filter pass.
type Result struct {
	Criteria     Criteria `json:"criteria"`
	Cards        []Card   `json:"cards"`
	VisibleCount int      `json:"visible_count"`
	Label        string   `json:"label"`
}

// PageState owns the records of one page for the page's lifetime, together
// with the per-card output of the most recent pass. It is not safe for
// concurrent use; callers serialize Apply.
type PageState struct {
	records []models.Record
	cards   []Card
	last    Criteria
}

// NewPageState captures records. Cards start visible with their original
// text, which is how the page renders before the first pass.
func NewPageState(records []models.Record) *PageState {
	recs := make([]models.Record, len(records))
	copy(recs, records)
	cards := make([]Card, len(recs))
	for i, r := range recs {
		cards[i] = Card{
			Position:        r.Position,
			Visible:         true,
			TitleHTML:       Plain(r.Title),
			DescriptionHTML: Plain(r.Description),
		}
	}
	return &PageState{records: recs, cards: cards}
}

// Records returns a copy of the captured records.
func (s *PageState) Records() []models.Record {
	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Apply runs a filter pass for the given inputs and returns its result.
// Visible cards get highlighted text; hidden cards get their original text
// back. Calling Apply twice with the same inputs yields the same result.
func (s *PageState) Apply(in Inputs) Result {
	c := NewCriteria(in)
	re := tokenPattern(c.Tokens)
	for i, rec := range s.records {
		card := &s.cards[i]
		if Matches(rec, c) {
			card.Visible = true
			card.TitleHTML = highlightWith(re, rec.Title)
			card.DescriptionHTML = highlightWith(re, rec.Description)
			continue
		}
		card.Visible = false
		card.TitleHTML = Plain(rec.Title)
		card.DescriptionHTML = Plain(rec.Description)
	}
	s.last = c
	return s.Result()
}

// Result returns the output of the most recent pass.
func (s *PageState) Result() Result {
	cards := make([]Card, len(s.cards))
	copy(cards, s.cards)
	visible := 0
	for _, c := range cards {
		if c.Visible {
			visible++
		}
	}
	return Result{
		Criteria:     s.last,
		Cards:        cards,
		VisibleCount: visible,
		Label:        Label(visible),
	}
}

// Label is the document title shown for a visible count.
func Label(visible int) string {
	return fmt.Sprintf("Recipes (%d)", visible)
}
