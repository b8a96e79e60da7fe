package filter

import (
	"strings"

	"github.com/starford/pantry/internal/models"
)

// Inputs are the raw widget values a filter pass is computed from.
type Inputs struct {
	Query string `json:"query"`
	Prep  string `json:"prep"`
	Cook  string `json:"cook"`
}

// Criteria is the text and time constraint set active during one pass.
type Criteria struct {
	Tokens  []string `json:"tokens"`
	MaxPrep *int     `json:"max_prep,omitempty"`
	MaxCook *int     `json:"max_cook,omitempty"`
}

// NewCriteria derives the criteria for a pass from the current inputs.
func NewCriteria(in Inputs) Criteria {
	return Criteria{
		Tokens:  Tokenize(in.Query),
		MaxPrep: ParseBound(in.Prep),
		MaxCook: ParseBound(in.Cook),
	}
}

// Matches reports whether rec should be visible under c.
//
// A record without a value for a time bound always passes that bound. The
// query passes when there are no tokens, or when any token occurs in the
// title or the description.
func Matches(rec models.Record, c Criteria) bool {
	return withinBound(rec.PrepMinutes, c.MaxPrep) &&
		withinBound(rec.CookMinutes, c.MaxCook) &&
		matchesQuery(rec, c.Tokens)
}

func withinBound(value, max *int) bool {
	if value == nil || max == nil {
		return true
	}
	return *value <= *max
}

func matchesQuery(rec models.Record, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	title := strings.ToLower(rec.Title)
	desc := strings.ToLower(rec.Description)
	for _, tok := range tokens {
		if strings.Contains(title, tok) || strings.Contains(desc, tok) {
			return true
		}
	}
	return false
}
