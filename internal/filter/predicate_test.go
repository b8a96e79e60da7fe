package filter

import (
	"testing"

	"github.com/starford/pantry/internal/models"
)

func TestMatches_MissingTimeIsPermissive(t *testing.T) {
	rec := models.Record{Title: "Soup", Description: "warm", CookMinutes: models.Minutes(10)}
	c := Criteria{MaxPrep: models.Minutes(15), MaxCook: models.Minutes(60)}
	if !Matches(rec, c) {
		t.Error("record without prep time should pass a prep bound")
	}
	c.MaxPrep = models.Minutes(0)
	if !Matches(rec, c) {
		t.Error("record without prep time should pass even a zero prep bound")
	}
}

func TestMatches_BoundIsInclusive(t *testing.T) {
	c := Criteria{MaxPrep: models.Minutes(15)}
	if !Matches(models.Record{PrepMinutes: models.Minutes(15)}, c) {
		t.Error("prep=15 with max 15 should pass")
	}
	if Matches(models.Record{PrepMinutes: models.Minutes(16)}, c) {
		t.Error("prep=16 with max 15 should fail")
	}
}

func TestMatches_CookBound(t *testing.T) {
	c := Criteria{MaxCook: models.Minutes(30)}
	if Matches(models.Record{CookMinutes: models.Minutes(90)}, c) {
		t.Error("cook=90 with max 30 should fail")
	}
	if !Matches(models.Record{PrepMinutes: models.Minutes(90), CookMinutes: models.Minutes(20)}, c) {
		t.Error("prep is unbounded, cook=20 with max 30 should pass")
	}
}

func TestMatches_QueryIsAnyToken(t *testing.T) {
	rec := models.Record{Title: "Banana Bread", Description: "quick snack"}
	tests := []struct {
		tokens []string
		want   bool
	}{
		{[]string{"banana", "snack"}, true},
		{[]string{"banana", "x"}, true},
		{[]string{"x", "snack"}, true},
		{[]string{"zebra"}, false},
		{nil, true},
		{[]string{"bread quick"}, false},
	}
	for _, tt := range tests {
		if got := Matches(rec, Criteria{Tokens: tt.tokens}); got != tt.want {
			t.Errorf("Matches(tokens=%q) = %v, want %v", tt.tokens, got, tt.want)
		}
	}
}

func TestMatches_AllCriteriaMustHold(t *testing.T) {
	rec := models.Record{Title: "Beef Stew", Description: "hearty", PrepMinutes: models.Minutes(20), CookMinutes: models.Minutes(90)}
	c := Criteria{Tokens: []string{"stew"}, MaxCook: models.Minutes(30)}
	if Matches(rec, c) {
		t.Error("query matches but cook bound fails; record should be hidden")
	}
}

func TestNewCriteria(t *testing.T) {
	c := NewCriteria(Inputs{Query: " Pasta  Bake ", Prep: "", Cook: "30 mins"})
	if len(c.Tokens) != 2 || c.Tokens[0] != "pasta" || c.Tokens[1] != "bake" {
		t.Errorf("tokens = %v", c.Tokens)
	}
	if c.MaxPrep != nil {
		t.Errorf("max prep = %d, want nil", *c.MaxPrep)
	}
	if c.MaxCook == nil || *c.MaxCook != 30 {
		t.Errorf("max cook = %v, want 30", c.MaxCook)
	}
}
