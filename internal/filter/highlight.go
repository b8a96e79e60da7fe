package filter

import (
	"html"
	"html/template"
	"regexp"
	"strings"
	"unicode"
)

const (
	markOpen  = "<mark>"
	markClose = "</mark>"
)

// Highlight renders text as HTML, wrapping every case-insensitive occurrence
// of any token in <mark>. Tokens are matched literally, in one left-to-right
// pass; where tokens overlap, the earliest token in the list wins. Everything
// outside a match is escaped. Case is folded with strings.ToLower, the same
// folding Matches uses, so a card is highlighted exactly where it matched.
func Highlight(text string, tokens []string) template.HTML {
	return highlightWith(tokenPattern(tokens), text)
}

// Plain renders text as escaped HTML with no highlight markers.
func Plain(text string) template.HTML {
	return template.HTML(html.EscapeString(text))
}

// highlightWith matches re against the lowered text and marks the
// corresponding spans of the original. A nil re only escapes.
func highlightWith(re *regexp.Regexp, text string) template.HTML {
	if re == nil {
		return Plain(text)
	}
	folded, offsets := foldCase(text)

	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringIndex(folded, -1) {
		start, end := offsets[loc[0]], offsets[loc[1]]
		b.WriteString(html.EscapeString(text[last:start]))
		b.WriteString(markOpen)
		b.WriteString(html.EscapeString(text[start:end]))
		b.WriteString(markClose)
		last = end
	}
	b.WriteString(html.EscapeString(text[last:]))
	return template.HTML(b.String())
}

// foldCase lowers text rune by rune, as strings.ToLower does, and returns
// for every byte of the result the offset of its source rune in text. The
// extra trailing entry maps the end of the lowered text to len(text).
func foldCase(text string) (string, []int) {
	var b strings.Builder
	b.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)
	for i, r := range text {
		n := b.Len()
		b.WriteRune(unicode.ToLower(r))
		for j := n; j < b.Len(); j++ {
			offsets = append(offsets, i)
		}
	}
	offsets = append(offsets, len(text))
	return b.String(), offsets
}

// tokenPattern builds an alternation of the quoted, lowered tokens. It
// returns nil when no non-empty token remains.
func tokenPattern(tokens []string) *regexp.Regexp {
	quoted := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(t)))
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(strings.Join(quoted, "|"))
}
