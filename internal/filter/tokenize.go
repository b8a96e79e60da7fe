package filter

import "strings"

// Tokenize lower-cases the query and splits it on runs of whitespace.
// An empty or blank query yields nil, which means "no text filter".
func Tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	if len(fields) == 0 {
		return nil
	}
	return fields
}
