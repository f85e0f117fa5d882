package search

import (
	"strconv"
	"strings"
)

const (
	DefaultLimit = 20
	MaxLimit     = 200
)

// Query is the structured form of a conversation search typed by a user.
type Query struct {
	RawInput string
	Terms    string // free text matched against message text
	Lang     string // ISO 639-1 code, empty for any language
	Limit    int
}

// ParseQuery extracts command-line style flags from a raw search string.
// Example: hello world --lang en --limit 5
// Unknown flags are dropped with their value.
func ParseQuery(input string) Query {
	query := Query{RawInput: input, Limit: DefaultLimit}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			key := strings.TrimPrefix(part, "--")
			val := parts[i+1]

			switch key {
			case "lang":
				query.Lang = strings.ToLower(val)
			case "limit":
				if n, err := strconv.Atoi(val); err == nil && n > 0 {
					query.Limit = min(n, MaxLimit)
				}
			}
			i++
			continue
		}
		if !strings.HasPrefix(part, "/") {
			textTerms = append(textTerms, part)
		}
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}
