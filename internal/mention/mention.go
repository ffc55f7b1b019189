// Package mention recovers book references from free-form assistant replies.
//
// A reply is scanned in two passes. A machine-readable block delimited by
// BlockStart and BlockEnd is preferred; when it is missing, malformed or empty
// a fixed ladder of natural-language patterns is applied instead. The result is
// de-duplicated and capped at MaxMentions entries.
package mention

import "strings"

const (
	// BlockStart and BlockEnd delimit the JSON list of books a model may append
	// to its reply.
	BlockStart = "---BOOKS_START---"
	BlockEnd   = "---BOOKS_END---"

	// MaxMentions is the largest number of mentions returned for one text.
	MaxMentions = 5
)

// Title length bounds, both exclusive, counted in runes.
const (
	minTitleLen = 2
	maxTitleLen = 100
)

// Mention is a candidate book reference that has not been resolved against
// the catalog yet.
type Mention struct {
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
	// SearchQuery is the catalog lookup key: "title author", or title alone.
	SearchQuery string `json:"search_query"`
}

func newMention(title, author string) Mention {
	m := Mention{Title: title, Author: author, SearchQuery: title}
	if author != "" {
		m.SearchQuery = title + " " + author
	}
	return m
}

func (m Mention) key() string {
	return strings.ToLower(strings.TrimSpace(m.Title)) + "_" + strings.ToLower(strings.TrimSpace(m.Author))
}
