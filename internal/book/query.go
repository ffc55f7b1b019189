package book

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultQuery    = "fiction"
	DefaultLanguage = "ru"
	DefaultLimit    = 20
	MaxLimit        = 40
)

var (
	languages = map[string]bool{"ru": true, "en": true, "de": true, "fr": true, "es": true, "it": true}
	orderings = map[string]bool{"relevance": true, "newest": true}
)

// SearchParams are the catalog filters accepted by GET /api/books.
type SearchParams struct {
	Query    string
	Author   string
	Category string
	Language string
	OrderBy  string
	Page     int
	Limit    int
	// MaxResults overrides the page size sent upstream.
	MaxResults int
}

// BuildQuery joins the free text with inauthor: and subject: terms using "+".
// An empty result falls back to DefaultQuery.
func BuildQuery(query, author, category string) string {
	var parts []string
	if q := strings.TrimSpace(query); q != "" {
		parts = append(parts, q)
	}
	if a := strings.TrimSpace(author); a != "" {
		parts = append(parts, "inauthor:"+a)
	}
	if c := strings.TrimSpace(category); c != "" {
		parts = append(parts, "subject:"+c)
	}
	if len(parts) == 0 {
		return DefaultQuery
	}
	return strings.Join(parts, "+")
}

type Pagination struct {
	Page       int
	Limit      int
	MaxResults int
	StartIndex int
}

// NormalizePagination clamps page to >= 1 and limit to [1, MaxLimit].
// maxResults defaults to limit and is capped at MaxLimit.
func NormalizePagination(page, limit, maxResults int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	limit = min(MaxLimit, max(1, limit))
	if maxResults <= 0 {
		maxResults = limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		MaxResults: min(MaxLimit, maxResults),
		StartIndex: (page - 1) * limit,
	}
}

// ParseSearchParams reads the query string. Non-numeric paging values fall
// back to their defaults; unsupported language or ordering is an error.
func ParseSearchParams(get func(string) string) (SearchParams, error) {
	p := SearchParams{
		Query:    get("query"),
		Author:   get("author"),
		Category: get("category"),
		Language: get("language"),
		OrderBy:  get("orderBy"),
	}
	p.Page, _ = strconv.Atoi(get("page"))
	p.Limit, _ = strconv.Atoi(get("limit"))
	p.MaxResults, _ = strconv.Atoi(get("maxResults"))

	if p.Language == "" {
		p.Language = DefaultLanguage
	}
	if !languages[p.Language] {
		return p, fmt.Errorf("unsupported language %q", p.Language)
	}
	if p.OrderBy == "" {
		p.OrderBy = "relevance"
	}
	if !orderings[p.OrderBy] {
		return p, fmt.Errorf("unsupported orderBy %q", p.OrderBy)
	}
	return p, nil
}
