package book

import (
	"context"
	"errors"

	"readmind/internal/platform/googlebooks"
)

// Page is one page of search results.
type Page struct {
	Books      []Book `json:"books"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"total_pages"`
	HasMore    bool   `json:"has_more"`
}

type Service struct {
	catalog Catalog
}

func NewService(catalog Catalog) *Service {
	return &Service{catalog: catalog}
}

func (s *Service) Search(ctx context.Context, p SearchParams) (Page, error) {
	pg := NormalizePagination(p.Page, p.Limit, p.MaxResults)

	res, err := s.catalog.SearchVolumes(ctx, googlebooks.SearchParams{
		Query:        BuildQuery(p.Query, p.Author, p.Category),
		StartIndex:   pg.StartIndex,
		MaxResults:   pg.MaxResults,
		OrderBy:      p.OrderBy,
		LangRestrict: p.Language,
	})
	if err != nil {
		return Page{}, err
	}

	books := make([]Book, 0, len(res.Items))
	for _, v := range res.Items {
		books = append(books, FromVolume(v))
	}
	totalPages := (res.TotalItems + pg.Limit - 1) / pg.Limit
	return Page{
		Books:      books,
		Total:      res.TotalItems,
		Page:       pg.Page,
		Limit:      pg.Limit,
		TotalPages: totalPages,
		HasMore:    pg.Page < totalPages,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (Book, error) {
	v, err := s.catalog.GetVolume(ctx, id)
	if err != nil {
		if errors.Is(err, googlebooks.ErrNotFound) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return FromVolume(*v), nil
}

// FindFirst returns the best catalog match for a free-text query, or
// ErrNotFound when the catalog has none.
func (s *Service) FindFirst(ctx context.Context, query string) (Book, error) {
	res, err := s.catalog.SearchVolumes(ctx, googlebooks.SearchParams{
		Query:      query,
		MaxResults: 1,
	})
	if err != nil {
		return Book{}, err
	}
	if len(res.Items) == 0 {
		return Book{}, ErrNotFound
	}
	return FromVolume(res.Items[0]), nil
}
