// Package recommend turns book mentions found in assistant replies into
// catalog records with covers.
package recommend

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"readmind/internal/book"
	"readmind/internal/mention"
	"readmind/internal/platform/openlibrary"
)

const maxConcurrentLookups = 5

// BookFinder returns the best catalog match for a free-text query.
// book.ErrNotFound means the catalog has nothing for it.
type BookFinder interface {
	FindFirst(ctx context.Context, query string) (book.Book, error)
}

// CoverFinder looks up a cover image URL by title and author.
// openlibrary.ErrNoCover means no cover was found.
type CoverFinder interface {
	SearchCover(ctx context.Context, title, author string) (string, error)
}

// Item is a mention with whatever the catalog knows about it.
type Item struct {
	Mention  mention.Mention `json:"mention"`
	Book     *book.Book      `json:"book,omitempty"`
	CoverURL string          `json:"cover_url,omitempty"`
}

// Resolver turns reply text into catalog items. It is safe for concurrent
// use.
type Resolver struct {
	extractor *mention.Extractor
	books     BookFinder
	covers    CoverFinder
	log       *zap.Logger
}

// NewResolver wires the lookups. covers may be nil to skip the Open Library
// fallback.
func NewResolver(extractor *mention.Extractor, books BookFinder, covers CoverFinder, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	if extractor == nil {
		extractor = mention.NewExtractor(log)
	}
	return &Resolver{extractor: extractor, books: books, covers: covers, log: log}
}

// Resolve extracts mentions from text and looks each one up.
func (r *Resolver) Resolve(ctx context.Context, text string) ([]Item, error) {
	return r.ResolveMentions(ctx, r.extractor.Extract(text))
}

// ResolveMentions looks mentions up concurrently and returns one item per
// mention in the same order. A failed lookup leaves the item without a book;
// only cancellation of ctx fails the call.
func (r *Resolver) ResolveMentions(ctx context.Context, mentions []mention.Mention) ([]Item, error) {
	items := make([]Item, len(mentions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i, m := range mentions {
		g.Go(func() error {
			items[i] = r.resolveOne(gctx, m)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Resolver) resolveOne(ctx context.Context, m mention.Mention) Item {
	item := Item{Mention: m}

	b, err := r.books.FindFirst(ctx, m.SearchQuery)
	switch {
	case err == nil:
		item.Book = &b
		item.CoverURL = book.HighQualityImageURL(b.Cover)
	case errors.Is(err, book.ErrNotFound):
		r.log.Debug("no catalog match", zap.String("query", m.SearchQuery))
	default:
		r.log.Warn("catalog lookup failed", zap.String("query", m.SearchQuery), zap.Error(err))
	}

	if item.CoverURL != "" || r.covers == nil || ctx.Err() != nil {
		return item
	}
	cover, err := r.covers.SearchCover(ctx, m.Title, m.Author)
	switch {
	case err == nil:
		item.CoverURL = cover
	case errors.Is(err, openlibrary.ErrNoCover):
	default:
		r.log.Warn("cover lookup failed", zap.String("title", m.Title), zap.Error(err))
	}
	return item
}
