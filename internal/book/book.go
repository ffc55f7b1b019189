// Package book exposes the Google Books catalog in the simplified shape the
// client uses.
package book

import (
	"errors"
	"strings"

	"readmind/internal/platform/googlebooks"
)

var ErrNotFound = errors.New("book not found")

const DefaultTitle = "Без названия"

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Book is the simplified catalog record.
type Book struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle,omitempty"`
	Authors       []string `json:"authors"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Description   string   `json:"description,omitempty"`
	// DescriptionText is Description with markup removed.
	DescriptionText string   `json:"description_text,omitempty"`
	PageCount       int      `json:"page_count,omitempty"`
	Categories      []string `json:"categories"`
	Rating          float64  `json:"rating,omitempty"`
	RatingsCount    int      `json:"ratings_count,omitempty"`
	Thumbnail       string   `json:"thumbnail,omitempty"`
	Cover           string   `json:"cover,omitempty"`
	Language        string   `json:"language,omitempty"`
	PreviewLink     string   `json:"preview_link,omitempty"`
	InfoLink        string   `json:"info_link,omitempty"`
	ISBN            string   `json:"isbn,omitempty"`
	Price           *Price   `json:"price,omitempty"`
}

// FromVolume converts an API volume into a Book.
func FromVolume(v googlebooks.Volume) Book {
	info := v.VolumeInfo
	b := Book{
		ID:              v.ID,
		Title:           info.Title,
		Subtitle:        info.Subtitle,
		Authors:         info.Authors,
		Publisher:       info.Publisher,
		PublishedDate:   info.PublishedDate,
		Description:     info.Description,
		DescriptionText: googlebooks.PlainText(info.Description),
		PageCount:       info.PageCount,
		Categories:      info.Categories,
		Rating:          info.AverageRating,
		RatingsCount:    info.RatingsCount,
		Language:        info.Language,
		PreviewLink:     info.PreviewLink,
		InfoLink:        info.InfoLink,
		ISBN:            info.ISBN(),
	}
	if b.Title == "" {
		b.Title = DefaultTitle
	}
	if b.Authors == nil {
		b.Authors = []string{}
	}
	if b.Categories == nil {
		b.Categories = []string{}
	}
	if links := info.ImageLinks; links != nil {
		b.Thumbnail = NormalizeImageURL(links.Thumbnail)
		b.Cover = firstNonEmpty(
			NormalizeImageURL(links.ExtraLarge),
			NormalizeImageURL(links.Large),
			NormalizeImageURL(links.Medium),
			NormalizeImageURL(links.Small),
			b.Thumbnail,
		)
	}
	if v.SaleInfo != nil && v.SaleInfo.RetailPrice != nil {
		b.Price = &Price{
			Amount:   v.SaleInfo.RetailPrice.Amount,
			Currency: v.SaleInfo.RetailPrice.CurrencyCode,
		}
	}
	return b
}

// NormalizeImageURL forces https and drops the curled page effect.
func NormalizeImageURL(u string) string {
	if u == "" {
		return ""
	}
	u = strings.Replace(u, "http://", "https://", 1)
	return strings.Replace(u, "&edge=curl", "", 1)
}

// HighQualityImageURL asks books.google.com for the next zoom level.
func HighQualityImageURL(u string) string {
	if u == "" || !strings.Contains(u, "books.google.com") {
		return u
	}
	return strings.Replace(u, "zoom=1", "zoom=2", 1)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
