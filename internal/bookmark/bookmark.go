// Package bookmark keeps the user's shelf: books saved with a reading status.
package bookmark

import (
	"errors"
	"time"

	"readmind/internal/book"
)

var (
	ErrNotFound      = errors.New("bookmark not found")
	ErrInvalidStatus = errors.New("invalid bookmark status")
	ErrInvalidBook   = errors.New("book id is required")
)

type Status string

const (
	StatusReading   Status = "reading"
	StatusPlanned   Status = "planned"
	StatusFinished  Status = "finished"
	StatusShelved   Status = "shelved"
	StatusDropped   Status = "dropped"
	StatusFavourite Status = "favourite"
)

// Statuses lists every shelf in display order.
var Statuses = []Status{StatusReading, StatusPlanned, StatusFinished, StatusShelved, StatusDropped, StatusFavourite}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Bookmark is a book snapshot plus its shelf state.
type Bookmark struct {
	book.Book
	Status    Status    `json:"status"`
	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
