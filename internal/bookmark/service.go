package bookmark

import (
	"context"
	"fmt"
	"strings"
	"time"

	"readmind/internal/book"
	"readmind/internal/kvstore"
)

const keyPrefix = "userBookmarks_"

type Service struct {
	store kvstore.Store
	locks kvstore.Locks
	now   func() time.Time
}

func NewService(store kvstore.Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) load(ctx context.Context, userID string) ([]Bookmark, error) {
	var out []Bookmark
	if _, err := kvstore.GetJSON(ctx, s.store, keyPrefix+userID, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Bookmark{}
	}
	return out, nil
}

func (s *Service) update(ctx context.Context, userID string, fn func([]Bookmark) ([]Bookmark, error)) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	list, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	list, err = fn(list)
	if err != nil {
		return err
	}
	if err := kvstore.PutJSON(ctx, s.store, keyPrefix+userID, list); err != nil {
		return fmt.Errorf("save bookmarks: %w", err)
	}
	return nil
}

func indexOf(list []Bookmark, bookID string) int {
	for i := range list {
		if list[i].ID == bookID {
			return i
		}
	}
	return -1
}

// Add saves b on the given shelf. Re-adding a book refreshes its snapshot and
// status but keeps the original added_at. An empty status means planned.
func (s *Service) Add(ctx context.Context, userID string, b book.Book, status Status) (Bookmark, error) {
	b.ID = strings.TrimSpace(b.ID)
	if b.ID == "" {
		return Bookmark{}, ErrInvalidBook
	}
	if status == "" {
		status = StatusPlanned
	}
	if !status.Valid() {
		return Bookmark{}, ErrInvalidStatus
	}

	var saved Bookmark
	err := s.update(ctx, userID, func(list []Bookmark) ([]Bookmark, error) {
		now := s.now()
		if i := indexOf(list, b.ID); i >= 0 {
			list[i].Book = b
			list[i].Status = status
			list[i].UpdatedAt = now
			saved = list[i]
			return list, nil
		}
		saved = Bookmark{Book: b, Status: status, AddedAt: now, UpdatedAt: now}
		return append(list, saved), nil
	})
	return saved, err
}

// Remove deletes a bookmark. Removing a book that is not saved is a no-op.
func (s *Service) Remove(ctx context.Context, userID, bookID string) error {
	return s.update(ctx, userID, func(list []Bookmark) ([]Bookmark, error) {
		if i := indexOf(list, bookID); i >= 0 {
			list = append(list[:i], list[i+1:]...)
		}
		return list, nil
	})
}

func (s *Service) UpdateStatus(ctx context.Context, userID, bookID string, status Status) (Bookmark, error) {
	if !status.Valid() {
		return Bookmark{}, ErrInvalidStatus
	}
	var saved Bookmark
	err := s.update(ctx, userID, func(list []Bookmark) ([]Bookmark, error) {
		i := indexOf(list, bookID)
		if i < 0 {
			return nil, ErrNotFound
		}
		list[i].Status = status
		list[i].UpdatedAt = s.now()
		saved = list[i]
		return list, nil
	})
	return saved, err
}

func (s *Service) IsBookmarked(ctx context.Context, userID, bookID string) (bool, error) {
	_, ok, err := s.find(ctx, userID, bookID)
	return ok, err
}

// Status returns the shelf of a saved book, or ErrNotFound.
func (s *Service) Status(ctx context.Context, userID, bookID string) (Status, error) {
	b, ok, err := s.find(ctx, userID, bookID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotFound
	}
	return b.Status, nil
}

func (s *Service) find(ctx context.Context, userID, bookID string) (Bookmark, bool, error) {
	list, err := s.load(ctx, userID)
	if err != nil {
		return Bookmark{}, false, err
	}
	if i := indexOf(list, bookID); i >= 0 {
		return list[i], true, nil
	}
	return Bookmark{}, false, nil
}

func (s *Service) ByStatus(ctx context.Context, userID string, status Status) ([]Bookmark, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	list, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Bookmark, 0, len(list))
	for _, b := range list {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}

// All returns bookmarks in the order they were first added.
func (s *Service) All(ctx context.Context, userID string) ([]Bookmark, error) {
	return s.load(ctx, userID)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.store.Delete(ctx, keyPrefix+userID)
}
