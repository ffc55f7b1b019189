// Package profile keeps the editable reader profile attached to an account.
package profile

import (
	"errors"
	"time"
)

const (
	MaxReadingGoal    = 1000
	MaxFavoriteGenres = 10
)

var (
	ErrNotFound         = errors.New("profile not found")
	ErrEmptyUpdate      = errors.New("Необходимо указать данные для обновления")
	ErrReadingGoalRange = errors.New("Цель чтения должна быть от 0 до 1000 книг")
	ErrTooManyGenres    = errors.New("Максимум 10 любимых жанров")
)

type Profile struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       *string   `json:"full_name"`
	AvatarURL      *string   `json:"avatar_url"`
	Bio            *string   `json:"bio"`
	FavoriteGenres []string  `json:"favorite_genres"`
	ReadingGoal    *int      `json:"reading_goal"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UpdateCommand holds the fields present in a PATCH body.
type UpdateCommand struct {
	FullName       *string   `json:"full_name"`
	AvatarURL      *string   `json:"avatar_url"`
	Bio            *string   `json:"bio"`
	FavoriteGenres *[]string `json:"favorite_genres"`
	ReadingGoal    *int      `json:"reading_goal"`
}

func (c *UpdateCommand) Validate() error {
	if c.ReadingGoal != nil && (*c.ReadingGoal < 0 || *c.ReadingGoal > MaxReadingGoal) {
		return ErrReadingGoalRange
	}
	if c.FavoriteGenres != nil && len(*c.FavoriteGenres) > MaxFavoriteGenres {
		return ErrTooManyGenres
	}
	return nil
}

// ToMap returns the column updates carried by the command.
func (c *UpdateCommand) ToMap() map[string]any {
	updates := make(map[string]any)
	if c.FullName != nil {
		updates["full_name"] = *c.FullName
	}
	if c.AvatarURL != nil {
		updates["avatar_url"] = *c.AvatarURL
	}
	if c.Bio != nil {
		updates["bio"] = *c.Bio
	}
	if c.FavoriteGenres != nil {
		genres := *c.FavoriteGenres
		if genres == nil {
			genres = []string{}
		}
		updates["favorite_genres"] = genres
	}
	if c.ReadingGoal != nil {
		updates["reading_goal"] = *c.ReadingGoal
	}
	return updates
}
