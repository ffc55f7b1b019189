// Package auth registers accounts and issues access tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"readmind/internal/platform/crypto"
	"readmind/internal/user"
)

const (
	MinPasswordLength = 6
	AccessTokenTTL    = 24 * time.Hour
	TokenType         = "bearer"
)

var (
	ErrInvalidCredentials = errors.New("Неверный email или пароль")
	ErrPasswordsDontMatch = errors.New("Пароли не совпадают")
	ErrPasswordTooShort   = fmt.Errorf("Пароль должен содержать минимум %d символов", MinPasswordLength)
	ErrEmailTaken         = errors.New("Пользователь с таким email уже существует")
)

// genericMessage is shown for failures the user cannot fix.
const genericMessage = "Произошла ошибка. Попробуйте еще раз"

type Service struct {
	secret      string
	ttl         time.Duration
	userService *user.Service
}

func NewService(secret string, userService *user.Service) *Service {
	return &Service{secret: secret, ttl: AccessTokenTTL, userService: userService}
}

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	User        user.User `json:"user"`
}

func (s *Service) Register(ctx context.Context, email, password, confirm string) (Token, error) {
	if len([]rune(password)) < MinPasswordLength {
		return Token{}, ErrPasswordTooShort
	}
	if password != confirm {
		return Token{}, ErrPasswordsDontMatch
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return Token{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.userService.Register(ctx, email, hash)
	if errors.Is(err, user.ErrAlreadyExists) {
		return Token{}, ErrEmailTaken
	}
	if err != nil {
		return Token{}, err
	}
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	u, err := s.userService.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return Token{}, ErrInvalidCredentials
	}
	if err != nil {
		return Token{}, err
	}
	if !crypto.VerifyPassword(u.PasswordHash, password) {
		return Token{}, ErrInvalidCredentials
	}
	return s.issue(u)
}

// Me returns the account behind a token subject.
func (s *Service) Me(ctx context.Context, userID string) (user.User, error) {
	return s.userService.GetByID(ctx, userID)
}

func (s *Service) issue(u user.User) (Token, error) {
	token, err := crypto.GenerateToken(s.secret, u.ID, u.Email, s.ttl)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{
		AccessToken: token,
		TokenType:   TokenType,
		ExpiresIn:   int(s.ttl.Seconds()),
		User:        u,
	}, nil
}
