// Command seed creates a demo account with a profile, a few bookmarks, a
// finished questionnaire and a first chat, for local development.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"readmind/internal/book"
	"readmind/internal/bookmark"
	"readmind/internal/chat"
	"readmind/internal/config"
	"readmind/internal/kvstore"
	"readmind/internal/onboarding"
	"readmind/internal/platform/crypto"
	"readmind/internal/platform/logger"
	"readmind/internal/profile"
	"readmind/internal/user"
)

type demoBook struct {
	book   book.Book
	status bookmark.Status
}

var demoShelf = []demoBook{
	{book.Book{ID: "demo-master", Title: "Мастер и Маргарита", Authors: []string{"Михаил Булгаков"}, Language: "ru"}, bookmark.StatusFavourite},
	{book.Book{ID: "demo-solaris", Title: "Солярис", Authors: []string{"Станислав Лем"}, Language: "ru"}, bookmark.StatusReading},
	{book.Book{ID: "demo-picnic", Title: "Пикник на обочине", Authors: []string{"Аркадий Стругацкий", "Борис Стругацкий"}, Language: "ru"}, bookmark.StatusPlanned},
	{book.Book{ID: "demo-idiot", Title: "Идиот", Authors: []string{"Фёдор Достоевский"}, Language: "ru"}, bookmark.StatusFinished},
}

var demoAnswers = map[string]any{
	"goal":   "AI-рекомендации",
	"level":  "Уверенный",
	"notify": false,
	"about":  "Люблю фантастику и русскую классику",
}

type seeder struct {
	log        *zap.Logger
	users      *user.Service
	profiles   *profile.Service
	bookmarks  *bookmark.Service
	onboarding *onboarding.Service
	chats      *chat.HistoryStore
}

func main() {
	email := flag.String("email", "demo@readmind.local", "demo account email")
	password := flag.String("password", "readmind", "demo account password")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("failed to connect to database", zap.String("dsn", config.RedactDSN(cfg.DatabaseDSN)), zap.Error(err))
	}
	defer pool.Close()

	var kv kvstore.Store
	switch cfg.KVDriver {
	case config.KVDriverSQLite:
		s, err := kvstore.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			log.Fatal("failed to open sqlite store", zap.Error(err))
		}
		defer s.Close()
		kv = s
	case config.KVDriverMemory:
		log.Fatal("seeding the memory store has no lasting effect, pick postgres or sqlite")
	default:
		kv = kvstore.NewPostgresStore(pool, cfg.DBTimeout)
	}

	s := &seeder{
		log:        log,
		users:      user.NewService(user.NewPostgresRepo(pool, cfg.DBTimeout)),
		profiles:   profile.NewService(profile.NewPostgresRepo(pool, cfg.DBTimeout)),
		bookmarks:  bookmark.NewService(kv),
		onboarding: onboarding.NewService(kv),
		chats:      chat.NewHistoryStore(kv),
	}

	start := time.Now()
	u, err := s.run(ctx, *email, *password)
	if err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
	log.Info("seed complete", zap.String("user_id", u.ID), zap.String("email", u.Email), zap.Duration("took", time.Since(start)))
}

// run is idempotent: an existing account is reused and every step overwrites
// the previous demo state.
func (s *seeder) run(ctx context.Context, email, password string) (user.User, error) {
	u, err := s.account(ctx, email, password)
	if err != nil {
		return user.User{}, err
	}

	name := "Демо Читатель"
	goal := 24
	genres := []string{"Фантастика", "Классика"}
	if _, err := s.profiles.Update(ctx, u.ID, u.Email, profile.UpdateCommand{
		FullName:       &name,
		FavoriteGenres: &genres,
		ReadingGoal:    &goal,
	}); err != nil {
		return user.User{}, fmt.Errorf("profile: %w", err)
	}

	for _, d := range demoShelf {
		if _, err := s.bookmarks.Add(ctx, u.ID, d.book, d.status); err != nil {
			return user.User{}, fmt.Errorf("bookmark %s: %w", d.book.ID, err)
		}
	}

	for _, step := range onboarding.Steps {
		if _, err := s.onboarding.SetAnswer(ctx, u.ID, step.ID, demoAnswers[step.ID]); err != nil {
			return user.User{}, fmt.Errorf("onboarding %s: %w", step.ID, err)
		}
	}
	if _, err := s.onboarding.Finish(ctx, u.ID); err != nil {
		return user.User{}, fmt.Errorf("onboarding: %w", err)
	}

	if _, err := s.chats.InitDefault(ctx, u.ID); err != nil {
		return user.User{}, fmt.Errorf("chats: %w", err)
	}

	s.log.Info("demo data written", zap.Int("bookmarks", len(demoShelf)))
	return u, nil
}

func (s *seeder) account(ctx context.Context, email, password string) (user.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		s.log.Info("reusing existing demo account", zap.String("user_id", u.ID))
		return u, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, err
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return user.User{}, err
	}
	return s.users.Register(ctx, email, hash)
}
