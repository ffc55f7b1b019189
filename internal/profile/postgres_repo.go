package profile

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `id, email, full_name, avatar_url, bio, favorite_genres, reading_goal, created_at, updated_at`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &p.Bio,
		&p.FavoriteGenres, &p.ReadingGoal, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	if p.FavoriteGenres == nil {
		p.FavoriteGenres = []string{}
	}
	return p, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanProfile(r.db.QueryRow(timeoutCtx, query, id))
}

func (r *PostgresRepo) Create(ctx context.Context, id, email string) (Profile, error) {
	query := `
	INSERT INTO profiles (id, email)
	VALUES ($1, $2)
	ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
	RETURNING ` + profileColumns
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanProfile(r.db.QueryRow(timeoutCtx, query, id, email))
}

func (r *PostgresRepo) Update(ctx context.Context, id string, updates map[string]any) (Profile, error) {
	keys := make([]string, 0, len(updates))
	for key := range updates {
		switch key {
		case "full_name", "avatar_url", "bio", "favorite_genres", "reading_goal":
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return r.Get(ctx, id)
	}
	sort.Strings(keys)

	fields := make([]string, 0, len(keys)+1)
	args := make([]any, 0, len(keys)+1)
	for i, key := range keys {
		fields = append(fields, key+" = $"+strconv.Itoa(i+1))
		args = append(args, updates[key])
	}
	fields = append(fields, "updated_at = now()")
	args = append(args, id)

	query := "UPDATE profiles SET " + strings.Join(fields, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) + " RETURNING " + profileColumns
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanProfile(r.db.QueryRow(timeoutCtx, query, args...))
}
