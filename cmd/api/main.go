package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"readmind/internal/auth"
	"readmind/internal/book"
	"readmind/internal/bookmark"
	"readmind/internal/chat"
	"readmind/internal/config"
	"readmind/internal/guard"
	"readmind/internal/httpx"
	"readmind/internal/kvstore"
	"readmind/internal/mention"
	"readmind/internal/onboarding"
	"readmind/internal/platform/googlebooks"
	"readmind/internal/platform/logger"
	"readmind/internal/platform/openlibrary"
	"readmind/internal/platform/openrouter"
	"readmind/internal/profile"
	"readmind/internal/recommend"
	"readmind/internal/user"
)

const userAgent = "ReadMind/1.0 (+https://github.com/readmind)"

func main() {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	pool, err := openDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("database connection OK", zap.String("dsn", config.RedactDSN(cfg.DatabaseDSN)))

	kv, closeKV, err := openKV(ctx, cfg, pool)
	if err != nil {
		return err
	}
	defer closeKV()
	log.Info("key/value store ready", zap.String("driver", cfg.KVDriver))

	svc := newServices(cfg, log, kv,
		user.NewPostgresRepo(pool, cfg.DBTimeout),
		profile.NewPostgresRepo(pool, cfg.DBTimeout),
	)

	limiter := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Stop()

	handler := newRouter(cfg, log, svc, limiter, map[string]httpx.Pinger{
		"database": pool,
		"kv":       kv,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// chat completions may take close to a minute upstream
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database (%s): %w", config.RedactDSN(dsn), err)
	}
	return pool, nil
}

func openKV(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) (kvstore.Store, func(), error) {
	switch cfg.KVDriver {
	case config.KVDriverSQLite:
		s, err := kvstore.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.KVDriverMemory:
		return kvstore.NewMemoryStore(), func() {}, nil
	default:
		return kvstore.NewPostgresStore(pool, cfg.DBTimeout), func() {}, nil
	}
}

type services struct {
	books      *book.Service
	resolver   *recommend.Resolver
	chat       *chat.Service
	history    *chat.HistoryStore
	bookmarks  *bookmark.Service
	onboarding *onboarding.Service
	auth       *auth.Service
	profiles   *profile.Service
}

// newServices builds the domain layer. Outbound clients are configured from
// cfg; base URLs can be overridden through the client options.
func newServices(cfg config.Config, log *zap.Logger, kv kvstore.Store, users user.Repository, profiles profile.Repository, gbOpts ...googlebooks.Option) *services {
	gbOpts = append([]googlebooks.Option{
		googlebooks.WithLogger(log.Named("googlebooks")),
		googlebooks.WithRetries(2, time.Second),
	}, gbOpts...)
	catalog := googlebooks.NewClient(cfg.BooksAPIKey, gbOpts...)
	covers := openlibrary.NewClient(userAgent, 1, 2)

	books := book.NewService(catalog)
	resolver := recommend.NewResolver(mention.NewExtractor(log.Named("mention")), books, covers, log.Named("recommend"))

	orCfg := openrouter.DefaultConfig(cfg.OpenRouter.APIKey)
	orCfg.Model = cfg.OpenRouter.Model
	orCfg.SiteURL = cfg.OpenRouter.SiteURL
	orCfg.SiteName = cfg.OpenRouter.SiteName
	completer := openrouter.NewClient(orCfg, log.Named("openrouter"))

	history := chat.NewHistoryStore(kv)
	onboard := onboarding.NewService(kv)

	return &services{
		books:      books,
		resolver:   resolver,
		chat:       chat.NewService(history, completer, resolver, log.Named("chat")),
		history:    history,
		bookmarks:  bookmark.NewService(kv),
		onboarding: onboard,
		auth:       auth.NewService(cfg.JWTSecret, user.NewService(users)),
		profiles:   profile.NewService(profiles),
	}
}

func newRouter(cfg config.Config, log *zap.Logger, svc *services, limiter *httpx.RateLimitMiddleware, deps map[string]httpx.Pinger) http.Handler {
	bookHandler := book.NewHTTPHandler(svc.books, log)
	recommendHandler := recommend.NewHTTPHandler(svc.resolver, log)
	chatHandler := chat.NewHTTPHandler(svc.chat, svc.history, log)
	bookmarkHandler := bookmark.NewHTTPHandler(svc.bookmarks, svc.books, log)
	onboardingHandler := onboarding.NewHTTPHandler(svc.onboarding, log)
	guardHandler := guard.NewHTTPHandler(svc.onboarding, log)
	authHandler := auth.NewHTTPHandler(svc.auth, log)
	profileHandler := profile.NewHTTPHandler(svc.profiles, log)

	requireAuth := httpx.AuthMiddleware(cfg.JWTSecret)
	protected := func(h http.HandlerFunc) http.Handler { return requireAuth(h) }

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", httpx.HealthHandler)
	mux.Handle("GET /readyz", httpx.ReadyHandler(deps))

	mux.HandleFunc("GET /api/books", bookHandler.Search)
	mux.HandleFunc("GET /api/books/{id}", bookHandler.Get)
	mux.HandleFunc("POST /api/recommendations", recommendHandler.Resolve)
	mux.HandleFunc("POST /api/chat", chatHandler.Complete)

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /api/auth/me", protected(authHandler.Me))

	mux.Handle("GET /api/profile", protected(profileHandler.Get))
	mux.Handle("PATCH /api/profile", protected(profileHandler.Update))

	mux.Handle("GET /api/chats", protected(chatHandler.List))
	mux.Handle("POST /api/chats", protected(chatHandler.Create))
	mux.Handle("POST /api/chats/init", protected(chatHandler.InitDefault))
	mux.Handle("POST /api/chats/clear", protected(chatHandler.Clear))
	mux.Handle("PATCH /api/chats/{id}", protected(chatHandler.Rename))
	mux.Handle("DELETE /api/chats/{id}", protected(chatHandler.Delete))
	mux.Handle("POST /api/chats/{id}/switch", protected(chatHandler.Switch))
	mux.Handle("POST /api/chats/{id}/messages", protected(chatHandler.Send))

	mux.Handle("GET /api/bookmarks", protected(bookmarkHandler.List))
	mux.Handle("POST /api/bookmarks", protected(bookmarkHandler.Add))
	mux.Handle("DELETE /api/bookmarks", protected(bookmarkHandler.Clear))
	mux.Handle("GET /api/bookmarks/{id}", protected(bookmarkHandler.Status))
	mux.Handle("PATCH /api/bookmarks/{id}", protected(bookmarkHandler.UpdateStatus))
	mux.Handle("DELETE /api/bookmarks/{id}", protected(bookmarkHandler.Remove))

	mux.Handle("GET /api/onboarding", protected(onboardingHandler.Get))
	mux.Handle("DELETE /api/onboarding", protected(onboardingHandler.Reset))
	mux.Handle("PUT /api/onboarding/answers/{step}", protected(onboardingHandler.SetAnswer))
	mux.Handle("POST /api/onboarding/next", protected(onboardingHandler.Next))
	mux.Handle("POST /api/onboarding/back", protected(onboardingHandler.Back))
	mux.Handle("POST /api/onboarding/finish", protected(onboardingHandler.Finish))

	mux.Handle("GET /api/guard", httpx.OptionalAuthMiddleware(cfg.JWTSecret)(http.HandlerFunc(guardHandler.Check)))

	return httpx.Chain(mux,
		httpx.RecoveryMiddleware(log),
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(log),
		httpx.CORSMiddleware(cfg.CORSAllowedOrigins),
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes),
		limiter.Middleware,
	)
}
