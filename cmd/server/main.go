// quillnote server entry point: wires the store, object storage, email, and
// the HTTP surface, then runs until interrupted.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quillnote/quillnote/internal/admin"
	"github.com/quillnote/quillnote/internal/api"
	"github.com/quillnote/quillnote/internal/auth"
	"github.com/quillnote/quillnote/internal/config"
	"github.com/quillnote/quillnote/internal/db"
	"github.com/quillnote/quillnote/internal/email"
	"github.com/quillnote/quillnote/internal/notes"
	"github.com/quillnote/quillnote/internal/obs"
	"github.com/quillnote/quillnote/internal/profile"
	"github.com/quillnote/quillnote/internal/ratelimit"
	"github.com/quillnote/quillnote/internal/s3client"
)

const (
	shutdownTimeout        = 10 * time.Second
	sessionCleanupInterval = time.Hour
	devBucketName          = "quillnote-dev"
)

func main() {
	obs.Init()
	log := obs.Pkg("main")

	noEmail, noS3, addr := config.ParseFlags()
	cfg := config.MustLoadConfig(noEmail, noS3, addr)
	cfg.PrintStartupSummary()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(cfg.DatabasePath, cfg.DatabaseKey)
	if err != nil {
		log.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	storage, storageShutdown, err := buildStorage(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if storageShutdown != nil {
		defer func() { _ = storageShutdown() }()
	}

	var mailer email.Service
	if cfg.NoEmail {
		mailer = email.NewMockService()
	} else {
		mailer = email.NewResendService(cfg.ResendAPIKey, cfg.ResendFromEmail)
	}

	users := auth.NewUserService(store)
	sessions := auth.NewSessionService(store, cfg.SessionDuration, cfg.RequireSecureCookies())
	profiles := profile.NewService(store, storage)
	noteSvc := notes.NewService(store)
	autosaver := notes.NewAutosaver(noteSvc.SaveNote, notes.AutosaveDelay)
	defer autosaver.Close()

	adminSvc := admin.NewService(store, noteSvc, profiles, users, sessions, storage, mailer, cfg.BaseURL+"/login")

	limiter := ratelimit.NewRateLimiter(cfg.RateLimitConfig)
	defer limiter.Stop()

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, api.Deps{
		Users:     users,
		Sessions:  sessions,
		Profiles:  profiles,
		Notes:     noteSvc,
		Autosaver: autosaver,
		Admin:     adminSvc,
		Mailer:    mailer,
	})

	handler := buildMiddleware(mux, limiter, sessions, users)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go sessionCleanupLoop(ctx, sessions)

	go func() {
		log.Info("listening", slog.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown incomplete", slog.String("error", err.Error()))
	}
}

// buildStorage returns the S3 client: a real endpoint in production, an
// in-memory gofakes3 backend under --no-s3.
func buildStorage(ctx context.Context, cfg *config.Config) (*s3client.Client, func() error, error) {
	if cfg.NoS3 {
		return s3client.NewInMemory(ctx, devBucketName)
	}
	client, err := s3client.New(ctx, s3client.Config{
		Endpoint:        cfg.AWSEndpointS3,
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		BucketName:      cfg.AWSBucketName,
		PublicURL:       cfg.AWSPublicURL,
	})
	return client, nil, err
}

// buildMiddleware assembles the global chain: request id, access log, then
// per-user rate limiting keyed off the session.
func buildMiddleware(mux *http.ServeMux, limiter *ratelimit.RateLimiter, sessions *auth.SessionService, users *auth.UserService) http.Handler {
	resolveUser := func(r *http.Request) string {
		token, err := auth.CookieToken(r)
		if err != nil {
			token, err = auth.BearerToken(r)
		}
		if err != nil {
			return ""
		}
		userID, err := sessions.Validate(r.Context(), token)
		if err != nil {
			return ""
		}
		return userID
	}
	isAdmin := func(r *http.Request) bool {
		userID := resolveUser(r)
		if userID == "" {
			return false
		}
		role, err := users.Role(r.Context(), userID)
		return err == nil && role == auth.RoleAdmin
	}

	var handler http.Handler = mux
	handler = ratelimit.Middleware(limiter, resolveUser, isAdmin)(handler)
	handler = obs.AccessLogMiddleware(handler)
	handler = obs.RequestContextMiddleware(handler)
	return handler
}

func sessionCleanupLoop(ctx context.Context, sessions *auth.SessionService) {
	log := obs.Pkg("main")
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := sessions.Cleanup(ctx); err != nil {
				log.Warn("session cleanup failed", slog.String("error", err.Error()))
			}
		case <-ctx.Done():
			return
		}
	}
}
