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

	"sainmakosam/internal/api/router"
	"sainmakosam/internal/config"
	"sainmakosam/internal/core/repository"
	"sainmakosam/internal/core/service"
	"sainmakosam/internal/observability"
	"sainmakosam/internal/session"
	"sainmakosam/internal/upload"
	"sainmakosam/web"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.SetupLogging(cfg.LogLevel, os.Stdout); err != nil {
		return err
	}
	if cfg.EphemeralSecret {
		logrus.Warn("SESSION_SECRET not set, using a random secret; sessions will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := config.ConnectMongoDB(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			logrus.WithError(err).Warn("MongoDB disconnect failed")
		}
	}()

	// Initialize repositories with MongoDB
	reviewRepo := repository.NewMongoReviewRepository(db)
	if err := reviewRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	userRepo := repository.NewMongoUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	images, err := upload.NewStore(cfg.PublicDir)
	if err != nil {
		return err
	}

	store, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	sessions, err := session.NewManager(store, cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure)
	if err != nil {
		return err
	}

	// Initialize services
	reviewService := service.NewReviewService(reviewRepo, images)
	authService := service.NewAuthService(userRepo, sessions)

	handler, err := router.NewRouter(router.Dependencies{
		ReviewService:  reviewService,
		AuthService:    authService,
		Sessions:       sessions,
		Metrics:        observability.NewMetrics(),
		Templates:      web.Templates,
		PublicDir:      cfg.PublicDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.WithFields(logrus.Fields{
			"addr":          srv.Addr,
			"env":           cfg.AppEnv,
			"session_store": cfg.SessionStore,
		}).Info("Server running - go cause some chaos!")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("Shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if purger, ok := store.(*session.SQLiteStore); ok {
		g.Go(func() error {
			purgeExpired(gctx, purger)
			return nil
		})
	}

	return g.Wait()
}

// openSessionStore builds the configured backend. The returned func
// releases its connection.
func openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		client, err := config.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(client), func() { client.Close() }, nil
	case config.SessionStoreSQLite:
		db, err := config.OpenSQLite(cfg.SessionSQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, err := session.NewSQLiteStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("prepare sqlite session store: %w", err)
		}
		return store, func() { db.Close() }, nil
	default:
		if cfg.Production() {
			logrus.Warn("Using in-memory sessions; logins are lost on restart")
		}
		return session.NewMemoryStore(), func() {}, nil
	}
}

func purgeExpired(ctx context.Context, store *session.SQLiteStore) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Purge(ctx)
			if err != nil {
				logrus.WithError(err).Warn("Session purge failed")
				continue
			}
			if n > 0 {
				logrus.WithField("count", n).Debug("Purged expired sessions")
			}
		}
	}
}
