package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/design-gallery/internal/client"
	"github.com/msomdec/design-gallery/internal/config"
	"github.com/msomdec/design-gallery/internal/domain"
	"github.com/msomdec/design-gallery/internal/handler"
	"github.com/msomdec/design-gallery/internal/repository/s3store"
	"github.com/msomdec/design-gallery/internal/repository/sqlite"
	"github.com/msomdec/design-gallery/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	files, err := fileStore(ctx, cfg, db)
	if err != nil {
		slog.Error("failed to set up file store", "backend", cfg.FileStore, "error", err)
		os.Exit(1)
	}

	if cfg.FileStore == config.FileStoreSQLite {
		// Orphans are left behind when a best-effort blob delete fails.
		n, err := db.PruneUnreferenced(ctx, service.PhotoKeyPrefix, time.Now().Add(-time.Hour))
		if err != nil {
			slog.Warn("failed to prune unreferenced photos", "error", err)
		} else if n > 0 {
			slog.Info("pruned unreferenced photos", "count", n)
		}
	}

	authService := service.NewAuthService(db.Users(), cfg.JWTSecret, cfg.BcryptCost)
	designService := service.NewDesignService(db.Designs(), files)

	for _, email := range cfg.AdminEmails {
		if _, err := authService.GrantRole(ctx, email, domain.RoleAdmin); err != nil {
			slog.Warn("could not grant admin role", "email", email, "error", err)
			continue
		}
		slog.Info("admin role granted", "email", email)
	}

	var backend service.DesignBackend = designService
	if cfg.DesignAPIURL != "" {
		remote, err := client.New(cfg.DesignAPIURL, client.WithToken(cfg.DesignAPIToken))
		if err != nil {
			slog.Error("invalid DESIGN_API_URL", "error", err)
			os.Exit(1)
		}
		backend = remote
		slog.Info("photo editor using remote design API", "url", cfg.DesignAPIURL)
	}

	editorService := service.NewEditorService(backend, cfg.EditorSessionTTL)
	go editorService.Run(ctx, cfg.SweepInterval())

	// Login: a burst of 5, then one attempt every 5s per client.
	loginLimiter := service.NewTokenBucket(0.2, 5)
	uploadLimiter := service.NewTokenBucket(2, 20)
	go loginLimiter.Run(ctx)
	go uploadLimiter.Run(ctx)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, designService, editorService, files, db,
		loginLimiter, uploadLimiter, cfg.CookieSecure)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "fileStore", cfg.FileStore)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// fileStore returns the photo blob backend selected by FILE_STORE.
func fileStore(ctx context.Context, cfg *config.Config, db *sqlite.DB) (domain.FileStore, error) {
	if cfg.FileStore != config.FileStoreS3 {
		return db.FileStore(), nil
	}
	s3Client, err := s3store.NewClient(ctx, s3store.ClientConfig{
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}
	return s3store.New(s3Client, cfg.S3Bucket, ""), nil
}
