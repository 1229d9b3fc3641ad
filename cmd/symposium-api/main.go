package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/symposium-registry/internal/admin"
	"github.com/terra-clan/symposium-registry/internal/api"
	"github.com/terra-clan/symposium-registry/internal/blobstore"
	"github.com/terra-clan/symposium-registry/internal/catalog"
	"github.com/terra-clan/symposium-registry/internal/cleanup"
	"github.com/terra-clan/symposium-registry/internal/config"
	"github.com/terra-clan/symposium-registry/internal/drafts"
	"github.com/terra-clan/symposium-registry/internal/export"
	"github.com/terra-clan/symposium-registry/internal/health"
	"github.com/terra-clan/symposium-registry/internal/metrics"
	"github.com/terra-clan/symposium-registry/internal/notify"
	"github.com/terra-clan/symposium-registry/internal/settings"
	"github.com/terra-clan/symposium-registry/internal/storage"
	"github.com/terra-clan/symposium-registry/internal/validation"
	"github.com/terra-clan/symposium-registry/internal/workflow"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting symposium-api",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Backend,
		"deadline", cfg.Registration.Deadline,
	)

	metrics.Register()

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Registration tables
	pg, err := storage.NewPostgres(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	slog.Info("running database migrations")
	if err := pg.Migrate(initCtx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Settings table
	settingsTable, err := storage.OpenSettingsTable(initCtx, cfg.Database.DSN, 5, 2)
	if err != nil {
		slog.Error("failed to open settings table", "error", err)
		os.Exit(1)
	}
	defer settingsTable.Close()

	settingsStore := settings.NewStore(settingsTable, settings.Defaults(cfg.Registration))
	settingsStore.Fetch(initCtx)

	// Drafts
	draftStore, err := drafts.NewRedisStore(initCtx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Registration.DraftTTL)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer draftStore.Close()

	// Payment proofs
	blobs, uploadsDir, err := openBlobStore(initCtx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open blob store", "error", err)
		os.Exit(1)
	}

	// Catalog
	loader := catalog.NewLoader()
	if err := loader.LoadFromDir(cfg.Catalog.Dir); err != nil {
		slog.Error("failed to load catalog", "dir", cfg.Catalog.Dir, "error", err)
		os.Exit(1)
	}

	// Notifications
	var notifier notify.Notifier = notify.Nop{}
	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			slog.Warn("telegram notifications disabled", "error", err)
		} else {
			notifier = tg
		}
	}

	// Export
	var exporter admin.Exporter
	if cfg.Sheets.SpreadsheetID != "" {
		sheets, err := export.NewSheets(initCtx, cfg.Storage.GoogleCredentialsFile, cfg.Sheets.SpreadsheetID)
		if err != nil {
			slog.Warn("sheets export disabled", "error", err)
		} else {
			exporter = sheets
		}
	}

	flows := workflow.New(workflow.Deps{
		Settings:   settingsStore,
		Events:     loader,
		Validator:  validation.New(loader.DepartmentCodes()),
		Outer:      pg.Outer(),
		Inter:      pg.Inter(),
		Department: pg.Department(),
		Drafts:     draftStore,
		Blobs:      blobs,
		Notifier:   notifier,
	}, workflow.Options{
		Deadline:            cfg.Registration.Deadline,
		OuterPrice:          cfg.Registration.OuterPrice,
		InterMaxEvents:      cfg.Registration.InterMaxEvents,
		DepartmentMaxEvents: cfg.Registration.DepartmentMaxEvents,
		MaxUploadBytes:      cfg.Registration.MaxUploadBytes,
		CommunityURL:        cfg.Registration.CommunityURL,
		RedirectAfter:       cfg.Registration.RedirectAfter,
	})

	dashboard := admin.New(admin.Deps{
		Outer:      pg.Outer(),
		Inter:      pg.Inter(),
		Department: pg.Department(),
		Settings:   settingsStore,
		Drafts:     draftStore,
		Exporter:   exporter,
	}, admin.Config{
		Password:       cfg.Admin.Password,
		DeletePassword: cfg.Admin.DeletePassword,
		Prices: admin.Prices{
			Outer:      cfg.Registration.OuterPrice,
			Inter:      cfg.Registration.InterPrice,
			Department: cfg.Registration.DepartmentPrice,
		},
	})

	// Readiness checks
	checks := health.NewRegistry(2 * time.Second)
	checks.Register("postgres", pg)
	checks.Register("settings", settingsTable)
	checks.Register("redis", draftStore)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start cleanup worker
	cleaner := cleanup.NewCleaner(blobs, pg, cfg.Cleanup.Interval, cfg.Cleanup.Grace)
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, api.Deps{
		Settings:     settingsStore,
		Catalog:      loader,
		Outer:        flows.Outer,
		Inter:        flows.Inter,
		Department:   flows.Department,
		UpdateEvents: flows.UpdateEvents,
		Manual:       flows.Manual,
		Admin:        dashboard,
		Health:       checks,
	}, api.Options{
		MaxUploadBytes: cfg.Registration.MaxUploadBytes,
		UploadsDir:     uploadsDir,
	})

	httpServer := &http.Server{
		Addr:         server.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("symposium-api stopped")
}

// openBlobStore returns the configured backend and, for disk, the directory to serve
func openBlobStore(ctx context.Context, cfg config.StorageConfig) (blobstore.Backend, string, error) {
	switch cfg.Backend {
	case "drive":
		d, err := blobstore.NewDriveStore(ctx, cfg.GoogleCredentialsFile, cfg.DriveFolderID)
		return d, "", err
	case "disk":
		d, err := blobstore.NewDiskStore(cfg.Dir, cfg.PublicURL)
		if err != nil {
			return nil, "", err
		}
		return d, d.Dir(), nil
	}
	return nil, "", fmt.Errorf("unknown storage backend: %s", cfg.Backend)
}
