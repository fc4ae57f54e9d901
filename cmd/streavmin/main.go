package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/streavmin/streavmin/internal/api"
	"github.com/streavmin/streavmin/internal/audit"
	"github.com/streavmin/streavmin/internal/auth"
	"github.com/streavmin/streavmin/internal/catalog"
	"github.com/streavmin/streavmin/internal/config"
	"github.com/streavmin/streavmin/internal/docstore"
	"github.com/streavmin/streavmin/internal/logger"
	"github.com/streavmin/streavmin/internal/scheduler"
	"github.com/streavmin/streavmin/internal/users"
)

func main() {
	// .env is optional; real environment variables win either way.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	lintOnly := flag.Bool("lint", false, "Run the catalog lint once and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().Str("dataDir", cfg.Data.Dir).Msg("starting streavmin")

	store := docstore.New(cfg.Data.Dir, log.Logger)
	auditLog := audit.New(cfg.Data.Dir, log.Logger)

	catalogService := catalog.NewService(store, auditLog, log.Logger)
	userService := users.NewService(store, auditLog, log.Logger)

	ctx := context.Background()

	if *lintOnly {
		if err := catalogService.Lint(ctx); err != nil {
			log.Error().Err(err).Msg("catalog lint failed")
			os.Exit(1)
		}
		return
	}

	if err := userService.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap users")
	}

	authService, err := auth.NewService(userService, cfg.Auth.JWTSecret, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth service")
	}

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize scheduler")
	}
	err = sched.RegisterTask(scheduler.TaskConfig{
		ID:   "catalog-lint",
		Name: "Catalog integrity check",
		Cron: cfg.Tasks.LintCron,
		Func: catalogService.Lint,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register catalog lint task")
	}
	sched.Start()

	server := api.NewServer(cfg, store, auditLog, catalogService, userService, authService, sched, log.Logger)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down server cleanly")
	}
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop scheduler cleanly")
	}
}
