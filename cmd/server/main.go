package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/playlytics/playlytics/internal/config"
	"github.com/playlytics/playlytics/internal/server"
	"github.com/playlytics/playlytics/internal/shared"
	"github.com/playlytics/playlytics/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional, env vars override)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := shared.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("db_path", cfg.Database.Path),
		zap.Int("http_port", cfg.Server.HTTPPort),
		zap.Bool("auth_enabled", cfg.Server.APIKey != ""),
	)

	db, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	migrationRunner := storage.NewMigrationRunner(db)
	if err := migrationRunner.Migrate(); err != nil {
		logger.Error("failed to run migrations", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("database migrations complete")

	store := storage.NewStorage(db)

	server.InitMetrics()

	api, err := server.NewHTTPAPI(
		store,
		cfg.Server.APIKey,
		cfg.Server.MinClientVersion,
		cfg.Dashboard.DefaultWindowDays,
		cfg.Dashboard.MaxRows,
		logger,
	)
	if err != nil {
		logger.Error("failed to configure api", zap.Error(err))
		os.Exit(1)
	}

	srv := server.NewServer(cfg, api, logger)

	if token := cfg.Alerts.Discord.BotToken; token != "" {
		notifier, notifierErr := server.NewAlertNotifier(
			token,
			cfg.Alerts.Discord.ChannelID,
			cfg.Alerts.EventTypes,
			logger,
		)
		if notifierErr != nil {
			logger.Error("failed to create alert notifier", zap.Error(notifierErr))
		} else {
			srv.SetAlertNotifier(notifier)
		}
	}

	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", zap.Error(err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("received signal, initiating graceful shutdown",
		zap.String("signal", sig.String()),
	)

	if err := srv.Stop(); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
