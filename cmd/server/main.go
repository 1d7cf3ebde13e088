package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/rbx-asset-downloader/api"
	"github.com/yourusername/rbx-asset-downloader/api/handlers"
	"github.com/yourusername/rbx-asset-downloader/internal/app"
	"github.com/yourusername/rbx-asset-downloader/internal/domain"
	"github.com/yourusername/rbx-asset-downloader/internal/infrastructure"
	"github.com/yourusername/rbx-asset-downloader/pkg/logger"
	"github.com/yourusername/rbx-asset-downloader/pkg/metrics"
)

var configPath = flag.String("config", "", "Config file (default searches ./configs and ~/.rbx-asset-downloader)")

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	console, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Categorized file logs (download, error)
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Download.LogsDir,
	})
	if err != nil {
		console.Fatal("Failed to initialize file logging", zap.Error(err))
	}
	defer multiLog.Close()

	log := logger.Tee(console, multiLog)
	defer log.Sync()

	log.Info("Starting asset download server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("downloads_dir", config.Download.DownloadsDir),
		zap.Bool("saved_cookie", config.Auth.Cookie != ""))

	if err := os.MkdirAll(config.Download.DownloadsDir, 0755); err != nil {
		log.Fatal("Failed to create downloads directory", zap.Error(err))
	}

	var repo domain.DownloadRepository
	if config.History.Enabled {
		sqliteRepo, err := infrastructure.NewSQLiteDownloadRepository(config.History.DatabasePath)
		if err != nil {
			log.Fatal("Failed to initialize repository", zap.Error(err))
		}
		defer sqliteRepo.Close()
		repo = sqliteRepo
	}

	m := metrics.New()
	notifier := infrastructure.NewNotificationService(&config.Notification, log)
	client := infrastructure.NewAssetClient(&config.Download, nil, log)
	downloadMgr := app.NewDownloadManager(client, repo, notifier, m, log)
	jobMgr := app.NewJobManager(downloadMgr, m, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := jobMgr.Start(ctx); err != nil {
		log.Fatal("Failed to start job manager", zap.Error(err))
	}

	router := api.SetupRouter(jobMgr, downloadMgr, m, config.Download.LogsDir, config.Auth.Cookie, log)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Lets the running job finish; queued jobs are dropped with the process.
	if err := jobMgr.Stop(); err != nil {
		log.Error("Error stopping job manager", zap.Error(err))
	}

	log.Info("Server exited")
}
