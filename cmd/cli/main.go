package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/rbx-asset-downloader/internal/app"
	"github.com/yourusername/rbx-asset-downloader/internal/domain"
	"github.com/yourusername/rbx-asset-downloader/internal/infrastructure"
	"github.com/yourusername/rbx-asset-downloader/pkg/logger"
)

// Exit codes
const (
	exitFailure  = 1
	exitRejected = 2
)

var (
	configPath string
	cookieFlag string
	verbose    bool
	rootCmd    = &cobra.Command{
		Use:           "rbxdl",
		Short:         "Roblox asset downloader",
		Long:          `Download Roblox assets by id, resolving video assets through their HLS master playlist.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default searches ./configs and ~/.rbx-asset-downloader)")
	rootCmd.PersistentFlags().StringVar(&cookieFlag, "cookie", "", "ROBLOSECURITY cookie (defaults to the saved cookie)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every step to the terminal")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(bulkCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(configCmd)
}

// exitError carries a process exit code out of a command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// session holds the components a command needs for one invocation
type session struct {
	config      *domain.Config
	log         *zap.Logger
	multiLog    *logger.MultiLogger
	repo        *infrastructure.SQLiteDownloadRepository
	downloadMgr *app.DownloadManager
}

func newSession() (*session, error) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	level := "warn"
	if verbose {
		level = config.Logging.Level
	}
	console, err := logger.New(logger.Config{
		Level:      level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	s := &session{config: config, log: console}

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Download.LogsDir,
	})
	if err != nil {
		console.Warn("File logging disabled", zap.Error(err))
	} else {
		s.multiLog = multiLog
		s.log = logger.Tee(console, multiLog)
	}

	var repo domain.DownloadRepository
	if config.History.Enabled {
		s.repo, err = infrastructure.NewSQLiteDownloadRepository(config.History.DatabasePath)
		if err != nil {
			s.log.Warn("Download history disabled", zap.Error(err))
		} else {
			repo = s.repo
		}
	}

	notifier := infrastructure.NewNotificationService(&config.Notification, s.log)
	client := infrastructure.NewAssetClient(&config.Download, nil, s.log)
	s.downloadMgr = app.NewDownloadManager(client, repo, notifier, nil, s.log)
	return s, nil
}

// cookie returns the --cookie flag, falling back to the saved cookie
func (s *session) cookie() string {
	if cookieFlag != "" {
		return cookieFlag
	}
	return s.config.Auth.Cookie
}

func (s *session) Close() {
	_ = s.log.Sync()
	if s.repo != nil {
		_ = s.repo.Close()
	}
	if s.multiLog != nil {
		_ = s.multiLog.Close()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			if exitErr.err != nil {
				fmt.Fprintln(os.Stderr, exitErr.err)
			}
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitFailure)
	}
}
