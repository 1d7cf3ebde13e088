package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Auth         AuthConfig         `mapstructure:"auth"`
	History      HistoryConfig      `mapstructure:"history"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains asset-delivery and output configuration
type DownloadConfig struct {
	DownloadsDir string        `mapstructure:"downloads_dir"`
	LogsDir      string        `mapstructure:"logs_dir"`
	AssetURL     string        `mapstructure:"asset_url"`
	UserAgent    string        `mapstructure:"user_agent"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// AuthConfig holds the saved .ROBLOSECURITY cookie used when none is given explicitly
type AuthConfig struct {
	Cookie string `mapstructure:"cookie"`
}

// HistoryConfig contains download history persistence configuration
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

const (
	DefaultAssetURL  = "https://assetdelivery.roblox.com/v1/asset"
	DefaultUserAgent = "Roblox/WinInet"
	DefaultTimeout   = 10 * time.Second
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Download: DownloadConfig{
			DownloadsDir: "$HOME/Downloads",
			LogsDir:      "$HOME/.rbx-asset-downloader/logs",
			AssetURL:     DefaultAssetURL,
			UserAgent:    DefaultUserAgent,
			Timeout:      DefaultTimeout,
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.rbx-asset-downloader/history.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
		},
	}
}
