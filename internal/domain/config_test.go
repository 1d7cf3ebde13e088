package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8090, config.Server.Port)
	assert.Equal(t, "$HOME/Downloads", config.Download.DownloadsDir)
	assert.Equal(t, "https://assetdelivery.roblox.com/v1/asset", config.Download.AssetURL)
	assert.Equal(t, "Roblox/WinInet", config.Download.UserAgent)
	assert.Equal(t, 10*time.Second, config.Download.Timeout)
	assert.Empty(t, config.Auth.Cookie)
	assert.True(t, config.History.Enabled)
	assert.False(t, config.Notification.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
}
