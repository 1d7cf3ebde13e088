package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDownload(t *testing.T) {
	req := AssetRequest{AssetID: "123", AuthCookie: "secret", PlaceID: "456"}

	download := NewDownload(req)

	assert.NotEmpty(t, download.ID)
	assert.Equal(t, "123", download.AssetID)
	assert.Equal(t, "456", download.PlaceID)
	assert.Equal(t, StatusProcessing, download.Status)
	assert.False(t, download.IsTerminal())
}

func TestDownload_ApplyOutcome_Success(t *testing.T) {
	download := NewDownload(AssetRequest{AssetID: "1"})

	download.ApplyOutcome(VideoSuccess("/tmp/1.webm", 42))

	assert.Equal(t, StatusCompleted, download.Status)
	assert.Equal(t, OutcomeSuccess, download.Kind)
	assert.Equal(t, "/tmp/1.webm", download.FilePath)
	assert.Equal(t, int64(42), download.ByteSize)
	assert.True(t, download.Video)
	assert.NotNil(t, download.CompletedAt)
	assert.True(t, download.IsTerminal())
}

func TestDownload_ApplyOutcome_Failure(t *testing.T) {
	download := NewDownload(AssetRequest{AssetID: "1"})

	download.ApplyOutcome(Failure(FailureTimeout, "Download timed out after 10 seconds."))

	assert.Equal(t, StatusFailed, download.Status)
	assert.Equal(t, FailureTimeout, download.Kind)
	assert.Equal(t, "Download timed out after 10 seconds.", download.ErrorMessage)
	assert.Empty(t, download.FilePath)
	assert.True(t, download.IsTerminal())
}
