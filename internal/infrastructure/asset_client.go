package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/rbx-asset-downloader/internal/domain"
	"go.uber.org/zap"
)

const (
	// CookieName is the session cookie the asset-delivery API authenticates with
	CookieName = ".ROBLOSECURITY"
	// PlaceIDHeader scopes a request to a place so private place assets can be served
	PlaceIDHeader = "Roblox-Place-Id"
)

// AssetClient downloads assets from the asset-delivery API, resolving video playlists
type AssetClient struct {
	config     *domain.DownloadConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAssetClient creates a new asset client. A nil httpClient uses a client without
// a global timeout; the primary request is bounded by config.Timeout instead.
func NewAssetClient(config *domain.DownloadConfig, httpClient *http.Client, logger *zap.Logger) *AssetClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetClient{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}
}

// apiErrorBody is the error payload returned by the asset-delivery API.
// A JSON object without "errors" still counts as an API error with default fields.
type apiErrorBody struct {
	Errors *[]apiErrorEntry `json:"errors"`
}

type apiErrorEntry struct {
	Message interface{} `json:"message"`
	Code    interface{} `json:"code"`
}

// Fetch performs one download attempt for req
func (c *AssetClient) Fetch(ctx context.Context, req domain.AssetRequest) domain.DownloadOutcome {
	if req.AssetID == "" {
		return domain.Failure(domain.FailureEmptyID, "Asset ID cannot be empty.")
	}
	// ids end up in the query string and the output file name
	if !req.Normalized() {
		return domain.Failure(domain.FailureEmptyID, "Asset ID and Place ID must contain only digits.")
	}

	log := c.logger.With(zap.String("asset_id", req.AssetID), zap.String("place_id", req.PlaceID))
	log.Info("Starting asset download", zap.Bool("cookie", req.AuthCookie != ""))

	assetURL, err := c.assetURL(req.AssetID)
	if err != nil {
		log.Error("Invalid asset URL", zap.Error(err))
		return domain.Failure(domain.FailureNetworkError, fmt.Sprintf("An unexpected network error occurred: %v", err))
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	status, reason, body, err := c.get(reqCtx, assetURL, req)
	if err != nil {
		return c.transportFailure(log, err, c.timeout())
	}
	log.Info("Asset request finished", zap.String("url", assetURL), zap.Int("status", status))

	if status != http.StatusOK {
		return c.statusFailure(log, status, reason, body)
	}

	text := strings.ToValidUTF8(string(body), "")
	if IsMasterVideoPlaylist(text) {
		log.Info("Detected video master playlist")
		return c.resolveVideo(ctx, log, req, text)
	}

	ext := ClassifyContent(body)
	log.Debug("Detected standard asset", zap.String("extension", ext))
	path, err := c.save(req.AssetID, ext, body)
	if err != nil {
		log.Error("Failed to save asset", zap.Error(err))
		return domain.Failure(domain.FailureFileError, fmt.Sprintf("Failed to save asset: %v", err))
	}
	log.Info("Asset saved", zap.String("file", path), zap.Int("bytes", len(body)))
	return domain.Success(path, int64(len(body)))
}

// resolveVideo follows a master playlist to the highest-bandwidth video segment
func (c *AssetClient) resolveVideo(ctx context.Context, log *zap.Logger, req domain.AssetRequest, masterText string) domain.DownloadOutcome {
	playlist, err := ParseMasterPlaylist(masterText)
	if err != nil {
		log.Warn("Could not parse video playlist", zap.Error(err))
		return domain.Failure(domain.FailurePlaylistParseError, err.Error())
	}

	best, _ := BestVariant(playlist.Variants)
	mediaURL := ExpandBaseURI(best.PathTemplate, playlist.BaseURI)
	log.Info("Selected video stream",
		zap.String("base_uri", playlist.BaseURI),
		zap.Int64("bandwidth", best.Bandwidth),
		zap.Int("variants", len(playlist.Variants)),
		zap.String("url", mediaURL))

	status, _, _, err := c.get(ctx, mediaURL, req)
	if err != nil {
		return c.transportFailure(log, err, 0)
	}
	if status != http.StatusOK {
		log.Warn("Failed to fetch media playlist", zap.Int("status", status))
		return domain.Failure(domain.FailureHTTPError, "failed to fetch media playlist")
	}

	segmentURL := SegmentURL(mediaURL)
	log.Debug("Constructed video segment URL", zap.String("url", segmentURL))

	status, _, body, err := c.get(ctx, segmentURL, req)
	if err != nil {
		return c.transportFailure(log, err, 0)
	}
	if status != http.StatusOK {
		log.Warn("Failed to download final video segment", zap.Int("status", status))
		return domain.Failure(domain.FailureHTTPError, "failed to download final video segment")
	}

	path, err := c.save(req.AssetID, "webm", body)
	if err != nil {
		log.Error("Failed to save video", zap.Error(err))
		return domain.Failure(domain.FailureFileError, fmt.Sprintf("Failed to save video: %v", err))
	}
	log.Info("Video saved", zap.String("file", path), zap.Int("bytes", len(body)))
	return domain.VideoSuccess(path, int64(len(body)))
}

// get issues a GET carrying the request's user agent, cookie and place header
func (c *AssetClient) get(ctx context.Context, rawURL string, req domain.AssetRequest) (int, string, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, "", nil, err
	}
	httpReq.Header.Set("User-Agent", c.userAgent())
	if req.AuthCookie != "" {
		httpReq.AddCookie(&http.Cookie{Name: CookieName, Value: req.AuthCookie})
	}
	if req.PlaceID != "" {
		httpReq.Header.Set(PlaceIDHeader, req.PlaceID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, "", nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", nil, err
	}
	return resp.StatusCode, reasonPhrase(resp), body, nil
}

func (c *AssetClient) statusFailure(log *zap.Logger, status int, reason string, body []byte) domain.DownloadOutcome {
	if first, ok := decodeAPIError(body); ok {
		var message interface{} = "Unknown error"
		if first.Message != nil {
			message = first.Message
		}
		var code interface{} = 0
		if first.Code != nil {
			code = first.Code
		}
		log.Warn("API error", zap.Int("status", status), zap.Any("message", message), zap.Any("code", code))
		return domain.Failure(domain.FailureAPIError, fmt.Sprintf("Error %d: %v (Code: %v)", status, message, code))
	}

	log.Warn("HTTP error", zap.Int("status", status), zap.String("reason", reason))
	return domain.Failure(domain.FailureHTTPError, fmt.Sprintf("Error %d: %s", status, reason))
}

// decodeAPIError returns the first error entry of a JSON object body. ok is false
// for non-JSON bodies, non-object values and an empty "errors" list.
func decodeAPIError(body []byte) (apiErrorEntry, bool) {
	var payload apiErrorBody
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return apiErrorEntry{}, false
	}
	if payload.Errors == nil {
		return apiErrorEntry{}, true
	}
	if len(*payload.Errors) == 0 {
		return apiErrorEntry{}, false
	}
	return (*payload.Errors)[0], true
}

func (c *AssetClient) transportFailure(log *zap.Logger, err error, limit time.Duration) domain.DownloadOutcome {
	if isTimeout(err) {
		log.Warn("Request timed out", zap.Error(err), zap.Duration("limit", limit))
		if limit <= 0 {
			return domain.Failure(domain.FailureTimeout, "Download timed out.")
		}
		return domain.Failure(domain.FailureTimeout,
			fmt.Sprintf("Download timed out after %d seconds.", int(limit.Seconds())))
	}
	log.Error("Network error", zap.Error(err))
	return domain.Failure(domain.FailureNetworkError, fmt.Sprintf("An unexpected network error occurred: %v", err))
}

// save writes data to {downloadsDir}/{assetID}.{ext}, creating the directory if needed
func (c *AssetClient) save(assetID, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(c.config.DownloadsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create downloads directory: %w", err)
	}
	path := filepath.Join(c.config.DownloadsDir, assetID+"."+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func (c *AssetClient) assetURL(assetID string) (string, error) {
	base := c.config.AssetURL
	if base == "" {
		base = domain.DefaultAssetURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("id", assetID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *AssetClient) timeout() time.Duration {
	if c.config.Timeout <= 0 {
		return domain.DefaultTimeout
	}
	return c.config.Timeout
}

func (c *AssetClient) userAgent() string {
	if c.config.UserAgent == "" {
		return domain.DefaultUserAgent
	}
	return c.config.UserAgent
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// reasonPhrase returns the status line's reason, falling back to the standard text
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
