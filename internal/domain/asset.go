package domain

import (
	"strings"
	"unicode"
)

// AssetRequest describes a single download attempt against the asset-delivery API.
// Empty AuthCookie or PlaceID means the value is absent.
type AssetRequest struct {
	AssetID    string
	AuthCookie string
	PlaceID    string
}

// NewAssetRequest builds a request from raw user input, normalizing both ids
func NewAssetRequest(rawAssetID, cookie, rawPlaceID string) AssetRequest {
	return AssetRequest{
		AssetID:    NormalizeID(rawAssetID),
		AuthCookie: cookie,
		PlaceID:    NormalizeID(rawPlaceID),
	}
}

// Normalized reports whether both ids already hold nothing but ASCII digits.
// An empty PlaceID counts as normalized; an empty AssetID is checked separately.
func (r AssetRequest) Normalized() bool {
	return NormalizeID(r.AssetID) == r.AssetID && NormalizeID(r.PlaceID) == r.PlaceID
}

// NormalizeID strips every character that is not an ASCII decimal digit.
// Pasted URLs like "https://www.roblox.com/library/123/Name" keep only their digits.
func NormalizeID(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

// ParseIDList splits multi-line input into normalized ids, one per line.
// Blank lines are dropped; lines that normalize to "" are kept so callers can skip them.
func ParseIDList(text string) []string {
	var ids []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimFunc(line, unicode.IsSpace) == "" {
			continue
		}
		ids = append(ids, NormalizeID(line))
	}
	return ids
}

// OutcomeKind tags a DownloadOutcome
type OutcomeKind string

const (
	OutcomeSuccess            OutcomeKind = "success"
	FailureEmptyID            OutcomeKind = "empty_id"
	FailureTimeout            OutcomeKind = "timeout"
	FailureNetworkError       OutcomeKind = "network_error"
	FailureAPIError           OutcomeKind = "api_error"
	FailureHTTPError          OutcomeKind = "http_error"
	FailurePlaylistParseError OutcomeKind = "playlist_parse_error"
	FailureFileError          OutcomeKind = "file_error"
)

// DownloadOutcome is the result of exactly one download attempt.
// Kind is OutcomeSuccess with FilePath/ByteSize set, or a failure kind with Message set.
type DownloadOutcome struct {
	Kind     OutcomeKind `json:"kind"`
	FilePath string      `json:"file_path,omitempty"`
	ByteSize int64       `json:"byte_size,omitempty"`
	Video    bool        `json:"video,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// Success creates a successful outcome
func Success(filePath string, byteSize int64) DownloadOutcome {
	return DownloadOutcome{Kind: OutcomeSuccess, FilePath: filePath, ByteSize: byteSize}
}

// VideoSuccess creates a successful outcome for a resolved video asset
func VideoSuccess(filePath string, byteSize int64) DownloadOutcome {
	o := Success(filePath, byteSize)
	o.Video = true
	return o
}

// Failure creates a failed outcome
func Failure(kind OutcomeKind, message string) DownloadOutcome {
	return DownloadOutcome{Kind: kind, Message: message}
}

// IsSuccess reports whether the attempt saved a file
func (o DownloadOutcome) IsSuccess() bool {
	return o.Kind == OutcomeSuccess
}

// String renders the outcome the way it is shown to users
func (o DownloadOutcome) String() string {
	if o.IsSuccess() {
		if o.Video {
			return "Success: Video downloaded to " + o.FilePath
		}
		return "Success: Asset downloaded to " + o.FilePath
	}
	if strings.HasPrefix(o.Message, "Error") {
		return o.Message
	}
	return "Error: " + o.Message
}

// Variant is one #EXT-X-STREAM-INF entry of a master playlist
type Variant struct {
	Bandwidth    int64
	PathTemplate string
}

// MasterPlaylist is the subset of a master playlist needed to locate the video
type MasterPlaylist struct {
	BaseURI  string
	Variants []Variant
}

// BulkResult partitions the attempted asset ids of a bulk run
type BulkResult struct {
	SucceededIDs []string `json:"succeeded_ids"`
	FailedIDs    []string `json:"failed_ids"`

	succeeded map[string]struct{}
}

// MarkSucceeded records a successful id; repeated ids are stored once
func (r *BulkResult) MarkSucceeded(id string) {
	if r.succeeded == nil {
		r.succeeded = make(map[string]struct{})
	}
	if _, ok := r.succeeded[id]; ok {
		return
	}
	r.succeeded[id] = struct{}{}
	r.SucceededIDs = append(r.SucceededIDs, id)
}

// MarkFailed appends a failed id
func (r *BulkResult) MarkFailed(id string) {
	r.FailedIDs = append(r.FailedIDs, id)
}

// HasSucceeded reports whether id was downloaded during the run
func (r *BulkResult) HasSucceeded(id string) bool {
	_, ok := r.succeeded[id]
	return ok
}

// AllSucceeded reports whether no attempted id failed
func (r *BulkResult) AllSucceeded() bool {
	return len(r.FailedIDs) == 0
}
