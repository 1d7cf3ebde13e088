package infrastructure

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/yourusername/rbx-asset-downloader/internal/domain"
)

const (
	// BaseURIMacro is substituted with the RBX-BASE-URI value in variant paths
	BaseURIMacro = "{$RBX-BASE-URI}"

	// VideoSegmentName is the single segment every media playlist of this API serves
	VideoSegmentName = "0000.webm"
)

var (
	ErrMissingBaseURI = errors.New("missing base URI")
	ErrNoStreams      = errors.New("no streams found")
)

var (
	baseURIPattern = regexp.MustCompile(`#EXT-X-DEFINE:NAME="RBX-BASE-URI",VALUE="(.+?)"`)
	// A STREAM-INF line carrying BANDWIDTH as its own attribute (not AVERAGE-BANDWIDTH),
	// then the path line ending in .m3u8.
	streamPattern = regexp.MustCompile(`#EXT-X-STREAM-INF:(?:[^\n]*?,[ \t]*)?BANDWIDTH=(\d+)[^\n]*\n([^\n]*?\.m3u8)`)
)

// IsMasterVideoPlaylist reports whether an asset body is a video master playlist
func IsMasterVideoPlaylist(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "#EXTM3U") && strings.Contains(text, "RBX-BASE-URI")
}

// ParseMasterPlaylist extracts the base URI and variant streams in document order
func ParseMasterPlaylist(text string) (*domain.MasterPlaylist, error) {
	m := baseURIPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, ErrMissingBaseURI
	}

	playlist := &domain.MasterPlaylist{BaseURI: m[1]}
	for _, sm := range streamPattern.FindAllStringSubmatch(text, -1) {
		bandwidth, err := strconv.ParseInt(sm[1], 10, 64)
		if err != nil {
			// only digits match, so this is a range error; saturate so the variant still wins
			bandwidth = math.MaxInt64
		}
		playlist.Variants = append(playlist.Variants, domain.Variant{
			Bandwidth:    bandwidth,
			PathTemplate: strings.TrimSpace(sm[2]),
		})
	}
	if len(playlist.Variants) == 0 {
		return nil, ErrNoStreams
	}
	return playlist, nil
}

// BestVariant returns the variant with the highest bandwidth; ties keep the first one
func BestVariant(variants []domain.Variant) (domain.Variant, bool) {
	if len(variants) == 0 {
		return domain.Variant{}, false
	}
	best := variants[0]
	for _, v := range variants[1:] {
		if v.Bandwidth > best.Bandwidth {
			best = v
		}
	}
	return best, true
}

// ExpandBaseURI substitutes every base-URI macro in path
func ExpandBaseURI(path, baseURI string) string {
	return strings.ReplaceAll(path, BaseURIMacro, baseURI)
}

// SegmentURL derives the video segment URL that sits next to a media playlist
func SegmentURL(mediaPlaylistURL string) string {
	dir := mediaPlaylistURL
	if i := strings.LastIndex(mediaPlaylistURL, "/"); i >= 0 {
		dir = mediaPlaylistURL[:i]
	}
	return dir + "/" + VideoSegmentName
}
