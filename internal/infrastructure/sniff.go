package infrastructure

import (
	"bytes"
	"strings"
)

var (
	pngSignature  = []byte("\x89PNG\r\n\x1a\n")
	jpegSignature = []byte{0xFF, 0xD8, 0xFF}
)

// ClassifyContent returns the file extension (without dot) for the given asset bytes.
// Unknown content is reported as "bin".
func ClassifyContent(data []byte) string {
	head := data
	if len(head) > 8 {
		head = head[:8]
	}
	// Invalid UTF-8 is dropped rather than replaced so binary prefixes never match.
	magic := strings.ToValidUTF8(string(head), "")
	if magic == "<roblox!" {
		return "rbxm"
	}
	if strings.HasPrefix(magic, "<roblox") {
		return "rbxmx"
	}

	switch {
	case bytes.HasPrefix(data, pngSignature):
		return "png"
	case bytes.HasPrefix(data, jpegSignature):
		return "jpg"
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return "gif"
	case bytes.HasPrefix(data, []byte("RIFF")) && len(data) >= 12 && string(data[8:12]) == "WEBP":
		return "webp"
	case bytes.HasPrefix(data, []byte("OggS")):
		return "ogg"
	case bytes.HasPrefix(data, []byte("ID3")):
		return "mp3"
	}
	return "bin"
}
