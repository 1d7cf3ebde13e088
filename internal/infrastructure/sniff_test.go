package infrastructure

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyContent(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{"binary model", []byte("<roblox!\x89\xff\x0d\x0a\x1a\x0a"), "rbxm"},
		{"xml model", []byte(`<roblox xmlns:xmime="http://www.w3.org/2005/05/xmlmime" version="4">`), "rbxmx"},
		{"png", append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 4096)...), "png"},
		{"png signature only", []byte("\x89PNG\r\n\x1a\n"), "png"},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, "jpg"},
		{"gif87a", []byte("GIF87a\x01\x00"), "gif"},
		{"gif89a", []byte("GIF89a\x01\x00"), "gif"},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBPVP8 "), "webp"},
		{"riff without webp", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), "bin"},
		{"short riff", []byte("RIFF\x24"), "bin"},
		{"ogg", []byte("OggS\x00\x02"), "ogg"},
		{"mp3", []byte("ID3\x04\x00"), "mp3"},
		{"random", []byte{0x13, 0x37, 0xC0, 0xFF, 0xEE, 0x00, 0x01, 0x02, 0x03}, "bin"},
		{"empty", nil, "bin"},
		{"text", []byte("hello world"), "bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyContent(tt.data))
		})
	}
}

func TestClassifyContent_InvalidUTF8Prefix(t *testing.T) {
	// Invalid bytes are dropped before the model check, so this still decodes as "<roblox".
	data := []byte("\xff<roblox")

	assert.Equal(t, "rbxmx", ClassifyContent(data))
}
