// Package audio post-processes synthesized speech: the TTS provider returns
// either a complete container (WAV, MP3, OGG) or bare PCM samples that need
// a WAV header before anything can play them.
package audio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"resufit/internal/errors"
)

// Format identifies a detected audio container.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
	FormatOGG Format = "ogg"
	FormatRaw Format = "raw"
)

// Gemini TTS delivers 16-bit mono PCM at 24kHz when it returns raw samples.
const (
	defaultSampleRate    = 24000
	defaultChannels      = 1
	defaultBitsPerSample = 16
)

// DetectFormat sniffs the container from magic bytes. Anything unrecognized
// is treated as raw PCM.
func DetectFormat(data []byte) Format {
	if len(data) < 4 {
		return FormatRaw
	}
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		return FormatWAV
	case bytes.HasPrefix(data, []byte("ID3")) || (data[0] == 0xFF && data[1] == 0xFB):
		return FormatMP3
	case bytes.HasPrefix(data, []byte("OggS")):
		return FormatOGG
	}
	return FormatRaw
}

// Extension returns the file extension for a detected format. Raw PCM gets a
// .wav extension because EnsurePlayable wraps it.
func (f Format) Extension() string {
	switch f {
	case FormatMP3:
		return ".mp3"
	case FormatOGG:
		return ".ogg"
	default:
		return ".wav"
	}
}

// EnsurePlayable returns audio bytes in a playable container. Recognized
// containers pass through untouched; raw PCM is wrapped in a WAV header with
// the provider's default parameters.
func EnsurePlayable(data []byte) ([]byte, Format) {
	format := DetectFormat(data)
	if format != FormatRaw {
		return data, format
	}
	return WrapPCM(data, defaultSampleRate, defaultChannels, defaultBitsPerSample), FormatWAV
}

// WrapPCM prepends a canonical 44-byte WAV header to raw PCM samples
func WrapPCM(pcm []byte, sampleRate, channels, bitsPerSample int) []byte {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign
	dataLen := len(pcm)

	// binary.Write to a bytes.Buffer cannot fail
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16)) // fmt chunk size
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))  // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(pcm)

	return buf.Bytes()
}

var unsafeFilenameRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
var whitespaceRe = regexp.MustCompile(`\s+`)

// SanitizeFilename strips path separators and shell-hostile characters from
// a candidate-derived filename and caps its length
func SanitizeFilename(name string) string {
	cleaned := strings.TrimSpace(unsafeFilenameRe.ReplaceAllString(name, ""))
	cleaned = whitespaceRe.ReplaceAllString(cleaned, "_")
	if len(cleaned) > 100 {
		cleaned = cleaned[:100]
	}
	return cleaned
}

// Save writes playable audio under dir and returns the stored filename. The
// base name is sanitized and the extension follows the detected format.
func Save(dir, baseName string, data []byte) (string, error) {
	playable, format := EnsurePlayable(data)

	base := SanitizeFilename(baseName)
	if base == "" {
		base = "assessment"
	}
	filename := base + format.Extension()

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.NewIOError(errors.ErrCodeAudioFailed,
			"Failed to create audio output directory", err).WithContext("dir", dir)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, playable, 0o640); err != nil {
		return "", errors.NewIOError(errors.ErrCodeAudioFailed,
			"Failed to write audio file", err).WithContext("path", path)
	}

	return filename, nil
}

// SafeJoin resolves filename inside dir, rejecting path traversal. Used when
// serving stored audio back over HTTP.
func SafeJoin(dir, filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Invalid audio filename", nil).WithContext("filename", filename)
	}
	return filepath.Join(dir, filename), nil
}
