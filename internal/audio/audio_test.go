package audio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected Format
	}{
		{"wav riff header", []byte("RIFFxxxxWAVE"), FormatWAV},
		{"mp3 id3 tag", []byte("ID3\x04rest of tag"), FormatMP3},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x00}, FormatMP3},
		{"ogg header", []byte("OggS\x00\x02"), FormatOGG},
		{"raw pcm", []byte{0x01, 0x02, 0x03, 0x04, 0x05}, FormatRaw},
		{"too short", []byte{0x01, 0x02}, FormatRaw},
		{"empty", nil, FormatRaw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.data); got != tt.expected {
				t.Errorf("DetectFormat = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestWrapPCM(t *testing.T) {
	pcm := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
	wav := WrapPCM(pcm, 24000, 1, 16)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("Expected %d bytes, got %d", 44+len(pcm), len(wav))
	}
	if !bytes.HasPrefix(wav, []byte("RIFF")) {
		t.Error("Expected RIFF header")
	}
	if string(wav[8:12]) != "WAVE" {
		t.Errorf("Expected WAVE marker, got %q", wav[8:12])
	}

	sampleRate := binary.LittleEndian.Uint32(wav[24:28])
	if sampleRate != 24000 {
		t.Errorf("Expected sample rate 24000, got %d", sampleRate)
	}
	channels := binary.LittleEndian.Uint16(wav[22:24])
	if channels != 1 {
		t.Errorf("Expected 1 channel, got %d", channels)
	}
	bits := binary.LittleEndian.Uint16(wav[34:36])
	if bits != 16 {
		t.Errorf("Expected 16 bits per sample, got %d", bits)
	}
	dataLen := binary.LittleEndian.Uint32(wav[40:44])
	if int(dataLen) != len(pcm) {
		t.Errorf("Expected data length %d, got %d", len(pcm), dataLen)
	}
	if !bytes.Equal(wav[44:], pcm) {
		t.Error("Expected PCM payload preserved after header")
	}
}

func TestEnsurePlayable(t *testing.T) {
	// Raw PCM gets wrapped
	wrapped, format := EnsurePlayable([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06})
	if format != FormatWAV {
		t.Errorf("Expected raw PCM to become wav, got %s", format)
	}
	if !bytes.HasPrefix(wrapped, []byte("RIFF")) {
		t.Error("Expected wrapped PCM to carry a RIFF header")
	}

	// Existing containers pass through
	mp3 := []byte("ID3\x04some mp3 payload")
	passed, format := EnsurePlayable(mp3)
	if format != FormatMP3 {
		t.Errorf("Expected mp3 detection, got %s", format)
	}
	if !bytes.Equal(passed, mp3) {
		t.Error("Expected mp3 bytes untouched")
	}
}

func TestFormatExtension(t *testing.T) {
	if FormatWAV.Extension() != ".wav" {
		t.Error("wav extension mismatch")
	}
	if FormatMP3.Extension() != ".mp3" {
		t.Error("mp3 extension mismatch")
	}
	if FormatOGG.Extension() != ".ogg" {
		t.Error("ogg extension mismatch")
	}
	if FormatRaw.Extension() != ".wav" {
		t.Error("raw PCM should get a wav extension after wrapping")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Jane Smith", "Jane_Smith"},
		{"path separators", "../../etc/passwd", "....etcpasswd"},
		{"shell characters", `a<b>c:d"e|f?g*h`, "abcdefgh"},
		{"control characters", "a\x00b\x1fc", "abc"},
		{"whitespace runs", "Jane   Smith\tJr", "Jane_Smith_Jr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}

	long := SanitizeFilename(string(bytes.Repeat([]byte("a"), 200)))
	if len(long) != 100 {
		t.Errorf("Expected 100-char cap, got %d", len(long))
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()

	filename, err := Save(dir, "Jane Smith assessment", []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filename != "Jane_Smith_assessment.wav" {
		t.Errorf("Unexpected stored filename %q", filename)
	}

	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("Failed to read stored file: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Error("Expected stored raw PCM to be WAV-wrapped")
	}
}

func TestSaveEmptyBaseName(t *testing.T) {
	dir := t.TempDir()

	filename, err := Save(dir, "", []byte("OggS\x00payload"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filename != "assessment.ogg" {
		t.Errorf("Expected fallback base name with detected extension, got %q", filename)
	}
}

func TestSafeJoin(t *testing.T) {
	dir := "/var/lib/app/audio"

	path, err := SafeJoin(dir, "result.wav")
	if err != nil {
		t.Fatalf("SafeJoin failed for valid name: %v", err)
	}
	if path != filepath.Join(dir, "result.wav") {
		t.Errorf("Unexpected joined path %q", path)
	}

	for _, bad := range []string{"", "../secret.wav", "a/b.wav", "..", "nested/../../x.wav"} {
		if _, err := SafeJoin(dir, bad); err == nil {
			t.Errorf("Expected rejection for %q", bad)
		}
	}
}
