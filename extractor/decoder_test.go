package extractor

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"bunkrfetch/internal"
)

// encryptURL applies the server-side obfuscation so tests can exercise
// DecryptURL round-trip without captured fixtures.
func encryptURL(plain string, timestamp int64) string {
	key := []byte(fmt.Sprintf("SECRET_KEY_%d", timestamp/3600))
	raw := []byte(plain)
	out := make([]byte, len(raw))
	for i, b := range raw {
		out[i] = b ^ key[i%len(key)]
	}
	return base64.StdEncoding.EncodeToString(out)
}

func TestDecryptURL_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		plain     string
		timestamp int64
	}{
		{
			name:      "cdn_url",
			plain:     "https://cdn-burger.bunkr.ru/video-abc123.mp4",
			timestamp: 1700000000,
		},
		{
			name:      "short_input",
			plain:     "x",
			timestamp: 1700000000,
		},
		{
			name:      "longer_than_key",
			plain:     strings.Repeat("https://example.net/files/item?", 8),
			timestamp: 1700003599,
		},
		{
			name:      "zero_timestamp",
			plain:     "https://cdn.example/file.bin",
			timestamp: 0,
		},
		{
			name:      "empty_payload",
			plain:     "",
			timestamp: 1700000000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecryptURL(encryptURL(tt.plain, tt.timestamp), tt.timestamp)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.plain {
				t.Errorf("expected %q, got %q", tt.plain, got)
			}
		})
	}
}

func TestDecryptURL_SameHourBucket(t *testing.T) {
	// Any two timestamps inside the same hour derive the same key, so a
	// token encrypted at one decrypts at the other.
	const base = int64(1700000000)
	bucket := base / 3600 * 3600

	token := encryptURL("https://cdn.example/file.mp4", bucket)

	got, err := DecryptURL(token, bucket+3599)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://cdn.example/file.mp4" {
		t.Errorf("expected same-bucket timestamp to decrypt, got %q", got)
	}
}

func TestDecryptURL_WrongHourBucket(t *testing.T) {
	const base = int64(1700000000)
	bucket := base / 3600 * 3600

	token := encryptURL("https://cdn.example/file.mp4", bucket)

	got, err := DecryptURL(token, bucket+3600)
	if err == nil && got == "https://cdn.example/file.mp4" {
		t.Errorf("token decrypted with the wrong hour bucket")
	}
}

func TestDecryptURL_InvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		encoded   string
		timestamp int64
	}{
		{
			name:      "not_base64",
			encoded:   "!!!not base64!!!",
			timestamp: 1700000000,
		},
		{
			name:      "truncated_base64",
			encoded:   "aGVsbG",
			timestamp: 1700000000,
		},
		{
			name: "invalid_utf8_output",
			// 0xff ^ 'S' is not a lead byte of any valid UTF-8 sequence
			encoded:   base64.StdEncoding.EncodeToString([]byte{0xff ^ 'S', 0xfe ^ 'E'}),
			timestamp: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecryptURL(tt.encoded, tt.timestamp)
			if err == nil {
				t.Fatalf("expected error, got none")
			}
			be, ok := err.(*internal.BunkrError)
			if !ok {
				t.Fatalf("expected *internal.BunkrError, got %T", err)
			}
			if be.Type != internal.ErrDecodeFailed {
				t.Errorf("expected error type %v, got %v", internal.ErrDecodeFailed, be.Type)
			}
		})
	}
}
