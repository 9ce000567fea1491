// Package extractor implements the bunkr link-resolution core: the URL
// decoder, the shared domain pool, the challenge-evading request router,
// and the album and media page pipelines.
package extractor

import (
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"bunkrfetch/internal"
)

// keyPrefix is the static portion of the derived XOR key. The variable
// portion is the hour bucket of the timestamp returned in the same API
// response, so the whole key is recoverable by any client; the scheme
// only exists to defeat naive scrapers.
const keyPrefix = "SECRET_KEY_"

// DecryptURL reverses the time-windowed obfuscation applied to file URLs:
// base64 decode, then repeating-key XOR with a key derived from the hour
// bucket of timestamp. Pure function; fails only on malformed base64 or
// output that is not valid text.
func DecryptURL(encoded string, timestamp int64) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", internal.NewDecodeError(fmt.Sprintf("token is not valid base64: %v", err))
	}

	key := []byte(fmt.Sprintf("%s%d", keyPrefix, timestamp/3600))

	plain := make([]byte, len(raw))
	for i, b := range raw {
		plain[i] = b ^ key[i%len(key)]
	}

	if !utf8.Valid(plain) {
		return "", internal.NewDecodeError("decrypted bytes are not valid text")
	}

	return string(plain), nil
}
