package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"bunkrfetch/internal"
)

// LinkKind distinguishes the two supported page shapes
type LinkKind int

const (
	LinkAlbum LinkKind = iota // /a/<id>
	LinkMedia                 // /f|v|i|d/<id>
)

// URLInfo contains parsed information from a bunkr URL
type URLInfo struct {
	OriginalURL string
	Host        string
	Path        string
	ID          string
	Kind        LinkKind

	// Explicit is set for bunkr:HOST/... override links, which accept any
	// host and bypass domain matching entirely.
	Explicit bool
}

// overrideScheme lets users target an arbitrary host, e.g.
// "bunkr:new-mirror.example/a/ID".
const overrideScheme = "bunkr:"

var (
	// Fixed allow-list of known TLDs, current and historical.
	strictHostPattern = regexp.MustCompile(
		`^(?:app\.)?bunkr+\.(?:s[kiu]|c[ir]|fi|p[hks]|ru|la|is|to|a[cx]|black|cat|media|red|site|ws|org)$`)

	// Expanded matching accepts any TLD; the host rotates domains faster
	// than any allow-list can track.
	expandedHostPattern = regexp.MustCompile(`^(?:app\.)?bunkr+\.\w+$`)

	albumPathPattern = regexp.MustCompile(`^/a/([^/?#]+)`)
	mediaPathPattern = regexp.MustCompile(`^/[fvid]/([^/?#]+)`)
)

// URLValidator handles URL validation and parsing for bunkr links
type URLValidator struct {
	hostPattern *regexp.Regexp
}

// NewURLValidator creates a URL validator. With expandedTLDs set, any
// bunkr.* host is accepted instead of the fixed allow-list.
func NewURLValidator(expandedTLDs bool) *URLValidator {
	pattern := strictHostPattern
	if expandedTLDs {
		pattern = expandedHostPattern
	}
	return &URLValidator{hostPattern: pattern}
}

// ParseURL validates a raw link and extracts its host, page kind and id
func (v *URLValidator) ParseURL(rawURL string) (*URLInfo, error) {
	if rawURL == "" {
		return nil, internal.NewInvalidURLError(rawURL, "URL cannot be empty")
	}

	info := &URLInfo{OriginalURL: rawURL}

	target := rawURL
	if strings.HasPrefix(rawURL, overrideScheme) {
		info.Explicit = true
		target = strings.TrimPrefix(rawURL, overrideScheme)
		if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
			target = "https://" + target
		}
	}

	parsedURL, err := url.Parse(target)
	if err != nil {
		return nil, internal.NewInvalidURLError(rawURL, fmt.Sprintf("invalid URL format: %v", err))
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, internal.NewInvalidURLError(rawURL, "URL must use http or https protocol")
	}

	host := strings.ToLower(parsedURL.Hostname())
	if host == "" {
		return nil, internal.NewInvalidURLError(rawURL, "URL has no host")
	}
	info.Host = host

	if !info.Explicit && !v.hostPattern.MatchString(host) {
		return nil, internal.NewInvalidURLError(rawURL,
			fmt.Sprintf("host %q is not a known bunkr domain", host))
	}

	if m := albumPathPattern.FindStringSubmatch(parsedURL.Path); m != nil {
		info.Kind = LinkAlbum
		info.ID = m[1]
		info.Path = "/a/" + m[1]
		return info, nil
	}

	if m := mediaPathPattern.FindStringSubmatch(parsedURL.Path); m != nil {
		info.Kind = LinkMedia
		info.ID = m[1]
		info.Path = parsedURL.Path
		return info, nil
	}

	return nil, internal.NewInvalidURLError(rawURL,
		"path is neither an album (/a/ID) nor a media page (/f/ID, /v/ID, /i/ID, /d/ID)")
}

// IsAlbum reports whether the link points at an album page
func (info *URLInfo) IsAlbum() bool {
	return info.Kind == LinkAlbum
}

// String returns a string representation of the URLInfo
func (info *URLInfo) String() string {
	return fmt.Sprintf("URLInfo{Host: %s, Path: %s, ID: %s, Explicit: %t}",
		info.Host, info.Path, info.ID, info.Explicit)
}
