package extractor

import (
	"encoding/json"
	"html"
	"net/http"
	"strings"

	"bunkrfetch/internal"
	"bunkrfetch/utils"
)

const (
	// apiOrigin hosts the internal resolution API and doubles as the
	// Referer the CDN expects on download requests.
	apiOrigin = "https://get.bunkrr.su"
	apiPath   = "/api/vs"
)

// FileResolver turns one media page URL into a downloadable file
// descriptor: page fetch, file-id extraction, resolution API call, token
// decryption, and a best-effort liveness probe.
type FileResolver struct {
	router *Router
	origin string
}

// resolveRequest is the body POSTed to the resolution API
type resolveRequest struct {
	ID string `json:"id"`
}

// resolveResponse is the API reply: an obfuscated URL token plus the
// timestamp that derives its key
type resolveResponse struct {
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"`
}

// NewFileResolver creates a resolver against the production API origin
func NewFileResolver(router *Router) *FileResolver {
	return NewFileResolverWithOrigin(router, apiOrigin)
}

// NewFileResolverWithOrigin creates a resolver against a custom API
// origin. Tests use this to point at a local server.
func NewFileResolverWithOrigin(router *Router, origin string) *FileResolver {
	return &FileResolver{
		router: router,
		origin: strings.TrimSuffix(origin, "/"),
	}
}

// ResolveFile resolves a media page into a FileDescriptor
func (r *FileResolver) ResolveFile(pageURL string) (*internal.FileDescriptor, error) {
	resp, err := r.router.Request(pageURL, nil)
	if err != nil {
		return nil, err
	}
	finalURL := pageURL
	if resp.Request != nil {
		finalURL = resp.Request.URL.String()
	}
	page, err := utils.ParsePage(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, internal.NewBunkrError(0, "failed to parse media page", internal.ErrInvalidResponse).
			WithURL(pageURL).WithContext("error", err.Error())
	}

	dataID := page.FileID(r.origin)
	if dataID == "" {
		return nil, internal.NewMissingFileIDError(pageURL)
	}

	apiResp, err := r.router.Request(r.origin+apiPath, &RequestOptions{
		Method: http.MethodPost,
		JSON:   resolveRequest{ID: dataID},
	})
	if err != nil {
		return nil, err
	}
	var result resolveResponse
	err = json.NewDecoder(apiResp.Body).Decode(&result)
	apiResp.Body.Close()
	if err != nil {
		return nil, internal.NewBunkrError(0, "failed to parse resolution API response", internal.ErrInvalidResponse).
			WithURL(pageURL).WithContext("error", err.Error())
	}

	fileURL, err := DecryptURL(result.URL, result.Timestamp)
	if err != nil {
		return nil, err
	}
	fileURL = html.UnescapeString(fileURL)

	if err := r.probe(fileURL); err != nil {
		return nil, err
	}

	name := page.MetaProperty("og:title")
	if name == "" {
		name = page.Title()
	}

	file := &internal.FileDescriptor{
		DirectURL: fileURL,
		Name:      html.UnescapeString(name),
		ID:        idFromPageURL(pageURL),
		Headers:   map[string]string{"Referer": finalURL},
		Validate:  validateDownload,
	}
	if fallback := page.MetaProperty("og:url"); fallback != "" {
		file.Fallback = []string{fallback}
	}

	return file, nil
}

// probe issues a HEAD request against the decoded URL as a liveness
// check. Availability can be transient and retrying is the download
// layer's concern, so failures are logged and never abort resolution.
// The one exception is domain exhaustion, which must not be swallowed
// anywhere.
func (r *FileResolver) probe(fileURL string) error {
	resp, err := r.router.Request(fileURL, &RequestOptions{
		Method:  http.MethodHead,
		Headers: map[string]string{"Referer": r.origin},
	})
	if err != nil {
		if internal.IsFatal(err) {
			return err
		}
		internal.LogWarn("CDN URL validation failed: %v", err)
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		internal.LogWarn("CDN URL validation failed (HTTP %d)", resp.StatusCode)
	}
	resp.Body.Close()
	return nil
}

// validateDownload rejects a download only when it was redirected to the
// host's maintenance placeholder video. A soft rejection: the download
// layer moves on to fallback locations instead of raising.
func validateDownload(resp *http.Response) bool {
	redirected := resp.Request != nil && resp.Request.Response != nil
	if redirected && strings.HasSuffix(resp.Request.URL.Path, "/maintenance-vid.mp4") {
		internal.LogWarn("file server in maintenance mode")
		return false
	}
	return true
}

// idFromPageURL extracts the identifier from a media page URL path
func idFromPageURL(pageURL string) string {
	trimmed := strings.TrimSuffix(pageURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
