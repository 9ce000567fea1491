package extractor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bunkrfetch/internal"
)

// newResolverServer serves a minimal media page, the resolution API and a
// CDN endpoint from one host, so the whole resolve flow runs locally.
func newResolverServer(t *testing.T, headStatus int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/f/abc123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head>
			<title>vacation.mp4 | Bunkr</title>
			<meta property="og:title" content="vacation.mp4">
			<meta property="og:url" content="%s/cdn/alt/vacation.mp4">
		</head><body>
			<a href="%s/file/data456">Download</a>
		</body></html>`, srv.URL, srv.URL)
	})

	mux.HandleFunc("/api/vs", func(w http.ResponseWriter, r *http.Request) {
		var req resolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID != "data456" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		ts := int64(1700000000)
		json.NewEncoder(w).Encode(resolveResponse{
			URL:       encryptURL(srv.URL+"/cdn/vacation.mp4", ts),
			Timestamp: ts,
		})
	})

	mux.HandleFunc("/cdn/vacation.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(headStatus)
	})

	return srv
}

func newTestResolver(srv *httptest.Server) *FileResolver {
	pool := NewDomainPool([]string{hostOfServer(srv)}, nil)
	router := NewRouterWithClient(newTestClient(), pool, srv.URL)
	return NewFileResolverWithOrigin(router, srv.URL)
}

func TestFileResolver_ResolveFile(t *testing.T) {
	srv := newResolverServer(t, http.StatusOK)
	resolver := newTestResolver(srv)

	file, err := resolver.ResolveFile(srv.URL + "/f/abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if file.DirectURL != srv.URL+"/cdn/vacation.mp4" {
		t.Errorf("expected decoded CDN URL, got %q", file.DirectURL)
	}
	if file.Name != "vacation.mp4" {
		t.Errorf("expected name from og:title, got %q", file.Name)
	}
	if file.ID != "abc123" {
		t.Errorf("expected id from page URL, got %q", file.ID)
	}
	if got := file.Headers["Referer"]; got != srv.URL+"/f/abc123" {
		t.Errorf("expected Referer set to the media page, got %q", got)
	}
	if len(file.Fallback) != 1 || file.Fallback[0] != srv.URL+"/cdn/alt/vacation.mp4" {
		t.Errorf("expected og:url as fallback, got %v", file.Fallback)
	}
	if file.Validate == nil {
		t.Errorf("expected a validation predicate on the descriptor")
	}
}

func TestFileResolver_ProbeFailureDoesNotAbort(t *testing.T) {
	// A dead CDN URL is the download layer's problem; resolution still
	// hands back the descriptor.
	srv := newResolverServer(t, http.StatusServiceUnavailable)
	resolver := newTestResolver(srv)

	file, err := resolver.ResolveFile(srv.URL + "/f/abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.DirectURL == "" {
		t.Errorf("expected a descriptor despite failed probe")
	}
}

func TestFileResolver_MissingFileID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>broken | Bunkr</title></head><body>no anchors</body></html>`)
	}))
	defer srv.Close()

	resolver := newTestResolver(srv)

	_, err := resolver.ResolveFile(srv.URL + "/f/abc123")
	if err == nil {
		t.Fatalf("expected error for page without a file id")
	}
	be, ok := err.(*internal.BunkrError)
	if !ok {
		t.Fatalf("expected *internal.BunkrError, got %T", err)
	}
	if be.Type != internal.ErrMissingFileID {
		t.Errorf("expected error type %v, got %v", internal.ErrMissingFileID, be.Type)
	}
}

func TestFileResolver_BadToken(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/f/abc123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><a href="%s/file/data456">dl</a></body></html>`, srv.URL)
	})
	mux.HandleFunc("/api/vs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(resolveResponse{URL: "%%%not-base64%%%", Timestamp: 1700000000})
	})

	resolver := newTestResolver(srv)

	_, err := resolver.ResolveFile(srv.URL + "/f/abc123")
	if err == nil {
		t.Fatalf("expected error for undecodable token")
	}
	be, ok := err.(*internal.BunkrError)
	if !ok {
		t.Fatalf("expected *internal.BunkrError, got %T", err)
	}
	if be.Type != internal.ErrDecodeFailed {
		t.Errorf("expected error type %v, got %v", internal.ErrDecodeFailed, be.Type)
	}
}

func TestValidateDownload(t *testing.T) {
	direct := &http.Response{
		StatusCode: http.StatusOK,
		Request:    httptest.NewRequest(http.MethodGet, "https://cdn.example/file.mp4", nil),
	}
	if !validateDownload(direct) {
		t.Errorf("expected direct response to pass validation")
	}

	maintenance := &http.Response{
		StatusCode: http.StatusOK,
		Request:    httptest.NewRequest(http.MethodGet, "https://cdn.example/maintenance-vid.mp4", nil),
	}
	maintenance.Request.Response = &http.Response{StatusCode: http.StatusFound}
	if validateDownload(maintenance) {
		t.Errorf("expected maintenance redirect to fail validation")
	}

	// Same path without a redirect in the chain is a legitimate file.
	notRedirected := &http.Response{
		StatusCode: http.StatusOK,
		Request:    httptest.NewRequest(http.MethodGet, "https://cdn.example/maintenance-vid.mp4", nil),
	}
	if !validateDownload(notRedirected) {
		t.Errorf("expected non-redirected response to pass validation")
	}
}
