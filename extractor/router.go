package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bunkrfetch/internal"
	"bunkrfetch/utils"
)

// RequestOptions adjusts a single routed request
type RequestOptions struct {
	Method  string
	Headers map[string]string

	// JSON, when non-nil, is marshalled as the request body with a
	// matching Content-Type header.
	JSON interface{}
}

// Router issues HTTP requests with redirects disabled and resolves the
// redirect chain itself, so it can tell ordinary redirects apart from
// challenge responses and route around blocked domains. Callers never see
// a redirect status, and never a response from a domain known to be
// challenged.
//
// A Router belongs to one pipeline and is not goroutine-safe; the shared
// state lives in the DomainPool.
type Router struct {
	client *utils.HTTPClient
	pool   *DomainPool
	root   string // current effective root, e.g. "https://bunkr.si"
	scheme string
}

// NewRouter creates a router with a default non-redirecting HTTP client
func NewRouter(pool *DomainPool, root string) *Router {
	client := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
		Timeout:         30 * time.Second,
		FollowRedirects: false,
		MaxAttempts:     3,
	})
	return NewRouterWithClient(client, pool, root)
}

// NewRouterWithClient creates a router using a caller-supplied client.
// The client must have transport-level redirect following disabled.
func NewRouterWithClient(client *utils.HTTPClient, pool *DomainPool, root string) *Router {
	scheme := "https"
	if u, err := url.Parse(root); err == nil && u.Scheme != "" {
		scheme = u.Scheme
	}
	return &Router{
		client: client,
		pool:   pool,
		root:   strings.TrimSuffix(root, "/"),
		scheme: scheme,
	}
}

// Root returns the current effective root. Fallback selection moves it.
func (r *Router) Root() string {
	return r.root
}

// Request performs one logical request, following redirects and routing
// around challenged domains until it has a non-redirect response from a
// usable domain.
//
// Path-only redirects replay against the current root. Absolute redirects
// to unchallenged authorities are followed as-is; a redirect to a known
// challenged authority, or an access-denied status, marks the authority
// challenged and replays the pending path against a fallback domain. Any
// other HTTP error status propagates unchanged.
//
// The loop terminates because every challenge permanently shrinks the
// active domain set: either a response comes back or the pool empties and
// the fatal domain-exhaustion error surfaces.
func (r *Router) Request(rawURL string, opts *RequestOptions) (*http.Response, error) {
	method := http.MethodGet
	headers := map[string]string{}
	var body []byte

	if opts != nil {
		if opts.Method != "" {
			method = opts.Method
		}
		for k, v := range opts.Headers {
			headers[k] = v
		}
		if opts.JSON != nil {
			data, err := json.Marshal(opts.JSON)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request body: %w", err)
			}
			body = data
			headers["Content-Type"] = "application/json"
		}
	}

	for {
		resp, err := r.client.Do(context.Background(), method, rawURL, headers, body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < 300 {
			return resp, nil
		}

		if resp.StatusCode < 400 {
			location := resp.Header.Get("Location")
			resp.Body.Close()
			if location == "" {
				return nil, internal.NewBunkrError(resp.StatusCode,
					"redirect response without Location header", internal.ErrInvalidResponse).
					WithURL(rawURL)
			}

			if strings.HasPrefix(location, "/") {
				// same domain, no fallback consumed
				rawURL = r.root + location
				continue
			}

			root, path, err := splitURL(location)
			if err != nil {
				return nil, internal.NewBunkrError(resp.StatusCode,
					fmt.Sprintf("unparseable redirect target %q", location), internal.ErrInvalidResponse).
					WithURL(rawURL)
			}
			if !r.pool.IsChallenged(hostOf(root)) {
				// ordinary cross-domain redirect
				rawURL = location
				continue
			}
			internal.LogDebug("redirect to known challenge domain %q", root)

			rawURL, err = r.routeAround(root, path)
			if err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode == http.StatusForbidden {
			resp.Body.Close()

			root, path, err := splitURL(rawURL)
			if err != nil {
				return nil, internal.NewHTTPStatusError(http.StatusForbidden, rawURL)
			}

			rawURL, err = r.routeAround(root, path)
			if err != nil {
				return nil, err
			}
			continue
		}

		// any other HTTP error propagates unchanged, never retried here
		status := resp.StatusCode
		resp.Body.Close()
		return nil, internal.NewHTTPStatusError(status, rawURL)
	}
}

// routeAround marks the authority of a failing URL as challenged and
// rewrites the pending path against a freshly picked fallback domain.
func (r *Router) routeAround(root, path string) (string, error) {
	host := hostOf(root)
	if err := r.pool.MarkChallenged(host); err != nil {
		return "", err
	}
	internal.LogDebug("added %q to challenge domains", host)

	domain, err := r.pool.PickFallback()
	if err != nil {
		return "", err
	}
	r.root = r.scheme + "://" + domain
	internal.LogDebug("trying %q as fallback", r.root)

	return r.root + path, nil
}

// splitURL splits an absolute URL into its authority root and the
// remainder (path plus query).
func splitURL(rawURL string) (root, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("url %q has no authority", rawURL)
	}
	return u.Scheme + "://" + u.Host, u.RequestURI(), nil
}

// hostOf strips the scheme from an authority root
func hostOf(root string) string {
	if i := strings.Index(root, "://"); i >= 0 {
		return root[i+3:]
	}
	return root
}
