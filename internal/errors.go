package internal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different types of errors
type ErrorType int

const (
	ErrInvalidURL ErrorType = iota
	ErrChallengeDetected
	ErrAllDomainsChallenged
	ErrDecodeFailed
	ErrMissingFileID
	ErrInvalidResponse
	ErrHTTPStatus
	ErrNetworkTimeout
	ErrDownloadFailed
	ErrMaintenance
)

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

// BunkrError represents an extraction error with detailed information
type BunkrError struct {
	Code       int           `json:"code"` // HTTP status where applicable, 0 otherwise
	Message    string        `json:"message"`
	Type       ErrorType     `json:"type"`
	Severity   ErrorSeverity `json:"severity"`
	URL        string        `json:"url,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *BunkrError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("bunkr error (code: %d, type: %s)", e.Code, e.Type.String()))

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", e.Suggestion))
	}

	return strings.Join(parts, " - ")
}

// DetailedError returns a detailed error message with all available information
func (e *BunkrError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s] %s Error", e.Severity.String(), e.Type.String()))

	if e.Code != 0 {
		parts = append(parts, fmt.Sprintf("Code: %d", e.Code))
	}
	if e.Message != "" {
		parts = append(parts, fmt.Sprintf("Message: %s", e.Message))
	}

	if e.URL != "" {
		parts = append(parts, fmt.Sprintf("URL: %s", redactSensitiveURL(e.URL)))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("Context: %s", strings.Join(contextParts, ", ")))
	}

	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("\nSuggestion: %s", e.Suggestion))
	}

	return strings.Join(parts, "\n")
}

// String returns the string representation of ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrInvalidURL:
		return "InvalidURL"
	case ErrChallengeDetected:
		return "ChallengeDetected"
	case ErrAllDomainsChallenged:
		return "AllDomainsChallenged"
	case ErrDecodeFailed:
		return "DecodeFailed"
	case ErrMissingFileID:
		return "MissingFileID"
	case ErrInvalidResponse:
		return "InvalidResponse"
	case ErrHTTPStatus:
		return "HTTPStatus"
	case ErrNetworkTimeout:
		return "NetworkTimeout"
	case ErrDownloadFailed:
		return "DownloadFailed"
	case ErrMaintenance:
		return "Maintenance"
	default:
		return "Unknown"
	}
}

// String returns the string representation of ErrorSeverity
func (es ErrorSeverity) String() string {
	switch es {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// NewBunkrError creates a new BunkrError with detailed information
func NewBunkrError(code int, message string, errorType ErrorType) *BunkrError {
	err := &BunkrError{
		Code:    code,
		Message: message,
		Type:    errorType,
		Context: make(map[string]interface{}),
	}

	err.Suggestion = getDefaultSuggestion(errorType)
	err.Severity = getDefaultSeverity(errorType)

	return err
}

// NewAllDomainsChallengedError creates the fatal domain-exhaustion error.
// This is the one condition that must unwind through every layer: per-item
// error containment checks for it explicitly via IsFatal.
func NewAllDomainsChallengedError() *BunkrError {
	return NewBunkrError(0, "all bunkr domains require solving a challenge", ErrAllDomainsChallenged)
}

// WithSuggestion adds a custom suggestion to the error
func (e *BunkrError) WithSuggestion(suggestion string) *BunkrError {
	e.Suggestion = suggestion
	return e
}

// WithURL adds URL context to the error (redacted in logs)
func (e *BunkrError) WithURL(url string) *BunkrError {
	e.URL = url
	return e
}

// WithContext adds context information to the error
func (e *BunkrError) WithContext(key string, value interface{}) *BunkrError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsCritical returns true if the error should stop the whole run
func (e *BunkrError) IsCritical() bool {
	return e.Severity == SeverityCritical
}

// IsFatal reports whether err is the domain-exhaustion condition. Every
// per-item catch site must call this before swallowing an error.
func IsFatal(err error) bool {
	var be *BunkrError
	if errors.As(err, &be) {
		return be.Type == ErrAllDomainsChallenged
	}
	return false
}

// getDefaultSuggestion returns a default suggestion based on error type
func getDefaultSuggestion(errorType ErrorType) string {
	switch errorType {
	case ErrInvalidURL:
		return "Provide a bunkr album (/a/ID) or media (/f/ID) URL, or use the bunkr:HOST/... override"
	case ErrChallengeDetected:
		return "The domain is behind an anti-bot challenge; another domain will be tried automatically"
	case ErrAllDomainsChallenged:
		return "Every known domain is behind a challenge; retry later or supply a fresh domain via bunkr:HOST/..."
	case ErrDecodeFailed:
		return "The host may have changed its URL obfuscation scheme; check for a newer release"
	case ErrMissingFileID:
		return "The media page layout may have changed, or the file has been removed"
	case ErrInvalidResponse:
		return "The page or API response did not have the expected shape; the link may be dead"
	case ErrHTTPStatus:
		return "Verify the link is still valid and the file has not been removed"
	case ErrNetworkTimeout:
		return "Check your internet connection and try again. Consider using a proxy if needed"
	case ErrDownloadFailed:
		return "Download failed. Check available disk space and network connection"
	case ErrMaintenance:
		return "The file server is in maintenance mode; try again later"
	default:
		return "Please check the error details and try again"
	}
}

// getDefaultSeverity returns the default severity for an error type
func getDefaultSeverity(errorType ErrorType) ErrorSeverity {
	switch errorType {
	case ErrAllDomainsChallenged:
		return SeverityCritical
	case ErrChallengeDetected, ErrNetworkTimeout, ErrMaintenance:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// redactSensitiveURL redacts signed query parameters from URLs
func redactSensitiveURL(url string) string {
	if strings.Contains(url, "?") {
		parts := strings.Split(url, "?")
		return parts[0] + "?[REDACTED]"
	}
	return url
}

// Common error constructors for frequently used errors

// NewInvalidURLError creates an error for URLs that are not bunkr links
func NewInvalidURLError(url string, reason string) *BunkrError {
	return NewBunkrError(400, fmt.Sprintf("Invalid URL: %s", reason), ErrInvalidURL).
		WithURL(url)
}

// NewHTTPStatusError wraps an unexpected HTTP status. Statuses other than
// the access-denied code are never retried by the request router.
func NewHTTPStatusError(status int, url string) *BunkrError {
	return NewBunkrError(status, fmt.Sprintf("unexpected HTTP status %d", status), ErrHTTPStatus).
		WithURL(url)
}

// NewDecodeError creates an error for token decryption failures
func NewDecodeError(reason string) *BunkrError {
	return NewBunkrError(0, fmt.Sprintf("URL decryption failed: %s", reason), ErrDecodeFailed)
}

// NewMissingFileIDError creates an error for media pages without the
// internal file id the resolution API needs
func NewMissingFileIDError(pageURL string) *BunkrError {
	return NewBunkrError(0, "media page is missing its file id", ErrMissingFileID).
		WithURL(pageURL)
}
