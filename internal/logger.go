package internal

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarn:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// SecureLogger provides leveled logging with sensitive data redaction.
// Decoded CDN URLs carry signed query parameters and the resolution API
// returns obfuscated tokens; neither belongs in log output.
type SecureLogger struct {
	logger    *log.Logger
	level     LogLevel
	debug     bool
	quiet     bool
	redactors []Redactor
}

// Redactor defines an interface for redacting sensitive information
type Redactor interface {
	Redact(input string) string
}

// TokenRedactor redacts obfuscated URL tokens from API response dumps
type TokenRedactor struct{}

func (r *TokenRedactor) Redact(input string) string {
	patterns := []string{
		`"url":`,
		`"token":`,
		"Authorization:",
		"Bearer ",
	}

	result := input
	for _, pattern := range patterns {
		lower := strings.ToLower(result)
		index := strings.Index(lower, strings.ToLower(pattern))
		if index == -1 {
			continue
		}
		start := index + len(pattern)
		end := start
		for end < len(result) && result[end] != ',' && result[end] != '}' && result[end] != '\n' && result[end] != '\r' {
			end++
		}
		if end > start {
			result = result[:start] + "[REDACTED]" + result[end:]
		}
	}
	return result
}

// URLRedactor redacts signed query parameters from CDN URLs
type URLRedactor struct{}

func (r *URLRedactor) Redact(input string) string {
	sensitiveParams := []string{
		"token=",
		"expires=",
		"sign=",
		"signature=",
		"key=",
	}

	result := input
	for _, param := range sensitiveParams {
		lower := strings.ToLower(result)
		index := strings.Index(lower, param)
		if index == -1 {
			continue
		}
		start := index + len(param)
		end := start
		for end < len(result) && result[end] != '&' && result[end] != ' ' && result[end] != '\n' {
			end++
		}
		if end > start {
			result = result[:start] + "[REDACTED]" + result[end:]
		}
	}
	return result
}

// NewSecureLogger creates a new secure logger
func NewSecureLogger(output io.Writer, level LogLevel, debug, quiet bool) *SecureLogger {
	logger := log.New(output, "", 0) // we handle our own formatting

	return &SecureLogger{
		logger: logger,
		level:  level,
		debug:  debug,
		quiet:  quiet,
		redactors: []Redactor{
			&TokenRedactor{},
			&URLRedactor{},
		},
	}
}

// NewDefaultLogger creates a logger with default settings
func NewDefaultLogger(debug, quiet bool) *SecureLogger {
	level := LogLevelInfo
	if debug {
		level = LogLevelDebug
	}
	if quiet {
		level = LogLevelError
	}

	return NewSecureLogger(os.Stderr, level, debug, quiet)
}

// redactSensitiveData applies all redactors to the input string
func (sl *SecureLogger) redactSensitiveData(input string) string {
	result := input
	for _, redactor := range sl.redactors {
		result = redactor.Redact(result)
	}
	return result
}

// formatMessage formats a log message with timestamp and caller information
func (sl *SecureLogger) formatMessage(level LogLevel, message string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	if sl.debug {
		// Add caller information for debug mode
		for depth := 3; depth <= 5; depth++ {
			_, file, line, ok := runtime.Caller(depth)
			if ok && !strings.Contains(file, "logger.go") {
				parts := strings.Split(file, "/")
				filename := parts[len(parts)-1]
				return fmt.Sprintf("[%s] %s %s:%d %s", timestamp, level.String(), filename, line, message)
			}
		}
	}

	return fmt.Sprintf("[%s] %s %s", timestamp, level.String(), message)
}

// shouldLog determines if a message should be logged based on level
func (sl *SecureLogger) shouldLog(level LogLevel) bool {
	if sl.quiet && level > LogLevelError {
		return false
	}
	return level <= sl.level
}

// Error logs an error message
func (sl *SecureLogger) Error(format string, args ...interface{}) {
	sl.logAt(LogLevelError, format, args...)
}

// Warn logs a warning message
func (sl *SecureLogger) Warn(format string, args ...interface{}) {
	sl.logAt(LogLevelWarn, format, args...)
}

// Info logs an info message
func (sl *SecureLogger) Info(format string, args ...interface{}) {
	sl.logAt(LogLevelInfo, format, args...)
}

// Debug logs a debug message
func (sl *SecureLogger) Debug(format string, args ...interface{}) {
	sl.logAt(LogLevelDebug, format, args...)
}

func (sl *SecureLogger) logAt(level LogLevel, format string, args ...interface{}) {
	if !sl.shouldLog(level) {
		return
	}

	message := fmt.Sprintf(format, args...)
	message = sl.redactSensitiveData(message)
	sl.logger.Print(sl.formatMessage(level, message))
}

// LogHTTPResponse logs an HTTP response with sensitive data redacted
func (sl *SecureLogger) LogHTTPResponse(resp *http.Response) {
	if !sl.shouldLog(LogLevelDebug) {
		return
	}

	url := ""
	if resp.Request != nil {
		url = sl.redactSensitiveData(resp.Request.URL.String())
	}
	sl.Debug("HTTP Response: %d for %s Location: %q", resp.StatusCode, url, resp.Header.Get("Location"))
}

// SetLevel sets the logging level
func (sl *SecureLogger) SetLevel(level LogLevel) {
	sl.level = level
}

// SetQuiet enables or disables quiet mode
func (sl *SecureLogger) SetQuiet(quiet bool) {
	sl.quiet = quiet
	if quiet {
		sl.level = LogLevelError
	}
}

// AddRedactor adds a custom redactor
func (sl *SecureLogger) AddRedactor(redactor Redactor) {
	sl.redactors = append(sl.redactors, redactor)
}
