package internal

import (
	"bytes"
	"strings"
	"testing"
)

func TestSecureLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, LogLevelWarn, false, false)

	logger.Error("error message")
	logger.Warn("warn message")
	logger.Info("info message")
	logger.Debug("debug message")

	output := buf.String()
	if !strings.Contains(output, "error message") {
		t.Errorf("expected error logged at warn level")
	}
	if !strings.Contains(output, "warn message") {
		t.Errorf("expected warning logged at warn level")
	}
	if strings.Contains(output, "info message") {
		t.Errorf("expected info suppressed at warn level")
	}
	if strings.Contains(output, "debug message") {
		t.Errorf("expected debug suppressed at warn level")
	}
}

func TestSecureLogger_QuietMode(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, LogLevelDebug, false, true)

	logger.Error("error message")
	logger.Info("info message")

	output := buf.String()
	if !strings.Contains(output, "error message") {
		t.Errorf("expected errors to pass through quiet mode")
	}
	if strings.Contains(output, "info message") {
		t.Errorf("expected info suppressed in quiet mode")
	}
}

func TestSecureLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, LogLevelError, false, false)

	logger.Info("before")
	logger.SetLevel(LogLevelInfo)
	logger.Info("after")

	output := buf.String()
	if strings.Contains(output, "before") {
		t.Errorf("expected info suppressed before SetLevel")
	}
	if !strings.Contains(output, "after") {
		t.Errorf("expected info logged after SetLevel")
	}
}

func TestTokenRedactor(t *testing.T) {
	redactor := &TokenRedactor{}

	tests := []struct {
		name   string
		input  string
		hidden string
	}{
		{
			name:   "json_url_field",
			input:  `{"url":"T0JGVVNDQVRFRA==","timestamp":1700000000}`,
			hidden: "T0JGVVNDQVRFRA==",
		},
		{
			name:   "json_token_field",
			input:  `{"token":"abc123secret"}`,
			hidden: "abc123secret",
		},
		{
			name:   "authorization_header",
			input:  "Authorization: Bearer xyz789",
			hidden: "xyz789",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := redactor.Redact(tt.input)
			if strings.Contains(result, tt.hidden) {
				t.Errorf("expected %q redacted, got %q", tt.hidden, result)
			}
			if !strings.Contains(result, "[REDACTED]") {
				t.Errorf("expected redaction marker, got %q", result)
			}
		})
	}
}

func TestURLRedactor(t *testing.T) {
	redactor := &URLRedactor{}

	input := "https://cdn.example/file.mp4?token=secret123&expires=1700000000"
	result := redactor.Redact(input)

	if strings.Contains(result, "secret123") {
		t.Errorf("expected token redacted, got %q", result)
	}
	if strings.Contains(result, "1700000000") {
		t.Errorf("expected expires redacted, got %q", result)
	}
	if !strings.Contains(result, "https://cdn.example/file.mp4") {
		t.Errorf("expected URL path kept, got %q", result)
	}
}

func TestSecureLogger_RedactsInOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, LogLevelInfo, false, false)

	logger.Info("resolved %s", "https://cdn.example/file.mp4?token=secret123")

	output := buf.String()
	if strings.Contains(output, "secret123") {
		t.Errorf("expected sensitive data redacted in log output, got %q", output)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"error", LogLevelError},
		{"DEBUG", LogLevelDebug},
		{"unknown", LogLevelInfo},
		{"", LogLevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.expected {
			t.Errorf("parseLogLevel(%q): expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}
