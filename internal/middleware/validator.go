package middleware

import (
	"fmt"
	"net/url"
	"strings"

	domain "github.com/veritaslab/aiprobe/internal/domain/analysis"
)

// Input validation and sanitization utilities

const maxContentBytes = 1 << 20 // 1 MiB of submitted content

// ValidationError marks a client-side input problem so the HTTP layer can
// answer 400 instead of 500.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ValidateContent checks the submitted content payload
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return Invalid("content cannot be empty")
	}
	if len(content) > maxContentBytes {
		return Invalid("content exceeds maximum size of %d bytes", maxContentBytes)
	}
	return nil
}

// ValidateContentType checks the content_type value against the known set
func ValidateContentType(raw string) (domain.ContentType, error) {
	if raw == "" {
		return domain.ContentText, nil // default
	}
	switch ct := domain.ContentType(strings.ToLower(raw)); ct {
	case domain.ContentText, domain.ContentImage, domain.ContentVideo,
		domain.ContentAudio, domain.ContentURL, domain.ContentDocument:
		return ct, nil
	}
	return "", Invalid("invalid content_type: %s (allowed: text, image, video, audio, url, document)", raw)
}

// ValidateTask checks the task value against the known set
func ValidateTask(raw string) (domain.Task, error) {
	if raw == "" {
		return domain.TaskAnalyze, nil // default
	}
	switch t := domain.Task(strings.ToLower(raw)); t {
	case domain.TaskAnalyze, domain.TaskFactCheck, domain.TaskSummarize:
		return t, nil
	}
	return "", Invalid("invalid task: %s (allowed: analyze, fact_check, summarize)", raw)
}

// ValidateMode checks the orchestration mode
func ValidateMode(raw string) (string, error) {
	switch strings.ToLower(raw) {
	case "", "single":
		return "single", nil
	case "consensus":
		return "consensus", nil
	}
	return "", Invalid("invalid mode: %s (allowed: single, consensus)", raw)
}

// ValidateURL validates and sanitizes URLs
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return Invalid("URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Invalid("invalid URL format: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return Invalid("invalid URL scheme: %s (allowed: http, https)", u.Scheme)
	}

	// Check for localhost/internal IPs (SSRF protection)
	host := strings.ToLower(u.Hostname())
	blocked := []string{"localhost", "127.0.0.1", "0.0.0.0", "[::]", "::1"}
	for _, b := range blocked {
		if strings.Contains(host, b) {
			return Invalid("localhost/internal IPs are not allowed")
		}
	}

	// Block private IP ranges (basic check)
	if strings.HasPrefix(host, "10.") ||
		strings.HasPrefix(host, "192.168.") ||
		strings.HasPrefix(host, "172.16.") ||
		strings.HasPrefix(host, "172.31.") {
		return Invalid("private IP ranges are not allowed")
	}

	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateTenantID validates tenant ID format
func ValidateTenantID(tenant string) error {
	if tenant == "" {
		return Invalid("tenant ID cannot be empty")
	}
	if len(tenant) > 64 {
		return Invalid("tenant ID too long (max 64 chars)")
	}
	for _, r := range tenant {
		ok := r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return Invalid("invalid tenant ID format (alphanumeric, dash, underscore only)")
		}
	}
	return nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
