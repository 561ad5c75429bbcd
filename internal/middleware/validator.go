package middleware

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Input validation and sanitization utilities

var userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// MaxQueryLen bounds the ?q= search term
const MaxQueryLen = 200

// ValidateUserID validates user ID format
func ValidateUserID(user string) error {
	if user == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if !userIDPattern.MatchString(user) {
		return fmt.Errorf("invalid user ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateScriptID validates saved script IDs, which are UUIDs
func ValidateScriptID(id string) error {
	if id == "" {
		return fmt.Errorf("script ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid script ID format")
	}
	return nil
}

// ValidateQuery cleans a search term
func ValidateQuery(q string) (string, error) {
	q = SanitizeString(q)
	if utf8.RuneCountInString(q) > MaxQueryLen {
		return "", fmt.Errorf("query too long (max %d chars)", MaxQueryLen)
	}
	return q, nil
}

// ValidateFormat accepts the text export formats
func ValidateFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", "full":
		return "full", nil
	case "script":
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: %s (allowed: script, full)", format)
	}
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
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
