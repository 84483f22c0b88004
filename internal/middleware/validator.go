package middleware

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	submissionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	controlIDPattern    = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)
)

// ValidateSubmissionID validates submission ID format
func ValidateSubmissionID(id string) error {
	if id == "" {
		return fmt.Errorf("submission ID cannot be empty")
	}
	if !submissionIDPattern.MatchString(id) {
		return fmt.Errorf("invalid submission ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateControlID validates control ID format
func ValidateControlID(id string) error {
	if id == "" {
		return fmt.Errorf("control ID cannot be empty")
	}
	if !controlIDPattern.MatchString(id) {
		return fmt.Errorf("invalid control ID format")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ParseLimit parses a limit query value; blank means the default
func ParseLimit(raw string, def, maxLimit int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}
