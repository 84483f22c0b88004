package mysql

import "strings"

// escapeLikePattern escapes special characters in LIKE patterns
func escapeLikePattern(s string) string {
	// escape backslash first, then the LIKE wildcards
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

// likeArg builds a lower-cased %term% argument
func likeArg(term string) string {
	return "%" + escapeLikePattern(strings.ToLower(strings.TrimSpace(term))) + "%"
}

// jsonOrEmpty keeps JSON columns valid when the payload is blank
func jsonOrEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "{}"
	}
	return s
}
