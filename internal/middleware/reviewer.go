package middleware

import (
	"context"
	"net/http"
	"unicode/utf8"
)

type contextKey string

// ReviewerKey holds the reviewer identity asserted by the upstream gateway.
const ReviewerKey contextKey = "reviewer"

// ReviewerHeader is set by the gateway that authenticated the reviewer.
const ReviewerHeader = "X-Reviewer"

// AnonymousReviewer is recorded when no identity was asserted.
const AnonymousReviewer = "anonymous"

const maxReviewerBytes = 255

// ReviewerIdentity copies the reviewer header into the request context.
// No authentication happens here.
func ReviewerIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who := ReviewerName(r.Header.Get(ReviewerHeader))
		if who == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), ReviewerKey, who)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetReviewerFromContext returns the reviewer, or "" when none was asserted.
func GetReviewerFromContext(ctx context.Context) string {
	if who, ok := ctx.Value(ReviewerKey).(string); ok {
		return who
	}
	return ""
}

// ReviewerName sanitizes a reviewer identity and caps it at 255 bytes
// without splitting a rune.
func ReviewerName(raw string) string {
	who := SanitizeString(raw)
	if len(who) <= maxReviewerBytes {
		return who
	}
	cut := maxReviewerBytes
	for cut > 0 && !utf8.RuneStart(who[cut]) {
		cut--
	}
	return who[:cut]
}
