package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketRefill(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tb := newTokenBucket(2, 1, clock)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestRateLimiterPerKeyAndSweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("alice:1.2.3.4"))
	assert.False(t, rl.Allow("alice:1.2.3.4"))
	assert.True(t, rl.Allow("bob:1.2.3.4"))

	now = now.Add(11 * time.Minute)
	rl.Sweep(10 * time.Minute)
	assert.Empty(t, rl.buckets)
}

func TestRateLimitMiddleware(t *testing.T) {
	h := ReviewerIdentity(RateLimitMiddleware(1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	do := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(ReviewerHeader, "alice")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusNoContent, do("/v1/submissions"))
	assert.Equal(t, http.StatusTooManyRequests, do("/v1/submissions"))
	assert.Equal(t, http.StatusNoContent, do("/health"))
}

func TestReviewerIdentity(t *testing.T) {
	var got string
	h := ReviewerIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetReviewerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ReviewerHeader, "  jane@example.com\x00 ")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "jane@example.com", got)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, got)
}

func TestReviewerIdentityKeepsRunesWhole(t *testing.T) {
	var got string
	h := ReviewerIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetReviewerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ReviewerHeader, strings.Repeat("é", 200))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("é", 127), got)

	assert.Equal(t, strings.Repeat("a", 255), ReviewerName(strings.Repeat("a", 300)))
	assert.Equal(t, "bob", ReviewerName(" bob "))
}

func TestValidators(t *testing.T) {
	require.NoError(t, ValidateSubmissionID("APP-2026-1A2B3C4D"))
	assert.Error(t, ValidateSubmissionID(""))
	assert.Error(t, ValidateSubmissionID("../etc"))

	require.NoError(t, ValidateControlID("GENAI-001.a"))
	assert.Error(t, ValidateControlID("a b"))

	assert.Equal(t, 50, ParseLimit("", 50, 500))
	assert.Equal(t, 10, ParseLimit("10", 50, 500))
	assert.Equal(t, 500, ParseLimit("9000", 50, 500))
	assert.Equal(t, 50, ParseLimit("-3", 50, 500))
}

func TestHealthHandler(t *testing.T) {
	checks := map[string]HealthChecker{
		"db":    CheckerFunc(func(context.Context) error { return nil }),
		"blobs": CheckerFunc(func(context.Context) error { return errors.New("down") }),
	}
	rec := httptest.NewRecorder()
	HealthHandler(checks)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"down"`)

	rec = httptest.NewRecorder()
	ReadinessHandler(map[string]HealthChecker{})(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
