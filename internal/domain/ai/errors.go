package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrMalformedOutput indicates the provider answered with something that is not an assessment list.
var ErrMalformedOutput = errors.New("ai output malformed")
