package github

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError represents a rate limit exceeded error with reset time.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
	Limit     int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github: rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// FetchError represents a failed GitHub API request.
type FetchError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("github: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// NormalizationError represents a webhook delivery that could not be
// converted into a candidate event.
type NormalizationError struct {
	EventType string
	Reason    string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("github: cannot normalise %q delivery: %s", e.EventType, e.Reason)
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode == 404
	}
	return false
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode == 401
	}
	return false
}

// IsNormalization checks if the error came from webhook normalisation.
func IsNormalization(err error) bool {
	var normErr *NormalizationError
	return errors.As(err, &normErr)
}
