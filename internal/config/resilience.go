package config

import (
	"errors"
	"net/http"
	"time"

	"ecwid_order_sync/internal/retry"

	"google.golang.org/api/googleapi"
)

// ResilienceConfig holds the retry policies for destination calls. Appends are
// deliberately absent: they are not idempotent and run exactly once.
type ResilienceConfig struct {
	SheetRead  retry.Config
	SheetSetup retry.Config
}

// DefaultResilienceConfig returns a fresh copy of the default retry policies.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		SheetRead: retry.Config{
			MaxRetries: 3,
			BaseDelay:  2 * time.Second,
			MaxDelay:   30 * time.Second,
			Timeout:    15 * time.Second,
			Retryable:  IsRetryableGoogleError,
		},
		SheetSetup: retry.Config{
			MaxRetries: 2,
			BaseDelay:  2 * time.Second,
			MaxDelay:   20 * time.Second,
			Timeout:    30 * time.Second,
			Retryable:  IsRetryableGoogleError,
		},
	}
}

// IsRetryableGoogleError reports whether a Google API failure is worth another
// attempt: rate limiting, server errors and transport failures are.
func IsRetryableGoogleError(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500
	}
	return true
}
