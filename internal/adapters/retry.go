package adapters

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	cerrors "github.com/canonica-labs/identlab/internal/errors"
)

// RetryConfig configures the startup connectivity wait.
//
// Retries are only used while the process starts and the stores may still be
// booting. The request path never retries.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including first try).
	// Default: 10
	MaxAttempts int

	// InitialDelay is the initial delay between attempts.
	// Default: 250ms
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between attempts.
	// Default: 5s
	MaxDelay time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	// Default: 2.0
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the startup wait used by serve and migrate.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       10,
		InitialDelay:      250 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryResult contains the result of a retry operation.
type RetryResult struct {
	// Attempts is the number of attempts made.
	Attempts int

	// LastError is the last error encountered (nil if successful).
	LastError error

	// Errors contains all errors from each attempt.
	Errors []error

	// Success indicates whether the operation ultimately succeeded.
	Success bool
}

// String provides a human-readable summary of the retry result.
func (r RetryResult) String() string {
	if r.Success {
		if r.Attempts == 1 {
			return "succeeded on first attempt"
		}
		return fmt.Sprintf("succeeded after %d attempts", r.Attempts)
	}
	return fmt.Sprintf("failed after %d attempts: %v", r.Attempts, r.LastError)
}

// RetryableError wraps an error with retry information.
type RetryableError struct {
	Result RetryResult
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Result.Attempts, e.Result.LastError)
}

func (e *RetryableError) Unwrap() error {
	return e.Result.LastError
}

// IsRetryable reports whether err looks like a store that is not up yet.
//
// Returns true for:
//   - connection failures raised by an adapter
//   - driver.ErrBadConn and mysql.ErrInvalidConn
//   - network errors (refused, unreachable, timeouts)
//
// Returns false for context cancellation and for anything the store
// answered, such as authentication or syntax errors.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var cf *cerrors.ErrConnectionFailed
	if errors.As(err, &cf) {
		// Authentication failures also surface as connection errors but
		// carry a driver error the store produced.
		return DriverCode(cf.Cause) == CodeUnknown
	}

	return false
}

// ExecuteWithRetry executes fn until it succeeds, fails with a
// non-retryable error, or runs out of attempts.
//
// Usage:
//
//	result := adapters.ExecuteWithRetry(ctx, adapters.DefaultRetryConfig(), func() error {
//	    return adapter.Ping(ctx)
//	})
//	if !result.Success {
//	    return fmt.Errorf("store not reachable: %w", &adapters.RetryableError{Result: result})
//	}
func ExecuteWithRetry(ctx context.Context, config RetryConfig, fn func() error) RetryResult {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 10
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 250 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 5 * time.Second
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = 2.0
	}

	result := RetryResult{
		Errors: make([]error, 0, config.MaxAttempts),
	}

	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		result.Attempts = attempt

		if ctx.Err() != nil {
			result.LastError = ctx.Err()
			result.Errors = append(result.Errors, ctx.Err())
			return result
		}

		err := fn()
		if err == nil {
			result.Success = true
			return result
		}

		result.LastError = err
		result.Errors = append(result.Errors, err)

		if !IsRetryable(err) {
			return result
		}

		if attempt < config.MaxAttempts {
			select {
			case <-ctx.Done():
				result.LastError = ctx.Err()
				result.Errors = append(result.Errors, ctx.Err())
				return result
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * config.BackoffMultiplier)
				if delay > config.MaxDelay {
					delay = config.MaxDelay
				}
			}
		}
	}

	return result
}

// WaitForStores pings every distinct adapter in the registry with retries.
// It returns the first store that never came up.
func WaitForStores(ctx context.Context, registry *AdapterRegistry, config RetryConfig) error {
	for _, adapter := range registry.unique() {
		a := adapter
		result := ExecuteWithRetry(ctx, config, func() error {
			return a.Ping(ctx)
		})
		if !result.Success {
			return fmt.Errorf("%s not reachable: %w", a.Name(), &RetryableError{Result: result})
		}
	}
	return nil
}
