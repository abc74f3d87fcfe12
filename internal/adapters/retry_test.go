package adapters

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/lib/pq"

	cerrors "github.com/canonica-labs/identlab/internal/errors"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:       attempts,
		InitialDelay:      time.Millisecond,
		MaxDelay:          2 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

// TestIsRetryable classifies startup errors.
//
// Green-Flag: Refused connections are retried.
// Red-Flag: Authentication failures and cancellation are not.
func TestIsRetryable(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad conn", driver.ErrBadConn, true},
		{"net", refused, true},
		{"connection failed", cerrors.NewConnectionFailed("mysql", refused), true},
		{"auth", cerrors.NewConnectionFailed("postgres", &pq.Error{Code: "28P01"}), false},
		{"canceled", context.Canceled, false},
		{"execution", cerrors.NewExecutionFailed("SELECT 1", errors.New("syntax error")), false},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

// TestExecuteWithRetry_EventualSuccess verifies retries stop on success.
func TestExecuteWithRetry_EventualSuccess(t *testing.T) {
	calls := 0
	result := ExecuteWithRetry(context.Background(), fastRetry(5), func() error {
		calls++
		if calls < 3 {
			return driver.ErrBadConn
		}
		return nil
	})

	if !result.Success || result.Attempts != 3 || len(result.Errors) != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
}

// TestExecuteWithRetry_StopsOnPermanentError verifies no retry for answers.
//
// Red-Flag: A non-retryable error ends the loop after one attempt.
func TestExecuteWithRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	result := ExecuteWithRetry(context.Background(), fastRetry(5), func() error {
		calls++
		return errors.New("access denied")
	})

	if result.Success || calls != 1 {
		t.Errorf("expected a single failed attempt, got %d calls", calls)
	}
	var err error = &RetryableError{Result: result}
	if !errors.Is(err, result.LastError) {
		t.Error("expected RetryableError to unwrap to the last error")
	}
}

// TestExecuteWithRetry_Exhausted verifies the attempt bound.
func TestExecuteWithRetry_Exhausted(t *testing.T) {
	result := ExecuteWithRetry(context.Background(), fastRetry(3), func() error {
		return driver.ErrBadConn
	})
	if result.Success || result.Attempts != 3 {
		t.Errorf("expected 3 failed attempts, got %+v", result)
	}
}

// TestExecuteWithRetry_Cancelled verifies the context is honoured.
func TestExecuteWithRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := ExecuteWithRetry(ctx, fastRetry(3), func() error { return nil })
	if result.Success || !errors.Is(result.LastError, context.Canceled) {
		t.Errorf("expected cancellation, got %+v", result)
	}
}
