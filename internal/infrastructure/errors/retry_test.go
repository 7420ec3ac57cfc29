package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"sidedock/internal/testutils"
)

type recordingRetryLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingRetryLogger) Printf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf(format, v...))
}

func fastConfig() *RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	cfg.Jitter = false
	return cfg
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	if cfg.MaxAttempts != 3 {
		t.Errorf("Expected MaxAttempts 3, got %d", cfg.MaxAttempts)
	}
	if cfg.BackoffFactor != 2.0 {
		t.Errorf("Expected BackoffFactor 2.0, got %f", cfg.BackoffFactor)
	}

	found := false
	for _, code := range cfg.RetryableErrors {
		if code == ErrCodeBusy {
			found = true
		}
	}
	if !found {
		t.Error("Expected default config to retry busy errors")
	}
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name          string
		failures      int
		code          ErrorCode
		expectErr     bool
		expectedCalls int
	}{
		{"succeeds first try", 0, ErrCodeBusy, false, 1},
		{"succeeds after busy", 2, ErrCodeBusy, false, 3},
		{"exhausts attempts", 5, ErrCodeBusy, true, 3},
		{"non-retryable code stops", 5, ErrCodeValidation, true, 1},
		{"retryable code not in list stops", 5, ErrCodeDiskSpace, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), fastConfig(), func() error {
				calls++
				if calls <= tt.failures {
					return New("TogglePin", errors.New("failure"), tt.code)
				}
				return nil
			})

			if (err != nil) != tt.expectErr {
				t.Errorf("WithRetry() error = %v, expectErr %v", err, tt.expectErr)
			}
			if calls != tt.expectedCalls {
				t.Errorf("Expected %d calls, got %d", tt.expectedCalls, calls)
			}
		})
	}
}

func TestWithRetry_PlainErrorIsNotRetried(t *testing.T) {
	calls := 0
	plain := errors.New("database is locked")
	err := WithRetry(context.Background(), fastConfig(), func() error {
		calls++
		return plain
	})

	if !errors.Is(err, plain) {
		t.Errorf("Expected original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestWithRetry_NilConfigUsesDefaults(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), nil, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("Expected one successful call, got calls=%d err=%v", calls, err)
	}
}

func TestWithRetryContext_WrapsLastError(t *testing.T) {
	busy := New("TogglePin", errors.New("locked"), ErrCodeBusy)
	err := WithRetryContext(context.Background(), fastConfig(), func() error { return busy }, "TogglePin")

	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "operation 'TogglePin' failed after 3 attempts") {
		t.Errorf("Unexpected error message: %v", err)
	}
	if !IsBusy(err) {
		t.Error("Expected wrapped error to keep busy classification")
	}
}

func TestWithRetryContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig()
	cfg.InitialDelay = time.Second
	cfg.MaxDelay = time.Second

	calls := 0
	err := WithRetryContext(ctx, cfg, func() error {
		calls++
		cancel()
		return New("ListPins", errors.New("locked"), ErrCodeBusy)
	}, "ListPins")

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call before cancellation, got %d", calls)
	}
}

func TestWithRetry_LogsThroughConfigLogger(t *testing.T) {
	logger := &recordingRetryLogger{}
	cfg := fastConfig().WithLogger(logger)

	calls := 0
	err := WithRetryContext(context.Background(), cfg, func() error {
		calls++
		if calls == 1 {
			return New("TogglePin", errors.New("locked"), ErrCodeBusy)
		}
		return nil
	}, "TogglePin")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(logger.messages) != 2 {
		t.Fatalf("Expected 2 log messages, got %d: %v", len(logger.messages), logger.messages)
	}
	if !strings.Contains(logger.messages[0], "attempt 1/3") {
		t.Errorf("Expected retry message, got %q", logger.messages[0])
	}
	if !strings.Contains(logger.messages[1], "succeeded after 2 attempts") {
		t.Errorf("Expected success message, got %q", logger.messages[1])
	}
}

func TestRetryConfig_WithLoggerCopies(t *testing.T) {
	base := fastConfig()
	withLogger := base.WithLogger(&recordingRetryLogger{})

	if base.Logger != nil {
		t.Error("WithLogger should not mutate the receiver")
	}
	if withLogger.Logger == nil {
		t.Error("WithLogger should set the logger on the copy")
	}
}

func TestCalculateDelay(t *testing.T) {
	cfg := &RetryConfig{
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      300 * time.Millisecond,
		BackoffFactor: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 300 * time.Millisecond},
		{5, 300 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := calculateDelay(tt.attempt, cfg); got != tt.expected {
				t.Errorf("calculateDelay(%d) = %v, expected %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestCalculateDelay_JitterBounds(t *testing.T) {
	cfg := &RetryConfig{
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}

	for i := 0; i < 20; i++ {
		got := calculateDelay(0, cfg)
		if got < 100*time.Millisecond || got > 125*time.Millisecond {
			t.Fatalf("delay with jitter out of bounds: %v", got)
		}
	}
}

func TestLoggerBridge(t *testing.T) {
	rec := &testutils.RecordingLogger{}
	bridge := NewLoggerBridge(rec)

	bridge.Printf("Operation '%s' failed (attempt %d/%d)", "TogglePin", 1, 3)

	calls := rec.Calls("WARN")
	if len(calls) != 1 {
		t.Fatalf("Expected 1 warn call, got %d", len(calls))
	}
	if calls[0].Msg != "Operation 'TogglePin' failed (attempt 1/3)" {
		t.Errorf("Unexpected message: %q", calls[0].Msg)
	}

	fields := testutils.FieldsToMap(t, calls[0].Fields)
	if fields["component"] != "retry" {
		t.Errorf("Expected component=retry, got %v", fields["component"])
	}

	// nil logger is tolerated
	NewLoggerBridge(nil).Printf("ignored")
}
