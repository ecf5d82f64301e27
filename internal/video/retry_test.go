package video

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/yoomapp/yoom-web/internal/metrics"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "rate limited", err: &statusError{StatusCode: http.StatusTooManyRequests}, want: true},
		{name: "bad gateway", err: &statusError{StatusCode: http.StatusBadGateway}, want: true},
		{name: "service unavailable", err: &statusError{StatusCode: http.StatusServiceUnavailable}, want: true},
		{name: "gateway timeout", err: &statusError{StatusCode: http.StatusGatewayTimeout}, want: true},
		{name: "bad request", err: &statusError{StatusCode: http.StatusBadRequest}, want: false},
		{name: "unauthorized", err: &statusError{StatusCode: http.StatusUnauthorized}, want: false},
		{name: "network timeout", err: timeoutErr{}, want: true},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isTransientError(tt.err)
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryVideo_NonTransientDoesNotRetry(t *testing.T) {
	attempts := 0
	err := retryVideo(context.Background(), zerolog.Nop(), "get_or_create_call", func(context.Context) error {
		attempts++
		return &statusError{StatusCode: http.StatusBadRequest, Message: "bad request"}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetryVideo_TransientThenSuccess(t *testing.T) {
	metrics.ResetDefaultForTest()
	withZeroBackOff(t)
	attempts := 0
	err := retryVideo(context.Background(), zerolog.Nop(), "update_call", func(context.Context) error {
		attempts++
		if attempts == 1 {
			return &statusError{StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	got := testutil.ToFloat64(metrics.Default().VideoRetries.WithLabelValues("update_call", "status_503"))
	if got != 1 {
		t.Fatalf("expected 1 retry recorded, got %v", got)
	}
}

func TestRetryVideo_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := retryVideo(ctx, zerolog.Nop(), "get_or_create_call", func(context.Context) error {
		attempts++
		cancel()
		return &statusError{StatusCode: http.StatusTooManyRequests}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetryVideo_ExhaustsTransientErrors(t *testing.T) {
	metrics.ResetDefaultForTest()
	withZeroBackOff(t)
	attempts := 0
	err := retryVideo(context.Background(), zerolog.Nop(), "get_or_create_call", func(context.Context) error {
		attempts++
		return &statusError{StatusCode: http.StatusTooManyRequests}
	})
	var se *statusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 statusError, got %v", err)
	}
	if attempts != retryAttempts {
		t.Fatalf("expected %d attempts, got %d", retryAttempts, attempts)
	}
	if got := testutil.ToFloat64(metrics.Default().VideoRetries.WithLabelValues("get_or_create_call", "status_429")); got != retryAttempts-1 {
		t.Fatalf("expected %d retries recorded, got %v", retryAttempts-1, got)
	}
	if got := testutil.ToFloat64(metrics.Default().VideoRetryExhausted.WithLabelValues("get_or_create_call")); got != 1 {
		t.Fatalf("expected exhaustion recorded once, got %v", got)
	}
}

func TestRetryVideo_NonTransientAfterRetryIsUnwrapped(t *testing.T) {
	withZeroBackOff(t)
	attempts := 0
	err := retryVideo(context.Background(), zerolog.Nop(), "update_call", func(context.Context) error {
		attempts++
		if attempts < retryAttempts {
			return timeoutErr{}
		}
		return &statusError{StatusCode: http.StatusNotFound, Message: "call not found"}
	})
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		t.Fatalf("expected unwrapped provider error, got %T", err)
	}
	var se *statusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 statusError, got %v", err)
	}
}

func TestRetryBackOffSchedule(t *testing.T) {
	b := retryBackOff()
	for i := 0; i < 8; i++ {
		d := b.NextBackOff()
		if d <= 0 || d > retryMaxDelay+retryMaxDelay/2 {
			t.Fatalf("delay %d = %v outside (0, %v]", i, d, retryMaxDelay+retryMaxDelay/2)
		}
	}
}

func withZeroBackOff(t *testing.T) {
	t.Helper()
	prev := retryBackOff
	retryBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	t.Cleanup(func() { retryBackOff = prev })
}
