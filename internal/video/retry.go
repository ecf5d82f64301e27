package video

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/yoomapp/yoom-web/internal/metrics"
)

// Retry schedule for provider calls. Attempts counts the first call.
const (
	retryAttempts     = 4
	retryInitialDelay = 250 * time.Millisecond
	retryMaxDelay     = 2 * time.Second
)

// statusError is a non-2xx provider response.
type statusError struct {
	StatusCode int
	Message    string
}

func (e *statusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("video provider status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("video provider status %d", e.StatusCode)
}

func isTransientError(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func retryReason(err error) string {
	var se *statusError
	if errors.As(err, &se) {
		return fmt.Sprintf("status_%d", se.StatusCode)
	}
	return "timeout"
}

// retryBackOff builds the delay policy for one retryVideo call.
var retryBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialDelay
	b.MaxInterval = retryMaxDelay
	b.Multiplier = 2
	return b
}

// retryVideo runs fn until it succeeds, fails with a non-transient error,
// or exhausts retryAttempts.
func retryVideo(ctx context.Context, log zerolog.Logger, opName string, fn func(context.Context) error) error {
	var tries int
	op := func() (struct{}, error) {
		tries++
		err := fn(ctx)
		if err != nil && !isTransientError(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}
	notify := func(err error, delay time.Duration) {
		metrics.Default().VideoRetries.WithLabelValues(opName, retryReason(err)).Inc()
		log.Warn().Err(err).Str("op", opName).Int("attempt", tries).Int64("delay_ms", delay.Milliseconds()).Msg("video retry")
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(retryBackOff()),
		backoff.WithMaxTries(retryAttempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	if err == nil {
		return nil
	}
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Unwrap()
	}
	if tries == retryAttempts && isTransientError(err) {
		metrics.Default().VideoRetryExhausted.WithLabelValues(opName).Inc()
	}
	return err
}
