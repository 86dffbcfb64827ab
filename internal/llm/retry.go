package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-renamer/internal/common"
)

// ErrRateLimited marks a remote refusal that is worth retrying later.
var ErrRateLimited = common.ErrRateLimited

// Outcome tags the result of one remote attempt.
type Outcome int

const (
	Success Outcome = iota
	Retryable
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Retryable:
		return "retryable"
	default:
		return "fatal"
	}
}

// StatusError is a non-2xx answer from the model endpoint.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-2xx status: %d: %s", e.Status, e.Body)
}

// rateLimitMarkers covers OpenAI-style and Zhipu/Moonshot-style bodies.
var rateLimitMarkers = []string{"rate limit", "rate_limit", "too many requests", "速率限制", "请求过于频繁"}

// Classify maps an attempt error to an Outcome. Only rate limiting is retryable;
// auth, network, decoding and schema failures are fatal.
func Classify(err error) Outcome {
	if err == nil {
		return Success
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Fatal
	}
	if errors.Is(err, ErrRateLimited) {
		return Retryable
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.Status == http.StatusTooManyRequests {
			return Retryable
		}
		body := strings.ToLower(se.Body)
		for _, m := range rateLimitMarkers {
			if strings.Contains(body, m) {
				return Retryable
			}
		}
	}
	return Fatal
}

// Backoff is the wait schedule between rate-limited attempts.
type Backoff struct {
	Initial    time.Duration
	Factor     float64
	MaxRetries int
}

// DefaultBackoff waits 60s, 90s, 135s across at most 3 retries (4 attempts).
func DefaultBackoff() Backoff {
	return Backoff{Initial: 60 * time.Second, Factor: 1.5, MaxRetries: 3}
}

// Attempt returns the wait after the n-th rate-limited attempt (0-based).
func (b Backoff) Attempt(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	return time.Duration(float64(b.Initial) * math.Pow(b.Factor, float64(n)))
}

// Total is the sum of every wait the schedule can impose.
func (b Backoff) Total() time.Duration {
	var d time.Duration
	for i := 0; i < b.MaxRetries; i++ {
		d += b.Attempt(i)
	}
	return d
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DefaultJitter returns a uniform courtesy delay in [1s, 3s].
func DefaultJitter() time.Duration {
	return time.Second + rand.N(2*time.Second+1)
}
