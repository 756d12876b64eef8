package httputil

import (
	"context"
	"errors"
	"testing"
	"time"

	kerrors "github.com/matzehuels/kabelplan/pkg/errors"
)

func TestRetry(t *testing.T) {
	transient := Retryable(errors.New("transient"))
	permanent := errors.New("permanent")

	tests := []struct {
		name     string
		errs     []error
		want     error
		attempts int
	}{
		{"success", []error{nil}, nil, 1},
		{"recovers", []error{transient, nil}, nil, 2},
		{"exhausted", []error{transient, transient, transient}, transient, 3},
		{"permanent", []error{permanent}, permanent, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := 0
			err := Retry(context.Background(), 3, time.Millisecond, func() error {
				err := tt.errs[n]
				n++
				return err
			})
			if !errors.Is(err, tt.want) && err != tt.want {
				t.Errorf("Retry() = %v, want %v", err, tt.want)
			}
			if n != tt.attempts {
				t.Errorf("attempts = %d, want %d", n, tt.attempts)
			}
		})
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Hour, func() error {
		return Retryable(errors.New("down"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() = %v, want context.Canceled", err)
	}
}

func TestRetryableNil(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) != nil")
	}
}

func TestRetryHonoursRetryAfter(t *testing.T) {
	start := time.Now()
	n := 0
	_ = Retry(context.Background(), 2, time.Hour, func() error {
		n++
		return Retryable(&kerrors.RateLimitedError{RetryAfter: 1})
	})
	if n != 2 {
		t.Fatalf("attempts = %d, want 2", n)
	}
	if d := time.Since(start); d > time.Minute {
		t.Errorf("Retry() waited %v, want the Retry-After hint", d)
	}
}
