package resilience

import (
	"testing"
	"time"

	"intraday-trader/internal/errors"
)

func testBreaker() *Breaker {
	return NewBreaker("history", BreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Cooldown:         time.Minute,
	})
}

func fail() error { return errors.ErrDataUnavailable }
func ok() error   { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := testBreaker()

	for i := 0; i < 3; i++ {
		if err := b.Do(fail); !errors.Is(err, errors.ErrDataUnavailable) {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if b.State() != BreakerOpen {
		t.Fatalf("state = %s, want OPEN after threshold", b.State())
	}

	// Requests are rejected without calling fn while open.
	called := false
	err := b.Do(func() error { called = true; return nil })
	if !errors.Is(err, errors.ErrDataUnavailable) {
		t.Fatalf("open circuit err = %v", err)
	}
	if called {
		t.Error("open circuit must not invoke fn")
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := testBreaker()

	for i := 0; i < 3; i++ {
		b.Do(fail)
	}

	// Advance past the cooldown.
	base := time.Now()
	b.now = func() time.Time { return base.Add(2 * time.Minute) }

	if err := b.Do(ok); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if b.State() != BreakerHalfOpen {
		t.Fatalf("state = %s, want HALF_OPEN after probe", b.State())
	}
	if err := b.Do(ok); err != nil {
		t.Fatalf("second probe: %v", err)
	}
	if b.State() != BreakerClosed {
		t.Fatalf("state = %s, want CLOSED after success threshold", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := testBreaker()
	for i := 0; i < 3; i++ {
		b.Do(fail)
	}
	base := time.Now()
	b.now = func() time.Time { return base.Add(2 * time.Minute) }

	b.Do(fail)
	if b.State() != BreakerOpen {
		t.Fatalf("state = %s, want OPEN after half-open failure", b.State())
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := testBreaker()
	b.Do(fail)
	b.Do(fail)
	b.Do(ok)
	b.Do(fail)
	b.Do(fail)
	if b.State() != BreakerClosed {
		t.Fatalf("state = %s, want CLOSED, interleaved successes reset the count", b.State())
	}
}
