package breaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func fixedClock(start time.Time) (func() time.Time, func(d time.Duration)) {
	current := start
	now := func() time.Time { return current }
	advance := func(d time.Duration) { current = current.Add(d) }
	return now, advance
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	now, _ := fixedClock(time.Unix(1000, 0))
	b := New("test", Config{FailureThreshold: 3, Now: now})

	for i := 0; i < 3; i++ {
		if err := b.Do(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: expected boom, got %v", i, err)
		}
	}

	if got := b.State(); got != StateOpen {
		t.Fatalf("expected OPEN after threshold, got %v", got)
	}

	called := false
	err := b.Do(func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	if called {
		t.Fatal("protected operation invoked while open")
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New("test", Config{FailureThreshold: 3})

	_ = b.Do(func() error { return errBoom })
	_ = b.Do(func() error { return errBoom })
	_ = b.Do(func() error { return nil })
	_ = b.Do(func() error { return errBoom })
	_ = b.Do(func() error { return errBoom })

	if got := b.State(); got != StateClosed {
		t.Fatalf("expected CLOSED, got %v", got)
	}
}

func TestBreakerHalfOpenAfterResetTimeout(t *testing.T) {
	now, advance := fixedClock(time.Unix(1000, 0))
	b := New("test", Config{FailureThreshold: 1, SuccessThreshold: 2, ResetTimeout: 10 * time.Second, Now: now})

	_ = b.Do(func() error { return errBoom })
	if got := b.State(); got != StateOpen {
		t.Fatalf("expected OPEN, got %v", got)
	}

	advance(9 * time.Second)
	if got := b.State(); got != StateOpen {
		t.Fatalf("expected OPEN before reset timeout, got %v", got)
	}

	advance(time.Second)
	if got := b.State(); got != StateHalfOpen {
		t.Fatalf("expected HALF_OPEN after reset timeout, got %v", got)
	}
}

func TestBreakerClosesAfterTrialSuccesses(t *testing.T) {
	now, advance := fixedClock(time.Unix(1000, 0))
	b := New("test", Config{FailureThreshold: 1, SuccessThreshold: 2, ResetTimeout: time.Second, Now: now})

	_ = b.Do(func() error { return errBoom })
	advance(time.Second)

	for i := 0; i < 2; i++ {
		if err := b.Do(func() error { return nil }); err != nil {
			t.Fatalf("trial %d failed: %v", i, err)
		}
	}

	if got := b.State(); got != StateClosed {
		t.Fatalf("expected CLOSED after trial successes, got %v", got)
	}
}

func TestBreakerReopensOnTrialFailure(t *testing.T) {
	now, advance := fixedClock(time.Unix(1000, 0))
	b := New("test", Config{FailureThreshold: 1, SuccessThreshold: 2, ResetTimeout: time.Second, Now: now})

	_ = b.Do(func() error { return errBoom })
	advance(time.Second)

	if err := b.Do(func() error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := b.State(); got != StateOpen {
		t.Fatalf("expected OPEN after trial failure, got %v", got)
	}
}

func TestBreakerHalfOpenBoundsTrials(t *testing.T) {
	now, advance := fixedClock(time.Unix(1000, 0))
	b := New("test", Config{FailureThreshold: 1, SuccessThreshold: 1, ResetTimeout: time.Second, Now: now})

	_ = b.Do(func() error { return errBoom })
	advance(time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = b.Do(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// One trial is in flight and the threshold is 1, so this call must be
	// rejected without waiting.
	if err := b.Do(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen for excess trial, got %v", err)
	}
	close(release)
}

func TestBreakerSnapshot(t *testing.T) {
	b := New("revocation-lookup", Config{})
	snap := b.Snapshot()
	if snap.Name != "revocation-lookup" {
		t.Fatalf("unexpected name %q", snap.Name)
	}
	if snap.State != StateClosed {
		t.Fatalf("expected CLOSED, got %v", snap.State)
	}
}

func TestStateString(t *testing.T) {
	if StateClosed.String() != "CLOSED" || StateOpen.String() != "OPEN" || StateHalfOpen.String() != "HALF_OPEN" {
		t.Fatal("unexpected state strings")
	}
}
