package apikey

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mutableSource lets tests swap the key set and count source calls.
type mutableSource struct {
	mu    sync.Mutex
	keys  []string
	err   error
	calls int
}

func (s *mutableSource) Keys(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out, nil
}

func (s *mutableSource) set(keys []string, err error) {
	s.mu.Lock()
	s.keys = keys
	s.err = err
	s.mu.Unlock()
}

func (s *mutableSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestValidateAcceptsConfiguredKey(t *testing.T) {
	v, err := NewValidator(context.Background(), StaticKeys{"alpha", "beta"}, Config{})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}

	if !v.Validate(context.Background(), "alpha") {
		t.Fatal("configured key rejected")
	}
	if !v.Validate(context.Background(), "beta") {
		t.Fatal("configured key rejected")
	}
	if v.Validate(context.Background(), "gamma") {
		t.Fatal("unknown key accepted")
	}
	if v.Validate(context.Background(), "") {
		t.Fatal("empty key accepted")
	}
}

func TestValidateEmptyKeySetRejectsEverything(t *testing.T) {
	v, err := NewValidator(context.Background(), StaticKeys{}, Config{})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if v.Validate(context.Background(), "anything") {
		t.Fatal("empty key set accepted a key")
	}
}

func TestNewValidatorProductionRequiresKeys(t *testing.T) {
	if _, err := NewValidator(context.Background(), StaticKeys{}, Config{ProductionMode: true}); err == nil {
		t.Fatal("production mode accepted empty key set")
	}
	if _, err := NewValidator(context.Background(), StaticKeys{""}, Config{ProductionMode: true}); err == nil {
		t.Fatal("production mode accepted all-empty key set")
	}
}

func TestNewValidatorSourceError(t *testing.T) {
	src := &mutableSource{err: errors.New("secret manager down")}
	if _, err := NewValidator(context.Background(), src, Config{}); err == nil {
		t.Fatal("construction succeeded with failing source")
	}
}

func TestValidateRefreshPicksUpRotatedKeys(t *testing.T) {
	current := time.Unix(1000, 0)
	src := &mutableSource{keys: []string{"old-key"}}

	v, err := NewValidator(context.Background(), src, Config{
		RefreshInterval: time.Minute,
		Now:             func() time.Time { return current },
	})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}

	src.set([]string{"new-key"}, nil)

	// Inside the interval the old set still answers.
	if !v.Validate(context.Background(), "old-key") {
		t.Fatal("old key rejected before interval elapsed")
	}
	if v.Validate(context.Background(), "new-key") {
		t.Fatal("new key accepted before interval elapsed")
	}

	current = current.Add(time.Minute)

	if !v.Validate(context.Background(), "new-key") {
		t.Fatal("rotated key rejected after refresh")
	}
	if v.Validate(context.Background(), "old-key") {
		t.Fatal("rotated-out key still accepted")
	}
}

func TestInvalidateCacheForcesRefresh(t *testing.T) {
	src := &mutableSource{keys: []string{"old-key"}}
	v, err := NewValidator(context.Background(), src, Config{RefreshInterval: time.Hour})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}

	src.set([]string{"new-key"}, nil)
	v.InvalidateCache()

	if !v.Validate(context.Background(), "new-key") {
		t.Fatal("invalidate did not force a refresh")
	}
}

func TestRefreshFailureKeepsPreviousSet(t *testing.T) {
	var warned bool
	src := &mutableSource{keys: []string{"alpha"}}
	v, err := NewValidator(context.Background(), src, Config{
		RefreshInterval: time.Hour,
		Warn:            func(string, ...any) { warned = true },
	})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}

	src.set(nil, errors.New("secret manager down"))
	v.InvalidateCache()

	if !v.Validate(context.Background(), "alpha") {
		t.Fatal("previous set dropped on refresh failure")
	}
	if !warned {
		t.Fatal("refresh failure not reported to warn hook")
	}
}

func TestKeyCountSkipsEmptyKeys(t *testing.T) {
	v, err := NewValidator(context.Background(), StaticKeys{"a", "", "b"}, Config{})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if got := v.KeyCount(); got != 2 {
		t.Fatalf("expected 2 keys, got %d", got)
	}
}

// Rejection time must not depend on how the candidate is wrong. The
// hash-then-compare design keeps every comparison over fixed-size digests,
// so a wrong-length candidate and a wrong-content candidate of the correct
// length should cost the same. The tolerance is deliberately wide; this
// catches a structural regression (an early length bailout), not scheduler
// noise.
func TestValidateTimingUniform(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical timing test")
	}

	const configured = "service-key-0123456789abcdef"
	v, err := NewValidator(context.Background(), StaticKeys{configured}, Config{})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	ctx := context.Background()

	wrongContent := "Xervice-key-0123456789abcdef" // same length as configured
	wrongLength := "no"

	measure := func(candidate string) time.Duration {
		const iters = 5000
		best := time.Duration(1 << 62)
		// Best of several rounds filters out scheduler interference.
		for round := 0; round < 5; round++ {
			start := time.Now()
			for i := 0; i < iters; i++ {
				if v.Validate(ctx, candidate) {
					t.Fatalf("candidate %q unexpectedly accepted", candidate)
				}
			}
			if d := time.Since(start); d < best {
				best = d
			}
		}
		return best
	}

	// Warm up both paths before measuring.
	measure(wrongContent)

	content := measure(wrongContent)
	length := measure(wrongLength)

	slow, fast := content, length
	if slow < fast {
		slow, fast = fast, slow
	}
	if fast == 0 {
		fast = 1
	}
	if ratio := float64(slow) / float64(fast); ratio > 5 {
		t.Fatalf("rejection timing differs by factor %.1f (content %v, length %v)", ratio, content, length)
	}
}
