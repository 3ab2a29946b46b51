package circuit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestOpensAfterThresholdAndHalfOpenAdmitsOneProbe(t *testing.T) {
	b := New(Config{FailureThreshold: 3, RecoveryTimeout: 20 * time.Millisecond})
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_ = b.Execute(context.Background(), func(context.Context) error { return boom })
	}
	if b.State() != Open {
		t.Fatalf("state = %v, want Open after %d failures", b.State(), 3)
	}

	if err := b.Execute(context.Background(), func(context.Context) error { return nil }); err != ErrOpen {
		t.Fatalf("expected ErrOpen while recovery timeout has not elapsed, got %v", err)
	}

	time.Sleep(25 * time.Millisecond)

	if err := b.Execute(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("expected the first post-timeout call to be admitted, got %v", err)
	}
	if b.State() != Closed {
		t.Fatalf("state = %v, want Closed after a successful probe", b.State())
	}
}

func TestHalfOpenAdmitsExactlyOneConcurrentProbe(t *testing.T) {
	b := New(Config{FailureThreshold: 1, RecoveryTimeout: 10 * time.Millisecond})
	_ = b.Execute(context.Background(), func(context.Context) error { return errors.New("boom") })
	time.Sleep(15 * time.Millisecond)

	release := make(chan struct{})
	var wg sync.WaitGroup
	results := make([]error, 5)

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = b.Execute(context.Background(), func(context.Context) error {
				<-release
				return nil
			})
		}(i)
	}

	time.Sleep(10 * time.Millisecond) // let all goroutines reach admit()
	close(release)
	wg.Wait()

	admitted := 0
	for _, err := range results {
		if err == nil {
			admitted++
		}
	}
	if admitted != 1 {
		t.Fatalf("admitted = %d concurrent probes, want exactly 1", admitted)
	}
}

func TestHalfOpenFailureReopensAndResetsTimer(t *testing.T) {
	b := New(Config{FailureThreshold: 1, RecoveryTimeout: 10 * time.Millisecond})
	_ = b.Execute(context.Background(), func(context.Context) error { return errors.New("boom") })
	time.Sleep(15 * time.Millisecond)

	_ = b.Execute(context.Background(), func(context.Context) error { return errors.New("probe failed") })
	if b.State() != Open {
		t.Fatalf("state = %v, want Open after a failed probe", b.State())
	}
	if err := b.Execute(context.Background(), func(context.Context) error { return nil }); err != ErrOpen {
		t.Fatalf("expected ErrOpen immediately after reopening, got %v", err)
	}
}

func TestSuccessInClosedResetsFailureCounter(t *testing.T) {
	b := New(Config{FailureThreshold: 2, RecoveryTimeout: time.Second})
	_ = b.Execute(context.Background(), func(context.Context) error { return errors.New("boom") })
	_ = b.Execute(context.Background(), func(context.Context) error { return nil })
	_ = b.Execute(context.Background(), func(context.Context) error { return errors.New("boom") })
	if b.State() != Closed {
		t.Fatalf("state = %v, want Closed: a success should have reset the failure counter", b.State())
	}
}

func TestRegistryGetIsIdempotent(t *testing.T) {
	r := NewRegistry(Config{FailureThreshold: 2})
	a := r.Get("svc")
	b := r.Get("svc")
	if a != b {
		t.Fatal("expected the same breaker instance for repeated Get calls")
	}
}
