package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPassLimiter_AcquireRelease(t *testing.T) {
	limiter := NewPassLimiter(2, time.Second)
	ctx := context.Background()

	steps := []struct {
		name          string
		op            func() error
		wantActive    int
		wantAvailable int
	}{
		{"first acquire", func() error { return limiter.Acquire(ctx) }, 1, 1},
		{"second acquire", func() error { return limiter.Acquire(ctx) }, 2, 0},
		{"first release", func() error { limiter.Release(); return nil }, 1, 1},
		{"second release", func() error { limiter.Release(); return nil }, 0, 2},
	}

	for _, step := range steps {
		if err := step.op(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if got := limiter.ActiveCount(); got != step.wantActive {
			t.Errorf("%s: ActiveCount = %d, want %d", step.name, got, step.wantActive)
		}
		if got := limiter.Available(); got != step.wantAvailable {
			t.Errorf("%s: Available = %d, want %d", step.name, got, step.wantAvailable)
		}
	}
}

func TestPassLimiter_TimesOutWhenFull(t *testing.T) {
	limiter := NewPassLimiter(1, 100*time.Millisecond)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	start := time.Now()
	err := limiter.Acquire(ctx)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTooManyPasses) {
		t.Errorf("got %v, want ErrTooManyPasses", err)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("timeout too fast: %v", elapsed)
	}
}

func TestPassLimiter_NeverExceedsMax(t *testing.T) {
	const maxConcurrent = 3
	limiter := NewPassLimiter(maxConcurrent, time.Second)

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		maxObserved int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer limiter.Release()

			mu.Lock()
			maxObserved = max(maxObserved, limiter.ActiveCount())
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
		}()
	}
	wg.Wait()

	if maxObserved > maxConcurrent {
		t.Errorf("observed %d active, max %d", maxObserved, maxConcurrent)
	}
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount = %d, want 0", got)
	}
}

func TestPassLimiter_TryAcquire(t *testing.T) {
	limiter := NewPassLimiter(1, time.Second)

	if !limiter.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}
	if limiter.TryAcquire() {
		t.Error("second TryAcquire should fail")
		limiter.Release()
	}
	limiter.Release()
	if !limiter.TryAcquire() {
		t.Error("TryAcquire after Release should succeed")
	}
	limiter.Release()
}

func TestPassLimiter_ContextCancellation(t *testing.T) {
	limiter := NewPassLimiter(1, 5*time.Second)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- limiter.Acquire(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Error("Acquire did not return after cancellation")
	}
}

func TestPassLimiter_WaitForDrain(t *testing.T) {
	limiter := NewPassLimiter(2, time.Second)
	ctx := context.Background()
	_ = limiter.Acquire(ctx)
	_ = limiter.Acquire(ctx)

	done := make(chan error, 1)
	go func() { done <- limiter.WaitForDrain(context.Background()) }()

	limiter.Release()
	select {
	case <-done:
		t.Fatal("WaitForDrain returned with one pass active")
	case <-time.After(150 * time.Millisecond):
	}

	limiter.Release()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WaitForDrain: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("WaitForDrain did not complete")
	}
}

func TestPassLimiter_StatusAndDefaults(t *testing.T) {
	limiter := NewPassLimiter(0, 0)
	if got := limiter.MaxConcurrent(); got != DefaultMaxConcurrentPasses {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentPasses)
	}

	_ = limiter.Acquire(context.Background())
	defer limiter.Release()

	status := limiter.Status()
	want := PassLimiterStatus{Active: 1, Available: DefaultMaxConcurrentPasses - 1, MaxConcurrent: DefaultMaxConcurrentPasses}
	if status != want {
		t.Errorf("Status = %+v, want %+v", status, want)
	}
}
