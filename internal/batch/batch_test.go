package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunPreservesOrder(t *testing.T) {
	ctx := context.Background()

	// Later indices finish first, results must still land in index order.
	out, err := Run(ctx, 5, func(ctx context.Context, i int) (string, error) {
		time.Sleep(time.Duration(5-i) * time.Millisecond)
		return fmt.Sprintf("result-%d", i), nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 results, got %d", len(out))
	}
	for i, v := range out {
		if want := fmt.Sprintf("result-%d", i); v != want {
			t.Fatalf("slot %d: got %q, want %q", i, v, want)
		}
	}
}

func TestRunFailFast(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	out, err := Run(ctx, 4, func(ctx context.Context, i int) (int, error) {
		if i == 2 {
			return 0, boom
		}
		return i * 10, nil
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if out != nil {
		t.Fatal("partial results must be discarded on failure")
	}

	var ie *IndexedError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IndexedError, got %T", err)
	}
	if ie.Index != 2 {
		t.Fatalf("expected failing index 2, got %d", ie.Index)
	}
	if !errors.Is(err, boom) {
		t.Fatal("expected wrapped cause")
	}
}

func TestRunAllTasksComplete(t *testing.T) {
	ctx := context.Background()
	var completed atomic.Int64

	_, err := Run(ctx, 6, func(ctx context.Context, i int) (int, error) {
		defer completed.Add(1)
		if i == 0 {
			return 0, errors.New("early failure")
		}
		time.Sleep(5 * time.Millisecond)
		return i, nil
	})
	if err == nil {
		t.Fatal("expected error")
	}
	// An early failure must not strand in-flight tasks.
	if got := completed.Load(); got != 6 {
		t.Fatalf("expected all 6 tasks drained, got %d", got)
	}
}

func TestRunEmpty(t *testing.T) {
	out, err := Run(context.Background(), 0, func(ctx context.Context, i int) (int, error) {
		t.Fatal("fn should not be called")
		return 0, nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil results, got %v", out)
	}
}
