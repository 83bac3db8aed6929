package engine

import (
	"context"
	"testing"
	"time"
)

func TestQueueRunsOpsInSubmissionOrder(t *testing.T) {
	q := NewQueue(8)
	q.Start()
	defer q.Close()

	var order []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		_ = q.Enqueue(Func(func(ctx context.Context) error {
			order = append(order, i)
			if i == 4 {
				close(done)
			}
			return nil
		}))
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for queued ops to run")
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("expected submission order, got %v", order)
		}
	}
}

func TestQueueRunSyncReturnsError(t *testing.T) {
	q := NewQueue(4)
	q.Start()
	defer q.Close()

	err := q.RunSync(func(ctx context.Context) error {
		return context.DeadlineExceeded
	})
	if err != context.DeadlineExceeded {
		t.Fatalf("expected RunSync to propagate the op's error, got %v", err)
	}
}
