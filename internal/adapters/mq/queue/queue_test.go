package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/insights/internal/adapters/ingest"
)

func newTestJob(ctx context.Context, name string) (Job, <-chan Reply) {
	return NewJob(ctx, ingest.Upload{Name: name, Data: []byte("date,product,sales_amount\n")})
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	job, _ := newTestJob(ctx, "a.csv")
	if err := q.Enqueue(ctx, job); err != nil {
		t.Errorf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.ID != job.ID {
		t.Errorf("expected job %s, got %s", job.ID, got.ID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for _, name := range []string{"a.csv", "b.csv"} {
		job, _ := newTestJob(ctx, name)
		if err := q.Enqueue(ctx, job); err != nil {
			t.Errorf("expected enqueue to succeed, got %v", err)
		}
	}

	job, _ := newTestJob(ctx, "c.csv")
	if err := q.Enqueue(ctx, job); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
	if c := q.Capacity(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}
}

func TestInMemoryQueue_DefaultCapacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(0))
	if c := q.Capacity(); c != defaultQueueCapacity {
		t.Errorf("expected default capacity %d, got %d", defaultQueueCapacity, c)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job, _ := newTestJob(ctx, "a.csv")
	if err := q.Enqueue(ctx, job); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	job, _ := newTestJob(ctx, "a.csv")
	if err := q.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}

	late, _ := newTestJob(ctx, "late.csv")
	if err := q.Enqueue(ctx, late); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// Jobs queued before Close are still delivered, then the channel closes.
	ch := q.Dequeue(ctx)
	if got, ok := <-ch; !ok || got.ID != job.ID {
		t.Errorf("expected queued job before close, got %v %v", got.ID, ok)
	}
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected dequeue channel to be closed")
		}
	case <-time.After(time.Second):
		t.Error("dequeue channel was not closed")
	}
}

func TestJob_Complete(t *testing.T) {
	job, reply := newTestJob(context.Background(), "a.csv")
	job.Complete(nil, ErrFull)
	job.Complete(nil, nil) // second reply is discarded

	r := <-reply
	if !errors.Is(r.Err, ErrFull) {
		t.Errorf("expected first reply to win, got %v", r.Err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	const producers, perProducer = 10, 10

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				job, _ := newTestJob(ctx, "s.csv")
				if err := q.Enqueue(ctx, job); err != nil {
					t.Errorf("enqueue: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if l := q.Len(ctx); l != producers*perProducer {
		t.Errorf("expected %d jobs, got %d", producers*perProducer, l)
	}
	_ = q.Close()

	seen := map[string]bool{}
	for j := range q.Dequeue(ctx) {
		if seen[j.ID.String()] {
			t.Errorf("job %s delivered twice", j.ID)
		}
		seen[j.ID.String()] = true
	}
	if len(seen) != producers*perProducer {
		t.Errorf("expected %d distinct jobs, got %d", producers*perProducer, len(seen))
	}
}
