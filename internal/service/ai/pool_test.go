package ai

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"boxcounter/internal/model"
	"boxcounter/internal/service/analyzer"
)

type stubDetector struct {
	id       int
	inFlight *int32
	maxSeen  *int32
	closed   bool
}

func (s *stubDetector) Detect(ctx context.Context, img image.Image) ([]model.Detection, error) {
	n := atomic.AddInt32(s.inFlight, 1)
	defer atomic.AddInt32(s.inFlight, -1)
	for {
		seen := atomic.LoadInt32(s.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(s.maxSeen, seen, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return []model.Detection{{Label: "caixa_618"}}, nil
}

func (s *stubDetector) Close() error {
	s.closed = true
	return nil
}

func TestPool_LimitsConcurrency(t *testing.T) {
	var inFlight, maxSeen int32
	var members []*stubDetector

	pool, err := NewPool(2, func(i int) (analyzer.Detector, error) {
		d := &stubDetector{id: i, inFlight: &inFlight, maxSeen: &maxSeen}
		members = append(members, d)
		return d, nil
	})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := pool.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
				t.Errorf("Detect: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxSeen > 2 {
		t.Errorf("saw %d concurrent detections with pool size 2", maxSeen)
	}

	if err := pool.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	for _, m := range members {
		if !m.closed {
			t.Errorf("detector %d not closed", m.id)
		}
	}

	if _, err := pool.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 1, 1))); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPool_FactoryErrorClosesCreated(t *testing.T) {
	var inFlight, maxSeen int32
	first := &stubDetector{inFlight: &inFlight, maxSeen: &maxSeen}

	_, err := NewPool(3, func(i int) (analyzer.Detector, error) {
		if i == 1 {
			return nil, errors.New("model missing")
		}
		return first, nil
	})
	if err == nil {
		t.Fatal("expected factory error")
	}
	if !first.closed {
		t.Error("detector created before the failure was not closed")
	}
}

func TestPool_ContextCancelledWhileWaiting(t *testing.T) {
	var inFlight, maxSeen int32
	pool, err := NewPool(1, func(i int) (analyzer.Detector, error) {
		return &stubDetector{inFlight: &inFlight, maxSeen: &maxSeen}, nil
	})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer pool.Close()

	// Drain the only member so the next call has to wait.
	held := <-pool.members
	defer pool.put(held)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := pool.Detect(ctx, image.NewRGBA(image.Rect(0, 0, 1, 1))); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
