package ai

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"

	"boxcounter/internal/model"
	"boxcounter/internal/service/analyzer"
)

var ErrPoolClosed = errors.New("detector pool closed")

// Pool hands out one detector per caller so that networks which are not
// goroutine-safe can serve concurrent requests.
type Pool struct {
	// idle detectors
	members chan analyzer.Detector
	// every detector, for Close
	all    []analyzer.Detector
	mu     sync.RWMutex
	closed bool
	close  sync.Once
}

// NewPool creates size detectors with factory. On error the detectors
// created so far are closed.
func NewPool(size int, factory func(i int) (analyzer.Detector, error)) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	p := &Pool{members: make(chan analyzer.Detector, size)}

	for i := 0; i < size; i++ {
		d, err := factory(i)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.all = append(p.all, d)
		p.members <- d
	}

	return p, nil
}

// Size returns the number of detectors in the pool.
func (p *Pool) Size() int {
	return len(p.all)
}

// Detect borrows a detector for one call, waiting until one is free or
// ctx is done.
func (p *Pool) Detect(ctx context.Context, img image.Image) ([]model.Detection, error) {
	var d analyzer.Detector
	select {
	case next, ok := <-p.members:
		if !ok {
			return nil, ErrPoolClosed
		}
		d = next
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer p.put(d)

	return d.Detect(ctx, img)
}

func (p *Pool) put(d analyzer.Detector) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.members <- d:
	default:
	}
}

// Close the pool and every detector in it.
func (p *Pool) Close() error {
	var errs []error
	p.close.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.members)
		p.mu.Unlock()

		for _, d := range p.all {
			if c, ok := d.(io.Closer); ok {
				if err := c.Close(); err != nil {
					errs = append(errs, err)
				}
			}
		}
	})
	return errors.Join(errs...)
}
