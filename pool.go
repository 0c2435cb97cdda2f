package penaltyvision

import (
	"runtime"
	"sync"

	"go.uber.org/multierr"
)

// Pool is a simple pool of Engines loaded with the same Model, used to run
// inference on several images in parallel
type Pool struct {
	// pool of engines
	engines chan Engine
	// size of pool
	size int
	// mu guards closed against Return sending on a closed channel
	mu     sync.Mutex
	closed bool
}

// NewPool creates a new engine pool of the given size using opts for every
// engine.  Unless opts sets Threads the CPUs are shared out between the
// engines.
func NewPool(size int, opts EngineOptions) (*Pool, error) {

	if opts.Threads <= 0 {
		opts.Threads = threadsPerEngine(size, runtime.NumCPU())
	}

	return NewPoolFunc(size, func() (Engine, error) {
		return Open(opts)
	})
}

// NewPoolFunc creates a new engine pool of the given size, calling open for
// each engine
func NewPoolFunc(size int, open func() (Engine, error)) (*Pool, error) {

	if size < 1 {
		size = 1
	}

	p := &Pool{
		engines: make(chan Engine, size),
		size:    size,
	}

	for i := 0; i < size; i++ {
		e, err := open()

		if err != nil {
			// close any instances that may have been created before receiving
			// the error
			p.Close()
			return nil, err
		}

		// attach to pool
		p.Return(e)
	}

	return p, nil
}

// threadsPerEngine divides cpus between size engines, giving each at least
// one thread
func threadsPerEngine(size, cpus int) int {

	if size < 1 {
		size = 1
	}

	if n := cpus / size; n > 1 {
		return n
	}

	return 1
}

// Get an engine from the pool, blocking until one is free
func (p *Pool) Get() Engine {
	return <-p.engines
}

// Return an engine to the pool.  Engines returned after the pool is closed
// are closed instead.
func (p *Pool) Return(e Engine) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = e.Close()
		return
	}

	select {
	case p.engines <- e:
	default:
		// pool is full
	}
}

// Size returns the number of engines in the pool
func (p *Pool) Size() int {
	return p.size
}

// Close the pool and all engines in it
func (p *Pool) Close() error {

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true

	// close channel
	close(p.engines)

	var err error

	// close all engines
	for next := range p.engines {
		err = multierr.Append(err, next.Close())
	}

	return err
}
