package server

import (
	"sync"

	"go.uber.org/zap"
)

// workerPool bounds the number of concurrent lookups the JSON API will
// run at once, the HTTP-handler analog of gortcd/internal/server's
// packet-processing worker pool (the file defining it was not part of
// the retrieved reference pack; worker_pool_test.go's
// WorkerFunc/MaxWorkersCount/Logger/Start/Stop shape is reconstructed
// here against a jobs channel instead of a UDP read loop).
type workerPool struct {
	WorkerFunc      func(c *context) error
	MaxWorkersCount int
	Logger          *zap.Logger

	lock    sync.Mutex
	started bool
	jobs    chan *context
	done    chan struct{}
	wg      sync.WaitGroup
}

// Start spins up MaxWorkersCount goroutines pulling from the internal
// job queue. Calling Start on an already-started pool is a no-op.
func (wp *workerPool) Start() {
	wp.lock.Lock()
	defer wp.lock.Unlock()
	if wp.started {
		return
	}
	wp.started = true
	wp.jobs = make(chan *context, wp.MaxWorkersCount)
	wp.done = make(chan struct{})
	for i := 0; i < wp.MaxWorkersCount; i++ {
		wp.wg.Add(1)
		go wp.run()
	}
}

func (wp *workerPool) run() {
	defer wp.wg.Done()
	for {
		select {
		case c, ok := <-wp.jobs:
			if !ok {
				return
			}
			if err := wp.WorkerFunc(c); err != nil {
				wp.Logger.Error("worker failed", zap.Error(err))
			}
		case <-wp.done:
			return
		}
	}
}

// Stop signals every worker goroutine to exit and waits for them to
// drain. Calling Stop on a pool that was never started is a no-op.
func (wp *workerPool) Stop() {
	wp.lock.Lock()
	defer wp.lock.Unlock()
	if !wp.started {
		return
	}
	close(wp.done)
	wp.wg.Wait()
	wp.started = false
}

// Serve enqueues c for processing, returning false if the pool is at
// capacity and the caller should apply backpressure instead of
// blocking the accepting goroutine.
func (wp *workerPool) Serve(c *context) bool {
	select {
	case wp.jobs <- c:
		return true
	default:
		return false
	}
}
