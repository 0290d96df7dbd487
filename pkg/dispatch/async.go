package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/stepflow/stepflow/pkg/common/validation"
	"github.com/stepflow/stepflow/pkg/metrics"
)

// AsyncConfig holds configuration for an Async dispatcher.
type AsyncConfig struct {
	// Dispatcher receives the queued actions. Required.
	Dispatcher Dispatcher

	// Workers is the number of background workers (default: 4).
	Workers int

	// QueueSize bounds the number of pending actions (default: 256). A full
	// queue fails the dispatch call rather than blocking step processing.
	QueueSize int

	// Name labels this dispatcher in metrics (default: "async").
	Name string

	// Metrics configures optional Prometheus instrumentation.
	Metrics metrics.Config
}

type queued struct {
	ctx    context.Context
	origin interface{}
	action interface{}
}

// Async hands actions to a bounded worker queue so slow action execution
// does not hold up step processing. The Dispatch call itself stays
// synchronous and ordered; only the inner dispatcher runs in the background.
type Async struct {
	inner    Dispatcher
	name     string
	queue    chan queued
	registry *metrics.Registry

	shutdownCh   chan struct{}
	shutdownDone chan struct{}
	shutdownOnce sync.Once
	workerWg     sync.WaitGroup

	mu         sync.RWMutex
	isShutdown bool
}

// NewAsync creates an Async dispatcher wrapping cfg.Dispatcher.
func NewAsync(cfg AsyncConfig) (*Async, error) {
	if err := validation.ValidateNotNil("dispatch", "dispatcher", cfg.Dispatcher); err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	name := cfg.Name
	if name == "" {
		name = "async"
	}

	a := &Async{
		inner:        cfg.Dispatcher,
		name:         name,
		queue:        make(chan queued, queueSize),
		registry:     cfg.Metrics.Resolve(),
		shutdownCh:   make(chan struct{}),
		shutdownDone: make(chan struct{}),
	}

	a.workerWg.Add(workers)
	for i := 0; i < workers; i++ {
		go a.worker()
	}
	return a, nil
}

// Dispatch queues the action for background execution. It returns an error
// when the dispatcher is shut down or the queue is full; it never blocks.
func (a *Async) Dispatch(ctx context.Context, origin, action interface{}) error {
	a.mu.RLock()
	isShutdown := a.isShutdown
	a.mu.RUnlock()
	if isShutdown {
		return fmt.Errorf("async dispatcher %q has been shut down", a.name)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case a.queue <- queued{ctx: ctx, origin: origin, action: action}:
		if a.registry != nil {
			a.registry.DispatchQueued.WithLabelValues(a.name).Set(float64(len(a.queue)))
		}
		return nil
	default:
		if a.registry != nil {
			a.registry.DispatchDropped.WithLabelValues(a.name).Inc()
		}
		return fmt.Errorf("async dispatcher %q queue full, action dropped", a.name)
	}
}

// Shutdown stops accepting new actions, drains the queue, and reports
// completion on the returned channel.
func (a *Async) Shutdown() <-chan struct{} {
	a.shutdownOnce.Do(func() {
		a.mu.Lock()
		a.isShutdown = true
		a.mu.Unlock()

		close(a.shutdownCh)
		go func() {
			a.workerWg.Wait()
			close(a.shutdownDone)
		}()
	})

	return a.shutdownDone
}

// QueueLen returns the number of actions waiting for a worker.
func (a *Async) QueueLen() int {
	return len(a.queue)
}

func (a *Async) worker() {
	defer a.workerWg.Done()
	for {
		select {
		case q := <-a.queue:
			a.run(q)
		case <-a.shutdownCh:
			// Drain what is already queued before exiting.
			for {
				select {
				case q := <-a.queue:
					a.run(q)
				default:
					return
				}
			}
		}
	}
}

func (a *Async) run(q queued) {
	// Errors are the inner dispatcher's concern; the engine already treated
	// the enqueue as the dispatch outcome.
	_ = a.inner.Dispatch(q.ctx, q.origin, q.action)
	if a.registry != nil {
		a.registry.DispatchQueued.WithLabelValues(a.name).Set(float64(len(a.queue)))
	}
}
