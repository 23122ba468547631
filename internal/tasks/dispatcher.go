// Package tasks provides the fire-and-forget background work queue used by
// the HTTP layer. Independent runs execute concurrently up to the pool
// limit; page ordering inside a run is the pipeline's concern, not the
// dispatcher's.
package tasks

import (
	"context"

	"github.com/alitto/pond/v2"

	"storybook/internal/infra"
)

// Dispatcher owns a bounded worker pool for background generation runs.
type Dispatcher struct {
	pool   pond.Pool
	ctx    context.Context
	cancel context.CancelFunc
	logger infra.Logger
}

// NewDispatcher builds a dispatcher with the given concurrency limit.
func NewDispatcher(maxConcurrent int, logger infra.Logger) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		pool:   pond.NewPool(maxConcurrent),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Dispatch enqueues fn for background execution. The task receives a context
// derived from the dispatcher, not from the originating HTTP request, so a
// closed client connection cannot interrupt a paid-for generation run.
func (d *Dispatcher) Dispatch(name string, fn func(ctx context.Context)) {
	d.logger.Debug().Str("task", name).Msg("tasks: dispatched")
	d.pool.Go(func() {
		fn(d.ctx)
	})
}

// Stop drains queued tasks and waits for running ones to finish.
func (d *Dispatcher) Stop() {
	d.pool.StopAndWait()
	d.cancel()
}
