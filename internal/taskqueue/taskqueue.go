// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package taskqueue provides a generic FIFO runner that executes at most
// one task at a time. It serializes access to a single stateful resource
// (one API session, one subprocess) for any number of concurrent callers,
// without the callers coordinating. Per prd008-article R7.1-R7.3.
package taskqueue

import (
	"context"
	"sync"
)

// Queue runs enqueued tasks strictly in arrival order, one at a time.
// The zero value is ready to use.
type Queue[T any] struct {
	mu      sync.Mutex
	pending []*task[T]
	running bool
}

type task[T any] struct {
	ctx  context.Context
	run  func(context.Context) (T, error)
	done chan result[T]
}

type result[T any] struct {
	val T
	err error
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Enqueue appends fn to the queue and blocks until that specific task has
// run, returning its result. Tasks execute in arrival order with no two
// ever in flight at once. A failing task surfaces its error only to its own
// caller; the drain loop continues with the next task.
func (q *Queue[T]) Enqueue(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	t := &task[T]{ctx: ctx, run: fn, done: make(chan result[T], 1)}

	q.mu.Lock()
	q.pending = append(q.pending, t)
	start := !q.running
	if start {
		q.running = true
	}
	q.mu.Unlock()

	if start {
		go q.drain()
	}

	r := <-t.done
	return r.val, r.err
}

// drain executes pending tasks until the list is empty, then stops. There
// is no idle polling; a later Enqueue starts a fresh drain.
func (q *Queue[T]) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		t := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		if err := t.ctx.Err(); err != nil {
			// The caller gave up before the task started; skip the work.
			var zero T
			t.done <- result[T]{zero, err}
			continue
		}

		val, err := t.run(t.ctx)
		t.done <- result[T]{val, err}
	}
}
