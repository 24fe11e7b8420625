// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/lectern/internal/actions"
	"github.com/tomtom215/lectern/internal/logging"
)

// Report is one security log entry sent by the client.
type Report struct {
	Action    actions.Action
	Page      string
	Details   map[string]any
	Timestamp time.Time
	UserAgent string
}

// Sink delivers reports to the audit log. Errors are logged and dropped.
type Sink interface {
	Send(ctx context.Context, r Report) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Report) error

// Send implements Sink.
func (f SinkFunc) Send(ctx context.Context, r Report) error { return f(ctx, r) }

// sendTimeout bounds a single delivery so a hung request cannot stall the queue.
const sendTimeout = 10 * time.Second

// queue is the session's bounded asynchronous delivery queue. Neither enqueue
// nor close blocks: a full buffer drops the report, and a closed queue keeps
// delivering what it already holds on its own goroutine.
type queue struct {
	sink      Sink
	ch        chan Report
	stopCh    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newQueue(sink Sink, size int) *queue {
	q := &queue{
		sink:   sink,
		ch:     make(chan Report, size),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *queue) enqueue(r Report) {
	select {
	case q.ch <- r:
	default:
		logging.Warn().Str("action", r.Action.String()).Msg("Security report queue full, dropping report")
	}
}

func (q *queue) run() {
	defer close(q.done)

	for {
		select {
		case <-q.stopCh:
			// Drain remaining reports
			for {
				select {
				case r := <-q.ch:
					q.deliver(r)
				default:
					return
				}
			}
		case r := <-q.ch:
			q.deliver(r)
		}
	}
}

func (q *queue) deliver(r Report) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := q.sink.Send(ctx, r); err != nil {
		logging.Debug().Err(err).Str("action", r.Action.String()).Msg("Security report not delivered")
	}
}

// close tells the worker to exit once the buffer is drained and returns
// immediately. Browser adapters call it from JS callbacks, where waiting on a
// fetch-backed Send would deadlock the event loop.
func (q *queue) close() {
	q.closeOnce.Do(func() { close(q.stopCh) })
}
