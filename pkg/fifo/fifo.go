// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package fifo provides the word channels that connect the compute core to its
// peripherals: one-way command and response queues, and a Pair that joins the
// two into a request/response link with at most one transaction in flight.
package fifo

import (
	"errors"
	"sync"
)

var (
	// ErrClosed is returned by operations on a closed queue.
	ErrClosed = errors.New("fifo: closed")

	// ErrBusy is returned by Pair.Begin while another transaction is outstanding.
	ErrBusy = errors.New("fifo: transaction already outstanding")

	// ErrTxnState is returned when a transaction handle is used out of order.
	ErrTxnState = errors.New("fifo: transaction used out of order")
)

// Writer is the outbound side of a channel.
type Writer[T any] interface {
	// Write queues one word. Queueing semantics belong to the implementation.
	Write(v T) error
}

// Reader is the inbound side of a channel.
type Reader[T any] interface {
	// Read blocks until a word is available.
	Read() (T, error)

	// TryRead returns immediately; ok is false when no word is present.
	TryRead() (v T, ok bool, err error)
}

// DefaultDepth is the depth used by NewQueue for a non-positive argument.
const DefaultDepth = 16

// Queue is an in-memory FIFO implementing both Writer and Reader.
//
// Write blocks only while the queue is full. After Close, words already
// queued can still be read; further writes fail with ErrClosed.
type Queue[T any] struct {
	ch        chan T
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue creates a queue holding up to depth words.
func NewQueue[T any](depth int) *Queue[T] {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Queue[T]{
		ch:   make(chan T, depth),
		done: make(chan struct{}),
	}
}

// Write implements Writer.
func (q *Queue[T]) Write(v T) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	select {
	case q.ch <- v:
		return nil
	case <-q.done:
		return ErrClosed
	}
}

// TryWrite queues v only if there is room. It never blocks.
func (q *Queue[T]) TryWrite(v T) (bool, error) {
	select {
	case <-q.done:
		return false, ErrClosed
	default:
	}

	select {
	case q.ch <- v:
		return true, nil
	default:
		return false, nil
	}
}

// Read implements Reader.
func (q *Queue[T]) Read() (T, error) {
	select {
	case v := <-q.ch:
		return v, nil
	default:
	}

	select {
	case v := <-q.ch:
		return v, nil
	case <-q.done:
		// Drain anything that raced with Close
		select {
		case v := <-q.ch:
			return v, nil
		default:
			var zero T
			return zero, ErrClosed
		}
	}
}

// TryRead implements Reader.
func (q *Queue[T]) TryRead() (T, bool, error) {
	select {
	case v := <-q.ch:
		return v, true, nil
	default:
	}

	var zero T
	select {
	case <-q.done:
		return zero, false, ErrClosed
	default:
		return zero, false, nil
	}
}

// Len returns the number of queued words.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Close stops the queue. It is safe to call more than once.
func (q *Queue[T]) Close() error {
	q.closeOnce.Do(func() {
		close(q.done)
	})
	return nil
}

// Done is closed when the queue is closed.
func (q *Queue[T]) Done() <-chan struct{} {
	return q.done
}
