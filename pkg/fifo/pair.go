// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fifo

import "sync/atomic"

// Pair joins a command channel and a response channel into a request/response
// link. Every transaction writes exactly one command word and then consumes
// exactly one response word; a second transaction cannot begin until the
// first has consumed its response.
type Pair[C, R any] struct {
	cmd  Writer[C]
	rsp  Reader[R]
	busy atomic.Bool
}

// NewPair creates a Pair over the given channels. The Pair must be the only
// user of both.
func NewPair[C, R any](cmd Writer[C], rsp Reader[R]) *Pair[C, R] {
	return &Pair[C, R]{cmd: cmd, rsp: rsp}
}

// Begin acquires the pair for one transaction. It returns ErrBusy when another
// transaction is still waiting for its response.
func (p *Pair[C, R]) Begin() (*Txn[C, R], error) {
	if !p.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	return &Txn[C, R]{pair: p}, nil
}

// Busy reports whether a transaction is outstanding.
func (p *Pair[C, R]) Busy() bool {
	return p.busy.Load()
}

// Do runs one complete transaction: send cmd, then block for the response.
func (p *Pair[C, R]) Do(cmd C) (R, error) {
	txn, err := p.Begin()
	if err != nil {
		var zero R
		return zero, err
	}
	if err := txn.Send(cmd); err != nil {
		var zero R
		return zero, err
	}
	return txn.Await()
}

type txnState uint8

const (
	txnOpen txnState = iota
	txnSent
	txnDone
)

// Txn is the handle for one in-flight transaction. It is not safe for
// concurrent use.
type Txn[C, R any] struct {
	pair  *Pair[C, R]
	state txnState
}

// Send writes the command word. It may be called once per transaction. A
// failed write releases the pair since no response will follow.
func (t *Txn[C, R]) Send(cmd C) error {
	if t.state != txnOpen {
		return ErrTxnState
	}
	if err := t.pair.cmd.Write(cmd); err != nil {
		t.release()
		return err
	}
	t.state = txnSent
	return nil
}

// Await blocks for the response word and releases the pair.
func (t *Txn[C, R]) Await() (R, error) {
	var zero R
	if t.state != txnSent {
		return zero, ErrTxnState
	}
	v, err := t.pair.rsp.Read()
	t.release()
	if err != nil {
		return zero, err
	}
	return v, nil
}

// Poll checks for the response without blocking. When ok is true the
// transaction is complete and the pair is released; otherwise Poll or Await
// must be called again later.
func (t *Txn[C, R]) Poll() (v R, ok bool, err error) {
	var zero R
	if t.state != txnSent {
		return zero, false, ErrTxnState
	}
	v, ok, err = t.pair.rsp.TryRead()
	if err != nil {
		t.release()
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}
	t.release()
	return v, true, nil
}

// Abandon releases a transaction that was begun but never sent.
func (t *Txn[C, R]) Abandon() error {
	if t.state != txnOpen {
		return ErrTxnState
	}
	t.release()
	return nil
}

func (t *Txn[C, R]) release() {
	t.state = txnDone
	t.pair.busy.Store(false)
}
