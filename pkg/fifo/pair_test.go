// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fifo

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recorder logs every channel operation in call order
type recorder struct {
	mu  sync.Mutex
	ops []string
}

func (r *recorder) add(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

type echoCmd struct {
	rec *recorder
	rsp *Queue[int]
}

func (e *echoCmd) Write(v int) error {
	e.rec.add("write")
	return e.rsp.Write(v * 10)
}

type recRsp struct {
	rec *recorder
	q   *Queue[int]
}

func (r *recRsp) Read() (int, error) {
	r.rec.add("read")
	return r.q.Read()
}

func (r *recRsp) TryRead() (int, bool, error) {
	r.rec.add("try_read")
	return r.q.TryRead()
}

func newEchoPair() (*Pair[int, int], *recorder) {
	rec := &recorder{}
	q := NewQueue[int](4)
	return NewPair[int, int](&echoCmd{rec: rec, rsp: q}, &recRsp{rec: rec, q: q}), rec
}

func TestPair_DoWritesThenReads(t *testing.T) {
	p, rec := newEchoPair()

	v, err := p.Do(4)
	require.NoError(t, err)
	require.Equal(t, 40, v)

	v, err = p.Do(5)
	require.NoError(t, err)
	require.Equal(t, 50, v)

	require.Equal(t, []string{"write", "read", "write", "read"}, rec.list())
	require.False(t, p.Busy())
}

func TestPair_SecondBeginIsBusy(t *testing.T) {
	p, _ := newEchoPair()

	txn, err := p.Begin()
	require.NoError(t, err)
	require.True(t, p.Busy())

	_, err = p.Begin()
	require.ErrorIs(t, err, ErrBusy)

	_, err = p.Do(1)
	require.ErrorIs(t, err, ErrBusy)

	require.NoError(t, txn.Send(1))
	_, err = p.Begin()
	require.ErrorIs(t, err, ErrBusy)

	v, err := txn.Await()
	require.NoError(t, err)
	require.Equal(t, 10, v)

	txn2, err := p.Begin()
	require.NoError(t, err)
	require.NoError(t, txn2.Abandon())
}

func TestTxn_OutOfOrderUse(t *testing.T) {
	p, _ := newEchoPair()

	txn, err := p.Begin()
	require.NoError(t, err)

	_, err = txn.Await()
	require.ErrorIs(t, err, ErrTxnState)
	_, _, err = txn.Poll()
	require.ErrorIs(t, err, ErrTxnState)

	require.NoError(t, txn.Send(2))
	require.ErrorIs(t, txn.Send(3), ErrTxnState)
	require.ErrorIs(t, txn.Abandon(), ErrTxnState)

	_, err = txn.Await()
	require.NoError(t, err)

	_, err = txn.Await()
	require.ErrorIs(t, err, ErrTxnState)
}

// silentPeer accepts commands and never answers
type silentPeer struct{}

func (silentPeer) Write(int) error { return nil }

func TestTxn_PollWithoutResponse(t *testing.T) {
	rsp := NewQueue[int](1)
	p := NewPair[int, int](silentPeer{}, rsp)

	txn, err := p.Begin()
	require.NoError(t, err)
	require.NoError(t, txn.Send(7))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, ok, err := txn.Poll()
		require.NoError(t, err)
		require.False(t, ok)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Poll blocked while no response was present")
	}
	require.True(t, p.Busy())

	require.NoError(t, rsp.Write(99))
	v, ok, err := txn.Poll()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 99, v)
	require.False(t, p.Busy())
}

type failingWriter struct{ err error }

func (f failingWriter) Write(int) error { return f.err }

func TestTxn_SendFailureReleases(t *testing.T) {
	errLink := errors.New("link down")
	p := NewPair[int, int](failingWriter{err: errLink}, NewQueue[int](1))

	_, err := p.Do(1)
	require.ErrorIs(t, err, errLink)
	require.False(t, p.Busy())
}

func TestPair_ClosedResponseReleases(t *testing.T) {
	rsp := NewQueue[int](1)
	p := NewPair[int, int](silentPeer{}, rsp)
	require.NoError(t, rsp.Close())

	_, err := p.Do(1)
	require.ErrorIs(t, err, ErrClosed)
	require.False(t, p.Busy())
}

func TestPair_ConcurrentCallersNeverInterleave(t *testing.T) {
	p, rec := newEchoPair()

	var wg sync.WaitGroup
	var mu sync.Mutex
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for {
				mu.Lock()
				v, err := p.Do(i)
				mu.Unlock()
				if errors.Is(err, ErrBusy) {
					continue
				}
				require.NoError(t, err)
				require.Equal(t, i*10, v)
				return
			}
		}(i)
	}
	wg.Wait()

	ops := rec.list()
	require.Len(t, ops, 16)
	for i := 0; i < len(ops); i += 2 {
		require.Equal(t, "write", ops[i])
		require.Equal(t, "read", ops[i+1])
	}
}
