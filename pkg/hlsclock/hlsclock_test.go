// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hlsclock

import (
	"testing"

	"github.com/Thermoquad/hlsprobe/pkg/fifo"
	"github.com/stretchr/testify/require"
)

// fakeCounter answers clock commands from a scripted counter
type fakeCounter struct {
	now  uint64
	step uint64
	ops  []Op
	rsp  *fifo.Queue[uint64]
}

func (f *fakeCounter) Write(op Op) error {
	f.ops = append(f.ops, op)
	switch op {
	case OpReset:
		f.now = 0
		return f.rsp.Write(0)
	default:
		f.now += f.step
		return f.rsp.Write(f.now)
	}
}

func newFakeClock(start, step uint64) (*Clock, *fakeCounter) {
	f := &fakeCounter{now: start, step: step, rsp: fifo.NewQueue[uint64](1)}
	return New(f, f.rsp), f
}

func TestClock_Now(t *testing.T) {
	c, f := newFakeClock(1000, 250)

	us, err := c.Now()
	require.NoError(t, err)
	require.Equal(t, uint64(1250), us)

	us, err = c.Now()
	require.NoError(t, err)
	require.Equal(t, uint64(1500), us)

	require.Equal(t, []Op{OpRead, OpRead}, f.ops)
}

func TestClock_ResetConsumesAck(t *testing.T) {
	c, f := newFakeClock(5000, 10)

	require.NoError(t, c.Reset())
	require.Equal(t, 0, f.rsp.Len())

	us, err := c.Now()
	require.NoError(t, err)
	require.Equal(t, uint64(10), us)
	require.Equal(t, []Op{OpReset, OpRead}, f.ops)
}

func TestClock_ClosedResponse(t *testing.T) {
	cmd := fifo.NewQueue[Op](4)
	rsp := fifo.NewQueue[uint64](1)
	require.NoError(t, rsp.Close())

	_, err := New(cmd, rsp).Now()
	require.ErrorIs(t, err, fifo.ErrClosed)

	require.ErrorIs(t, New(cmd, rsp).Reset(), fifo.ErrClosed)
}

func TestOp_String(t *testing.T) {
	require.Equal(t, "read", OpRead.String())
	require.Equal(t, "reset", OpReset.String())
	require.Equal(t, "op(2)", Op(2).String())
}
