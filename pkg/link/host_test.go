// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Thermoquad/hlsprobe/pkg/axi4lite"
	"github.com/Thermoquad/hlsprobe/pkg/fifo"
	"github.com/Thermoquad/hlsprobe/pkg/sim"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the link goroutine and the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type linkPair struct {
	host   *Host
	device *Device
	regs   *sim.RegisterFile
	sink   *syncBuffer
	errs   chan error
	cancel context.CancelFunc
}

func newLinkPair(t *testing.T, hostOpts ...Option) *linkPair {
	t.Helper()
	regs, err := sim.NewRegisterFile(
		sim.Register{Name: "ctrl", Addr: 0x00},
		sim.Register{Name: "id", Addr: 0x04, Mode: sim.ReadOnly, Reset: 0xC0FFEE00},
	)
	require.NoError(t, err)

	a, b := Pipe()
	sink := &syncBuffer{}
	lp := &linkPair{
		host:   NewHost(a, hostOpts...),
		device: NewDevice(b, regs, sim.NewClock(0), WithConsoleSink(sink)),
		regs:   regs,
		sink:   sink,
		errs:   make(chan error, 2),
	}

	ctx, cancel := context.WithCancel(context.Background())
	lp.cancel = cancel
	go func() { lp.errs <- lp.host.Run(ctx) }()
	go func() { lp.errs <- lp.device.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		for i := 0; i < 2; i++ {
			select {
			case err := <-lp.errs:
				require.NoError(t, err)
			case <-time.After(2 * time.Second):
				t.Error("link did not shut down")
			}
		}
	})
	return lp
}

func TestHost_RegisterTransactions(t *testing.T) {
	lp := newLinkPair(t)
	regs := lp.host.Registers()

	status, err := regs.Write(0x00, 0x12345678)
	require.NoError(t, err)
	require.Equal(t, uint8(axi4lite.RespOkay), status)

	data, status, err := regs.Read(0x00)
	require.NoError(t, err)
	require.Equal(t, uint8(axi4lite.RespOkay), status)
	require.Equal(t, uint32(0x12345678), data)

	data, status, err = regs.Read(0x04)
	require.NoError(t, err)
	require.Equal(t, uint8(axi4lite.RespOkay), status)
	require.Equal(t, uint32(0xC0FFEE00), data)

	status, err = regs.Write(0x04, 0)
	require.NoError(t, err)
	require.Equal(t, uint8(axi4lite.RespSlvErr), status)

	_, status, err = regs.Read(0x100)
	require.NoError(t, err)
	require.Equal(t, uint8(axi4lite.RespDecErr), status)

	v, _ := lp.regs.Peek(0x00)
	require.Equal(t, uint32(0x12345678), v)
}

func TestHost_Clock(t *testing.T) {
	lp := newLinkPair(t)
	clock := lp.host.Clock()

	require.NoError(t, clock.Reset())
	first, err := clock.Now()
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	second, err := clock.Now()
	require.NoError(t, err)
	require.GreaterOrEqual(t, second-first, uint64(5000))
}

func TestHost_ConsoleBothWays(t *testing.T) {
	lp := newLinkPair(t)

	// Host to core: lands in the device receive FIFO and its sink
	require.NoError(t, lp.host.Console().Print("go %d\n", 7))
	for _, want := range []byte("go 7\r\n") {
		c, ok, err := lp.device.Console().Receive(true)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, c)
	}
	require.Equal(t, "go 7\r\n", lp.sink.String())

	// Core to host
	require.NoError(t, lp.device.Console().Print("t=%04x", 0xBEEF))
	var got []byte
	for range "t=beef" {
		c, ok, err := lp.host.Console().Receive(true)
		require.NoError(t, err)
		require.True(t, ok)
		got = append(got, c)
	}
	require.Equal(t, "t=beef", string(got))
}

func TestHost_SendConsoleChunks(t *testing.T) {
	lp := newLinkPair(t)

	msg := bytes.Repeat([]byte("0123456789"), 25)
	require.NoError(t, lp.host.SendConsole(msg))

	require.Eventually(t, func() bool {
		return lp.sink.String() == string(msg)
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, uint64(3), lp.host.Stats().Snapshot().FramesSent)
}

func TestHost_RunClosesQueues(t *testing.T) {
	a, b := Pipe()
	h := NewHost(a)
	done := make(chan error, 1)
	go func() { done <- h.Run(context.Background()) }()

	// A core that never answers, then goes away
	txn, err := h.Registers().Begin()
	require.NoError(t, err)
	go func() {
		buf := make([]byte, 64)
		_, _ = b.Read(buf)
		_ = b.Close()
	}()
	require.NoError(t, txn.Send(axi4lite.ReadCommand(0)))

	_, err = txn.Await()
	require.ErrorIs(t, err, fifo.ErrClosed)
	require.NoError(t, <-done)
}

func TestHost_UnsolicitedResponseDropped(t *testing.T) {
	a, b := Pipe()
	h := NewHost(a)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	frame, err := Encode(MsgRegisterResponse, RegisterResponsePayload(axi4lite.NewResponse(axi4lite.RespOkay, 1)))
	require.NoError(t, err)
	_, err = b.Write(frame)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return h.Stats().Snapshot().Unsolicited == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestHost_RejectedCommandCompletesAsSlaveError(t *testing.T) {
	a, b := Pipe()
	h := NewHost(a)
	d := NewDevice(b, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.Run(ctx) }()
	go func() { _ = d.Run(ctx) }()

	_, status, err := h.Registers().Read(0x0)
	require.NoError(t, err)
	require.Equal(t, uint8(axi4lite.RespSlvErr), status)

	require.Eventually(t, func() bool {
		return h.Stats().Snapshot().RemoteErrors == 1
	}, time.Second, 5*time.Millisecond)
}

func TestHost_RejectedClockCommandFails(t *testing.T) {
	regs, err := sim.NewRegisterFile()
	require.NoError(t, err)

	a, b := Pipe()
	h := NewHost(a)
	d := NewDevice(b, regs, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.Run(ctx) }()
	go func() { _ = d.Run(ctx) }()

	_, err = h.Clock().Now()
	require.ErrorIs(t, err, ErrRejected)
	require.False(t, h.Clock().Busy())

	// The clock client is free for the next call, and registers still work
	require.ErrorIs(t, h.Clock().Reset(), ErrRejected)
	_, status, err := h.Registers().Read(0x0)
	require.NoError(t, err)
	require.Equal(t, uint8(axi4lite.RespOkay), status)
}

func TestHost_FrameHookSeesCorruption(t *testing.T) {
	var mu sync.Mutex
	var hookErrs []error
	hook := func(f *Frame, err error) {
		if err != nil {
			mu.Lock()
			hookErrs = append(hookErrs, err)
			mu.Unlock()
		}
	}

	a, b := Pipe()
	h := NewHost(a, WithFrameHook(hook))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	frame, err := Encode(MsgClockResponse, ClockResponsePayload(99))
	require.NoError(t, err)
	frame[2] ^= 0x01
	_, err = b.Write(frame)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return h.Stats().Snapshot().CRCErrors == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, hookErrs, 1)
	require.ErrorIs(t, hookErrs[0], ErrCRCMismatch)
}
