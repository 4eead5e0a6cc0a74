// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"errors"
	"fmt"

	"github.com/Thermoquad/hlsprobe/pkg/axi4lite"
	"github.com/Thermoquad/hlsprobe/pkg/fifo"
	"github.com/Thermoquad/hlsprobe/pkg/hlsclock"
	"github.com/Thermoquad/hlsprobe/pkg/uart"
)

// consoleDepth is how many unread console bytes are kept
const consoleDepth = 4096

// ErrRejected is returned by a clock call the peer answered with an ERROR
// frame
var ErrRejected = errors.New("link: command rejected by peer")

// Host drives a remote core. Commands written by the register, clock and
// console clients become frames; response frames are fed back into their
// FIFOs by Run.
type Host struct {
	*endpoint

	regRsp    *fifo.Queue[axi4lite.Response]
	clkRsp    *fifo.Queue[clockReply]
	consoleRx *fifo.Queue[byte]

	regs    *axi4lite.Transactor
	clock   *hlsclock.Clock
	console *uart.UART
}

// NewHost creates a Host over conn. Run must be started for any transaction
// to complete.
func NewHost(conn Connection, opts ...Option) *Host {
	h := &Host{
		endpoint:  newEndpoint(conn, opts),
		regRsp:    fifo.NewQueue[axi4lite.Response](1),
		clkRsp:    fifo.NewQueue[clockReply](1),
		consoleRx: fifo.NewQueue[byte](consoleDepth),
	}
	h.regs = axi4lite.New(frameWriter[axi4lite.Command]{h.endpoint, MsgRegisterCommand, RegisterCommandPayload}, h.regRsp)
	h.clock = hlsclock.New(frameWriter[hlsclock.Op]{h.endpoint, MsgClockCommand, ClockCommandPayload}, clockReplies{h.clkRsp})
	h.console = uart.New(byteWriter{h.endpoint, MsgConsoleRx}, h.consoleRx)
	return h
}

// Registers returns the register transactor bound to the remote core
func (h *Host) Registers() *axi4lite.Transactor {
	return h.regs
}

// Clock returns the clock client bound to the remote core
func (h *Host) Clock() *hlsclock.Clock {
	return h.clock
}

// Console returns the remote console. Bytes written go to the core's receive
// FIFO; bytes the core transmits are read with Receive.
func (h *Host) Console() *uart.UART {
	return h.console
}

// SendConsole writes b to the core's receive FIFO in bulk
func (h *Host) SendConsole(b []byte) error {
	return byteWriter{h.endpoint, MsgConsoleRx}.WriteBytes(b)
}

// Stats returns the link statistics
func (h *Host) Stats() *Statistics {
	return h.stats
}

// Run reads frames until the connection closes or ctx is cancelled. On
// return every response FIFO is closed, so blocked callers fail with
// fifo.ErrClosed.
func (h *Host) Run(ctx context.Context) error {
	defer func() {
		_ = h.regRsp.Close()
		_ = h.clkRsp.Close()
		_ = h.consoleRx.Close()
	}()
	return h.run(ctx, h.dispatch)
}

// Close closes the underlying connection
func (h *Host) Close() error {
	return h.conn.Close()
}

func (h *Host) dispatch(f *Frame) {
	m := f.PayloadMap()

	switch f.Type() {
	case MsgRegisterResponse:
		rsp, err := ParseRegisterResponse(m)
		if err != nil {
			h.log.Warn().Err(err).Msg("bad register response")
			return
		}
		deliver(h, h.regs.Busy(), h.regRsp, rsp)

	case MsgClockResponse:
		us, err := ParseClockResponse(m)
		if err != nil {
			h.log.Warn().Err(err).Msg("bad clock response")
			return
		}
		deliver(h, h.clock.Busy(), h.clkRsp, clockReply{us: us})

	case MsgConsoleTx:
		b, err := ParseConsole(m)
		if err != nil {
			h.log.Warn().Err(err).Msg("bad console frame")
			return
		}
		h.copyToSink(b)
		for _, c := range b {
			if ok, _ := h.consoleRx.TryWrite(c); !ok {
				h.log.Debug().Msg("console buffer full, dropping byte")
			}
		}

	case MsgError:
		h.stats.RecordRemoteError()
		code, rejected, err := ParseError(m)
		if err != nil {
			h.log.Warn().Err(err).Msg("bad error frame")
			return
		}
		h.log.Warn().
			Stringer("code", code).
			Str("rejected", FormatMessageType(rejected)).
			Msg("peer rejected frame")
		// A rejected register command gets no response; fail it as a slave
		// error so the waiting transaction completes
		switch rejected {
		case MsgRegisterCommand:
			deliver(h, h.regs.Busy(), h.regRsp, axi4lite.NewResponse(axi4lite.RespSlvErr, 0))
		case MsgClockCommand:
			// The clock word has no status bits, so the call fails instead
			deliver(h, h.clock.Busy(), h.clkRsp, clockReply{err: fmt.Errorf("%w: %s", ErrRejected, code)})
		}

	default:
		h.stats.RecordUnknown()
		h.log.Warn().Uint8("type", f.Type()).Msg("unexpected frame")
	}
}

// deliver queues a response word when a transaction is waiting for it
func deliver[T any](h *Host, waiting bool, q *fifo.Queue[T], v T) {
	if !waiting {
		h.stats.RecordUnsolicited()
		h.log.Warn().Interface("word", v).Msg("unsolicited response")
		return
	}
	if ok, _ := q.TryWrite(v); !ok {
		h.stats.RecordUnsolicited()
		h.log.Warn().Interface("word", v).Msg("duplicate response")
	}
}

// frameWriter sends each command word as one frame
type frameWriter[T any] struct {
	e       *endpoint
	msgType uint8
	payload func(T) map[int]interface{}
}

func (w frameWriter[T]) Write(v T) error {
	return w.e.send(w.msgType, w.payload(v))
}

// clockReply is one clock response word, or the rejection that replaced it
type clockReply struct {
	us  uint64
	err error
}

// clockReplies feeds clock replies to the clock client as plain words
type clockReplies struct {
	q *fifo.Queue[clockReply]
}

func (r clockReplies) Read() (uint64, error) {
	v, err := r.q.Read()
	if err != nil {
		return 0, err
	}
	return v.us, v.err
}

func (r clockReplies) TryRead() (uint64, bool, error) {
	v, ok, err := r.q.TryRead()
	if err != nil || !ok {
		return 0, ok, err
	}
	return v.us, true, v.err
}
