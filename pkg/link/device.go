// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"sync"

	"github.com/Thermoquad/hlsprobe/pkg/axi4lite"
	"github.com/Thermoquad/hlsprobe/pkg/fifo"
	"github.com/Thermoquad/hlsprobe/pkg/hlsclock"
	"github.com/Thermoquad/hlsprobe/pkg/sim"
	"github.com/Thermoquad/hlsprobe/pkg/uart"
)

// commandDepth is how many decoded commands may wait for a backend
const commandDepth = 4

// Device plays the core's side of a link. Register and clock commands are
// queued to FIFO peers serving the backends; console bytes from the host land
// in the console's receive FIFO.
type Device struct {
	*endpoint

	regs      sim.RegisterBackend
	clock     sim.ClockBackend
	regCmd    *fifo.Queue[axi4lite.Command]
	clkCmd    *fifo.Queue[hlsclock.Op]
	consoleRx *fifo.Queue[byte]
	console   *uart.UART
}

// NewDevice creates a Device. Either backend may be nil, in which case its
// commands are rejected with an ERROR frame.
func NewDevice(conn Connection, regs sim.RegisterBackend, clock sim.ClockBackend, opts ...Option) *Device {
	d := &Device{
		endpoint:  newEndpoint(conn, opts),
		regs:      regs,
		clock:     clock,
		regCmd:    fifo.NewQueue[axi4lite.Command](commandDepth),
		clkCmd:    fifo.NewQueue[hlsclock.Op](commandDepth),
		consoleRx: fifo.NewQueue[byte](consoleDepth),
	}
	d.console = uart.New(byteWriter{d.endpoint, MsgConsoleTx}, d.consoleRx)
	return d
}

// Console returns the core's console: writes are transmitted to the host
func (d *Device) Console() *uart.UART {
	return d.console
}

// Stats returns the link statistics
func (d *Device) Stats() *Statistics {
	return d.stats
}

// Run services commands until the connection closes or ctx is cancelled. A
// Device runs once.
func (d *Device) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	if d.regs != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rsp := frameWriter[axi4lite.Response]{d.endpoint, MsgRegisterResponse, RegisterResponsePayload}
			if err := sim.ServeRegisters(d.regs, d.regCmd, rsp); err != nil {
				d.log.Debug().Err(err).Msg("register peer stopped")
			}
		}()
	}
	if d.clock != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rsp := frameWriter[uint64]{d.endpoint, MsgClockResponse, ClockResponsePayload}
			if err := sim.ServeClock(d.clock, d.clkCmd, rsp); err != nil {
				d.log.Debug().Err(err).Msg("clock peer stopped")
			}
		}()
	}

	err := d.run(ctx, d.dispatch)
	_ = d.regCmd.Close()
	_ = d.clkCmd.Close()
	_ = d.consoleRx.Close()
	wg.Wait()
	return err
}

// Close closes the underlying connection
func (d *Device) Close() error {
	return d.conn.Close()
}

func (d *Device) dispatch(f *Frame) {
	m := f.PayloadMap()

	switch f.Type() {
	case MsgRegisterCommand:
		if d.regs == nil {
			d.reject(ErrorUnsupported, f.Type())
			return
		}
		cmd, err := ParseRegisterCommand(m)
		if err != nil {
			d.log.Warn().Err(err).Msg("bad register command")
			d.reject(ErrorMalformed, f.Type())
			return
		}
		d.log.Debug().Stringer("cmd", cmd).Msg("register command")
		if ok, _ := d.regCmd.TryWrite(cmd); !ok {
			d.reject(ErrorBusy, f.Type())
		}

	case MsgClockCommand:
		if d.clock == nil {
			d.reject(ErrorUnsupported, f.Type())
			return
		}
		op, err := ParseClockCommand(m)
		if err != nil {
			d.log.Warn().Err(err).Msg("bad clock command")
			d.reject(ErrorMalformed, f.Type())
			return
		}
		if ok, _ := d.clkCmd.TryWrite(op); !ok {
			d.reject(ErrorBusy, f.Type())
		}

	case MsgConsoleRx:
		b, err := ParseConsole(m)
		if err != nil {
			d.log.Warn().Err(err).Msg("bad console frame")
			return
		}
		d.copyToSink(b)
		for _, c := range b {
			if ok, _ := d.consoleRx.TryWrite(c); !ok {
				d.log.Debug().Msg("console buffer full, dropping byte")
			}
		}

	case MsgError:
		d.stats.RecordRemoteError()
		d.log.Warn().Msg("host reported an error")

	default:
		d.stats.RecordUnknown()
		d.reject(ErrorInvalidCommand, f.Type())
	}
}

func (d *Device) reply(msgType uint8, payload map[int]interface{}) {
	if err := d.send(msgType, payload); err != nil {
		d.log.Error().Err(err).Msg("reply failed")
	}
}

func (d *Device) reject(code ErrorCode, msgType uint8) {
	d.log.Warn().Stringer("code", code).Str("type", FormatMessageType(msgType)).Msg("rejecting frame")
	d.reply(MsgError, ErrorPayload(code, msgType))
}
