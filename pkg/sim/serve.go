// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sim

import (
	"errors"

	"github.com/Thermoquad/hlsprobe/pkg/axi4lite"
	"github.com/Thermoquad/hlsprobe/pkg/fifo"
	"github.com/Thermoquad/hlsprobe/pkg/hlsclock"
)

// ServeRegisters answers every command read from cmd with one response on
// rsp. It returns nil once cmd is closed and drained.
func ServeRegisters(backend RegisterBackend, cmd fifo.Reader[axi4lite.Command], rsp fifo.Writer[axi4lite.Response]) error {
	for {
		c, err := cmd.Read()
		if err != nil {
			return ignoreClosed(err)
		}
		if err := rsp.Write(backend.Access(c)); err != nil {
			return ignoreClosed(err)
		}
	}
}

// ServeClock answers clock commands. A reset is acknowledged with a zero word.
func ServeClock(backend ClockBackend, cmd fifo.Reader[hlsclock.Op], rsp fifo.Writer[uint64]) error {
	for {
		op, err := cmd.Read()
		if err != nil {
			return ignoreClosed(err)
		}
		var v uint64
		if op == hlsclock.OpReset {
			backend.Reset()
		} else {
			v = backend.Now()
		}
		if err := rsp.Write(v); err != nil {
			return ignoreClosed(err)
		}
	}
}

func ignoreClosed(err error) error {
	if errors.Is(err, fifo.ErrClosed) {
		return nil
	}
	return err
}
