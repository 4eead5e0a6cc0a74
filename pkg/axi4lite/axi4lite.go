// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package axi4lite performs AXI4-Lite register reads and writes over a
// command/response FIFO pair connected to a FIFO-to-AXI bridge.
//
// Each call is one complete transaction: the command word is written, then
// exactly one response word is read. The returned status is the bridge's
// BRESP/RRESP value and is passed through uninterpreted; non-zero means the
// peer rejected or faulted the access.
package axi4lite

import (
	"fmt"

	"github.com/Thermoquad/hlsprobe/pkg/fifo"
)

// Transactor issues register transactions. Only one transaction may be in
// flight at a time; overlapping calls fail with fifo.ErrBusy instead of
// interleaving on the channels.
type Transactor struct {
	pair *fifo.Pair[Command, Response]
}

// New creates a Transactor that owns cmd and rsp.
func New(cmd fifo.Writer[Command], rsp fifo.Reader[Response]) *Transactor {
	return &Transactor{pair: fifo.NewPair(cmd, rsp)}
}

// Write stores data at addr and returns the write response status.
func (t *Transactor) Write(addr, data uint32) (uint8, error) {
	rsp, err := t.pair.Do(WriteCommand(addr, data))
	if err != nil {
		return 0, fmt.Errorf("axi4lite: write 0x%08X: %w", addr, err)
	}
	return rsp.Status(), nil
}

// Read loads the register at addr and returns its value and the read
// response status.
func (t *Transactor) Read(addr uint32) (uint32, uint8, error) {
	rsp, err := t.pair.Do(ReadCommand(addr))
	if err != nil {
		return 0, 0, fmt.Errorf("axi4lite: read 0x%08X: %w", addr, err)
	}
	return rsp.Data(), rsp.Status(), nil
}

// Begin starts a transaction by hand, for callers that need to poll for the
// response instead of blocking. See fifo.Txn.
func (t *Transactor) Begin() (*fifo.Txn[Command, Response], error) {
	return t.pair.Begin()
}

// Busy reports whether a transaction is waiting for its response.
func (t *Transactor) Busy() bool {
	return t.pair.Busy()
}
