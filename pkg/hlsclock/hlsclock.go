// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package hlsclock queries the core's free-running microsecond counter.
package hlsclock

import (
	"fmt"

	"github.com/Thermoquad/hlsprobe/pkg/fifo"
)

// Op is the 1-bit clock command token.
type Op uint8

// Clock commands
const (
	OpRead  Op = 0
	OpReset Op = 1
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpReset:
		return "reset"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Clock talks to the counter over a command/response FIFO pair.
type Clock struct {
	pair *fifo.Pair[Op, uint64]
}

// New creates a Clock that owns cmd and rsp.
func New(cmd fifo.Writer[Op], rsp fifo.Reader[uint64]) *Clock {
	return &Clock{pair: fifo.NewPair(cmd, rsp)}
}

// Now returns the counter value in microseconds.
func (c *Clock) Now() (uint64, error) {
	us, err := c.pair.Do(OpRead)
	if err != nil {
		return 0, fmt.Errorf("hlsclock: read: %w", err)
	}
	return us, nil
}

// Reset sets the counter back to zero and waits for the acknowledgment.
func (c *Clock) Reset() error {
	if _, err := c.pair.Do(OpReset); err != nil {
		return fmt.Errorf("hlsclock: reset: %w", err)
	}
	return nil
}

// Busy reports whether a request is waiting for its response.
func (c *Clock) Busy() bool {
	return c.pair.Busy()
}
