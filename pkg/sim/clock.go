// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sim

import (
	"sync"
	"time"
)

// ClockBackend is a microsecond counter.
type ClockBackend interface {
	Now() uint64
	Reset()
}

// Clock counts microseconds since creation or the last Reset.
type Clock struct {
	mu    sync.Mutex
	now   func() time.Time
	epoch time.Time
	start uint64
}

// NewClock creates a Clock reading start microseconds at creation.
func NewClock(start uint64) *Clock {
	return NewClockWithSource(time.Now, start)
}

// NewClockWithSource creates a Clock driven by now instead of the wall clock.
func NewClockWithSource(now func() time.Time, start uint64) *Clock {
	return &Clock{now: now, epoch: now(), start: start}
}

// Now implements ClockBackend.
func (c *Clock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start + uint64(c.now().Sub(c.epoch)/time.Microsecond)
}

// Reset implements ClockBackend.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch = c.now()
	c.start = 0
}
