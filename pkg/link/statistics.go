// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Statistics tracks frame counters and error rates for one link. It is safe
// for concurrent use.
type Statistics struct {
	mu sync.Mutex
	Counters
}

// Counters is a point-in-time copy of link statistics
type Counters struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames   uint64
	ValidFrames   uint64
	CRCErrors     uint64
	FramingErrors uint64
	ParseErrors   uint64
	UnknownTypes  uint64
	Unsolicited   uint64 // Responses with no transaction waiting
	RemoteErrors  uint64 // ERROR frames received
	FramesSent    uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{Counters: Counters{
		StartTime:      now,
		LastUpdateTime: now,
	}}
}

// RecordDecode counts the outcome of one decoded frame or decode error
func (s *Statistics) RecordDecode(frame *Frame, decodeErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalFrames++
	s.LastUpdateTime = time.Now()

	switch {
	case errors.Is(decodeErr, ErrCRCMismatch):
		s.CRCErrors++
	case decodeErr != nil:
		s.FramingErrors++
	case frame != nil && frame.ParseError() != nil:
		s.ParseErrors++
	default:
		s.ValidFrames++
	}
}

// RecordUnknown counts a well-formed frame of an unexpected type
func (s *Statistics) RecordUnknown() {
	s.mu.Lock()
	s.UnknownTypes++
	s.mu.Unlock()
}

// RecordUnsolicited counts a response that no transaction was waiting for
func (s *Statistics) RecordUnsolicited() {
	s.mu.Lock()
	s.Unsolicited++
	s.mu.Unlock()
}

// RecordRemoteError counts an ERROR frame from the peer
func (s *Statistics) RecordRemoteError() {
	s.mu.Lock()
	s.RemoteErrors++
	s.mu.Unlock()
}

// RecordSent counts an outbound frame
func (s *Statistics) RecordSent() {
	s.mu.Lock()
	s.FramesSent++
	s.mu.Unlock()
}

// Snapshot returns a copy of the counters with rates calculated
func (s *Statistics) Snapshot() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()
	return s.Counters
}

// Errors returns the total of all receive-side error counters
func (c Counters) Errors() uint64 {
	return c.CRCErrors + c.FramingErrors + c.ParseErrors + c.UnknownTypes
}

func (c *Counters) calculateRates() {
	elapsed := time.Since(c.StartTime).Seconds()
	if elapsed > 0 {
		c.FrameRate = float64(c.TotalFrames) / elapsed
		c.ErrorRate = float64(c.Errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	return s.Snapshot().String()
}

// String returns a formatted statistics summary
func (snap Counters) String() string {
	var validPercent, crcPercent, framingPercent, parsePercent float64
	if snap.TotalFrames > 0 {
		total := float64(snap.TotalFrames)
		validPercent = float64(snap.ValidFrames) * 100.0 / total
		crcPercent = float64(snap.CRCErrors) * 100.0 / total
		framingPercent = float64(snap.FramingErrors) * 100.0 / total
		parsePercent = float64(snap.ParseErrors) * 100.0 / total
	}

	elapsed := time.Since(snap.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", snap.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", snap.ValidFrames, validPercent)
	result += fmt.Sprintf("Frames Sent:     %8d\n", snap.FramesSent)

	if snap.CRCErrors > 0 {
		result += fmt.Sprintf("CRC Errors:      %8d (%.1f%%)\n", snap.CRCErrors, crcPercent)
	}
	if snap.FramingErrors > 0 {
		result += fmt.Sprintf("Framing Errors:  %8d (%.1f%%)\n", snap.FramingErrors, framingPercent)
	}
	if snap.ParseErrors > 0 {
		result += fmt.Sprintf("Parse Errors:    %8d (%.1f%%)\n", snap.ParseErrors, parsePercent)
	}
	if snap.UnknownTypes > 0 {
		result += fmt.Sprintf("Unknown Types:   %8d\n", snap.UnknownTypes)
	}
	if snap.Unsolicited > 0 {
		result += fmt.Sprintf("Unsolicited:     %8d\n", snap.Unsolicited)
	}
	if snap.RemoteErrors > 0 {
		result += fmt.Sprintf("Remote Errors:   %8d\n", snap.RemoteErrors)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", snap.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", snap.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.Counters = Counters{StartTime: now, LastUpdateTime: now}
}
