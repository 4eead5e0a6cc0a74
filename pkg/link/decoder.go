// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"errors"
	"fmt"
	"time"
)

// Decoder errors
var (
	ErrCRCMismatch = errors.New("link: CRC mismatch")
	ErrFraming     = errors.New("link: framing error")
)

// Decoder reassembles frames from a byte stream
type Decoder struct {
	state       int
	buffer      []byte
	bufferIndex int
	escapeNext  bool
	frame       *Frame
}

// NewDecoder creates a new frame decoder
func NewDecoder() *Decoder {
	return &Decoder{
		state:  stateIdle,
		buffer: make([]byte, MaxFrameSize),
	}
}

// Reset returns the decoder to idle
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.bufferIndex = 0
	d.escapeNext = false
	d.frame = nil
}

// DecodeByte feeds one byte through the state machine. It returns a frame
// when one completes, nil while a frame is in progress, and an error wrapping
// ErrCRCMismatch or ErrFraming when a frame is dropped.
func (d *Decoder) DecodeByte(b byte) (*Frame, error) {
	if b == EscByte && !d.escapeNext {
		d.escapeNext = true
		return nil, nil
	}

	escaped := d.escapeNext
	if escaped {
		b ^= EscXor
		d.escapeNext = false
	}

	if !escaped && b == StartByte {
		d.Reset()
		d.state = stateLength
		return nil, nil
	}

	if !escaped && b == EndByte {
		if d.state != stateEnd {
			state := d.state
			d.Reset()
			if state == stateIdle {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: unexpected END in state %d", ErrFraming, state)
		}

		frame := d.frame
		calculated := CalculateCRC(d.buffer[:d.bufferIndex])
		d.Reset()
		if frame.crc != calculated {
			return nil, fmt.Errorf("%w: expected 0x%04X, got 0x%04X", ErrCRCMismatch, calculated, frame.crc)
		}
		frame.timestamp = time.Now()
		return frame, nil
	}

	switch d.state {
	case stateIdle:
		// Line noise between frames
		return nil, nil

	case stateLength:
		if b == 0 || b > MaxPayloadSize {
			d.Reset()
			return nil, fmt.Errorf("%w: invalid length %d (max %d)", ErrFraming, b, MaxPayloadSize)
		}
		d.frame = &Frame{length: b, payload: make([]byte, 0, b)}
		d.buffer[0] = b
		d.bufferIndex = 1
		d.state = statePayload
		return nil, nil

	case statePayload:
		d.frame.payload = append(d.frame.payload, b)
		d.buffer[d.bufferIndex] = b
		d.bufferIndex++
		if len(d.frame.payload) >= int(d.frame.length) {
			d.state = stateCRC1
		}
		return nil, nil

	case stateCRC1:
		d.frame.crc = uint16(b) << 8
		d.state = stateCRC2
		return nil, nil

	case stateCRC2:
		d.frame.crc |= uint16(b)
		d.state = stateEnd
		return nil, nil

	case stateEnd:
		// A third CRC byte means the frame is longer than its length byte says
		d.Reset()
		return nil, fmt.Errorf("%w: missing END after CRC", ErrFraming)

	default:
		d.Reset()
		return nil, fmt.Errorf("%w: invalid state %d", ErrFraming, d.state)
	}
}
