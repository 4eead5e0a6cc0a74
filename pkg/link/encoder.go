// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"errors"
	"fmt"
)

// ErrPayloadTooLarge is returned when a message does not fit in one frame.
var ErrPayloadTooLarge = errors.New("link: payload too large")

// Encode builds a complete wire frame for a message, including framing and
// byte stuffing.
func Encode(msgType uint8, payload map[int]interface{}) ([]byte, error) {
	body, err := encodeMessage(msgType, payload)
	if err != nil {
		return nil, fmt.Errorf("link: encode 0x%02X: %w", msgType, err)
	}
	if len(body) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(body), MaxPayloadSize)
	}

	// The CRC covers the length byte and the payload
	data := make([]byte, 0, len(body)+3)
	data = append(data, uint8(len(body)))
	data = append(data, body...)
	crc := CalculateCRC(data)
	data = append(data, byte(crc>>8), byte(crc&0xFF))

	stuffed := stuffBytes(data)
	frame := make([]byte, 0, len(stuffed)+2)
	frame = append(frame, StartByte)
	frame = append(frame, stuffed...)
	frame = append(frame, EndByte)
	return frame, nil
}

// EncodeFrame encodes a Frame back to wire format.
func EncodeFrame(f *Frame) ([]byte, error) {
	return Encode(f.Type(), f.PayloadMap())
}

// stuffBytes escapes START, END and ESC as ESC + (byte XOR EscXor).
func stuffBytes(data []byte) []byte {
	result := make([]byte, 0, len(data)*2)
	for _, b := range data {
		if b == StartByte || b == EndByte || b == EscByte {
			result = append(result, EscByte, b^EscXor)
		} else {
			result = append(result, b)
		}
	}
	return result
}

// UnstuffBytes is the inverse of the stuffing applied by Encode.
func UnstuffBytes(data []byte) ([]byte, error) {
	result := make([]byte, 0, len(data))
	escapeNext := false
	for _, b := range data {
		switch {
		case escapeNext:
			result = append(result, b^EscXor)
			escapeNext = false
		case b == EscByte:
			escapeNext = true
		default:
			result = append(result, b)
		}
	}
	if escapeNext {
		return nil, fmt.Errorf("%w: incomplete escape sequence", ErrMalformed)
	}
	return result, nil
}
