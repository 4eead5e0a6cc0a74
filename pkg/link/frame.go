// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import "time"

// Frame is one decoded link frame
type Frame struct {
	length    uint8
	payload   []byte // Raw CBOR bytes: [msg_type, payload_map]
	crc       uint16
	timestamp time.Time

	// Parsed on first access
	msgType    uint8
	payloadMap map[int]interface{}
	parsed     bool
	parseErr   error
}

// NewFrame creates a frame from a message type and payload map
func NewFrame(msgType uint8, payload map[int]interface{}) *Frame {
	return &Frame{
		msgType:    msgType,
		payloadMap: payload,
		parsed:     true,
		timestamp:  time.Now(),
	}
}

func (f *Frame) ensureParsed() {
	if f.parsed {
		return
	}
	f.parsed = true
	f.msgType, f.payloadMap, f.parseErr = ParseMessage(f.payload)
}

// Length returns the CBOR payload length
func (f *Frame) Length() uint8 {
	return f.length
}

// Type returns the message type
func (f *Frame) Type() uint8 {
	f.ensureParsed()
	return f.msgType
}

// Payload returns the raw CBOR bytes
func (f *Frame) Payload() []byte {
	return f.payload
}

// PayloadMap returns the decoded payload map (nil for empty payloads)
func (f *Frame) PayloadMap() map[int]interface{} {
	f.ensureParsed()
	return f.payloadMap
}

// ParseError returns any error from parsing the CBOR payload
func (f *Frame) ParseError() error {
	f.ensureParsed()
	return f.parseErr
}

// CRC returns the frame's CRC value
func (f *Frame) CRC() uint16 {
	return f.crc
}

// Timestamp returns the decode time
func (f *Frame) Timestamp() time.Time {
	return f.timestamp
}
