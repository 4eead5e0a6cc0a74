// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package link carries the register, clock and console channel pairs of an
// HLS core over a single byte stream.
//
// Frames are byte-stuffed and CRC protected. Each frame holds one CBOR message
// of the form [msg_type, payload_map]. The host side turns frames back into
// FIFO words so that axi4lite.Transactor, hlsclock.Clock and uart.UART run
// unchanged against a remote core.
package link

// Framing bytes
const (
	StartByte = 0x7E
	EndByte   = 0x7F
	EscByte   = 0x7D
	EscXor    = 0x20
)

// Frame size limits
const (
	MaxFrameSize   = 117 // length + payload + 2 CRC bytes
	MaxPayloadSize = 114
)

// CRC-16-CCITT configuration
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// Message types - Commands (Host → Device) 0x10-0x1F
const (
	MsgRegisterCommand = 0x10
	MsgClockCommand    = 0x11
	MsgConsoleRx       = 0x12
)

// Message types - Responses (Device → Host) 0x30-0x3F
const (
	MsgRegisterResponse = 0x30
	MsgClockResponse    = 0x31
	MsgConsoleTx        = 0x32
)

// Message types - Errors (Bidirectional) 0xE0-0xEF
const (
	MsgError = 0xE0
)

// ErrorCode is carried in an error frame
type ErrorCode int

// Error code values
const (
	ErrorInvalidCommand ErrorCode = 0x00
	ErrorMalformed      ErrorCode = 0x01
	ErrorUnsupported    ErrorCode = 0x02
	ErrorBusy           ErrorCode = 0x03
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorInvalidCommand:
		return "INVALID_COMMAND"
	case ErrorMalformed:
		return "MALFORMED"
	case ErrorUnsupported:
		return "UNSUPPORTED"
	case ErrorBusy:
		return "BUSY"
	default:
		return "UNKNOWN"
	}
}

// Decoder states (internal)
const (
	stateIdle = iota
	stateLength
	statePayload
	stateCRC1
	stateCRC2
	stateEnd
)

// maxConsoleChunk bounds console bytes per frame so the CBOR message stays
// under MaxPayloadSize.
const maxConsoleChunk = 96
