// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package axi4lite

import (
	"encoding/binary"
	"fmt"
)

// Word widths on the command and response channels
const (
	CommandBits  = 65
	ResponseBits = 34

	// CommandWordSize is the byte size of a packed command word image.
	CommandWordSize = 9

	responseMask = uint64(1)<<ResponseBits - 1
)

// Resp is an AXI4-Lite response code (BRESP/RRESP).
type Resp uint8

// Response code values
const (
	RespOkay   Resp = 0x0
	RespExOkay Resp = 0x1
	RespSlvErr Resp = 0x2
	RespDecErr Resp = 0x3
)

func (r Resp) String() string {
	switch r {
	case RespOkay:
		return "OKAY"
	case RespExOkay:
		return "EXOKAY"
	case RespSlvErr:
		return "SLVERR"
	case RespDecErr:
		return "DECERR"
	default:
		return fmt.Sprintf("RESP(0x%02X)", uint8(r))
	}
}

// Command is one register transaction request.
//
// On the wire it is a 65-bit word: bit 64 is the write flag, bits 63..32 carry
// the write data and bits 31..0 the address. A read is the bare address.
type Command struct {
	Write bool
	Data  uint32
	Addr  uint32
}

// ReadCommand builds a read request for addr.
func ReadCommand(addr uint32) Command {
	return Command{Addr: addr}
}

// WriteCommand builds a write request of data to addr.
func WriteCommand(addr, data uint32) Command {
	return Command{Write: true, Data: data, Addr: addr}
}

// Bits returns the command as its high bit (bit 64) and low 64 bits.
func (c Command) Bits() (hi uint8, lo uint64) {
	if c.Write {
		hi = 1
		lo = uint64(c.Data)<<32 | uint64(c.Addr)
		return hi, lo
	}
	return 0, uint64(c.Addr)
}

// CommandFromBits is the inverse of Command.Bits. Data is ignored for reads.
func CommandFromBits(hi uint8, lo uint64) Command {
	if hi&1 == 0 {
		return Command{Addr: uint32(lo)}
	}
	return Command{Write: true, Data: uint32(lo >> 32), Addr: uint32(lo)}
}

// Word packs the command into a big-endian 9-byte image of the 65-bit word.
func (c Command) Word() [CommandWordSize]byte {
	var w [CommandWordSize]byte
	hi, lo := c.Bits()
	w[0] = hi
	binary.BigEndian.PutUint64(w[1:], lo)
	return w
}

// ParseCommandWord unpacks a 9-byte command word image.
func ParseCommandWord(w [CommandWordSize]byte) Command {
	return CommandFromBits(w[0], binary.BigEndian.Uint64(w[1:]))
}

func (c Command) String() string {
	if c.Write {
		return fmt.Sprintf("write 0x%08X <- 0x%08X", c.Addr, c.Data)
	}
	return fmt.Sprintf("read 0x%08X", c.Addr)
}

// Response is the 34-bit response word: status above bit 32, data below.
type Response uint64

// NewResponse builds a response word. Status bits beyond the word are dropped.
func NewResponse(status Resp, data uint32) Response {
	return Response((uint64(status)<<32 | uint64(data)) & responseMask)
}

// Status returns the response code carried above bit 32.
func (r Response) Status() uint8 {
	return uint8(uint64(r) >> 32)
}

// Data returns the low 32 bits.
func (r Response) Data() uint32 {
	return uint32(r)
}

func (r Response) String() string {
	return fmt.Sprintf("%s data=0x%08X", Resp(r.Status()), r.Data())
}
