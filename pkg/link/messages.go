// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"fmt"

	"github.com/Thermoquad/hlsprobe/pkg/axi4lite"
	"github.com/Thermoquad/hlsprobe/pkg/hlsclock"
)

// Payload map keys
const (
	keyRegWrite  = 0
	keyRegData   = 1
	keyRegAddr   = 2
	keyRspStatus = 0
	keyRspData   = 1
	keyClockOp   = 0
	keyClockUs   = 0
	keyBytes     = 0
	keyErrCode   = 0
	keyErrType   = 1
)

// RegisterCommandPayload builds the payload of a REGISTER_COMMAND frame.
func RegisterCommandPayload(c axi4lite.Command) map[int]interface{} {
	m := map[int]interface{}{
		keyRegWrite: c.Write,
		keyRegAddr:  uint64(c.Addr),
	}
	if c.Write {
		m[keyRegData] = uint64(c.Data)
	}
	return m
}

// ParseRegisterCommand decodes a REGISTER_COMMAND payload.
func ParseRegisterCommand(m map[int]interface{}) (axi4lite.Command, error) {
	write, ok := GetMapBool(m, keyRegWrite)
	if !ok {
		return axi4lite.Command{}, fmt.Errorf("%w: register command without rw flag", ErrMalformed)
	}
	addr, ok := getUint32(m, keyRegAddr)
	if !ok {
		return axi4lite.Command{}, fmt.Errorf("%w: register command without address", ErrMalformed)
	}
	if !write {
		return axi4lite.ReadCommand(addr), nil
	}
	data, ok := getUint32(m, keyRegData)
	if !ok {
		return axi4lite.Command{}, fmt.Errorf("%w: register write without data", ErrMalformed)
	}
	return axi4lite.WriteCommand(addr, data), nil
}

// RegisterResponsePayload builds the payload of a REGISTER_RESPONSE frame.
func RegisterResponsePayload(r axi4lite.Response) map[int]interface{} {
	return map[int]interface{}{
		keyRspStatus: uint64(r.Status()),
		keyRspData:   uint64(r.Data()),
	}
}

// ParseRegisterResponse decodes a REGISTER_RESPONSE payload.
func ParseRegisterResponse(m map[int]interface{}) (axi4lite.Response, error) {
	status, ok := GetMapUint(m, keyRspStatus)
	if !ok || status > 0xFF {
		return 0, fmt.Errorf("%w: register response without status", ErrMalformed)
	}
	data, ok := getUint32(m, keyRspData)
	if !ok {
		return 0, fmt.Errorf("%w: register response without data", ErrMalformed)
	}
	return axi4lite.NewResponse(axi4lite.Resp(status), data), nil
}

// ClockCommandPayload builds the payload of a CLOCK_COMMAND frame.
func ClockCommandPayload(op hlsclock.Op) map[int]interface{} {
	return map[int]interface{}{keyClockOp: uint64(op)}
}

// ParseClockCommand decodes a CLOCK_COMMAND payload.
func ParseClockCommand(m map[int]interface{}) (hlsclock.Op, error) {
	op, ok := GetMapUint(m, keyClockOp)
	if !ok || op > 1 {
		return 0, fmt.Errorf("%w: bad clock op", ErrMalformed)
	}
	return hlsclock.Op(op), nil
}

// ClockResponsePayload builds the payload of a CLOCK_RESPONSE frame.
func ClockResponsePayload(us uint64) map[int]interface{} {
	return map[int]interface{}{keyClockUs: us}
}

// ParseClockResponse decodes a CLOCK_RESPONSE payload.
func ParseClockResponse(m map[int]interface{}) (uint64, error) {
	us, ok := GetMapUint(m, keyClockUs)
	if !ok {
		return 0, fmt.Errorf("%w: clock response without value", ErrMalformed)
	}
	return us, nil
}

// ConsolePayload builds the payload of a CONSOLE_RX or CONSOLE_TX frame.
func ConsolePayload(b []byte) map[int]interface{} {
	return map[int]interface{}{keyBytes: b}
}

// ParseConsole decodes a CONSOLE_RX or CONSOLE_TX payload.
func ParseConsole(m map[int]interface{}) ([]byte, error) {
	b, ok := GetMapBytes(m, keyBytes)
	if !ok {
		return nil, fmt.Errorf("%w: console frame without bytes", ErrMalformed)
	}
	return b, nil
}

// ErrorPayload builds the payload of an ERROR frame naming the rejected type.
func ErrorPayload(code ErrorCode, msgType uint8) map[int]interface{} {
	return map[int]interface{}{
		keyErrCode: uint64(code),
		keyErrType: uint64(msgType),
	}
}

// ParseError decodes an ERROR payload.
func ParseError(m map[int]interface{}) (ErrorCode, uint8, error) {
	code, ok := GetMapUint(m, keyErrCode)
	if !ok {
		return 0, 0, fmt.Errorf("%w: error frame without code", ErrMalformed)
	}
	msgType, _ := GetMapUint(m, keyErrType)
	return ErrorCode(code), uint8(msgType), nil
}

func getUint32(m map[int]interface{}, key int) (uint32, bool) {
	v, ok := GetMapUint(m, key)
	if !ok || v > 0xFFFFFFFF {
		return 0, false
	}
	return uint32(v), true
}
