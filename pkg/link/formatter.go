// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/Thermoquad/hlsprobe/pkg/axi4lite"
)

// FormatFrame formats a frame into a human-readable string
func FormatFrame(f *Frame) string {
	timestamp := f.timestamp.Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s (0x%02X) len=%d\n", timestamp, FormatMessageType(f.Type()), f.Type(), f.length)

	if err := f.ParseError(); err != nil {
		return result + fmt.Sprintf("  Parse error: %v\n", err)
	}
	return result + FormatPayloadMap(f.Type(), f.PayloadMap())
}

// FormatMessageType returns the human-readable name for a message type
func FormatMessageType(msgType uint8) string {
	switch msgType {
	case MsgRegisterCommand:
		return "REGISTER_COMMAND"
	case MsgClockCommand:
		return "CLOCK_COMMAND"
	case MsgConsoleRx:
		return "CONSOLE_RX"
	case MsgRegisterResponse:
		return "REGISTER_RESPONSE"
	case MsgClockResponse:
		return "CLOCK_RESPONSE"
	case MsgConsoleTx:
		return "CONSOLE_TX"
	case MsgError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FormatPayloadMap formats the decoded payload of a known message type
func FormatPayloadMap(msgType uint8, m map[int]interface{}) string {
	switch msgType {
	case MsgRegisterCommand:
		if c, err := ParseRegisterCommand(m); err == nil {
			return fmt.Sprintf("  %s\n", c)
		}
	case MsgRegisterResponse:
		if r, err := ParseRegisterResponse(m); err == nil {
			return fmt.Sprintf("  Status: %s, Data: 0x%08X\n", axi4lite.Resp(r.Status()), r.Data())
		}
	case MsgClockCommand:
		if op, err := ParseClockCommand(m); err == nil {
			return fmt.Sprintf("  Op: %s\n", op)
		}
	case MsgClockResponse:
		if us, err := ParseClockResponse(m); err == nil {
			return fmt.Sprintf("  Time: %d us (%.3f sec)\n", us, float64(us)/1e6)
		}
	case MsgConsoleRx, MsgConsoleTx:
		if b, err := ParseConsole(m); err == nil {
			return fmt.Sprintf("  Bytes: %s\n", strconv.Quote(string(b)))
		}
	case MsgError:
		if code, t, err := ParseError(m); err == nil {
			return fmt.Sprintf("  Error: %s, Rejected: %s (0x%02X)\n", code, FormatMessageType(t), t)
		}
	}

	if len(m) == 0 {
		return "  (no payload)\n"
	}
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	result := ""
	for _, k := range keys {
		result += fmt.Sprintf("  [%d] %v\n", k, m[k])
	}
	return result
}
