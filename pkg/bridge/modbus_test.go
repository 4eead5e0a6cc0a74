// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bridge

import (
	"errors"
	"testing"

	"github.com/Thermoquad/hlsprobe/pkg/axi4lite"
	"github.com/goburrow/modbus"
	"github.com/rs/zerolog"
)

// fakeHolding is an in-memory holding register table
type fakeHolding struct {
	regs  map[uint16]uint16
	limit uint16
	err   error
	calls int
}

func newFakeHolding(limit uint16) *fakeHolding {
	return &fakeHolding{regs: make(map[uint16]uint16), limit: limit}
}

func (f *fakeHolding) check(address, quantity uint16) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if uint32(address)+uint32(quantity) > uint32(f.limit) {
		return &modbus.ModbusError{FunctionCode: 0x03, ExceptionCode: modbus.ExceptionCodeIllegalDataAddress}
	}
	return nil
}

func (f *fakeHolding) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	if err := f.check(address, quantity); err != nil {
		return nil, err
	}
	out := make([]byte, 0, quantity*2)
	for i := uint16(0); i < quantity; i++ {
		r := f.regs[address+i]
		out = append(out, byte(r>>8), byte(r))
	}
	return out, nil
}

func (f *fakeHolding) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	if err := f.check(address, quantity); err != nil {
		return nil, err
	}
	for i := uint16(0); i < quantity; i++ {
		f.regs[address+i] = uint16(value[2*i])<<8 | uint16(value[2*i+1])
	}
	return []byte{byte(address >> 8), byte(address), byte(quantity >> 8), byte(quantity)}, nil
}

func TestModbusBackend_WordOrder(t *testing.T) {
	fake := newFakeHolding(100)
	b := New(fake, zerolog.Nop())

	rsp := b.Access(axi4lite.WriteCommand(0x8, 0x11223344))
	if rsp.Status() != uint8(axi4lite.RespOkay) {
		t.Fatalf("write status = %s", axi4lite.Resp(rsp.Status()))
	}
	if fake.regs[4] != 0x1122 || fake.regs[5] != 0x3344 {
		t.Errorf("holding registers 4,5 = %04X %04X", fake.regs[4], fake.regs[5])
	}

	rsp = b.Access(axi4lite.ReadCommand(0x8))
	if rsp.Status() != uint8(axi4lite.RespOkay) || rsp.Data() != 0x11223344 {
		t.Errorf("read = %s", rsp)
	}
}

func TestModbusBackend_Errors(t *testing.T) {
	tests := []struct {
		name   string
		cmd    axi4lite.Command
		err    error
		status axi4lite.Resp
		calls  int
	}{
		{"unaligned", axi4lite.ReadCommand(0x6), nil, axi4lite.RespSlvErr, 0},
		{"beyond register space", axi4lite.ReadCommand(MaxAddr + 4), nil, axi4lite.RespDecErr, 0},
		{"illegal data address", axi4lite.ReadCommand(0x100), nil, axi4lite.RespDecErr, 1},
		{"transport failure", axi4lite.WriteCommand(0x0, 1), errors.New("timeout"), axi4lite.RespSlvErr, 1},
		{"device busy", axi4lite.ReadCommand(0x0), &modbus.ModbusError{FunctionCode: 0x03, ExceptionCode: modbus.ExceptionCodeServerDeviceBusy}, axi4lite.RespSlvErr, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeHolding(16)
			fake.err = tt.err
			b := New(fake, zerolog.Nop())

			rsp := b.Access(tt.cmd)
			if rsp.Status() != uint8(tt.status) {
				t.Errorf("status = %s, want %s", axi4lite.Resp(rsp.Status()), tt.status)
			}
			if fake.calls != tt.calls {
				t.Errorf("modbus calls = %d, want %d", fake.calls, tt.calls)
			}
		})
	}
}

func TestHoldingRegister(t *testing.T) {
	tests := []struct {
		addr uint32
		want uint16
	}{
		{0x0, 0},
		{0x4, 2},
		{0x400, 0x200},
		{MaxAddr, 0xFFFE},
	}
	for _, tt := range tests {
		if got := HoldingRegister(tt.addr); got != tt.want {
			t.Errorf("HoldingRegister(0x%X) = %d, want %d", tt.addr, got, tt.want)
		}
	}
}

func TestDial_RequiresTarget(t *testing.T) {
	if _, err := Dial(Config{}, zerolog.Nop()); err == nil {
		t.Error("Dial with empty config succeeded")
	}
}
