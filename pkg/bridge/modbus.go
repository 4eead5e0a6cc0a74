// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package bridge serves AXI4-Lite register transactions from a Modbus
// device, so a real PLC or I/O module can stand in for the register peer.
//
// A 32-bit register at byte address A maps to the two holding registers
// starting at A/4*2, high word first.
package bridge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Thermoquad/hlsprobe/pkg/axi4lite"
	"github.com/goburrow/modbus"
	"github.com/rs/zerolog"
)

// MaxAddr is the highest byte address that maps into the holding register space
const MaxAddr = 0x1FFFC

// HoldingRegisters is the part of modbus.Client the bridge needs
type HoldingRegisters interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// Config selects a Modbus TCP endpoint or an RTU serial device
type Config struct {
	Endpoint string // host:port for Modbus TCP
	Device   string // serial device for Modbus RTU
	BaudRate int
	UnitID   uint8
	Timeout  time.Duration
}

// ModbusBackend implements sim.RegisterBackend over Modbus holding registers.
// Requests are serialized.
type ModbusBackend struct {
	mu     sync.Mutex
	client HoldingRegisters
	closer io.Closer
	log    zerolog.Logger
}

// New wraps an already connected client
func New(client HoldingRegisters, log zerolog.Logger) *ModbusBackend {
	return &ModbusBackend{client: client, log: log}
}

// Dial connects to the device described by cfg
func Dial(cfg Config, log zerolog.Logger) (*ModbusBackend, error) {
	switch {
	case cfg.Endpoint != "":
		h := modbus.NewTCPClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("bridge: connect %s: %w", cfg.Endpoint, err)
		}
		b := New(modbus.NewClient(h), log)
		b.closer = h
		return b, nil

	case cfg.Device != "":
		h := modbus.NewRTUClientHandler(cfg.Device)
		h.BaudRate = cfg.BaudRate
		h.DataBits = 8
		h.Parity = "N"
		h.StopBits = 1
		h.SlaveId = cfg.UnitID
		h.Timeout = cfg.Timeout
		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("bridge: open %s: %w", cfg.Device, err)
		}
		b := New(modbus.NewClient(h), log)
		b.closer = h
		return b, nil

	default:
		return nil, errors.New("bridge: endpoint or device required")
	}
}

// Close releases the Modbus connection
func (b *ModbusBackend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// Access implements sim.RegisterBackend
func (b *ModbusBackend) Access(cmd axi4lite.Command) axi4lite.Response {
	if cmd.Addr%4 != 0 {
		return axi4lite.NewResponse(axi4lite.RespSlvErr, 0)
	}
	if cmd.Addr > MaxAddr {
		return axi4lite.NewResponse(axi4lite.RespDecErr, 0)
	}
	reg := HoldingRegister(cmd.Addr)

	b.mu.Lock()
	defer b.mu.Unlock()

	if cmd.Write {
		var value [4]byte
		binary.BigEndian.PutUint32(value[:], cmd.Data)
		if _, err := b.client.WriteMultipleRegisters(reg, 2, value[:]); err != nil {
			return b.fail(cmd, err)
		}
		return axi4lite.NewResponse(axi4lite.RespOkay, 0)
	}

	raw, err := b.client.ReadHoldingRegisters(reg, 2)
	if err != nil {
		return b.fail(cmd, err)
	}
	if len(raw) != 4 {
		b.log.Warn().Stringer("cmd", cmd).Int("bytes", len(raw)).Msg("short modbus read")
		return axi4lite.NewResponse(axi4lite.RespSlvErr, 0)
	}
	return axi4lite.NewResponse(axi4lite.RespOkay, binary.BigEndian.Uint32(raw))
}

// fail maps a Modbus error onto a response code. An illegal data address
// exception means nothing decodes there; anything else is a slave error.
func (b *ModbusBackend) fail(cmd axi4lite.Command, err error) axi4lite.Response {
	b.log.Warn().Err(err).Stringer("cmd", cmd).Msg("modbus request failed")

	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) && mbErr.ExceptionCode == modbus.ExceptionCodeIllegalDataAddress {
		return axi4lite.NewResponse(axi4lite.RespDecErr, 0)
	}
	return axi4lite.NewResponse(axi4lite.RespSlvErr, 0)
}

// HoldingRegister returns the first holding register backing byte address addr
func HoldingRegister(addr uint32) uint16 {
	return uint16(addr / 4 * 2)
}
