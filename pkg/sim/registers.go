// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package sim provides software peers for the register and clock channels:
// a register file and a microsecond counter that answer commands the way a
// FIFO-to-AXI bridge and the clock block would.
package sim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Thermoquad/hlsprobe/pkg/axi4lite"
	"github.com/rs/zerolog"
)

// RegisterBackend answers one register transaction.
type RegisterBackend interface {
	Access(cmd axi4lite.Command) axi4lite.Response
}

// AccessMode is the access policy of a declared register
type AccessMode uint8

// Access modes
const (
	ReadWrite AccessMode = iota
	ReadOnly
)

func (m AccessMode) String() string {
	if m == ReadOnly {
		return "ro"
	}
	return "rw"
}

// Register declares one 32-bit register
type Register struct {
	Name  string
	Addr  uint32
	Mode  AccessMode
	Reset uint32
}

// RegisterFile is a word-addressed register store.
//
// With no declared registers every aligned address is backed and reads as
// zero until written. Once registers are declared, other addresses decode to
// DECERR. Unaligned accesses and writes to read-only registers get SLVERR.
type RegisterFile struct {
	mu       sync.Mutex
	values   map[uint32]uint32
	declared map[uint32]Register
	log      zerolog.Logger
}

// NewRegisterFile creates a register file holding regs at their reset values.
func NewRegisterFile(regs ...Register) (*RegisterFile, error) {
	f := &RegisterFile{
		values: make(map[uint32]uint32),
		log:    zerolog.Nop(),
	}
	if len(regs) > 0 {
		f.declared = make(map[uint32]Register, len(regs))
	}
	for _, r := range regs {
		if r.Addr%4 != 0 {
			return nil, fmt.Errorf("sim: register %q at 0x%08X is not word aligned", r.Name, r.Addr)
		}
		if prev, dup := f.declared[r.Addr]; dup {
			return nil, fmt.Errorf("sim: registers %q and %q share address 0x%08X", prev.Name, r.Name, r.Addr)
		}
		f.declared[r.Addr] = r
		f.values[r.Addr] = r.Reset
	}
	return f, nil
}

// SetLogger sets the logger used for rejected accesses.
func (f *RegisterFile) SetLogger(l zerolog.Logger) {
	f.log = l
}

// Access implements RegisterBackend.
func (f *RegisterFile) Access(cmd axi4lite.Command) axi4lite.Response {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cmd.Addr%4 != 0 {
		f.log.Debug().Stringer("cmd", cmd).Msg("unaligned access")
		return axi4lite.NewResponse(axi4lite.RespSlvErr, 0)
	}

	if f.declared != nil {
		reg, ok := f.declared[cmd.Addr]
		if !ok {
			f.log.Debug().Stringer("cmd", cmd).Msg("unmapped address")
			return axi4lite.NewResponse(axi4lite.RespDecErr, 0)
		}
		if cmd.Write && reg.Mode == ReadOnly {
			f.log.Debug().Str("reg", reg.Name).Msg("write to read-only register")
			return axi4lite.NewResponse(axi4lite.RespSlvErr, 0)
		}
	}

	if cmd.Write {
		f.values[cmd.Addr] = cmd.Data
		return axi4lite.NewResponse(axi4lite.RespOkay, 0)
	}
	return axi4lite.NewResponse(axi4lite.RespOkay, f.values[cmd.Addr])
}

// Set stores v at addr regardless of access mode, as the core itself would.
func (f *RegisterFile) Set(addr, v uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[addr] = v
}

// Peek returns the stored value at addr.
func (f *RegisterFile) Peek(addr uint32) (uint32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[addr]
	return v, ok
}

// Registers returns the declared registers ordered by address.
func (f *RegisterFile) Registers() []Register {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Register, 0, len(f.declared))
	for _, r := range f.declared {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// Reset restores every declared register to its reset value and clears
// undeclared storage.
func (f *RegisterFile) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = make(map[uint32]uint32, len(f.declared))
	for addr, r := range f.declared {
		f.values[addr] = r.Reset
	}
}
