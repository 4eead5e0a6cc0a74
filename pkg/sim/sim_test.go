// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sim

import (
	"testing"
	"time"

	"github.com/Thermoquad/hlsprobe/pkg/axi4lite"
	"github.com/Thermoquad/hlsprobe/pkg/fifo"
	"github.com/Thermoquad/hlsprobe/pkg/hlsclock"
	"github.com/stretchr/testify/require"
)

func TestRegisterFile_Sparse(t *testing.T) {
	f, err := NewRegisterFile()
	require.NoError(t, err)

	rsp := f.Access(axi4lite.ReadCommand(0x100))
	require.Equal(t, uint8(axi4lite.RespOkay), rsp.Status())
	require.Equal(t, uint32(0), rsp.Data())

	rsp = f.Access(axi4lite.WriteCommand(0x100, 0xABCD))
	require.Equal(t, uint8(axi4lite.RespOkay), rsp.Status())

	rsp = f.Access(axi4lite.ReadCommand(0x100))
	require.Equal(t, uint32(0xABCD), rsp.Data())
}

func TestRegisterFile_Declared(t *testing.T) {
	f, err := NewRegisterFile(
		Register{Name: "ctrl", Addr: 0x00, Mode: ReadWrite},
		Register{Name: "id", Addr: 0x04, Mode: ReadOnly, Reset: 0x484C5331},
	)
	require.NoError(t, err)

	tests := []struct {
		name   string
		cmd    axi4lite.Command
		status axi4lite.Resp
		data   uint32
	}{
		{"read reset value", axi4lite.ReadCommand(0x04), axi4lite.RespOkay, 0x484C5331},
		{"write rw", axi4lite.WriteCommand(0x00, 1), axi4lite.RespOkay, 0},
		{"read back rw", axi4lite.ReadCommand(0x00), axi4lite.RespOkay, 1},
		{"write ro", axi4lite.WriteCommand(0x04, 0), axi4lite.RespSlvErr, 0},
		{"unmapped", axi4lite.ReadCommand(0x08), axi4lite.RespDecErr, 0},
		{"unaligned", axi4lite.ReadCommand(0x02), axi4lite.RespSlvErr, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsp := f.Access(tt.cmd)
			require.Equal(t, uint8(tt.status), rsp.Status())
			require.Equal(t, tt.data, rsp.Data())
		})
	}

	v, _ := f.Peek(0x04)
	require.Equal(t, uint32(0x484C5331), v)

	f.Reset()
	v, _ = f.Peek(0x00)
	require.Equal(t, uint32(0), v)
}

func TestNewRegisterFile_Rejects(t *testing.T) {
	_, err := NewRegisterFile(Register{Name: "odd", Addr: 0x3})
	require.Error(t, err)

	_, err = NewRegisterFile(Register{Name: "a", Addr: 0x10}, Register{Name: "b", Addr: 0x10})
	require.Error(t, err)
}

func TestRegisterFile_RegistersSorted(t *testing.T) {
	f, err := NewRegisterFile(
		Register{Name: "c", Addr: 0x8},
		Register{Name: "a", Addr: 0x0},
		Register{Name: "b", Addr: 0x4},
	)
	require.NoError(t, err)

	regs := f.Registers()
	require.Len(t, regs, 3)
	require.Equal(t, "a", regs[0].Name)
	require.Equal(t, "b", regs[1].Name)
	require.Equal(t, "c", regs[2].Name)
}

// fakeTime advances only when told to
type fakeTime struct{ t time.Time }

func (f *fakeTime) now() time.Time          { return f.t }
func (f *fakeTime) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestClock_CountsAndResets(t *testing.T) {
	ft := &fakeTime{t: time.Unix(1000, 0)}
	c := NewClockWithSource(ft.now, 500)

	require.Equal(t, uint64(500), c.Now())
	ft.advance(2500 * time.Microsecond)
	require.Equal(t, uint64(3000), c.Now())

	c.Reset()
	require.Equal(t, uint64(0), c.Now())
	ft.advance(time.Millisecond)
	require.Equal(t, uint64(1000), c.Now())
}

func TestServeRegisters_StopsOnClose(t *testing.T) {
	f, err := NewRegisterFile()
	require.NoError(t, err)
	cmd := fifo.NewQueue[axi4lite.Command](4)
	rsp := fifo.NewQueue[axi4lite.Response](4)

	require.NoError(t, cmd.Write(axi4lite.WriteCommand(0x0, 7)))
	require.NoError(t, cmd.Write(axi4lite.ReadCommand(0x0)))
	require.NoError(t, cmd.Close())

	require.NoError(t, ServeRegisters(f, cmd, rsp))
	require.Equal(t, 2, rsp.Len())

	_, err = rsp.Read()
	require.NoError(t, err)
	r, err := rsp.Read()
	require.NoError(t, err)
	require.Equal(t, uint32(7), r.Data())
}

func TestServeClock_ResetAck(t *testing.T) {
	ft := &fakeTime{t: time.Unix(0, 0)}
	c := NewClockWithSource(ft.now, 42)
	cmd := fifo.NewQueue[hlsclock.Op](4)
	rsp := fifo.NewQueue[uint64](4)

	require.NoError(t, cmd.Write(hlsclock.OpRead))
	require.NoError(t, cmd.Write(hlsclock.OpReset))
	require.NoError(t, cmd.Close())
	require.NoError(t, ServeClock(c, cmd, rsp))

	v, _ := rsp.Read()
	require.Equal(t, uint64(42), v)
	v, _ = rsp.Read()
	require.Equal(t, uint64(0), v)
	require.Equal(t, uint64(0), c.Now())
}

func TestServePeers_AnswerClients(t *testing.T) {
	f, err := NewRegisterFile(Register{Name: "scratch", Addr: 0x10})
	require.NoError(t, err)
	ft := &fakeTime{t: time.Unix(0, 0)}

	regCmd := fifo.NewQueue[axi4lite.Command](1)
	regRsp := fifo.NewQueue[axi4lite.Response](1)
	clkCmd := fifo.NewQueue[hlsclock.Op](1)
	clkRsp := fifo.NewQueue[uint64](1)
	regs := axi4lite.New(regCmd, regRsp)
	clock := hlsclock.New(clkCmd, clkRsp)

	done := make(chan error, 2)
	go func() { done <- ServeRegisters(f, regCmd, regRsp) }()
	go func() { done <- ServeClock(NewClockWithSource(ft.now, 0), clkCmd, clkRsp) }()

	status, err := regs.Write(0x10, 0x5555AAAA)
	require.NoError(t, err)
	require.Equal(t, uint8(0), status)

	data, status, err := regs.Read(0x10)
	require.NoError(t, err)
	require.Equal(t, uint8(0), status)
	require.Equal(t, uint32(0x5555AAAA), data)

	_, status, err = regs.Read(0x14)
	require.NoError(t, err)
	require.Equal(t, uint8(axi4lite.RespDecErr), status)

	ft.advance(time.Second)
	us, err := clock.Now()
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), us)

	require.NoError(t, clock.Reset())
	us, err = clock.Now()
	require.NoError(t, err)
	require.Equal(t, uint64(0), us)

	require.NoError(t, regCmd.Close())
	require.NoError(t, clkCmd.Close())
	require.NoError(t, <-done)
	require.NoError(t, <-done)
}

func TestServeRegisters_ClosedResponseStops(t *testing.T) {
	f, err := NewRegisterFile()
	require.NoError(t, err)
	cmd := fifo.NewQueue[axi4lite.Command](1)
	rsp := fifo.NewQueue[axi4lite.Response](1)
	require.NoError(t, rsp.Close())
	require.NoError(t, cmd.Write(axi4lite.ReadCommand(0)))

	require.NoError(t, ServeRegisters(f, cmd, rsp))
}
