// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Thermoquad/hlsprobe/pkg/axi4lite"
	"github.com/spf13/cobra"
)

var txnTimeout time.Duration

var regCmd = &cobra.Command{
	Use:   "reg",
	Short: "Read and write core registers",
	Long: `Issue single AXI4-Lite register transactions on the core.

Registers are named by address (decimal, 0x hex, 0o octal or 0b binary) or by
a name from the config register map. Each transaction prints the response
status (OKAY, EXOKAY, SLVERR, DECERR) and, for reads, the data word.

The command fails when the status is SLVERR or DECERR, or when the core does
not answer within --timeout.

Examples:
  hlsprobe reg read 0x40000004 --port /dev/ttyUSB0
  hlsprobe reg write ctrl 1 -c bench.yaml --loopback
  hlsprobe reg dump -c bench.yaml --url ws://bench.local/hls`,
}

var regReadCmd = &cobra.Command{
	Use:   "read <addr|name>",
	Short: "Read one register",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegRead,
}

var regWriteCmd = &cobra.Command{
	Use:   "write <addr|name> <value>",
	Short: "Write one register",
	Args:  cobra.ExactArgs(2),
	RunE:  runRegWrite,
}

var regDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Read every register in the config register map",
	Args:  cobra.NoArgs,
	RunE:  runRegDump,
}

func init() {
	rootCmd.AddCommand(regCmd)
	regCmd.AddCommand(regReadCmd, regWriteCmd, regDumpCmd)
	regCmd.PersistentFlags().DurationVar(&txnTimeout, "timeout", 2*time.Second, "Time to wait for each response (0 waits forever)")
}

// regResult is one completed register transaction
type regResult struct {
	data   uint32
	status axi4lite.Resp
}

func (r regResult) failed() bool {
	return r.status == axi4lite.RespSlvErr || r.status == axi4lite.RespDecErr
}

// resolveRegister turns a register name or numeric address into an address
// and display name
func resolveRegister(arg string) (uint32, string, error) {
	if r, ok := cfg.Register(arg); ok {
		return r.Addr, r.Name, nil
	}
	addr, err := parseWord(arg)
	if err != nil {
		return 0, "", fmt.Errorf("unknown register %q", arg)
	}
	return addr, registerName(addr), nil
}

// registerName returns the mapped name at addr, or "" when unmapped
func registerName(addr uint32) string {
	for _, r := range cfg.Registers {
		if r.Addr == addr {
			return r.Name
		}
	}
	return ""
}

// parseWord parses a 32-bit value with a base prefix. Negative values are
// stored as two's complement.
func parseWord(s string) (uint32, error) {
	if v, err := strconv.ParseUint(s, 0, 32); err == nil {
		return uint32(v), nil
	}
	v, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(int32(v)), nil
}

// txnPollInterval is how often a pending register transaction is checked
const txnPollInterval = time.Millisecond

func readRegister(regs *axi4lite.Transactor, addr uint32) (regResult, error) {
	return registerTransaction(regs, axi4lite.ReadCommand(addr))
}

func writeRegister(regs *axi4lite.Transactor, addr, data uint32) (regResult, error) {
	return registerTransaction(regs, axi4lite.WriteCommand(addr, data))
}

// registerTransaction sends cmd and polls for the response until txnTimeout.
// On timeout the transaction stays outstanding and the transactor stays busy
// until the session is closed.
func registerTransaction(regs *axi4lite.Transactor, cmd axi4lite.Command) (regResult, error) {
	txn, err := regs.Begin()
	if err != nil {
		return regResult{}, err
	}
	if err := txn.Send(cmd); err != nil {
		return regResult{}, err
	}

	if txnTimeout <= 0 {
		rsp, err := txn.Await()
		if err != nil {
			return regResult{}, err
		}
		return regResult{data: rsp.Data(), status: axi4lite.Resp(rsp.Status())}, nil
	}

	deadline := time.Now().Add(txnTimeout)
	for {
		rsp, ok, err := txn.Poll()
		if err != nil {
			return regResult{}, err
		}
		if ok {
			return regResult{data: rsp.Data(), status: axi4lite.Resp(rsp.Status())}, nil
		}
		if time.Now().After(deadline) {
			return regResult{}, ErrTimeout
		}
		time.Sleep(txnPollInterval)
	}
}

func formatRegisterName(addr uint32, name string) string {
	if name == "" {
		return fmt.Sprintf("0x%08X", addr)
	}
	return fmt.Sprintf("0x%08X (%s)", addr, name)
}

func runRegRead(cmd *cobra.Command, args []string) error {
	addr, name, err := resolveRegister(args[0])
	if err != nil {
		return err
	}

	s, err := openHost()
	if err != nil {
		exitConnectionError(err)
	}
	defer s.Close()

	res, err := readRegister(s.Registers(), addr)
	if err != nil {
		return fmt.Errorf("read %s: %w", formatRegisterName(addr, name), err)
	}

	fmt.Printf("%s = 0x%08X (%d) %s\n", formatRegisterName(addr, name), res.data, res.data, res.status)
	if res.failed() {
		return fmt.Errorf("read %s: %s", formatRegisterName(addr, name), res.status)
	}
	return nil
}

func runRegWrite(cmd *cobra.Command, args []string) error {
	addr, name, err := resolveRegister(args[0])
	if err != nil {
		return err
	}
	value, err := parseWord(args[1])
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", args[1], err)
	}

	s, err := openHost()
	if err != nil {
		exitConnectionError(err)
	}
	defer s.Close()

	res, err := writeRegister(s.Registers(), addr, value)
	if err != nil {
		return fmt.Errorf("write %s: %w", formatRegisterName(addr, name), err)
	}

	fmt.Printf("%s <- 0x%08X %s\n", formatRegisterName(addr, name), value, res.status)
	if res.failed() {
		return fmt.Errorf("write %s: %s", formatRegisterName(addr, name), res.status)
	}
	return nil
}

func runRegDump(cmd *cobra.Command, args []string) error {
	if len(cfg.Registers) == 0 {
		return fmt.Errorf("no registers in the register map (use --config)")
	}

	s, err := openHost()
	if err != nil {
		exitConnectionError(err)
	}
	defer s.Close()

	fmt.Printf("%-16s %-10s %-6s %-10s %-7s %s\n", "NAME", "ADDR", "ACCESS", "VALUE", "STATUS", "DESCRIPTION")
	failures := 0
	for _, r := range cfg.Registers {
		res, err := readRegister(s.Registers(), r.Addr)
		if err != nil {
			return fmt.Errorf("read %s: %w", formatRegisterName(r.Addr, r.Name), err)
		}
		if res.failed() {
			failures++
		}
		fmt.Printf("%-16s 0x%08X %-6s 0x%08X %-7s %s\n", r.Name, r.Addr, r.Access, res.data, res.status, r.Description)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d registers failed", failures, len(cfg.Registers))
	}
	return nil
}
