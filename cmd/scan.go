// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/hlsprobe/pkg/axi4lite"
	"github.com/spf13/cobra"
)

// maxScanWords bounds one scan so a typo cannot queue billions of reads
const maxScanWords = 1 << 16

var scanShowAll bool

var scanCmd = &cobra.Command{
	Use:   "scan <start> <end>",
	Short: "Find which addresses in a range decode",
	Long: `Read every word from start to end (inclusive) and report which addresses
the core decodes.

An address decodes when its read status is anything but DECERR. Unaligned
bounds are rounded down to a word boundary. Reads have no side effects on a
well-behaved core, but check the register map before scanning peripherals
with read-to-clear registers.

Examples:
  # Scan the first 256 bytes of a core over serial
  hlsprobe scan 0x0 0xFC --port /dev/ttyUSB0

  # Show every address, including decode errors
  hlsprobe scan 0x40000000 0x40000040 --all --loopback

Exit codes:
  0 - Scan completed, at least one address decoded
  1 - Scan completed, nothing decoded
  2 - Connection error`,
	Args: cobra.ExactArgs(2),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanShowAll, "all", false, "Show addresses that return DECERR too")
	scanCmd.Flags().DurationVar(&txnTimeout, "timeout", 2*time.Second, "Time to wait for each response (0 waits forever)")
}

// scanHit is one decoded address
type scanHit struct {
	addr   uint32
	data   uint32
	status axi4lite.Resp
}

func runScan(cmd *cobra.Command, args []string) error {
	start, err := parseWord(args[0])
	if err != nil {
		return fmt.Errorf("invalid start %q: %w", args[0], err)
	}
	end, err := parseWord(args[1])
	if err != nil {
		return fmt.Errorf("invalid end %q: %w", args[1], err)
	}
	start &^= 3
	end &^= 3
	if end < start {
		return fmt.Errorf("end 0x%08X is below start 0x%08X", end, start)
	}
	words := uint64(end-start)/4 + 1
	if words > maxScanWords {
		return fmt.Errorf("range covers %d words (max %d)", words, maxScanWords)
	}

	s, err := openHost()
	if err != nil {
		exitConnectionError(err)
	}
	defer s.Close()

	fmt.Printf("hlsprobe - Address Scan\n")
	fmt.Printf("Connection: %s\n", s.info)
	fmt.Printf("Range: 0x%08X - 0x%08X (%d words)\n\n", start, end, words)

	hits := make([]scanHit, 0)
	scanned := uint64(0)
	for i := uint64(0); i < words; i++ {
		addr := start + uint32(i)*4
		res, err := readRegister(s.Registers(), addr)
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				fmt.Printf("0x%08X TIMEOUT, stopping scan\n", addr)
				break
			}
			return fmt.Errorf("read 0x%08X: %w", addr, err)
		}
		scanned++

		if res.status == axi4lite.RespDecErr {
			if scanShowAll {
				fmt.Printf("0x%08X %s\n", addr, res.status)
			}
			continue
		}

		hits = append(hits, scanHit{addr: addr, data: res.data, status: res.status})
		fmt.Printf("0x%08X %-7s 0x%08X %s\n", addr, res.status, res.data, registerName(addr))
	}

	// Summary
	fmt.Printf("\n--- Scan summary ---\n")
	fmt.Printf("%d of %d addresses scanned, %d decoded\n", scanned, words, len(hits))

	if len(hits) == 0 {
		fmt.Printf("Nothing decoded. Check the address range and the core's address map.\n")
		s.Close()
		os.Exit(1)
	}
	return nil
}
