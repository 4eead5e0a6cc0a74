// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Thermoquad/hlsprobe/pkg/link"
	"github.com/Thermoquad/hlsprobe/pkg/uart"
	"github.com/spf13/cobra"
)

var (
	printRemote bool
	printWait   time.Duration
)

var printCmd = &cobra.Command{
	Use:   "print <format> [values...]",
	Short: "Format text the way the core's console does",
	Long: `Format up to four 32-bit values with the core's constrained printf.

Supported conversions:
  %d %i   signed decimal         %u   unsigned decimal
  %x %X   hexadecimal            %c   low byte as a character
  %%      literal percent

A conversion may carry a width of up to three digits, and a leading 0 to
zero-fill: %08X, %5d. A newline is written as CR LF. Backslash escapes in the
format (\n, \t, \x41) are interpreted.

Values accept decimal, 0x hex, 0o octal and 0b binary; negative values are
stored as two's complement.

By default the text is formatted locally and written to stdout. With --remote
it is sent to the core's console receive FIFO, and any console output the core
sends back within --wait is shown.

Examples:
  hlsprobe print 'count=%u status=%08X\n' 42 0xBEEF
  hlsprobe print --remote --loopback 'hello %c\n' 0x21`,
	Args: cobra.RangeArgs(1, 1+uart.MaxValues),
	RunE: runPrint,
}

func init() {
	rootCmd.AddCommand(printCmd)
	printCmd.Flags().BoolVar(&printRemote, "remote", false, "Send to the core's console instead of stdout")
	printCmd.Flags().DurationVar(&printWait, "wait", 250*time.Millisecond, "Time to wait for console output (--remote only)")
	// Formats start with '%' or '-' often enough that flag parsing must stop
	// at the first positional argument
	printCmd.Flags().SetInterspersed(false)
}

func runPrint(cmd *cobra.Command, args []string) error {
	format, err := unescape(args[0])
	if err != nil {
		return err
	}

	values := make([]uint32, 0, len(args)-1)
	for _, a := range args[1:] {
		v, err := parseWord(a)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", a, err)
		}
		values = append(values, v)
	}

	if !printRemote {
		_, err := os.Stdout.WriteString(uart.Sprintf(format, values...))
		return err
	}

	s, err := openHost(link.WithConsoleSink(os.Stdout))
	if err != nil {
		exitConnectionError(err)
	}
	defer s.Close()

	if err := s.Console().Print(format, values...); err != nil {
		return fmt.Errorf("console: %w", err)
	}

	select {
	case <-time.After(printWait):
	case <-s.Done():
	}
	return nil
}

// unescape interprets Go-style backslash escapes in s
func unescape(s string) (string, error) {
	var b strings.Builder
	for len(s) > 0 {
		if s[0] != '\\' {
			b.WriteByte(s[0])
			s = s[1:]
			continue
		}
		r, multibyte, tail, err := strconv.UnquoteChar(s, 0)
		if err != nil {
			return "", fmt.Errorf("invalid escape in format near %q", s)
		}
		if multibyte {
			b.WriteRune(r)
		} else {
			b.WriteByte(byte(r))
		}
		s = tail
	}
	return b.String(), nil
}
