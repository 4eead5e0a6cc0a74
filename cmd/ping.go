// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/hlsprobe/pkg/fifo"
	"github.com/spf13/cobra"
)

var (
	pingTimeout int
	pingCount   int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the link with clock round trips",
	Long: `Send clock read commands to the core and wait for each response.

Every answered ping shows the core's microsecond counter and the round trip
time measured on the host.

This is useful for verifying:
  - The serial port or WebSocket connection is established
  - HTTP Basic authentication works
  - The core is decoding frames and answering
  - Bidirectional frame flow works

Exit codes:
  0 - All pings successful
  1 - One or more pings failed/timed out
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
}

func runPing(cmd *cobra.Command, args []string) error {
	s, err := openHost()
	if err != nil {
		exitConnectionError(err)
	}
	defer s.Close()

	fmt.Printf("hlsprobe - Clock Ping\n")
	fmt.Printf("Connection: %s\n", s.info)
	fmt.Printf("Timeout: %d seconds per ping\n", pingTimeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	clock := s.Clock()
	timeout := time.Duration(pingTimeout) * time.Second
	successCount := 0
	failCount := 0

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		startTime := time.Now()
		us, err := withTimeout(timeout, clock.Now)
		switch {
		case err == nil:
			rtt := time.Since(startTime)
			fmt.Printf("PONG, clock=%dus (%s), rtt=%v\n", us, formatUptime(us/1000), rtt.Round(time.Microsecond))
			successCount++

		case errors.Is(err, ErrTimeout):
			fmt.Printf("TIMEOUT (no response in %ds)\n", pingTimeout)
			failCount++

		case errors.Is(err, fifo.ErrBusy):
			fmt.Printf("SKIPPED (previous ping still outstanding)\n")
			failCount++

		case errors.Is(err, fifo.ErrClosed):
			fmt.Printf("LINK CLOSED\n")
			failCount += pingCount - i + 1
			i = pingCount

		default:
			fmt.Printf("FAILED: %v\n", err)
			failCount++
		}

		// Small delay between pings
		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	// Summary
	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d responses received, %.0f%% loss\n",
		pingCount, successCount, float64(failCount)/float64(max(pingCount, 1))*100)
	fmt.Print(s.Stats().Snapshot())

	if failCount > 0 {
		s.Close()
		os.Exit(1)
	}
	return nil
}
