// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Query or reset the core's microsecond counter",
}

var clockNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Read the core's microsecond counter",
	Args:  cobra.NoArgs,
	RunE:  runClockNow,
}

var clockResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the core's microsecond counter to zero",
	Args:  cobra.NoArgs,
	RunE:  runClockReset,
}

func init() {
	rootCmd.AddCommand(clockCmd)
	clockCmd.AddCommand(clockNowCmd, clockResetCmd)
	clockCmd.PersistentFlags().DurationVar(&txnTimeout, "timeout", 2*time.Second, "Time to wait for the response (0 waits forever)")
}

func runClockNow(cmd *cobra.Command, args []string) error {
	s, err := openHost()
	if err != nil {
		exitConnectionError(err)
	}
	defer s.Close()

	us, err := withTimeout(txnTimeout, s.Clock().Now)
	if err != nil {
		return fmt.Errorf("clock read: %w", err)
	}

	fmt.Printf("%d us (%s)\n", us, formatUptime(us/1000))
	return nil
}

func runClockReset(cmd *cobra.Command, args []string) error {
	s, err := openHost()
	if err != nil {
		exitConnectionError(err)
	}
	defer s.Close()

	_, err = withTimeout(txnTimeout, func() (struct{}, error) {
		return struct{}{}, s.Clock().Reset()
	})
	if err != nil {
		return fmt.Errorf("clock reset: %w", err)
	}

	fmt.Printf("clock reset\n")
	return nil
}
