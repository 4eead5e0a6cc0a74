// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/hlsprobe/pkg/link"
	"github.com/spf13/cobra"
)

var (
	showAll       bool
	statsInterval int
	probeInterval time.Duration
)

var errorDetectionCmd = &cobra.Command{
	Use:     "link_stats",
	Aliases: []string{"error_detection"},
	Short:   "Detect and count corrupt frames on the link",
	Long: `Track frame errors on the link with running statistics.

This command watches every frame and detects:
  - CRC mismatches
  - Framing errors (bad length, missing END byte, stray END)
  - Payloads that are not valid CBOR messages
  - Error frames sent by the core
  - Responses nobody asked for
  - Statistics and trends (frame rate, error rate, success rate)

By default, only errors are displayed. Use --show-all to display valid frames too.

Errors are highlighted as they happen, and a statistics summary is printed
every --stats-interval seconds. Use --probe to send a clock read at a fixed
interval so an otherwise idle link carries traffic.`,
	RunE: runErrorDetection,
}

func init() {
	rootCmd.AddCommand(errorDetectionCmd)
	errorDetectionCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just errors)")
	errorDetectionCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	errorDetectionCmd.Flags().DurationVar(&probeInterval, "probe", 0, "Send a clock read at this interval (0 disables)")
}

// frameEvent is one decoder outcome handed from the reader to the printer
type frameEvent struct {
	frame *link.Frame
	err   error
}

func runErrorDetection(cmd *cobra.Command, args []string) error {
	events := make(chan frameEvent, 64)
	hook := func(f *link.Frame, err error) {
		select {
		case events <- frameEvent{frame: f, err: err}:
		default:
		}
	}

	s, err := openHost(link.WithFrameHook(hook))
	if err != nil {
		exitConnectionError(err)
	}
	defer s.Close()

	fmt.Printf("hlsprobe - Error Detection\n")
	fmt.Printf("Connection: %s\n", s.info)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if probeInterval > 0 {
		go probeClock(ctx, s, probeInterval)
	}

	// Sync tracking - ignore decode errors until first valid frame
	synchronized := false
	errorsBeforeSync := 0

	// Statistics ticker
	statsTicker := time.NewTicker(time.Duration(max(statsInterval, 1)) * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case ev := <-events:
			if ev.err != nil {
				if synchronized {
					printDecodeError(ev.err)
				} else {
					errorsBeforeSync++
				}
				continue
			}

			if !synchronized {
				// First frame! We're now synchronized
				synchronized = true
				if errorsBeforeSync > 0 {
					fmt.Printf("[SYNC] Synchronized after %d bad frames\n\n", errorsBeforeSync)
				} else {
					fmt.Printf("[SYNC] Synchronized\n\n")
				}
			}

			switch {
			case ev.frame.ParseError() != nil:
				printParseError(ev.frame)
			case ev.frame.Type() == link.MsgError:
				printRemoteError(ev.frame)
			case showAll:
				fmt.Print(link.FormatFrame(ev.frame))
			}

		case <-statsTicker.C:
			// Print statistics
			fmt.Println()
			fmt.Print(s.Stats().String())
			fmt.Println()

		case <-s.Done():
			fmt.Printf("\nConnection closed\n\n")
			fmt.Print(s.Stats().String())
			return nil

		case <-ctx.Done():
			fmt.Println()
			fmt.Print(s.Stats().String())
			return nil
		}
	}
}

// probeClock reads the clock every interval until ctx ends
func probeClock(ctx context.Context, s *hostSession, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := withTimeout(interval, s.Clock().Now); err != nil && !errors.Is(err, ErrTimeout) {
				return
			}
		}
	}
}

// printDecodeError prints a decode error in highlighted format
func printDecodeError(err error) {
	timestamp := time.Now().Format("15:04:05.000")
	label := "DECODE ERROR"
	switch {
	case errors.Is(err, link.ErrCRCMismatch):
		label = "CRC ERROR"
	case errors.Is(err, link.ErrFraming):
		label = "FRAMING ERROR"
	}
	fmt.Printf("[%s] \033[1;31m%s:\033[0m %v\n", timestamp, label, err)
	fmt.Printf("  >>> FRAME DROPPED <<<\n\n")
}

// printParseError prints a frame whose CRC passed but whose payload did not
// parse
func printParseError(f *link.Frame) {
	timestamp := f.Timestamp().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;33mPARSE ERROR:\033[0m %v\n", timestamp, f.ParseError())
	fmt.Printf("  CRC: \033[1;32mOK\033[0m (0x%04X), Length: %d\n", f.CRC(), f.Length())
	fmt.Printf("  Payload: % X\n", f.Payload())
	fmt.Printf("  >>> FRAME REJECTED <<<\n\n")
}

// printRemoteError prints an ERROR frame sent by the core
func printRemoteError(f *link.Frame) {
	timestamp := f.Timestamp().Format("15:04:05.000")
	code, rejected, err := link.ParseError(f.PayloadMap())
	if err != nil {
		fmt.Printf("[%s] \033[1;31mREMOTE ERROR:\033[0m unreadable (%v)\n\n", timestamp, err)
		return
	}
	fmt.Printf("[%s] \033[1;31mREMOTE ERROR:\033[0m %s, rejected %s\n\n",
		timestamp, code, link.FormatMessageType(rejected))
}
