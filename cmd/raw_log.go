// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/Thermoquad/hlsprobe/internal/logging"
	"github.com/Thermoquad/hlsprobe/pkg/link"
	"github.com/spf13/cobra"
)

var rawLogHex bool

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display raw frame log in human-readable format",
	Long: `Continuously decode and display link frames as they arrive.

Each frame is shown with timestamp, message type, and decoded payload. Frames
that fail CRC or framing checks are reported inline; use --hex to dump the
bytes the decoder had buffered when it gave up.

This command only listens. Run it on a tap of the link, or against a core
that transmits console output unprompted.

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&rawLogHex, "hex", false, "Dump buffered bytes of rejected frames")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("hlsprobe - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	log := logging.Logger("raw_log")
	decoder := link.NewDecoder()
	buf := make([]byte, 128)
	var seen []byte

	for {
		n, err := conn.Read(buf)
		for i := 0; i < n; i++ {
			seen = append(seen, buf[i])
			frame, err := decoder.DecodeByte(buf[i])
			if err != nil {
				fmt.Printf("[ERROR] %v\n", err)
				if rawLogHex {
					fmt.Printf("  % X\n\n", seen)
				}
				seen = seen[:0]
				continue
			}
			if frame != nil {
				fmt.Print(link.FormatFrame(frame))
				seen = seen[:0]
			} else if buf[i] == link.StartByte {
				seen = append(seen[:0], buf[i])
			}
		}

		if err != nil {
			// A read error on a stream connection means the peer is gone
			if errors.Is(err, link.ErrConnectionClosed) || errors.Is(err, io.EOF) {
				log.Info().Msg("connection closed")
				return nil
			}
			log.Error().Err(err).Msg("read failed")
			return err
		}
	}
}
