// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/hlsprobe/internal/config"
	"github.com/Thermoquad/hlsprobe/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// In-process emulated core
	loopback bool

	configPath string
	logLevel   string

	// cfg is the loaded configuration with flag overrides applied
	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "hlsprobe",
	Short: "Host-side probe for HLS register, clock and console channels",
	Long: `hlsprobe - A CLI tool for driving an HLS core's register, clock and
console channels over a framed serial or WebSocket link.

Provides one-shot register and clock transactions, a constrained printf for
the console channel, passive link monitoring, and a device emulator that
answers the same protocol from memory or a Modbus register bank.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]
  Loopback:  --loopback (in-process emulated core)

Settings can also come from --config (YAML or TOML). Flags given on the
command line override file values.

For WebSocket authentication, the password is read from the HLSPROBE_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", config.DefaultBaud, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().BoolVar(&loopback, "loopback", false, "Talk to an in-process emulated core")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
}

// loadSettings configures logging, loads the config file and merges flags
// over it. Flags the user set win; unset flags take the file value.
func loadSettings(cmd *cobra.Command, args []string) error {
	logging.ConfigureRuntime()

	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	conn := &cfg.Connection
	if flags.Changed("port") || conn.Port == "" {
		conn.Port = portName
	}
	if flags.Changed("baud") || conn.Baud == 0 {
		conn.Baud = baudRate
	}
	if flags.Changed("url") || conn.URL == "" {
		conn.URL = wsURL
	}
	if flags.Changed("username") || conn.Username == "" {
		conn.Username = wsUsername
	}
	// A transport chosen on the command line replaces the file's
	if flags.Changed("port") && !flags.Changed("url") {
		conn.URL = ""
	}
	if flags.Changed("url") && !flags.Changed("port") {
		conn.Port = ""
	}
	if flags.Changed("no-ssl-verify") {
		conn.NoSSLVerify = wsNoSSLVerify
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	if level != "" && !logging.SetLevel(level) {
		return fmt.Errorf("invalid log level %q", level)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
