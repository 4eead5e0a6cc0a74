// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// hlsprobe - HLS core register, clock and console probe
//
// A CLI tool for driving an HLS core's AXI4-Lite register channel, clock
// channel and UART console over a framed serial or WebSocket link.

package main

import (
	"os"

	"github.com/Thermoquad/hlsprobe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
