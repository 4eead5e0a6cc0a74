// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"sort"
	"strings"
)

// Normalize fills defaults and canonicalizes values.
// It must be called only after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Connection.Baud == 0 {
		cfg.Connection.Baud = DefaultBaud
	}

	for i := range cfg.Registers {
		r := &cfg.Registers[i]
		r.Name = strings.TrimSpace(r.Name)
		r.Access = strings.ToLower(r.Access)
		if r.Access == "" {
			r.Access = AccessRW
		}
	}
	sort.SliceStable(cfg.Registers, func(i, j int) bool {
		return cfg.Registers[i].Addr < cfg.Registers[j].Addr
	})

	cfg.Serve.Backend = strings.ToLower(cfg.Serve.Backend)
	if cfg.Serve.Backend == "" {
		cfg.Serve.Backend = BackendMemory
	}
	if cfg.Serve.Modbus.Baud == 0 {
		cfg.Serve.Modbus.Baud = DefaultModbusBaud
	}
	if cfg.Serve.Modbus.TimeoutMs == 0 {
		cfg.Serve.Modbus.TimeoutMs = DefaultModbusTimeout
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
}
