// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"fmt"
	"strings"
)

var logLevels = map[string]bool{
	"": true, "trace": true, "debug": true, "info": true,
	"warn": true, "warning": true, "error": true, "off": true,
}

// Validate checks configuration correctness.
// It performs declarative validation only and does not mutate cfg.
func Validate(cfg *Config) error {
	if cfg.Connection.Baud < 0 {
		return fmt.Errorf("connection: baud must not be negative")
	}
	if cfg.Connection.Port != "" && cfg.Connection.URL != "" {
		return fmt.Errorf("connection: port and url are mutually exclusive")
	}

	// ---- REGISTER MAP ----

	names := make(map[string]int)
	addrs := make(map[uint32]string)

	for i, r := range cfg.Registers {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return fmt.Errorf("registers[%d]: name is required", i)
		}
		if strings.ContainsAny(name, " \t") {
			return fmt.Errorf("register %q: name must not contain whitespace", name)
		}
		if prev, exists := names[name]; exists {
			return fmt.Errorf("register %q: declared twice (registers[%d] and registers[%d])", name, prev, i)
		}
		names[name] = i

		if r.Addr%4 != 0 {
			return fmt.Errorf("register %q: addr 0x%08X is not word aligned", name, r.Addr)
		}
		if prev, exists := addrs[r.Addr]; exists {
			return fmt.Errorf("registers %q and %q share addr 0x%08X", prev, name, r.Addr)
		}
		addrs[r.Addr] = name

		switch strings.ToLower(r.Access) {
		case "", AccessRO, AccessRW:
		default:
			return fmt.Errorf("register %q: access must be ro or rw, got %q", name, r.Access)
		}
	}

	// ---- SERVE ----

	switch strings.ToLower(cfg.Serve.Backend) {
	case "", BackendMemory:
	case BackendModbus:
		m := cfg.Serve.Modbus
		if m.Endpoint == "" && m.Device == "" {
			return fmt.Errorf("serve: modbus backend requires endpoint or device")
		}
		if m.Endpoint != "" && m.Device != "" {
			return fmt.Errorf("serve: modbus endpoint and device are mutually exclusive")
		}
	default:
		return fmt.Errorf("serve: unknown backend %q", cfg.Serve.Backend)
	}
	if cfg.Serve.Modbus.TimeoutMs < 0 || cfg.Serve.Modbus.Baud < 0 {
		return fmt.Errorf("serve: modbus timeout_ms and baud must not be negative")
	}

	// ---- LOG ----

	if !logLevels[strings.ToLower(strings.TrimSpace(cfg.Log.Level))] {
		return fmt.Errorf("log: unknown level %q", cfg.Log.Level)
	}

	return nil
}
