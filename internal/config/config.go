// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the optional hlsprobe configuration file.
package config

import "time"

type Config struct {
	Connection ConnectionConfig `yaml:"connection" toml:"connection"`
	Registers  []RegisterConfig `yaml:"registers" toml:"registers"`
	Serve      ServeConfig      `yaml:"serve" toml:"serve"`
	Log        LogConfig        `yaml:"log" toml:"log"`
}

// ---- CONNECTION ----

type ConnectionConfig struct {
	Port        string `yaml:"port" toml:"port"`
	Baud        int    `yaml:"baud" toml:"baud"`
	URL         string `yaml:"url" toml:"url"`
	Username    string `yaml:"username" toml:"username"`
	NoSSLVerify bool   `yaml:"no_ssl_verify" toml:"no_ssl_verify"`
}

// ---- REGISTER MAP ----

type RegisterConfig struct {
	Name        string `yaml:"name" toml:"name"`
	Addr        uint32 `yaml:"addr" toml:"addr"`
	Access      string `yaml:"access" toml:"access"` // ro | rw
	Reset       uint32 `yaml:"reset" toml:"reset"`
	Description string `yaml:"description" toml:"description"`
}

// ---- SERVE ----

type ServeConfig struct {
	Backend    string       `yaml:"backend" toml:"backend"` // memory | modbus
	Listen     string       `yaml:"listen" toml:"listen"`
	Username   string       `yaml:"username" toml:"username"`
	ClockStart uint64       `yaml:"clock_start" toml:"clock_start"`
	Modbus     ModbusConfig `yaml:"modbus" toml:"modbus"`
}

type ModbusConfig struct {
	Endpoint  string `yaml:"endpoint" toml:"endpoint"`
	Device    string `yaml:"device" toml:"device"`
	Baud      int    `yaml:"baud" toml:"baud"`
	UnitID    uint8  `yaml:"unit_id" toml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms" toml:"timeout_ms"`
}

// Timeout returns the request timeout as a duration
func (m ModbusConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutMs) * time.Millisecond
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// Access values
const (
	AccessRO = "ro"
	AccessRW = "rw"
)

// Backend values
const (
	BackendMemory = "memory"
	BackendModbus = "modbus"
)

// Defaults applied by Normalize
const (
	DefaultBaud          = 115200
	DefaultModbusBaud    = 19200
	DefaultModbusTimeout = 1000
)

// Default returns an empty, normalized configuration
func Default() *Config {
	cfg := &Config{}
	Normalize(cfg)
	return cfg
}

// Register looks up a register by name
func (c *Config) Register(name string) (RegisterConfig, bool) {
	for _, r := range c.Registers {
		if r.Name == name {
			return r, true
		}
	}
	return RegisterConfig{}, false
}
