// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, true},
		{" WARN ", zerolog.WarnLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parseLevel(tt.raw)
			if got != tt.want || ok != tt.ok {
				t.Errorf("parseLevel(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogNoColor, "1")

	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)

	if cfg.Level != zerolog.ErrorLevel {
		t.Errorf("level = %v, want error", cfg.Level)
	}
	if cfg.Timestamp {
		t.Error("timestamp should be disabled by env")
	}
	if !cfg.NoColor {
		t.Error("color should be disabled by env")
	}
}

func TestLoggerTagsComponent(t *testing.T) {
	saved := log.Logger
	savedLevel := zerolog.GlobalLevel()
	defer func() {
		log.Logger = saved
		zerolog.SetGlobalLevel(savedLevel)
	}()

	var buf bytes.Buffer
	apply(Config{Level: zerolog.DebugLevel, NoColor: true, Output: &buf})

	l := Logger("link")
	l.Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, "component=link") || !strings.Contains(out, "hello") {
		t.Errorf("unexpected log output %q", out)
	}
}

func TestDefaultConfig_Profiles(t *testing.T) {
	rt := defaultConfig(ProfileRuntime)
	if rt.Level != zerolog.InfoLevel || !rt.Timestamp {
		t.Errorf("runtime profile = %+v, want info with timestamps", rt)
	}

	tc := defaultConfig(ProfileTest)
	if tc.Level != zerolog.DebugLevel || tc.Timestamp {
		t.Errorf("test profile = %+v, want debug without timestamps", tc)
	}
}
