// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package uart

import (
	"math/rand"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

// ============================================================
// Decimal
// ============================================================

func TestEncodeDecimal(t *testing.T) {
	tests := []struct {
		name   string
		value  uint32
		signed bool
		width  uint8
		want   string
	}{
		{"zero", 0, false, 0, "0"},
		{"zero signed", 0, true, 0, "0"},
		{"max unsigned", 4294967295, false, 0, "4294967295"},
		{"min signed", 0x80000000, true, 0, "-2147483648"},
		{"minus one", 0xFFFFFFFF, true, 0, "-1"},
		{"top bit unsigned", 0x80000000, false, 0, "2147483648"},
		{"padded", 42, false, 5, "   42"},
		{"negative padded", uint32(0xFFFFFFD6), true, 5, "  -42"},
		{"width below natural", 12345, false, 2, "12345"},
		{"sign extends natural", uint32(0xFFFFFF85), true, 3, "-123"},
		{"single digit", 7, true, 1, "7"},
		{"interior zeros", 1000000007, false, 0, "1000000007"},
		{"ten", 10, false, 0, "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(EncodeDecimal(tt.value, tt.signed, tt.width))
			if got != tt.want {
				t.Errorf("EncodeDecimal(%d, %v, %d) = %q, want %q", tt.value, tt.signed, tt.width, got, tt.want)
			}
		})
	}
}

func TestEncodeDecimal_WidthClamped(t *testing.T) {
	for _, width := range []uint8{MaxDecimalWidth, MaxDecimalWidth + 1, 127, 255} {
		got := EncodeDecimal(5, false, width)
		if len(got) != MaxDecimalWidth {
			t.Errorf("width %d: length = %d, want %d", width, len(got), MaxDecimalWidth)
		}
		if got[len(got)-1] != '5' {
			t.Errorf("width %d: last byte = %q, want '5'", width, got[len(got)-1])
		}
		if strings.TrimLeft(string(got), " ") != "5" {
			t.Errorf("width %d: expected space padding, got %q", width, got)
		}
	}
}

func TestEncodeDecimal_ZeroFill(t *testing.T) {
	tests := []struct {
		value  uint32
		signed bool
		width  uint8
		want   string
	}{
		{42, true, 5, "00042"},
		{uint32(0xFFFFFFD6), true, 5, "-0042"},
		{uint32(0xFFFFFFD6), true, 2, "-42"},
		{0, false, 3, "000"},
		{123, false, 0, "123"},
	}

	for _, tt := range tests {
		got := string(encodeDecimal(tt.value, tt.signed, true, tt.width))
		if got != tt.want {
			t.Errorf("encodeDecimal(%d, zero fill, %d) = %q, want %q", tt.value, tt.width, got, tt.want)
		}
	}
}

// ============================================================
// Hexadecimal
// ============================================================

func TestEncodeHex(t *testing.T) {
	tests := []struct {
		name      string
		value     uint32
		zeroFill  bool
		uppercase bool
		width     uint8
		want      string
	}{
		{"space padded upper", 0xAB, false, true, 4, "  AB"},
		{"zero padded lower", 0xAB, true, false, 4, "00ab"},
		{"zero", 0, false, false, 0, "0"},
		{"zero fill natural", 0x1, true, false, 0, "1"},
		{"full word", 0xDEADBEEF, false, false, 0, "deadbeef"},
		{"full word upper", 0xDEADBEEF, false, true, 0, "DEADBEEF"},
		{"interior zeros", 0x10000001, false, true, 0, "10000001"},
		{"wide zero fill", 0xBEEF, true, true, 8, "0000BEEF"},
		{"digits only", 0x1234, false, false, 0, "1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(EncodeHex(tt.value, tt.zeroFill, tt.uppercase, tt.width))
			if got != tt.want {
				t.Errorf("EncodeHex(0x%X, %v, %v, %d) = %q, want %q",
					tt.value, tt.zeroFill, tt.uppercase, tt.width, got, tt.want)
			}
		})
	}
}

func TestEncodeHex_WidthClamped(t *testing.T) {
	got := string(EncodeHex(0xDEADBEEF, true, false, 40))
	want := "0000000deadbeef"
	if got != want {
		t.Errorf("EncodeHex clamped = %q, want %q", got, want)
	}
	if len(got) != MaxHexWidth {
		t.Errorf("length = %d, want %d", len(got), MaxHexWidth)
	}
}

// ============================================================
// Round-trip properties
// ============================================================

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// newFuzzRng creates a random source and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := time.Now().UnixNano()
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if s, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			seed = s
		}
	}
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

func TestFuzzEncodeDecimal_RoundTrip(t *testing.T) {
	rng := newFuzzRng(t)

	for i := 0; i < getFuzzRounds(); i++ {
		v := rng.Uint32()
		w := uint8(rng.Intn(MaxDecimalWidth + 1))

		got := string(EncodeDecimal(v, false, w))

		natural := len(strconv.FormatUint(uint64(v), 10))
		wantLen := natural
		if int(w) > wantLen {
			wantLen = int(w)
		}
		if len(got) != wantLen {
			t.Fatalf("EncodeDecimal(%d, false, %d) length = %d, want %d", v, w, len(got), wantLen)
		}

		parsed, err := strconv.ParseUint(strings.TrimLeft(got, " "), 10, 32)
		if err != nil {
			t.Fatalf("EncodeDecimal(%d) = %q does not parse: %v", v, got, err)
		}
		if uint32(parsed) != v {
			t.Fatalf("round trip mismatch: got %d, want %d", parsed, v)
		}
	}
}

func TestFuzzEncodeDecimal_Signed(t *testing.T) {
	rng := newFuzzRng(t)

	for i := 0; i < getFuzzRounds(); i++ {
		v := rng.Uint32()
		got := strings.TrimLeft(string(EncodeDecimal(v, true, 0)), " ")
		want := strconv.FormatInt(int64(int32(v)), 10)
		if got != want {
			t.Fatalf("EncodeDecimal(0x%08X, true, 0) = %q, want %q", v, got, want)
		}
	}
}

func TestFuzzEncodeHex_RoundTrip(t *testing.T) {
	rng := newFuzzRng(t)

	for i := 0; i < getFuzzRounds(); i++ {
		v := rng.Uint32()
		w := uint8(rng.Intn(MaxHexWidth + 1))
		upper := rng.Intn(2) == 1

		got := string(EncodeHex(v, false, upper, w))
		parsed, err := strconv.ParseUint(strings.TrimLeft(got, " "), 16, 32)
		if err != nil {
			t.Fatalf("EncodeHex(0x%X) = %q does not parse: %v", v, got, err)
		}
		if uint32(parsed) != v {
			t.Fatalf("round trip mismatch: got 0x%X, want 0x%X", parsed, v)
		}
		if len(got) < int(w) {
			t.Fatalf("EncodeHex(0x%X, width %d) too short: %q", v, w, got)
		}
	}
}
