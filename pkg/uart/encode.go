// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package uart implements the diagnostic console of the compute core: a
// fixed-width numeric encoder, a constrained printf-style formatter, and a
// console that binds both to a transmit/receive byte FIFO pair.
package uart

// Buffer geometry for the numeric encoders. The last byte of each buffer is
// reserved, so the usable capacity is one less than the buffer width.
const (
	decBufferWidth = 32
	hexBufferWidth = 16

	// MaxDecimalWidth is the widest decimal field that can be produced.
	MaxDecimalWidth = decBufferWidth - 1

	// MaxHexWidth is the widest hexadecimal field that can be produced.
	MaxHexWidth = hexBufferWidth - 1
)

// ASCII offsets added to a nybble of 10-15 to reach 'A'-'F' or 'a'-'f'
const (
	hexOffsetUpper = 55
	hexOffsetLower = 87
)

var powersOfTen = [...]uint32{
	1000000000,
	100000000,
	10000000,
	1000000,
	100000,
	10000,
	1000,
	100,
	10,
	1,
}

var nybbleShifts = [...]uint8{28, 24, 20, 16, 12, 8, 4, 0}

// EncodeDecimal converts value to right-justified ASCII decimal.
//
// When signed is true and the top bit of value is set, the value is treated
// as a negative two's-complement number and a '-' is placed immediately to the
// left of the most significant digit. The result is max(width, natural length)
// bytes long, padded on the left with spaces. Widths beyond MaxDecimalWidth are
// clamped.
func EncodeDecimal(value uint32, signed bool, width uint8) []byte {
	return encodeDecimal(value, signed, false, width)
}

// EncodeHex converts value to right-justified ASCII hexadecimal.
//
// Leading zero nybbles and width padding use '0' when zeroFill is set and
// spaces otherwise. The least significant nybble is always emitted. Widths
// beyond MaxHexWidth are clamped.
func EncodeHex(value uint32, zeroFill, uppercase bool, width uint8) []byte {
	var buf [hexBufferWidth]byte

	fill := byte(' ')
	if zeroFill {
		fill = '0'
	}

	offset := byte(hexOffsetLower)
	if uppercase {
		offset = hexOffsetUpper
	}

	if width > MaxHexWidth {
		width = MaxHexWidth
	}

	for i := 0; i < MaxHexWidth; i++ {
		buf[i] = fill
	}

	out := hexBufferWidth - len(nybbleShifts) - 1
	msd := -1

	for i, shift := range nybbleShifts {
		nybble := byte(value>>shift) & 0xF

		digit := nybble + '0'
		if nybble >= 10 {
			digit = nybble + offset
		}

		if msd < 0 {
			if digit == '0' && i != len(nybbleShifts)-1 {
				digit = fill
			} else {
				msd = out
			}
		}

		buf[out] = digit
		out++
	}

	return justify(buf[:], msd, width)
}

// encodeDecimal is EncodeDecimal with optional zero fill. With zeroFill the
// padding left of the digits becomes '0' and a sign moves to the first column.
func encodeDecimal(value uint32, signed, zeroFill bool, width uint8) []byte {
	var buf [decBufferWidth]byte

	if width > MaxDecimalWidth {
		width = MaxDecimalWidth
	}

	for i := 0; i < MaxDecimalWidth; i++ {
		buf[i] = ' '
	}

	negative := false
	if signed && value&0x80000000 != 0 {
		value = ^value + 1
		negative = true
	}

	out := decBufferWidth - len(powersOfTen) - 1
	msd := -1

	for _, power := range powersOfTen {
		ones := power == 1

		var digit byte
		if ones {
			digit = '0' + byte(value)
		} else {
			// Subtract-and-count; a decimal digit never needs more than 9 rounds.
			digit = '0'
			for i := 0; i < 9 && value >= power; i++ {
				digit++
				value -= power
			}
		}

		if msd < 0 {
			if digit == '0' && !ones {
				digit = ' '
			} else {
				msd = out
				if negative {
					msd--
					buf[msd] = '-'
				}
			}
		}

		buf[out] = digit
		out++
	}

	field := justify(buf[:], msd, width)
	if zeroFill {
		zeroPad(field)
	}
	return field
}

// justify returns the right-justified field that ends at the reserved last
// byte of buf and is at least width bytes long.
func justify(buf []byte, msd int, width uint8) []byte {
	end := len(buf) - 1
	length := end - msd
	if int(width) > length {
		length = int(width)
	}
	start := end - length
	if start < 0 {
		start = 0
	}

	field := make([]byte, end-start)
	copy(field, buf[start:end])
	return field
}

// zeroPad replaces space padding with '0', keeping any sign in column zero.
func zeroPad(field []byte) {
	negative := false
	for i, c := range field {
		switch c {
		case ' ':
			field[i] = '0'
		case '-':
			field[i] = '0'
			negative = true
		}
	}
	if negative {
		field[0] = '-'
	}
}
