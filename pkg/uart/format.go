// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package uart

import (
	"bytes"
	"io"
	"strings"
)

// MaxFormatLength is the hard bound on how many format characters are scanned.
const MaxFormatLength = 128

// MaxValues is the number of positional value slots available to a format.
const MaxValues = 4

// maxWidthDigits is the number of ASCII digits accepted in a width prefix.
const maxWidthDigits = 3

// Values holds the positional arguments of one Print call.
//
// Specifiers consume slots left to right. Once the last slot has been used the
// index saturates: a fifth and every later specifier reuses Values[3].
type Values [MaxValues]uint32

// Args packs up to MaxValues arguments into Values. Extra arguments are
// ignored and missing ones are zero.
func Args(args ...uint32) Values {
	var v Values
	copy(v[:], args)
	return v
}

// Printer formats text onto a byte sink.
type Printer struct {
	w io.ByteWriter
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.ByteWriter) *Printer {
	return &Printer{w: w}
}

// Print scans format and writes the formatted result to the sink.
//
// Supported syntax:
//   - "\n" is written as "\r\n"
//   - "%%" is a literal '%', as is a '%' at the end of the format
//   - "%[0][width]d" / "%i" signed decimal, "%u" unsigned decimal
//   - "%[0][width]x" / "%X" lower/upper case hexadecimal
//   - "%c" the low byte of the next value
//
// Any other character after a width prefix is written literally and does not
// consume a value. Scanning stops at the first NUL, after MaxFormatLength
// characters, or when a width prefix runs into the end of the format.
//
// Formatting itself never fails; the only error returned is the first one
// reported by the sink, after which output stops.
func (p *Printer) Print(format string, v Values) error {
	if len(format) > MaxFormatLength {
		format = format[:MaxFormatLength]
	}
	if i := strings.IndexByte(format, 0); i >= 0 {
		format = format[:i]
	}

	valueIndex := 0
	next := func() uint32 {
		val := v[valueIndex]
		if valueIndex < MaxValues-1 {
			valueIndex++
		}
		return val
	}

	for i := 0; i < len(format); i++ {
		c := format[i]

		if c == '\n' {
			if err := p.writeBytes('\r', '\n'); err != nil {
				return err
			}
			continue
		}

		if c != '%' {
			if err := p.w.WriteByte(c); err != nil {
				return err
			}
			continue
		}

		// A lone '%' at the end is emitted literally
		if i+1 >= len(format) {
			return p.w.WriteByte('%')
		}

		if format[i+1] == '%' {
			i++
			if err := p.w.WriteByte('%'); err != nil {
				return err
			}
			continue
		}

		i++
		zeroFill := format[i] == '0'

		var width uint8
		for n := 0; n < maxWidthDigits && i < len(format); n++ {
			d := format[i]
			if d < '0' || d > '9' {
				break
			}
			width = width*10 + (d - '0')
			i++
		}

		// Width prefix with nothing after it
		if i >= len(format) {
			return nil
		}

		var err error
		switch spec := format[i]; spec {
		case 'd', 'i':
			err = p.writeField(encodeDecimal(next(), true, zeroFill, width))
		case 'u':
			err = p.writeField(encodeDecimal(next(), false, zeroFill, width))
		case 'x':
			err = p.writeField(EncodeHex(next(), zeroFill, false, width))
		case 'X':
			err = p.writeField(EncodeHex(next(), zeroFill, true, width))
		case 'c':
			err = p.w.WriteByte(byte(next()))
		default:
			err = p.w.WriteByte(spec)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// Printf is Print with the values given as arguments. See Args.
func (p *Printer) Printf(format string, args ...uint32) error {
	return p.Print(format, Args(args...))
}

func (p *Printer) writeField(field []byte) error {
	return p.writeBytes(field...)
}

func (p *Printer) writeBytes(b ...byte) error {
	for _, c := range b {
		if err := p.w.WriteByte(c); err != nil {
			return err
		}
	}
	return nil
}

// Sprint returns the formatted output of format as a string.
func Sprint(format string, v Values) string {
	var buf bytes.Buffer
	_ = NewPrinter(&buf).Print(format, v)
	return buf.String()
}

// Sprintf is Sprint with the values given as arguments.
func Sprintf(format string, args ...uint32) string {
	return Sprint(format, Args(args...))
}

