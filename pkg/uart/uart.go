// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package uart

import "github.com/Thermoquad/hlsprobe/pkg/fifo"

// UART is a console bound to a transmit FIFO and a receive FIFO.
type UART struct {
	tx fifo.Writer[byte]
	rx fifo.Reader[byte]
	p  *Printer
}

// New creates a UART. rx may be nil for a transmit-only console.
func New(tx fifo.Writer[byte], rx fifo.Reader[byte]) *UART {
	u := &UART{tx: tx, rx: rx}
	u.p = NewPrinter(u)
	return u
}

// WriteByte writes one byte to the transmit FIFO. It implements io.ByteWriter.
func (u *UART) WriteByte(c byte) error {
	return u.tx.Write(c)
}

// WriteChar writes one ASCII character.
func (u *UART) WriteChar(c rune) error {
	return u.WriteByte(byte(c))
}

// WriteDec writes value in decimal. See EncodeDecimal.
func (u *UART) WriteDec(value uint32, signed bool, width uint8) error {
	return u.p.writeField(EncodeDecimal(value, signed, width))
}

// WriteHex writes value in hexadecimal. See EncodeHex.
func (u *UART) WriteHex(value uint32, zeroFill, uppercase bool, width uint8) error {
	return u.p.writeField(EncodeHex(value, zeroFill, uppercase, width))
}

// Print formats onto the transmit FIFO. See Printer.Print.
func (u *UART) Print(format string, args ...uint32) error {
	return u.p.Print(format, Args(args...))
}

// Receive fetches one byte from the receive FIFO. A blocking call waits for a
// byte; a non-blocking call returns ok == false when none is queued.
func (u *UART) Receive(blocking bool) (c byte, ok bool, err error) {
	if u.rx == nil {
		return 0, false, fifo.ErrClosed
	}
	if blocking {
		c, err = u.rx.Read()
		if err != nil {
			return 0, false, err
		}
		return c, true, nil
	}
	return u.rx.TryRead()
}
