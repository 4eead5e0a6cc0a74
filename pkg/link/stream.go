// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// Option configures a Host or Device
type Option func(*endpoint)

// WithLogger sets the logger for link events
func WithLogger(l zerolog.Logger) Option {
	return func(e *endpoint) { e.log = l }
}

// WithFrameHook is called for every decoded frame and decode error, before
// the frame is dispatched
func WithFrameHook(hook func(*Frame, error)) Option {
	return func(e *endpoint) { e.hook = hook }
}

// WithConsoleSink copies every console byte received from the peer to w
func WithConsoleSink(w io.Writer) Option {
	return func(e *endpoint) { e.sink = w }
}

// endpoint is the framing half shared by Host and Device
type endpoint struct {
	conn  Connection
	log   zerolog.Logger
	hook  func(*Frame, error)
	sink  io.Writer
	stats *Statistics

	wmu sync.Mutex
}

func newEndpoint(conn Connection, opts []Option) *endpoint {
	e := &endpoint{
		conn:  conn,
		log:   zerolog.Nop(),
		stats: NewStatistics(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// send encodes and writes one frame. Writers are serialized.
func (e *endpoint) send(msgType uint8, payload map[int]interface{}) error {
	frame, err := Encode(msgType, payload)
	if err != nil {
		return err
	}

	e.wmu.Lock()
	defer e.wmu.Unlock()
	if _, err := e.conn.Write(frame); err != nil {
		return fmt.Errorf("link: send %s: %w", FormatMessageType(msgType), err)
	}
	e.stats.RecordSent()
	return nil
}

// run reads the connection until it fails or ctx ends, handing each good
// frame to dispatch. Cancelling ctx closes the connection.
func (e *endpoint) run(ctx context.Context, dispatch func(*Frame)) error {
	stop := context.AfterFunc(ctx, func() { _ = e.conn.Close() })
	defer stop()

	decoder := NewDecoder()
	buf := make([]byte, 128)

	for {
		n, err := e.conn.Read(buf)
		for i := 0; i < n; i++ {
			frame, derr := decoder.DecodeByte(buf[i])
			if frame == nil && derr == nil {
				continue
			}
			e.stats.RecordDecode(frame, derr)
			if e.hook != nil {
				e.hook(frame, derr)
			}
			if derr != nil {
				e.log.Warn().Err(derr).Msg("dropped frame")
				continue
			}
			if perr := frame.ParseError(); perr != nil {
				e.log.Warn().Err(perr).Msg("unparseable frame")
				continue
			}
			dispatch(frame)
		}

		if err != nil {
			if ctx.Err() != nil || isClosed(err) {
				return nil
			}
			return fmt.Errorf("link: read: %w", err)
		}
	}
}

func (e *endpoint) copyToSink(b []byte) {
	if e.sink == nil {
		return
	}
	if _, err := e.sink.Write(b); err != nil {
		e.log.Debug().Err(err).Msg("console sink write failed")
	}
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, ErrConnectionClosed)
}

// byteWriter sends each console byte as its own frame
type byteWriter struct {
	e       *endpoint
	msgType uint8
}

func (w byteWriter) Write(b byte) error {
	return w.e.send(w.msgType, ConsolePayload([]byte{b}))
}

// WriteBytes sends b in as few frames as fit.
func (w byteWriter) WriteBytes(b []byte) error {
	for len(b) > 0 {
		n := min(len(b), maxConsoleChunk)
		if err := w.e.send(w.msgType, ConsolePayload(b[:n])); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
