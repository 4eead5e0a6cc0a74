// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/Thermoquad/hlsprobe/internal/logging"
	"github.com/Thermoquad/hlsprobe/pkg/link"
	"github.com/Thermoquad/hlsprobe/pkg/uart"
	"golang.org/x/term"
)

// ErrTimeout is returned when a transaction gets no response in time
var ErrTimeout = errors.New("no response before timeout")

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv("HLSPROBE_PASSWORD"); pw != "" {
		return pw, nil
	}

	// Prompt user for password (hide input)
	fmt.Fprint(os.Stderr, "Password: ")

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr) // newline after password
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr) // newline after password
	return string(passwordBytes), nil
}

// OpenConnection opens a serial, WebSocket or loopback connection based on
// flags and config
func OpenConnection() (link.Connection, string, error) {
	c := cfg.Connection

	if loopback {
		conn, err := openLoopback()
		if err != nil {
			return nil, "", err
		}
		return conn, "Loopback: emulated core", nil
	}

	if c.URL != "" {
		// WebSocket mode
		password := ""
		if c.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		conn, err := link.DialWebSocket(ctx, c.URL, c.Username, password, c.NoSSLVerify)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("WebSocket: %s", c.URL), nil
	}

	if c.Port != "" {
		// Serial mode
		conn, err := link.OpenSerial(c.Port, c.Baud)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("Serial: %s @ %d baud", c.Port, c.Baud), nil
	}

	return nil, "", fmt.Errorf("one of --port, --url or --loopback must be specified")
}

// openLoopback starts an emulated core on one end of an in-process pipe and
// returns the other end. The core echoes console input back to the host.
func openLoopback() (link.Connection, error) {
	regs, clock, closer, err := openBackends()
	if err != nil {
		return nil, err
	}

	hostSide, deviceSide := link.Pipe()
	dev := link.NewDevice(deviceSide, regs, clock, link.WithLogger(logging.Logger("loopback")))
	go func() {
		_ = dev.Run(context.Background())
		_ = closer.Close()
	}()
	go echoConsole(dev.Console())

	return hostSide, nil
}

// echoConsole writes every received byte back out until the console closes
func echoConsole(u *uart.UART) {
	for {
		c, ok, err := u.Receive(true)
		if err != nil {
			return
		}
		if ok {
			if err := u.WriteByte(c); err != nil {
				return
			}
		}
	}
}

// hostSession is a Host with its reader goroutine running
type hostSession struct {
	*link.Host
	info   string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// openHost opens the configured connection and starts a Host on it
func openHost(opts ...link.Option) (*hostSession, error) {
	conn, info, err := OpenConnection()
	if err != nil {
		return nil, err
	}

	opts = append([]link.Option{link.WithLogger(logging.Logger("host"))}, opts...)
	s := &hostSession{
		Host: link.NewHost(conn, opts...),
		info: info,
		done: make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		s.err = s.Run(ctx)
		close(s.done)
	}()
	return s, nil
}

// Done is closed when the reader stops
func (s *hostSession) Done() <-chan struct{} {
	return s.done
}

// Close stops the reader and closes the connection
func (s *hostSession) Close() error {
	s.cancel()
	<-s.done
	return s.err
}

// withTimeout runs fn and gives up after d. A zero d waits forever. On
// timeout fn keeps running; closing the session unblocks it.
func withTimeout[T any](d time.Duration, fn func() (T, error)) (T, error) {
	if d <= 0 {
		return fn()
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-timer.C:
		var zero T
		return zero, ErrTimeout
	}
}

// exitConnectionError reports a connection failure and exits with code 2
func exitConnectionError(err error) {
	fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
	os.Exit(2)
}
