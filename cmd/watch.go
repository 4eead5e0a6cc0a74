// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sync"
	"time"

	"github.com/Thermoquad/hlsprobe/pkg/link"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [addr|name...]",
	Short: "Interactive TUI for watching and writing core registers",
	Long: `Watch core registers and the core clock in an interactive terminal UI.

Every register in the config register map is read once per --interval, along
with any extra addresses or names given as arguments. The dashboard shows:
  - Register values and response status
  - The core's microsecond counter
  - Link statistics (frame rate, CRC and framing errors)
  - Console output from the core
  - An event log
  - Automatic reconnection on connection loss

Tab switches between the register list and the write field. In the write
field, enter name=value or addr=value and press Enter. With the register list
focused, Enter starts a write to the selected register and r resets the clock.

Supports serial, WebSocket and loopback connections.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "Register poll interval")
	watchCmd.Flags().DurationVar(&txnTimeout, "timeout", 2*time.Second, "Time to wait for each response")
}

// connectionManager handles connection lifecycle and reconnection
type connectionManager struct {
	s    *hostSession
	info string
	mu   sync.RWMutex
	p    *tea.Program
	done chan struct{}
}

func (cm *connectionManager) session() *hostSession {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.s
}

func (cm *connectionManager) setSession(s *hostSession) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.s = s
	if s != nil {
		cm.info = s.info
	}
}

// send forwards msg to the TUI once it is running
func (cm *connectionManager) send(msg tea.Msg) {
	cm.mu.RLock()
	p := cm.p
	cm.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// frameHook reports dropped and rejected frames to the event log
func (cm *connectionManager) frameHook(f *link.Frame, err error) {
	switch {
	case err != nil:
		cm.send(linkEventMsg{message: err.Error(), isError: true})
	case f.ParseError() != nil:
		cm.send(linkEventMsg{message: f.ParseError().Error(), isError: true})
	case f.Type() == link.MsgError:
		code, rejected, perr := link.ParseError(f.PayloadMap())
		if perr == nil {
			cm.send(linkEventMsg{
				message: fmt.Sprintf("core rejected %s: %s", link.FormatMessageType(rejected), code),
				isError: true,
			})
		}
	}
}

func (cm *connectionManager) connect() (*hostSession, error) {
	return openHost(link.WithFrameHook(cm.frameHook))
}

// drop closes the current session so the supervisor reconnects. Used when a
// transaction never completes and the channel pair stays busy.
func (cm *connectionManager) drop() {
	if s := cm.session(); s != nil {
		_ = s.Close()
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	targets, err := watchTargets(args)
	if err != nil {
		return err
	}

	cm := &connectionManager{done: make(chan struct{})}

	// Open initial connection (serial, WebSocket or loopback)
	s, err := cm.connect()
	if err != nil {
		return err
	}
	cm.setSession(s)

	// Create TUI model with connection manager
	m := initialWatchModel(cm, targets)

	// Create TUI program with alt screen and mouse support
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	cm.mu.Lock()
	cm.p = p
	cm.mu.Unlock()

	go cm.supervise()

	// Run TUI
	_, err = p.Run()
	close(cm.done) // Signal goroutines to stop
	if s := cm.session(); s != nil {
		_ = s.Close()
	}
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// supervise waits for the link to drop and reconnects
func (cm *connectionManager) supervise() {
	for {
		s := cm.session()
		select {
		case <-cm.done:
			return
		case <-s.Done():
		}

		// Notify TUI about connection loss
		cm.send(connectionLostMsg{})

		// Attempt to reconnect
		if !cm.reconnect() {
			return // Shutdown requested during reconnect
		}
	}
}

// reconnect attempts to reconnect with exponential backoff
// Returns false if shutdown was requested during reconnection
func (cm *connectionManager) reconnect() bool {
	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-cm.done:
			return false
		case <-time.After(backoff):
		}

		// Attempt to reconnect
		s, err := cm.connect()
		if err == nil {
			cm.setSession(s)

			// Notify TUI about reconnection
			cm.send(reconnectedMsg{connInfo: s.info})
			return true
		}
		cm.send(linkEventMsg{message: fmt.Sprintf("reconnect failed: %v", err), isError: true})

		// Exponential backoff
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// watchTarget is one register shown on the dashboard
type watchTarget struct {
	name   string
	addr   uint32
	access string
}

// watchTargets lists the mapped registers followed by any extra arguments
func watchTargets(args []string) ([]watchTarget, error) {
	targets := make([]watchTarget, 0, len(cfg.Registers)+len(args))
	seen := make(map[uint32]bool)
	for _, r := range cfg.Registers {
		targets = append(targets, watchTarget{name: r.Name, addr: r.Addr, access: r.Access})
		seen[r.Addr] = true
	}
	for _, arg := range args {
		addr, name, err := resolveRegister(arg)
		if err != nil {
			return nil, err
		}
		if seen[addr] {
			continue
		}
		seen[addr] = true
		targets = append(targets, watchTarget{name: name, addr: addr})
	}
	return targets, nil
}
