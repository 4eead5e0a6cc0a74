// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Thermoquad/hlsprobe/internal/config"
	"github.com/Thermoquad/hlsprobe/internal/logging"
	"github.com/Thermoquad/hlsprobe/pkg/bridge"
	"github.com/Thermoquad/hlsprobe/pkg/link"
	"github.com/Thermoquad/hlsprobe/pkg/sim"
	"github.com/spf13/cobra"
)

var (
	serveListen  string
	serveBackend string
	serveEcho    bool
	serveBanner  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Act as the core: answer register, clock and console frames",
	Long: `Emulate an HLS core on a serial port or as a WebSocket server.

Register commands are answered by the selected backend:
  memory  - a register file built from the config register map (any aligned
            address reads as zero when no map is declared)
  modbus  - holding registers on a Modbus TCP endpoint or RTU device; each
            32-bit register spans two 16-bit holding registers

Clock commands are answered from a microsecond counter starting at
serve.clock_start. Console bytes from the host are written to stdout.

Examples:
  # Serve over a serial port
  hlsprobe serve --port /dev/ttyUSB1

  # Serve WebSocket clients on :8080, backed by a Modbus PLC
  hlsprobe serve --listen :8080 --backend modbus -c bench.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "WebSocket listen address (host:port)")
	serveCmd.Flags().StringVar(&serveBackend, "backend", "", "Register backend (memory or modbus)")
	serveCmd.Flags().BoolVar(&serveEcho, "echo", false, "Echo console input back to the host")
	serveCmd.Flags().BoolVar(&serveBanner, "banner", true, "Print a greeting on the console when a host connects")
}

// openBackends builds the register and clock backends named by the config.
// The returned closer releases the register backend.
func openBackends() (sim.RegisterBackend, sim.ClockBackend, io.Closer, error) {
	clock := sim.NewClock(cfg.Serve.ClockStart)

	switch cfg.Serve.Backend {
	case config.BackendModbus:
		m := cfg.Serve.Modbus
		b, err := bridge.Dial(bridge.Config{
			Endpoint: m.Endpoint,
			Device:   m.Device,
			BaudRate: m.Baud,
			UnitID:   m.UnitID,
			Timeout:  m.Timeout(),
		}, logging.Logger("bridge"))
		if err != nil {
			return nil, nil, nil, err
		}
		return b, clock, b, nil

	default:
		regs, err := sim.NewRegisterFile(cfg.SimRegisters()...)
		if err != nil {
			return nil, nil, nil, err
		}
		regs.SetLogger(logging.Logger("regs"))
		return regs, clock, noClose{}, nil
	}
}

type noClose struct{}

func (noClose) Close() error { return nil }

func runServe(cmd *cobra.Command, args []string) error {
	if serveListen != "" {
		cfg.Serve.Listen = serveListen
	}
	if serveBackend != "" {
		cfg.Serve.Backend = serveBackend
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	config.Normalize(cfg)

	regs, clock, closer, err := openBackends()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logging.Logger("serve")
	fmt.Printf("hlsprobe - Core Emulator\n")
	fmt.Printf("Backend: %s, %d mapped registers\n", cfg.Serve.Backend, len(cfg.Registers))

	if cfg.Serve.Listen != "" {
		return serveWebSocket(ctx, regs, clock)
	}

	if cfg.Connection.Port == "" {
		return fmt.Errorf("serve needs --port or --listen")
	}
	conn, err := link.OpenSerial(cfg.Connection.Port, cfg.Connection.Baud)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Connection.Port, err)
	}
	fmt.Printf("Connection: Serial: %s @ %d baud\n", cfg.Connection.Port, cfg.Connection.Baud)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	dev := newServeDevice(conn, regs, clock)
	err = dev.Run(ctx)
	log.Info().Interface("stats", dev.Stats().Snapshot()).Msg("link closed")
	return err
}

// newServeDevice creates a Device with the console wired to stdout
func newServeDevice(conn link.Connection, regs sim.RegisterBackend, clock sim.ClockBackend) *link.Device {
	log := logging.Logger("device")
	dev := link.NewDevice(conn, regs, clock,
		link.WithLogger(log),
		link.WithConsoleSink(os.Stdout))
	if serveEcho {
		go echoConsole(dev.Console())
	}
	if serveBanner {
		if err := dev.Console().Print("hlsprobe core, %u registers\n", uint32(len(cfg.Registers))); err != nil {
			log.Debug().Err(err).Msg("banner not sent")
		}
	}
	return dev
}

func serveWebSocket(ctx context.Context, regs sim.RegisterBackend, clock sim.ClockBackend) error {
	log := logging.Logger("serve")

	password := ""
	if cfg.Serve.Username != "" {
		var err error
		password, err = GetPassword()
		if err != nil {
			return err
		}
	}

	var hosts connTracker
	handler := link.WebSocketHandler(cfg.Serve.Username, password, func(conn *link.WebSocketConnection) {
		if !hosts.add() {
			_ = conn.Close()
			return
		}
		defer hosts.done()

		log.Info().Msg("host connected")
		dev := newServeDevice(conn, regs, clock)
		if err := dev.Run(ctx); err != nil {
			log.Warn().Err(err).Msg("link failed")
		}
		log.Info().Stringer("stats", dev.Stats()).Msg("host disconnected")
	})

	srv := &http.Server{
		Addr:              cfg.Serve.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Listening: ws://%s/\n", cfg.Serve.Listen)
	fmt.Printf("Press Ctrl+C to exit\n\n")
	err := srv.ListenAndServe()
	hosts.closeAndWait()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// connTracker counts live host connections. Once closed it refuses new ones,
// so the count cannot grow while closeAndWait is waiting.
type connTracker struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

func (t *connTracker) add() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.wg.Add(1)
	return true
}

func (t *connTracker) done() {
	t.wg.Done()
}

func (t *connTracker) closeAndWait() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.wg.Wait()
}
