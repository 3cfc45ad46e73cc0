//go:build linux

// Command rtd-node runs the RTD telemetry node on a Linux host: MAX31865 on
// spidev, rail and DRDY on GPIO, a LoRa AT modem on a serial port.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"

	"rtdnode/bus"
	"rtdnode/radio/atmodem"
	"rtdnode/services/config"
	"rtdnode/services/console"
	"rtdnode/services/hal/platform"
	"rtdnode/services/heartbeat"
	"rtdnode/services/node"
	"rtdnode/services/telemetry"
	"rtdnode/services/uplink"
	"rtdnode/x/logx"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config file (embedded pi-pt100 defaults when empty)")
	flag.Parse()

	if err := run(*cfgPath); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "rtd-node:", err)
		os.Exit(1)
	}
}

func run(path string) error {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Embedded("pi-pt100")
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := logx.NewOutput(os.Stderr)
	out.SetEnabled(cfg.DebugEnabled())
	log := out.New("main")

	board, err := platform.NewBoard(cfg.Platform)
	if err != nil {
		return fmt.Errorf("board: %w", err)
	}

	port, err := atmodem.Open(cfg.Platform.ModemDev, cfg.Platform.ModemBaud)
	if err != nil {
		return fmt.Errorf("modem: %w", err)
	}
	defer port.Close()
	modem := atmodem.New(port, atmodem.Config{
		Network:   cfg.Network(),
		Confirmed: cfg.LoRa.Confirmed,
		Port:      cfg.LoRa.Port,
	}, out.New("MODEM"))

	b := bus.NewBus(16)
	sess := &uplink.Session{Network: cfg.Network(), Confirmed: cfg.LoRa.Confirmed}
	n := node.New(node.ConfigFrom(cfg), board, modem, sess, b.NewConnection("node"), nil, out.New("APP"))
	modem.SetHandler(n.RadioHandler())
	modem.Start(ctx)
	if err := modem.Init(); err != nil {
		log.Printf("modem init: %v", err)
	}

	var (
		conOut io.Writer     = os.Stdout
		recv   node.RecvFunc = platform.OpenConsole(os.Stdin).Recv
	)
	if dev := cfg.Platform.ConsoleDev; dev != "" {
		sp, err := serial.Open(dev, &serial.Mode{BaudRate: cfg.Platform.ConsoleBaud})
		if err != nil {
			return fmt.Errorf("console: %w", err)
		}
		defer sp.Close()
		if err := sp.SetReadTimeout(node.CommandIdle); err != nil {
			return fmt.Errorf("console: %w", err)
		}
		conOut = sp
		recv = func(ctx context.Context, buf []byte) (int, error) { return sp.Read(buf) }
	}
	console.MirrorLogs(out, conOut, cfg.BLE)
	n.SetCommandParser(console.NewInterpreter(n, conOut, out.New("AT")))
	go console.NewPrinter(b.NewConnection("console"), conOut).Run(ctx)
	go func() {
		if err := n.ReadCommands(ctx, recv); err != nil && ctx.Err() == nil {
			log.Printf("console: %v", err)
		}
	}()

	_ = heartbeat.New(cfg.Heartbeat(), out.New("HB")).Start(ctx, b.NewConnection("heartbeat"))
	if addr := cfg.Platform.TelemetryAddr; addr != "" {
		var d net.Dialer
		dial := func(ctx context.Context) (io.ReadWriteCloser, error) {
			dctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return d.DialContext(dctx, "tcp", addr)
		}
		go telemetry.New(b.NewConnection("telemetry"), dial).Run(ctx)
	}

	log.Printf("Setup application")
	n.Init()
	if sess.Network {
		if err := n.Join(); err != nil {
			log.Printf("join request: %v", err)
		}
	}
	return n.Run(ctx)
}
