// Command rtd-node-sim runs the node against simulated hardware and an
// in-memory radio. Type AT commands on stdin; +EVT lines go to stdout.
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
	"sync"
	"time"

	"rtdnode/bus"
	"rtdnode/drivers/max31865"
	"rtdnode/radio/stub"
	"rtdnode/services/config"
	"rtdnode/services/console"
	"rtdnode/services/hal/halfake"
	"rtdnode/services/heartbeat"
	"rtdnode/services/node"
	"rtdnode/services/telemetry"
	"rtdnode/services/uplink"
	"rtdnode/x/logx"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "YAML config file (embedded defaults when empty)")
		interval = flag.Duration("interval", 10*time.Second, "send interval override")
		tempC    = flag.Float64("temp", 21.5, "simulated RTD temperature in °C")
		nak      = flag.Bool("nak", false, "report confirmed uplinks as failed")
		mirror   = flag.String("telemetry", "", "host:port to mirror bus records to")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	in := newStdin(os.Stdin)
	err := serve(ctx, func(ctx context.Context) error {
		return run(ctx, in, *cfgPath, *interval, float32(*tempC), *nak, *mirror)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "rtd-node-sim:", err)
		os.Exit(1)
	}
}

// serve reruns once from scratch each time the node asks for a restart.
func serve(ctx context.Context, once func(context.Context) error) error {
	for restarts := 1; ; restarts++ {
		err := once(ctx)
		if !errors.Is(err, node.ErrRestart) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintf(os.Stderr, "rtd-node-sim: restart %d\n", restarts)
	}
}

// stdinSource outlives a single run so a restart does not strand a
// reader blocked in os.Stdin.Read.
type stdinSource struct {
	mu   sync.Mutex
	ch   chan []byte
	err  error
	rest []byte
}

func newStdin(r io.Reader) *stdinSource {
	s := &stdinSource{ch: make(chan []byte, 4)}
	go func() {
		for {
			buf := make([]byte, 256)
			k, err := r.Read(buf)
			if k > 0 {
				s.ch <- buf[:k]
			}
			if err != nil {
				s.err = err
				close(s.ch)
				return
			}
		}
	}()
	return s
}

// Recv satisfies node.RecvFunc; it reports (0, nil) after node.CommandIdle
// without input.
func (s *stdinSource) Recv(ctx context.Context, buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(s.rest) == 0 {
		idle := time.NewTimer(node.CommandIdle)
		defer idle.Stop()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-idle.C:
			return 0, nil
		case b, ok := <-s.ch:
			if !ok {
				return 0, s.err
			}
			s.rest = b
		}
	}
	k := copy(buf, s.rest)
	s.rest = s.rest[k:]
	return k, nil
}

func run(ctx context.Context, in *stdinSource, path string, interval time.Duration, tempC float32, nak bool, mirror string) error {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Embedded("")
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := logx.NewOutput(os.Stderr)
	out.SetEnabled(cfg.DebugEnabled())
	log := out.New("main")

	chip := &halfake.MAX31865{}
	rtd := max31865.PT100
	if cfg.Sensor.RTD == "pt1000" {
		rtd = max31865.PT1000
	}
	chip.SetReading(max31865.Resistance(rtd, tempC), cfg.Sensor.RefOhms, 0)
	board, _ := halfake.Board(chip)

	r := stub.New()
	r.Auto = true
	r.Ack = !nak

	ncfg := node.ConfigFrom(cfg)
	if interval > 0 {
		ncfg.SendInterval = interval
	}
	b := bus.NewBus(16)
	sess := &uplink.Session{Network: cfg.Network(), Confirmed: cfg.LoRa.Confirmed}
	n := node.New(ncfg, board, r, sess, b.NewConnection("node"), nil, out.New("APP"))
	r.SetHandler(n.RadioHandler())

	n.SetCommandParser(console.NewInterpreter(n, os.Stdout, out.New("AT")))
	go console.NewPrinter(b.NewConnection("console"), os.Stdout).Run(ctx)
	go func() {
		if err := n.ReadCommands(ctx, in.Recv); err != nil && ctx.Err() == nil {
			log.Printf("stdin: %v", err)
		}
	}()

	_ = heartbeat.New(cfg.Heartbeat(), out.New("HB")).Start(ctx, b.NewConnection("heartbeat"))
	if mirror == "" {
		mirror = cfg.Platform.TelemetryAddr
	}
	if mirror != "" {
		dial := func(ctx context.Context) (io.ReadWriteCloser, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", mirror)
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
