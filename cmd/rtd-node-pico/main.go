//go:build rp2040 || rp2350

// Command rtd-node-pico is the TinyGo firmware for a Pico carrying the
// MAX31865 and a LoRa AT modem.
package main

import (
	"context"
	"machine"
	"time"

	"rtdnode/bus"
	"rtdnode/radio/atmodem"
	"rtdnode/services/config"
	"rtdnode/services/console"
	"rtdnode/services/hal/platform"
	"rtdnode/services/heartbeat"
	"rtdnode/services/node"
	"rtdnode/services/uplink"
	"rtdnode/x/logx"
)

func main() {
	time.Sleep(2 * time.Second)
	ctx := context.Background()

	out := logx.NewOutput(machine.Serial)
	log := out.New("main")

	cfg, err := config.Embedded("pico-pt100")
	if err != nil {
		println("[main] config:", err.Error())
		return
	}
	out.SetEnabled(cfg.DebugEnabled())

	board, err := platform.NewBoard(cfg.Platform)
	if err != nil {
		println("[main] board:", err.Error())
		return
	}

	modem := atmodem.New(platform.OpenModem(cfg.Platform.ModemBaud), atmodem.Config{
		Network:   cfg.Network(),
		Confirmed: cfg.LoRa.Confirmed,
		Port:      cfg.LoRa.Port,
	}, out.New("MODEM"))

	b := bus.NewBus(8)
	sess := &uplink.Session{Network: cfg.Network(), Confirmed: cfg.LoRa.Confirmed}
	n := node.New(node.ConfigFrom(cfg), board, modem, sess, b.NewConnection("node"), nil, out.New("APP"))
	modem.SetHandler(n.RadioHandler())
	modem.Start(ctx)
	if err := modem.Init(); err != nil {
		log.Printf("modem init: %v", err)
	}

	con := platform.OpenConsole(cfg.Platform.ConsoleBaud)
	console.MirrorLogs(out, con, cfg.BLE)
	n.SetCommandParser(console.NewInterpreter(n, con, out.New("AT")))
	go console.NewPrinter(b.NewConnection("console"), con).Run(ctx)
	go n.ReadCommands(ctx, con.Recv)
	_ = heartbeat.New(cfg.Heartbeat(), out.New("HB")).Start(ctx, b.NewConnection("heartbeat"))

	log.Printf("Setup application")
	n.Init()
	if sess.Network {
		if err := n.Join(); err != nil {
			log.Printf("join request: %v", err)
		}
	}
	// Run only returns on restart, and CPUReset does not return.
	_ = n.Run(ctx)
	for {
		time.Sleep(time.Second)
	}
}
