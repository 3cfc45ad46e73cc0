// Package node runs the sampling and transmission cycle. Every input (the
// send timer, side-channel command bytes, radio events) is queued as an
// Event and handled to completion by a single loop, so the session state
// needs no locking.
package node

import (
	"context"
	"errors"
	"time"

	"rtdnode/bus"
	"rtdnode/errcode"
	"rtdnode/radio"
	"rtdnode/services/acquire"
	"rtdnode/services/console"
	"rtdnode/services/faults"
	"rtdnode/services/hal/halcore"
	"rtdnode/services/payload"
	"rtdnode/services/uplink"
	"rtdnode/types"
	"rtdnode/x/logx"
	"rtdnode/x/mathx"
	"rtdnode/x/timex"
)

// ErrRestart is returned by Run after the board restarter has been invoked.
var ErrRestart = errors.New("node: restart requested")

// ModeSetter is implemented by radios whose work mode can change at runtime.
type ModeSetter interface {
	SetMode(network, confirmed bool) error
}

type Node struct {
	cfg   Config
	board halcore.Board
	radio radio.Radio
	sess  *uplink.Session
	up    *uplink.Uplink
	acq   *acquire.Acquirer
	enc   *payload.Encoder
	conn  *bus.Connection
	clock timex.Clock
	log   *logx.Logger

	bridge *console.Bridge // nil when no command parser is attached

	events  chan Event
	timer   *time.Timer
	rearm   bool
	restart string

	sensor bool
	cycles uint32
	level  string
}

// New wires a node. conn may be nil; clock and log default to the system
// clock and a discarding logger.
func New(cfg Config, board halcore.Board, r radio.Radio, sess *uplink.Session,
	conn *bus.Connection, clock timex.Clock, log *logx.Logger) *Node {
	cfg.normalize()
	if clock == nil {
		clock = timex.System
	}
	if log == nil {
		log = logx.Discard
	}
	return &Node{
		cfg:    cfg,
		board:  board,
		radio:  r,
		sess:   sess,
		up:     uplink.New(sess, r, conn, log, cfg.Uplink),
		acq:    acquire.New(cfg.Acquire, board.SPI, board.ChipSel, board.DataReady, clock, log),
		enc:    payload.NewEncoder(cfg.PayloadMax),
		conn:   conn,
		clock:  clock,
		log:    log,
		events: make(chan Event, cfg.QueueLen),
		level:  "init",
	}
}

// SetCommandParser attaches the optional command parser fed by EvCommand
// events. A nil parser detaches it.
func (n *Node) SetCommandParser(p console.ByteParser) {
	if p == nil {
		n.bridge = nil
		return
	}
	n.bridge = console.NewBridge(p, n.log)
}

// Post queues ev without blocking. It reports false when the queue is full.
func (n *Node) Post(ev Event) bool {
	select {
	case n.events <- ev:
		return true
	default:
		return false
	}
}

// RadioHandler returns a radio.Handler that queues radio events.
func (n *Node) RadioHandler() radio.Handler {
	return func(ev radio.Event) {
		if !n.Post(Event{Kind: EvRadio, Radio: ev}) {
			n.log.Printf("event queue full, dropped %s", ev.Kind)
		}
	}
}

// Init runs the startup self-test: power the sensor, detect the converter
// with the startup fault window, take one bounded read and park the bus.
func (n *Node) Init() bool {
	n.log.Printf("Initialize application")
	n.railOn(n.cfg.InitSettle)
	_, _ = n.acq.Acquire(n.cfg.Startup)
	n.railOff()

	n.sensor = n.acq.Detected()
	if n.sensor {
		n.log.Printf("Found MAX31865")
	}
	n.level = "ready"
	n.publishState()
	return n.sensor
}

// Run processes events one at a time until ctx ends or a restart is
// escalated. On escalation it calls the board restarter and returns
// ErrRestart without handling anything further.
func (n *Node) Run(ctx context.Context) error {
	n.timer = time.NewTimer(n.cfg.SendInterval)
	defer n.timer.Stop()

	for {
		select {
		case <-ctx.Done():
			n.level = "stopped"
			n.publishState()
			return ctx.Err()
		case <-n.timer.C:
			n.handle(Event{Kind: EvTimer})
			n.rearm = true
		case ev := <-n.events:
			n.handle(ev)
		}

		if n.restart != "" {
			n.level = "restarting"
			n.publishState()
			n.log.Printf("restart: %s", n.restart)
			if n.board.Restarter != nil {
				n.board.Restarter.Restart(n.restart)
			}
			return ErrRestart
		}
		if n.rearm {
			timex.ResetTimer(n.timer, n.cfg.SendInterval)
			n.rearm = false
		}
	}
}

func (n *Node) handle(ev Event) {
	switch ev.Kind {
	case EvTimer:
		n.Cycle()
	case EvCommand:
		if n.bridge == nil || !n.bridge.Forward(ev.Data) {
			n.log.Printf("no command parser, dropped %d bytes", len(ev.Data))
		}
	case EvRadio:
		if n.up.Handle(ev.Radio) {
			n.restart = "too many failed sends"
		}
		n.publishState()
	default:
		n.log.Printf("unknown event %d", uint8(ev.Kind))
	}
}

// Cycle is one timer wakeup: battery, optional temperature, dispatch.
func (n *Node) Cycle() {
	n.log.Printf("Timer wakeup")
	n.cycles++
	n.railOn(n.cfg.RailSettle)
	defer n.railOff()

	n.enc.Reset()
	mv, haveBatt := n.battery()
	if haveBatt {
		if err := n.enc.AddVoltage(n.cfg.ChannelBattery, mv/1000); err != nil {
			n.log.Printf("battery entry: %v", err)
		}
	}

	rv := types.ReadingValue{BatteryMV: uint16(mathx.Clamp(mathx.RoundToInt(mv), 0, 65535)), TS: n.clock.Now().UnixMilli()}
	if n.sensor {
		if r, ok := n.acq.Acquire(n.cfg.Cycle); ok {
			n.report(r)
			rv.DeciC = int16(mathx.Clamp(mathx.RoundToInt(r.Celsius*10), -32768, 32767))
			rv.OhmsX100 = uint32(mathx.Clamp(mathx.RoundToInt(r.Ohms*100), 0, 1<<32-1))
			rv.Status = r.Status
			if faults.ShouldEncode(r) {
				if err := n.enc.AddTemperature(n.cfg.ChannelTemp, r.Celsius); err != nil {
					n.log.Printf("temperature entry: %v", err)
				} else {
					rv.Encoded = true
				}
			}
		}
	}
	n.publish(types.TopicReading, rv, true)

	if err := n.up.Dispatch(n.enc.Bytes()); err != nil {
		switch errcode.Of(err) {
		case errcode.Busy, errcode.TooLarge, errcode.NotJoined:
		default:
			n.log.Printf("dispatch: %v", err)
		}
	}
	n.publishState()
}

// battery averages the configured number of samples, in millivolts.
// Failed samples are skipped; ok is false when none succeeded.
func (n *Node) battery() (mv float32, ok bool) {
	if n.board.Battery == nil {
		return 0, false
	}
	var sum float32
	var good int
	for i := 0; i < n.cfg.BatterySamples; i++ {
		v, err := n.board.Battery.ReadMillivolts()
		if err != nil {
			continue
		}
		sum += v
		good++
	}
	if good == 0 {
		n.log.Printf("battery read failed")
		return 0, false
	}
	return sum / float32(good), true
}

// report logs and publishes one record per set fault bit. Faults are
// diagnostics only.
func (n *Node) report(r faults.Reading) {
	for _, rec := range faults.Decode(r.Status) {
		n.log.Printf("%s", rec.Label)
		n.publish(types.TopicFault, types.FaultEvent{
			Category: string(rec.Category),
			Bit:      rec.Bit,
			Label:    rec.Label,
			TS:       n.clock.Now().UnixMilli(),
		}, false)
	}
}

func (n *Node) railOn(settle time.Duration) {
	if n.board.Rail == nil {
		return
	}
	_ = n.board.Rail.ConfigureOutput(true)
	n.board.Rail.Set(true)
	if settle > 0 {
		n.clock.Sleep(settle)
	}
}

func (n *Node) railOff() {
	if n.board.Rail != nil {
		n.board.Rail.Set(false)
	}
}

func (n *Node) publish(t bus.Topic, payload any, retained bool) {
	if n.conn == nil {
		return
	}
	n.conn.Publish(n.conn.NewMessage(t, payload, retained))
}

func (n *Node) publishState() { n.publish(types.TopicState, n.State(), true) }
