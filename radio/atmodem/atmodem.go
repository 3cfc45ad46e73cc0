// Package atmodem drives a LoRa modem (RAK3172-style AT firmware) over a
// serial line and exposes it as a radio.Radio.
//
// Commands are CRLF-terminated; each gets one final status line (OK,
// AT_BUSY_ERROR, AT_PARAM_ERROR, ...). Unsolicited "+EVT:" lines are turned
// into radio events.
package atmodem

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"rtdnode/errcode"
	"rtdnode/radio"
	"rtdnode/x/conv"
	"rtdnode/x/logx"
)

// Status lines.
const (
	respOK        = "OK"
	respBusy      = "AT_BUSY_ERROR"
	respParam     = "AT_PARAM_ERROR"
	respError     = "AT_ERROR"
	respNotJoined = "AT_NO_NETWORK_JOINED"
)

type Config struct {
	Network   bool          // LoRaWAN (true) or P2P (false)
	Confirmed bool          // confirmed uplinks
	Port      uint8         // application port, default 2
	Timeout   time.Duration // per-command, default 2 s
}

type Modem struct {
	rw  io.ReadWriter
	cfg Config
	log *logx.Logger

	cmdMu   sync.Mutex // one command in flight
	resp    chan string
	mu      sync.Mutex
	handler radio.Handler
	retries int // last AT+RETY value, -1 unknown
}

func New(rw io.ReadWriter, cfg Config, log *logx.Logger) *Modem {
	if cfg.Port == 0 {
		cfg.Port = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if log == nil {
		log = logx.Discard
	}
	return &Modem{rw: rw, cfg: cfg, log: log, resp: make(chan string, 1), retries: -1}
}

func (m *Modem) SetHandler(h radio.Handler) {
	m.mu.Lock()
	m.handler = h
	m.mu.Unlock()
}

// Start runs the line reader until ctx ends or the stream fails.
func (m *Modem) Start(ctx context.Context) {
	go func() {
		sc := bufio.NewScanner(m.rw)
		for sc.Scan() {
			if ctx.Err() != nil {
				return
			}
			m.handleLine(strings.TrimSpace(sc.Text()))
		}
		if err := sc.Err(); err != nil {
			m.log.Printf("modem read: %v", err)
		}
	}()
}

// Init selects the work mode and confirmation setting.
func (m *Modem) Init() error {
	nwm := "AT+NWM=0"
	if m.cfg.Network {
		nwm = "AT+NWM=1"
	}
	if _, err := m.command(nwm); err != nil {
		return err
	}
	if !m.cfg.Network {
		return nil
	}
	cfm := "AT+CFM=0"
	if m.cfg.Confirmed {
		cfm = "AT+CFM=1"
	}
	_, err := m.command(cfm)
	return err
}

// SetMode switches work mode and confirmation, then re-runs Init.
func (m *Modem) SetMode(network, confirmed bool) error {
	m.cfg.Network, m.cfg.Confirmed = network, confirmed
	m.retries = -1
	return m.Init()
}

func (m *Modem) Join() error {
	r, err := m.command("AT+JOIN=1:0:10:8")
	if err != nil {
		return err
	}
	if r != respOK {
		return &errcode.E{C: mapCode(r), Op: "atmodem.Join", Msg: r}
	}
	return nil
}

func (m *Modem) Send(data []byte, confirmRetries uint8) radio.SubmitStatus {
	if m.cfg.Confirmed && int(confirmRetries) != m.retries {
		r, err := m.command("AT+RETY=" + strconv.Itoa(int(confirmRetries)))
		if err == nil && r == respOK {
			m.retries = int(confirmRetries)
		}
	}
	cmd := make([]byte, 0, 16+2*len(data))
	cmd = append(cmd, "AT+SEND="...)
	cmd = conv.AppendInt(cmd, int64(m.cfg.Port))
	cmd = append(cmd, ':')
	cmd = conv.AppendHex(cmd, data)
	r, err := m.command(string(cmd))
	if err != nil {
		return radio.Busy
	}
	return statusOf(r)
}

func (m *Modem) SendP2P(data []byte) error {
	cmd := conv.AppendHex(append(make([]byte, 0, 9+2*len(data)), "AT+PSEND="...), data)
	r, err := m.command(string(cmd))
	if err != nil {
		return err
	}
	if r != respOK {
		return &errcode.E{C: mapCode(r), Op: "atmodem.SendP2P", Msg: r}
	}
	return nil
}

func (m *Modem) command(cmd string) (string, error) {
	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()
	select {
	case <-m.resp: // stale
	default:
	}
	if _, err := io.WriteString(m.rw, cmd+"\r\n"); err != nil {
		return "", err
	}
	t := time.NewTimer(m.cfg.Timeout)
	defer t.Stop()
	select {
	case r := <-m.resp:
		return r, nil
	case <-t.C:
		return "", errcode.Timeout
	}
}

func (m *Modem) handleLine(line string) {
	switch {
	case line == "":
		return
	case strings.HasPrefix(line, "+EVT:"):
		ev, ok := ParseEvent(line)
		if !ok {
			return
		}
		m.mu.Lock()
		h := m.handler
		m.mu.Unlock()
		if h != nil {
			h(ev)
		}
	case line == respOK || strings.HasPrefix(line, "AT_"):
		select {
		case m.resp <- line:
		default:
		}
	}
}

func statusOf(r string) radio.SubmitStatus {
	switch r {
	case respOK:
		return radio.Accepted
	case respParam, respError:
		return radio.TooLarge
	default:
		return radio.Busy
	}
}

func mapCode(r string) errcode.Code {
	switch r {
	case respBusy:
		return errcode.Busy
	case respParam:
		return errcode.InvalidParams
	case respNotJoined:
		return errcode.NotJoined
	default:
		return errcode.Error
	}
}

// ParseEvent decodes one "+EVT:" line.
func ParseEvent(line string) (radio.Event, bool) {
	f := strings.Split(strings.TrimPrefix(line, "+EVT:"), ":")
	switch f[0] {
	case "JOINED":
		return radio.Event{Kind: radio.JoinFinished, OK: true}, true
	case "SEND_CONFIRMED_OK", "TX_DONE", "TXP2P_DONE":
		return radio.Event{Kind: radio.TxFinished, OK: true}, true
	case "SEND_CONFIRMED_FAILED":
		return radio.Event{Kind: radio.TxFinished}, true
	case "RX_1", "RX_2", "RX_3", "RX_C", "RX_B":
		// RX_1:<rssi>:<snr>:UNICAST:<port>:<hex>
		if len(f) < 6 {
			return radio.Event{}, false
		}
		ev, ok := rxEvent(f[1], f[2], f[5])
		if !ok {
			return ev, false
		}
		p, err := strconv.Atoi(f[4])
		if err != nil {
			return radio.Event{}, false
		}
		ev.Port = uint8(p)
		return ev, true
	case "RXP2P":
		// RXP2P:<rssi>:<snr>:<hex>
		if len(f) < 4 {
			return radio.Event{}, false
		}
		return rxEvent(f[1], f[2], f[3])
	}
	if strings.HasPrefix(f[0], "JOIN_FAILED") {
		return radio.Event{Kind: radio.JoinFinished}, true
	}
	return radio.Event{}, false
}

func rxEvent(rssi, snr, hex string) (radio.Event, bool) {
	r, err1 := strconv.Atoi(rssi)
	s, err2 := strconv.Atoi(snr)
	data, ok := conv.DecodeHex(hex)
	if err1 != nil || err2 != nil || !ok {
		return radio.Event{}, false
	}
	return radio.Event{Kind: radio.Received, RSSI: int16(r), SNR: int8(s), Data: data}, true
}
