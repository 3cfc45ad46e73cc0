package console

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"rtdnode/errcode"
	"rtdnode/types"
	"rtdnode/x/logx"
)

// Replies, as the RUI3 AT set spells them.
const (
	ReplyOK       = "OK"
	ReplyError    = "AT_ERROR"
	ReplyParam    = "AT_PARAM_ERROR"
	ReplyNotFound = "AT_COMMAND_NOT_FOUND"
	ReplyBusy     = "AT_BUSY_ERROR"
)

const maxLine = 128

// Control is what commands may act on. Methods are called from the
// goroutine that feeds Input.
type Control interface {
	State() types.NodeState
	SendInterval() time.Duration
	SetNetwork(on bool) error
	SetConfirmed(on bool) error
	SetSendInterval(d time.Duration) error
	Join() error
	Restart(reason string)
}

// Interpreter assembles lines and executes AT commands against a Control.
type Interpreter struct {
	ctl  Control
	out  io.Writer
	log  *logx.Logger
	line []byte
	over bool
}

func NewInterpreter(ctl Control, out io.Writer, log *logx.Logger) *Interpreter {
	if log == nil {
		log = logx.Discard
	}
	if out == nil {
		out = io.Discard
	}
	return &Interpreter{ctl: ctl, out: out, log: log, line: make([]byte, 0, maxLine)}
}

// Input implements ByteParser. '\r' and '\n' both end a line; empty lines
// are ignored.
func (it *Interpreter) Input(b byte) {
	switch b {
	case '\r', '\n':
		if it.over {
			it.reply(ReplyParam)
		} else if len(it.line) > 0 {
			it.Exec(string(it.line))
		}
		it.line = it.line[:0]
		it.over = false
	default:
		if len(it.line) >= maxLine {
			it.over = true
			return
		}
		it.line = append(it.line, b)
	}
}

// Exec runs one command line and writes its reply.
func (it *Interpreter) Exec(line string) {
	toks, err := shlex.Split(line)
	if err != nil {
		it.reply(ReplyParam)
		return
	}
	if len(toks) == 0 {
		return
	}
	if len(toks) > 1 {
		it.reply(ReplyParam)
		return
	}
	cmd := strings.ToUpper(toks[0])
	it.log.Printf("cmd %s", cmd)

	name, arg, hasArg := strings.Cut(cmd, "=")
	switch name {
	case "AT":
		it.reply(ReplyOK)
	case "AT?":
		for _, h := range help {
			it.reply(h)
		}
		it.reply(ReplyOK)
	case "ATZ":
		it.reply(ReplyOK)
		it.ctl.Restart("ATZ")
	case "AT+NWM":
		it.flag(hasArg, arg, name, it.ctl.State().Network, it.ctl.SetNetwork)
	case "AT+CFM":
		it.flag(hasArg, arg, name, it.ctl.State().Confirmed, it.ctl.SetConfirmed)
	case "AT+SENDINT":
		it.sendInt(hasArg, arg)
	case "AT+JOIN":
		if hasArg && arg != "1" {
			it.reply(ReplyParam)
			return
		}
		it.result(it.ctl.Join())
	case "AT+STATUS":
		if !hasArg || arg != "?" {
			it.reply(ReplyParam)
			return
		}
		it.status()
	default:
		it.reply(ReplyNotFound)
	}
}

var help = []string{
	"AT: attention",
	"AT?: help",
	"ATZ: restart",
	"AT+NWM=<0|1>: 0 P2P, 1 LoRaWAN",
	"AT+CFM=<0|1>: confirmed uplinks",
	"AT+SENDINT=<s>: send interval in seconds",
	"AT+JOIN: join the network",
	"AT+STATUS=?: node status",
}

func (it *Interpreter) flag(hasArg bool, arg, name string, cur bool, set func(bool) error) {
	switch {
	case hasArg && arg == "?":
		it.reply(name + "=" + bit(cur))
		it.reply(ReplyOK)
	case hasArg && (arg == "0" || arg == "1"):
		it.result(set(arg == "1"))
	default:
		it.reply(ReplyParam)
	}
}

func (it *Interpreter) sendInt(hasArg bool, arg string) {
	if !hasArg {
		it.reply(ReplyParam)
		return
	}
	if arg == "?" {
		it.reply("AT+SENDINT=" + strconv.Itoa(int(it.ctl.SendInterval()/time.Second)))
		it.reply(ReplyOK)
		return
	}
	s, err := strconv.Atoi(arg)
	if err != nil || s <= 0 {
		it.reply(ReplyParam)
		return
	}
	it.result(it.ctl.SetSendInterval(time.Duration(s) * time.Second))
}

func (it *Interpreter) status() {
	st := it.ctl.State()
	it.reply("level=" + st.Level)
	it.reply("nwm=" + bit(st.Network) + " joined=" + bit(st.Joined) + " cfm=" + bit(st.Confirmed))
	it.reply("fails=" + strconv.Itoa(st.Fails) + " sensor=" + bit(st.Sensor) +
		" cycles=" + strconv.FormatUint(uint64(st.Cycles), 10))
	it.reply(ReplyOK)
}

func (it *Interpreter) result(err error) {
	switch errcode.Of(err) {
	case errcode.OK:
		it.reply(ReplyOK)
	case errcode.InvalidParams:
		it.reply(ReplyParam)
	case errcode.Busy:
		it.reply(ReplyBusy)
	default:
		it.log.Printf("command failed: %v", err)
		it.reply(ReplyError)
	}
}

func (it *Interpreter) reply(s string) {
	io.WriteString(it.out, s+"\r\n")
}

func bit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
