// Package logx prints tagged debug lines in the "[TAG] message" form used
// across the firmware. A Logger can mirror every line to a second writer
// (the BLE UART while a central is connected).
package logx

import (
	"io"
	"sync"

	"rtdnode/x/fmtx"
)

// Output is shared by all loggers created with New.
type Output struct {
	mu     sync.Mutex
	w      io.Writer
	mirror func() io.Writer // nil or returns nil when not connected
	off    bool
}

// NewOutput wraps w. A nil w discards everything.
func NewOutput(w io.Writer) *Output {
	if w == nil {
		w = io.Discard
	}
	return &Output{w: w}
}

// SetMirror installs a function returning the mirror writer, or nil.
func (o *Output) SetMirror(f func() io.Writer) {
	o.mu.Lock()
	o.mirror = f
	o.mu.Unlock()
}

// SetEnabled switches debug output on or off.
func (o *Output) SetEnabled(on bool) {
	o.mu.Lock()
	o.off = !on
	o.mu.Unlock()
}

// Logger prints lines prefixed by its tag.
type Logger struct {
	out *Output
	tag string
}

// New returns a logger for tag. An empty tag omits the prefix.
func (o *Output) New(tag string) *Logger { return &Logger{out: o, tag: tag} }

// Discard is a logger that prints nothing.
var Discard = NewOutput(nil).New("")

func (l *Logger) Printf(format string, args ...any) {
	o := l.out
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.off {
		return
	}
	msg := fmtx.Sprintf(format, args...) + "\n"
	if l.tag != "" {
		_, _ = io.WriteString(o.w, "["+l.tag+"] "+msg)
	} else {
		_, _ = io.WriteString(o.w, msg)
	}
	if o.mirror != nil {
		if m := o.mirror(); m != nil {
			_, _ = io.WriteString(m, msg)
		}
	}
}
