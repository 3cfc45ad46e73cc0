package console

import (
	"context"
	"io"

	"rtdnode/bus"
	"rtdnode/types"
)

// PrinterQueue is the at/evt backlog the printer holds before the oldest
// line is lost.
const PrinterQueue = 64

// Printer writes every at/evt line to the console, CRLF terminated.
type Printer struct {
	sub *bus.Subscription
	out io.Writer
}

// NewPrinter subscribes immediately so no line published after it returns
// is missed.
func NewPrinter(conn *bus.Connection, out io.Writer) *Printer {
	return &Printer{sub: conn.SubscribeQueue(types.TopicEvt, PrinterQueue), out: out}
}

// Run drains the subscription until ctx ends or the subscription closes.
func (p *Printer) Run(ctx context.Context) {
	defer p.sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-p.sub.Channel():
			if !ok {
				return
			}
			if s, ok := m.Payload.(string); ok {
				_, _ = io.WriteString(p.out, s+"\r\n")
			}
		}
	}
}
