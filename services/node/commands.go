package node

import (
	"context"
	"time"
)

// CommandIdle is how long a console source may stay silent before a tail
// without a line terminator is taken as a complete command.
const CommandIdle = 100 * time.Millisecond

// RecvFunc reads some console bytes, blocking until data or ctx ends. A
// source with a bounded wait returns (0, nil) when it stays idle.
type RecvFunc func(ctx context.Context, buf []byte) (int, error)

// ReadCommands queues console input as EvCommand events until ctx ends or
// recv fails. Input is split at line ends so each event carries one
// command without its terminator; the bridge adds '\n' back. A tail with
// no terminator is queued when recv goes idle or fails.
func (n *Node) ReadCommands(ctx context.Context, recv RecvFunc) error {
	buf := make([]byte, 64)
	var line []byte
	flush := func() {
		if len(line) == 0 {
			return
		}
		if !n.Post(Event{Kind: EvCommand, Data: line}) {
			n.log.Printf("event queue full, dropped command")
		}
		line = nil
	}
	for {
		k, err := recv(ctx, buf)
		for _, c := range buf[:k] {
			if c == '\r' || c == '\n' {
				flush()
				continue
			}
			line = append(line, c)
		}
		if k == 0 || err != nil || ctx.Err() != nil {
			flush()
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
