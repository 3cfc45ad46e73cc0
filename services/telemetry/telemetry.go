// Package telemetry mirrors node topics to a host link as framed JSON
// records. The link is dialled on demand and re-dialled with backoff.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"rtdnode/bus"
	"rtdnode/types"
)

// -----------------------------------------------------------------------------
// Public entry point
// -----------------------------------------------------------------------------

// DialFunc opens the host link.
type DialFunc func(ctx context.Context) (io.ReadWriteCloser, error)

// Service forwards at/evt and node/# to the link.
type Service struct {
	conn *bus.Connection
	dial DialFunc

	minBackoff, maxBackoff time.Duration
	keepalive              time.Duration
}

func New(conn *bus.Connection, dial DialFunc) *Service {
	return &Service{
		conn:       conn,
		dial:       dial,
		minBackoff: 250 * time.Millisecond,
		maxBackoff: 5 * time.Second,
		keepalive:  5 * time.Second,
	}
}

var errNoDial = errors.New("telemetry: no dialler")

// Run blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if s.dial == nil {
		s.publishState("error", "no_dialler", errNoDial)
		return
	}
	evt := s.conn.Subscribe(types.TopicEvt)
	node := s.conn.Subscribe(bus.T("node", "#"))
	defer evt.Unsubscribe()
	defer node.Unsubscribe()

	backoff := backoffSeq(s.minBackoff, s.maxBackoff)
	for {
		if ctx.Err() != nil {
			return
		}
		rwc, err := s.dial(ctx)
		if err != nil {
			delay := backoff()
			s.publishState("degraded", "dial_failed_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
			if !sleep(ctx, delay) {
				return
			}
			continue
		}

		s.publishState("up", "link_established", nil)
		err = s.handleLink(ctx, rwc, evt.Channel(), node.Channel())
		_ = rwc.Close()
		if err == nil {
			return
		}
		delay := backoff()
		s.publishState("degraded", "link_lost_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
		if !sleep(ctx, delay) {
			return
		}
	}
}

// Record is the JSON body of a frameRecord.
type Record struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

// handleLink owns one link. Messages that arrive while the link is down
// are dropped by the bus queues; retained node/state is resent on connect.
func (s *Service) handleLink(ctx context.Context, rwc io.ReadWriteCloser, evt, node <-chan *bus.Message) error {
	wr := newFramedWriter(rwc)
	rd := newFramedReader(rwc)

	errCh := make(chan error, 1)
	go func() {
		for {
			f, err := rd.ReadFrame()
			if err != nil {
				errCh <- err
				return
			}
			if f.Type == frameClose {
				errCh <- nil
				return
			}
		}
	}()

	tick := time.NewTicker(s.keepalive)
	defer tick.Stop()

	for {
		var m *bus.Message
		select {
		case <-ctx.Done():
			_ = wr.WriteFrame(Frame{Type: frameClose})
			return nil
		case err := <-errCh:
			if err == nil {
				err = io.EOF
			}
			return err
		case <-tick.C:
			if err := wr.WriteFrame(Frame{Type: framePing}); err != nil {
				return err
			}
			continue
		case m = <-evt:
		case m = <-node:
		}
		if m == nil {
			continue
		}
		body, err := json.Marshal(Record{Topic: m.Topic.String(), Payload: m.Payload})
		if err != nil {
			continue
		}
		if err := wr.WriteFrame(Frame{Type: frameRecord, Payload: body}); err != nil {
			return err
		}
	}
}

func (s *Service) publishState(level, status string, err error) {
	st := types.LinkState{Level: level, Status: status, TS: time.Now().UnixMilli()}
	if err != nil {
		st.Error = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(types.TopicTelemetryState, st, true))
}

// -----------------------------------------------------------------------------
// Utilities
// -----------------------------------------------------------------------------

func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	cur := min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
