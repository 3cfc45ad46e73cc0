// Package heartbeat periodically reports node liveness from the retained
// node/state snapshot.
package heartbeat

import (
	"context"
	"time"

	"rtdnode/bus"
	"rtdnode/types"
	"rtdnode/x/logx"
	"rtdnode/x/timex"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	TopicHeartbeat       = bus.T("node", "heartbeat")
)

type Service struct {
	interval time.Duration
	log      *logx.Logger
	start    time.Time
	last     types.NodeState
}

// New returns a heartbeat with the given period. A period of zero or less
// uses one minute.
func New(interval time.Duration, log *logx.Logger) *Service {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = logx.Discard
	}
	return &Service{interval: interval, log: log}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	stateSub := conn.Subscribe(types.TopicState)
	defer conn.Unsubscribe(cfgSub)
	defer conn.Unsubscribe(stateSub)

	s.start = time.Now()
	tick := time.NewTimer(s.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Printf("heartbeat service stopping")
			return
		case now := <-tick.C:
			s.beat(conn, now)
			timex.ResetTimer(tick, s.interval)
		case msg := <-stateSub.Channel():
			if st, ok := msg.Payload.(types.NodeState); ok {
				s.last = st
			}
		case msg := <-cfgSub.Channel():
			// Payload is the new period.
			if d, ok := msg.Payload.(time.Duration); ok && d > 0 {
				s.interval = d
				timex.ResetTimer(tick, d)
				s.log.Printf("heartbeat interval set to %s", d)
			}
		}
	}
}

func (s *Service) beat(conn *bus.Connection, now time.Time) {
	hb := types.Heartbeat{
		UptimeS:  int64(now.Sub(s.start) / time.Second),
		Level:    s.last.Level,
		Joined:   s.last.Joined,
		Fails:    s.last.Fails,
		Cycles:   s.last.Cycles,
		Timeouts: s.last.Timeouts,
		TS:       now.UnixMilli(),
	}
	s.log.Printf("%s up %ds level=%s joined=%t fails=%d cycles=%d drdy_timeouts=%d",
		now.Format("15:04:05"), hb.UptimeS, hb.Level, hb.Joined, hb.Fails, hb.Cycles, hb.Timeouts)
	conn.Publish(conn.NewMessage(TopicHeartbeat, hb, false))
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
