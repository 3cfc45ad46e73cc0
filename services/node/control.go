package node

import (
	"time"

	"rtdnode/errcode"
	"rtdnode/types"
)

// The methods below make Node a console.Control. They run on the loop
// goroutine, as the command parser is only fed from EvCommand events.

func (n *Node) State() types.NodeState {
	return types.NodeState{
		Level:     n.level,
		Network:   n.sess.Network,
		Joined:    n.sess.Joined,
		Confirmed: n.sess.Confirmed,
		Fails:     n.sess.Fails,
		Sensor:    n.sensor,
		Cycles:    n.cycles,
		Timeouts:  n.acq.Timeouts(),
		TS:        n.clock.Now().UnixMilli(),
	}
}

func (n *Node) SendInterval() time.Duration { return n.cfg.SendInterval }

func (n *Node) SetSendInterval(d time.Duration) error {
	if d < time.Second || d > 24*time.Hour {
		return errcode.InvalidParams
	}
	n.cfg.SendInterval = d
	n.rearm = true
	return nil
}

func (n *Node) SetNetwork(on bool) error {
	if on == n.sess.Network {
		return nil
	}
	if err := n.setMode(on, n.sess.Confirmed); err != nil {
		return err
	}
	n.sess.Network = on
	n.sess.Joined = false
	return nil
}

func (n *Node) SetConfirmed(on bool) error {
	if err := n.setMode(n.sess.Network, on); err != nil {
		return err
	}
	n.sess.Confirmed = on
	return nil
}

func (n *Node) setMode(network, confirmed bool) error {
	if ms, ok := n.radio.(ModeSetter); ok {
		if err := ms.SetMode(network, confirmed); err != nil {
			return errcode.Wrap(errcode.Error, "node.setMode", err)
		}
	}
	return nil
}

func (n *Node) Join() error { return n.up.Join() }

// Restart schedules a restart; Run performs it after the current event.
func (n *Node) Restart(reason string) {
	if n.restart == "" {
		n.restart = reason
	}
}
