// Package uplink hands payloads to the radio and reacts to the radio's
// completion events. Both halves share one Session.
package uplink

// Session is the process-wide radio state. Only the node's event loop
// touches it, so it carries no lock.
type Session struct {
	// Network selects LoRaWAN; false means P2P.
	Network bool
	// Joined is set from JoinFinished results.
	Joined bool
	// Confirmed selects confirmed network uplinks.
	Confirmed bool
	// Fails counts confirmed uplinks reported as NAK. Only a restart
	// clears it.
	Fails int
}

// Config holds the fixed uplink policy.
type Config struct {
	ConfirmRetries uint8 // 2
	FailRestart    int   // 10
}

func (c *Config) normalize() {
	if c.ConfirmRetries == 0 {
		c.ConfirmRetries = 2
	}
	if c.FailRestart <= 0 {
		c.FailRestart = 10
	}
}
