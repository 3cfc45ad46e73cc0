package config

import "rtdnode/x/mathx"

func f32(v float32) *float32 { return &v }

// Normalize fills unset fields with the reference build's values and clamps
// counters into usable ranges. It is allowed to mutate configuration.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ---- node ----
	n := &cfg.Node
	if n.SendIntervalS <= 0 {
		n.SendIntervalS = 120
	}
	if n.BatterySamples <= 0 {
		n.BatterySamples = 10
	}
	n.BatterySamples = mathx.Clamp(n.BatterySamples, 1, 64)
	if n.RailSettleMs < 0 {
		n.RailSettleMs = 0
	}
	if n.ChannelBattery == 0 {
		n.ChannelBattery = 1
	}
	if n.ChannelTemp == 0 {
		n.ChannelTemp = 2
	}
	if n.PayloadMax <= 0 {
		n.PayloadMax = 255
	}
	n.PayloadMax = mathx.Clamp(n.PayloadMax, 4, 255)
	if n.HeartbeatS <= 0 {
		n.HeartbeatS = 60
	}

	// ---- radio ----
	l := &cfg.LoRa
	if l.Mode == "" {
		l.Mode = ModeLoRaWAN
	}
	if l.ConfirmRetries <= 0 {
		l.ConfirmRetries = 2
	}
	l.ConfirmRetries = mathx.Clamp(l.ConfirmRetries, 0, 15)
	if l.FailRestart <= 0 {
		l.FailRestart = 10
	}
	if l.Port == 0 {
		l.Port = 2
	}

	// ---- sensor ----
	s := &cfg.Sensor
	if s.Wires == 0 {
		s.Wires = 3
	}
	if s.RTD == "" {
		s.RTD = "pt100"
	}
	if s.RefOhms == 0 {
		if s.RTD == "pt1000" {
			s.RefOhms = 4300
		} else {
			s.RefOhms = 430
		}
	}
	if s.StartupLowC == nil {
		s.StartupLowC = f32(29)
	}
	if s.StartupHighC == nil {
		s.StartupHighC = f32(34)
	}
	if s.LowC == nil {
		s.LowC = f32(25)
	}
	if s.HighC == nil {
		s.HighC = f32(34)
	}
	if s.ReadyTimeoutMs <= 0 {
		s.ReadyTimeoutMs = 5000
	}
	if s.PollMs <= 0 {
		s.PollMs = 100
	}
	s.PollMs = mathx.Clamp(s.PollMs, 1, s.ReadyTimeoutMs)

	// ---- platform ----
	p := &cfg.Platform
	if p.SPIHz <= 0 {
		p.SPIHz = 1000000
	}
	if p.ModemBaud <= 0 {
		p.ModemBaud = 115200
	}
	if p.ConsoleBaud <= 0 {
		p.ConsoleBaud = 115200
	}
}
