package config

import "rtdnode/x/fmtx"

// Validate checks configuration correctness.
// It performs declarative validation only and does not mutate cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmtx.Errorf("config is nil")
	}
	if cfg.Device == "" {
		return fmtx.Errorf("device name is required")
	}
	for i := 0; i < len(cfg.Device); i++ {
		if cfg.Device[i] > 0x7F {
			return fmtx.Errorf("device %q: name must contain ASCII characters only", cfg.Device)
		}
	}

	switch cfg.LoRa.Mode {
	case ModeLoRaWAN, ModeP2P:
	default:
		return fmtx.Errorf("lora.mode %q: want %q or %q", cfg.LoRa.Mode, ModeLoRaWAN, ModeP2P)
	}
	if cfg.LoRa.Port == 0 || cfg.LoRa.Port > 223 {
		return fmtx.Errorf("lora.port %d: must be 1..223", cfg.LoRa.Port)
	}

	s := cfg.Sensor
	switch s.Wires {
	case 2, 3, 4:
	default:
		return fmtx.Errorf("sensor.wires %d: must be 2, 3 or 4", s.Wires)
	}
	if s.RTD != "pt100" && s.RTD != "pt1000" {
		return fmtx.Errorf("sensor.rtd %q: want pt100 or pt1000", s.RTD)
	}
	if s.RefOhms <= 0 {
		return fmtx.Errorf("sensor.ref_ohms must be positive")
	}
	if s.StartupLowC != nil && s.StartupHighC != nil && *s.StartupLowC >= *s.StartupHighC {
		return fmtx.Errorf("sensor startup thresholds: low %.1f must be below high %.1f", *s.StartupLowC, *s.StartupHighC)
	}
	if s.LowC != nil && s.HighC != nil && *s.LowC >= *s.HighC {
		return fmtx.Errorf("sensor thresholds: low %.1f must be below high %.1f", *s.LowC, *s.HighC)
	}

	if cfg.Node.ChannelBattery == cfg.Node.ChannelTemp {
		return fmtx.Errorf("node channels collide: battery and temperature both %d", cfg.Node.ChannelBattery)
	}
	if n := len(cfg.Platform.SPIPins); n != 0 && n != 4 {
		return fmtx.Errorf("platform.spi_pins: want 4 entries (MOSI, MISO, SCK, CS), got %d", n)
	}
	return nil
}
