package node

import (
	"time"

	"rtdnode/drivers/max31865"
	"rtdnode/services/acquire"
	"rtdnode/services/config"
	"rtdnode/services/payload"
	"rtdnode/services/uplink"
)

type Config struct {
	SendInterval   time.Duration
	RailSettle     time.Duration
	InitSettle     time.Duration
	BatterySamples int
	ChannelBattery byte
	ChannelTemp    byte
	PayloadMax     int
	Startup        acquire.Thresholds
	Cycle          acquire.Thresholds
	Acquire        acquire.Config
	Uplink         uplink.Config
	QueueLen       int
}

func (c *Config) normalize() {
	if c.SendInterval <= 0 {
		c.SendInterval = 2 * time.Minute
	}
	if c.BatterySamples <= 0 {
		c.BatterySamples = 10
	}
	if c.ChannelBattery == 0 {
		c.ChannelBattery = payload.ChannelBattery
	}
	if c.ChannelTemp == 0 {
		c.ChannelTemp = payload.ChannelTemperature
	}
	if c.PayloadMax <= 0 {
		c.PayloadMax = payload.MaxSize
	}
	if c.QueueLen <= 0 {
		c.QueueLen = 16
	}
}

// ConfigFrom maps a loaded file config onto the loop's settings.
func ConfigFrom(c *config.Config) Config {
	s := c.Sensor
	sensor := max31865.Config{
		Wires:   max31865.ThreeWire,
		RTD:     max31865.PT100,
		RefOhms: s.RefOhms,
	}
	switch s.Wires {
	case 2:
		sensor.Wires = max31865.TwoWire
	case 4:
		sensor.Wires = max31865.FourWire
	}
	if s.RTD == "pt1000" {
		sensor.RTD = max31865.PT1000
	}
	return Config{
		SendInterval:   c.SendInterval(),
		RailSettle:     c.RailSettle(),
		InitSettle:     300 * time.Millisecond,
		BatterySamples: c.Node.BatterySamples,
		ChannelBattery: c.Node.ChannelBattery,
		ChannelTemp:    c.Node.ChannelTemp,
		PayloadMax:     c.Node.PayloadMax,
		Startup:        acquire.Thresholds{Low: *s.StartupLowC, High: *s.StartupHighC},
		Cycle:          acquire.Thresholds{Low: *s.LowC, High: *s.HighC},
		Acquire: acquire.Config{
			Sensor:       sensor,
			ReadyTimeout: c.ReadyTimeout(),
			PollInterval: c.PollInterval(),
		},
		Uplink: uplink.Config{
			ConfirmRetries: uint8(c.LoRa.ConfirmRetries),
			FailRestart:    c.LoRa.FailRestart,
		},
	}
}
