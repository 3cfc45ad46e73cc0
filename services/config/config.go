// Package config loads the node configuration from YAML. Embedded defaults
// exist per board; a file may override any field.
package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Device   string         `yaml:"device"`
	Debug    *bool          `yaml:"debug"`
	BLE      bool           `yaml:"ble"`
	Node     NodeConfig     `yaml:"node"`
	LoRa     LoRaConfig     `yaml:"lora"`
	Sensor   SensorConfig   `yaml:"sensor"`
	Platform PlatformConfig `yaml:"platform"`
}

// ---- NODE ----

type NodeConfig struct {
	SendIntervalS  int  `yaml:"send_interval_s"`
	BatterySamples int  `yaml:"battery_samples"`
	RailSettleMs   int  `yaml:"rail_settle_ms"`
	ChannelBattery byte `yaml:"channel_battery"`
	ChannelTemp    byte `yaml:"channel_temperature"`
	PayloadMax     int  `yaml:"payload_max"`
	HeartbeatS     int  `yaml:"heartbeat_s"`
}

// ---- RADIO ----

const (
	ModeLoRaWAN = "lorawan"
	ModeP2P     = "p2p"
)

type LoRaConfig struct {
	Mode           string `yaml:"mode"`
	Confirmed      bool   `yaml:"confirmed"`
	ConfirmRetries int    `yaml:"confirm_retries"`
	FailRestart    int    `yaml:"fail_restart"`
	Port           uint8  `yaml:"port"`
}

// ---- SENSOR ----

type SensorConfig struct {
	Wires          int      `yaml:"wires"`
	RTD            string   `yaml:"rtd"`
	RefOhms        float32  `yaml:"ref_ohms"`
	StartupLowC    *float32 `yaml:"startup_low_c"`
	StartupHighC   *float32 `yaml:"startup_high_c"`
	LowC           *float32 `yaml:"low_c"`
	HighC          *float32 `yaml:"high_c"`
	ReadyTimeoutMs int      `yaml:"ready_timeout_ms"`
	PollMs         int      `yaml:"poll_ms"`
}

// ---- PLATFORM ----

type PlatformConfig struct {
	SPIDev        string `yaml:"spi_dev"`
	SPIHz         int    `yaml:"spi_hz"`
	SPIPins       []int  `yaml:"spi_pins"` // MOSI, MISO, SCK, CS
	RailPin       int    `yaml:"rail_pin"`
	ReadyPin      int    `yaml:"ready_pin"`
	BatteryPath   string `yaml:"battery_path"`
	ModemDev      string `yaml:"modem_dev"`
	ModemBaud     int    `yaml:"modem_baud"`
	ConsoleDev    string `yaml:"console_dev"`
	ConsoleBaud   int    `yaml:"console_baud"`
	TelemetryAddr string `yaml:"telemetry_addr"` // host:port, empty disables
}

// Load reads, normalises and validates a YAML file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes YAML on top of the embedded defaults for the device named
// in the document (or "default").
func Parse(raw []byte) (*Config, error) {
	var head struct {
		Device string `yaml:"device"`
	}
	if err := yaml.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	cfg, err := Embedded(head.Device)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, err
	}
	Normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Embedded returns the built-in config for device. Board documents are
// decoded over the shared default; unknown devices get the default alone.
func Embedded(device string) (*Config, error) {
	base, ok := EmbeddedConfigLookup("default")
	if !ok || len(base) == 0 {
		return nil, errors.New("no embedded default config")
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(base, cfg); err != nil {
		return nil, err
	}
	if device != "" && device != "default" {
		if raw, ok := EmbeddedConfigLookup(device); ok {
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, err
			}
		}
	}
	Normalize(cfg)
	return cfg, nil
}

// ---- derived values ----

func (c *Config) DebugEnabled() bool { return c.Debug == nil || *c.Debug }

func (c *Config) Network() bool { return c.LoRa.Mode != ModeP2P }

func (c *Config) SendInterval() time.Duration {
	return time.Duration(c.Node.SendIntervalS) * time.Second
}

func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.Node.HeartbeatS) * time.Second
}

func (c *Config) RailSettle() time.Duration {
	return time.Duration(c.Node.RailSettleMs) * time.Millisecond
}

func (c *Config) ReadyTimeout() time.Duration {
	return time.Duration(c.Sensor.ReadyTimeoutMs) * time.Millisecond
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Sensor.PollMs) * time.Millisecond
}
