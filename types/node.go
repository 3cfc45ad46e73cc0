package types

// ---- Session state (retained) ----

type NodeState struct {
	Level     string `json:"level"` // "init", "ready", "restarting"
	Network   bool   `json:"network"`
	Joined    bool   `json:"joined"`
	Confirmed bool   `json:"confirmed"`
	Fails     int    `json:"fails"`
	Sensor    bool   `json:"sensor"` // MAX31865 found at startup
	Cycles    uint32 `json:"cycles"`
	Timeouts  uint32 `json:"drdy_timeouts"` // acquisitions that hit the DRDY bound
	TS        int64  `json:"ts_ms"`
}

// ---- Reading (retained) ----

type ReadingValue struct {
	// Tenths of °C (e.g. 231 => 23.1°C). Valid only when Encoded.
	DeciC int16 `json:"deci_c"`
	// Hundredths of an ohm.
	OhmsX100 uint32 `json:"ohms_x100"`
	Status   uint8  `json:"status"`
	Encoded  bool   `json:"encoded"`
	// Battery in millivolts.
	BatteryMV uint16 `json:"battery_mv"`
	TS        int64  `json:"ts_ms"`
}

// ---- Fault diagnostics ----

type FaultEvent struct {
	Category string `json:"category"`
	Bit      uint8  `json:"bit"`
	Label    string `json:"label"`
	TS       int64  `json:"ts_ms"`
}

// ---- Link state (retained) ----

type LinkState struct {
	Level  string `json:"level"`  // "up", "degraded", "error"
	Status string `json:"status"` // short machine string
	TS     int64  `json:"ts_ms"`
	Error  string `json:"error,omitempty"`
}

// ---- Heartbeat ----

type Heartbeat struct {
	UptimeS  int64  `json:"uptime_s"`
	Level    string `json:"level"`
	Joined   bool   `json:"joined"`
	Fails    int    `json:"fails"`
	Cycles   uint32 `json:"cycles"`
	Timeouts uint32 `json:"drdy_timeouts"`
	TS       int64  `json:"ts_ms"`
}
