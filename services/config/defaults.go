package config

// EmbeddedConfigLookup allows overriding how built-in configs are resolved.
// Board documents are decoded on top of the "default" document.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// RAK4631 + RAK12022 reference build.
const cfgDefault = `
device: rak-pt100
ble: true
node:
  send_interval_s: 120
  battery_samples: 10
  rail_settle_ms: 200
  channel_battery: 1
  channel_temperature: 2
  payload_max: 255
lora:
  mode: lorawan
  confirmed: false
  confirm_retries: 2
  fail_restart: 10
  port: 2
sensor:
  wires: 3
  rtd: pt100
  ref_ohms: 430
  startup_low_c: 29
  startup_high_c: 34
  low_c: 25
  high_c: 34
  ready_timeout_ms: 5000
  poll_ms: 100
`

// Raspberry Pi host with the sensor on spidev0.0 and a USB modem.
const cfgPi = `
device: pi-pt100
ble: false
platform:
  spi_dev: /dev/spidev0.0
  spi_hz: 1000000
  rail_pin: 17
  ready_pin: 27
  battery_path: /sys/class/power_supply/BAT0/voltage_now
  modem_dev: /dev/ttyUSB0
  modem_baud: 115200
`

// Pico with the sensor on SPI0 and the console on UART1.
const cfgPico = `
device: pico-pt100
ble: false
platform:
  spi_hz: 1000000
  spi_pins: [19, 16, 18, 17]
  rail_pin: 22
  ready_pin: 21
  console_baud: 115200
`

var embeddedConfigs = map[string][]byte{
	"default":    []byte(cfgDefault),
	"rak-pt100":  []byte(cfgDefault),
	"pi-pt100":   []byte(cfgPi),
	"pico-pt100": []byte(cfgPico),
}
