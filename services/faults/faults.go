// Package faults decodes MAX31865 fault-status bits into diagnostic records
// and decides whether a reading is encoded. The two are independent: fault
// bits never gate encoding.
package faults

import "rtdnode/drivers/max31865"

// Category names one fault bit.
type Category string

const (
	HighThreshold Category = "rtd_high_threshold"
	LowThreshold  Category = "rtd_low_threshold"
	RefInHigh     Category = "refin_high"
	RefInLowOpen  Category = "refin_low_open"
	RTDInLowOpen  Category = "rtdin_low_open"
	VoltageOOR    Category = "voltage_out_of_range"
)

// Record is one diagnostic for one set bit.
type Record struct {
	Category Category `json:"category"`
	Bit      uint8    `json:"bit"`
	Label    string   `json:"label"`
}

// Reading is one acquisition result.
type Reading struct {
	Celsius float32 `json:"celsius"`
	Ohms    float32 `json:"ohms"`
	Status  uint8   `json:"status"`
}

var table = [...]Record{
	{HighThreshold, max31865.FaultHighThreshold, "RTD High Threshold"},
	{LowThreshold, max31865.FaultLowThreshold, "RTD Low Threshold"},
	{RefInHigh, max31865.FaultRefInHigh, "REFIN- > 0.85 x Bias"},
	{RefInLowOpen, max31865.FaultRefInLowOpen, "REFIN- < 0.85 x Bias - FORCE- open"},
	{RTDInLowOpen, max31865.FaultRTDInLowOpen, "RTDIN- < 0.85 x Bias - FORCE- open"},
	{VoltageOOR, max31865.FaultVoltageOOR, "Voltage out of range fault"},
}

// ShouldEncode reports whether the temperature goes into the payload.
// A resistance of exactly zero means no valid reading.
// TODO: an open RTD reads near full scale, not zero; gate on RTDInLowOpen
// once field data confirms it does not reject good readings.
func ShouldEncode(r Reading) bool { return r.Ohms != 0 }

// Decode returns one record per set bit, highest bit first.
func Decode(status uint8) []Record {
	var out []Record
	for _, rec := range table {
		if status&rec.Bit != 0 {
			out = append(out, rec)
		}
	}
	return out
}
