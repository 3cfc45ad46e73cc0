package payload

import "rtdnode/errcode"

// Entry is one decoded channel value in engineering units.
type Entry struct {
	Channel byte
	Type    byte
	Value   float32
}

// Decode parses a frame built by Encoder. Unknown types are an error.
func Decode(b []byte) ([]Entry, error) {
	var out []Entry
	for len(b) > 0 {
		if len(b) < 4 {
			return out, errcode.Wrap(errcode.InvalidParams, "payload.Decode", nil)
		}
		raw := uint16(b[2])<<8 | uint16(b[3])
		e := Entry{Channel: b[0], Type: b[1]}
		switch e.Type {
		case TypeTemperature:
			e.Value = float32(int16(raw)) / 10
		case TypeVoltage:
			e.Value = float32(raw) / 100
		default:
			return out, errcode.Wrap(errcode.Unsupported, "payload.Decode", nil)
		}
		out = append(out, e)
		b = b[4:]
	}
	return out, nil
}
