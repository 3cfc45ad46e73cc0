package conv

const hexd = "0123456789ABCDEF"

// AppendHex appends src as uppercase hex digits with no separators.
// len(result) grows by exactly 2*len(src).
func AppendHex(dst, src []byte) []byte {
	for _, b := range src {
		dst = append(dst, hexd[b>>4], hexd[b&0x0F])
	}
	return dst
}

// AppendHexSpaced appends src as "AA BB CC " (each byte followed by a space),
// the layout used for receive dumps in the debug log.
func AppendHexSpaced(dst, src []byte) []byte {
	for _, b := range src {
		dst = append(dst, hexd[b>>4], hexd[b&0x0F], ' ')
	}
	return dst
}

// Hex returns the uppercase hex string of src.
func Hex(src []byte) string {
	return string(AppendHex(make([]byte, 0, 2*len(src)), src))
}

// DecodeHex parses an even-length hex string (either case) into bytes.
// ok is false on odd length or a non-hex digit.
func DecodeHex(s string) (out []byte, ok bool) {
	if len(s)%2 != 0 {
		return nil, false
	}
	out = make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, ok1 := nibble(s[2*i])
		lo, ok2 := nibble(s[2*i+1])
		if !ok1 || !ok2 {
			return nil, false
		}
		out[i] = hi<<4 | lo
	}
	return out, true
}

func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
