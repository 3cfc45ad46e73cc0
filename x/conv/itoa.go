package conv

// AppendInt appends the base-10 form of n to dst.
// No fmt/strconv dependency so it stays cheap on MCU builds.
func AppendInt(dst []byte, n int64) []byte {
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	u := uint64(n)
	if neg {
		u = uint64(-n)
	}
	if u == 0 {
		i--
		buf[i] = '0'
	}
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		dst = append(dst, '-')
	}
	return append(dst, buf[i:]...)
}
