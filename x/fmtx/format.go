package fmtx

import "strconv"

type stringer interface{ String() string }

// Appendf formats like fmt.Sprintf for the verbs the firmware logs with:
// %s %q %v %d %x %X %t %f and %%, with an optional precision. Flags and
// width are accepted and ignored. Named integer types without a String
// method need a conversion at the call site.
func Appendf(dst []byte, format string, args ...any) []byte {
	ai := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			dst = append(dst, c)
			continue
		}
		i++
		for i < len(format) && isFlagOrDigit(format[i]) {
			i++
		}
		prec := -1
		if i < len(format) && format[i] == '.' {
			i++
			prec = 0
			for i < len(format) && '0' <= format[i] && format[i] <= '9' {
				prec = prec*10 + int(format[i]-'0')
				i++
			}
		}
		if i >= len(format) {
			return append(dst, "%!(NOVERB)"...)
		}
		verb := format[i]
		if verb == '%' {
			dst = append(dst, '%')
			continue
		}
		if ai >= len(args) {
			dst = append(dst, '%', '!', verb)
			dst = append(dst, "(MISSING)"...)
			continue
		}
		dst = appendArg(dst, verb, prec, args[ai])
		ai++
	}
	return dst
}

func isFlagOrDigit(c byte) bool {
	switch c {
	case '-', '+', ' ', '#':
		return true
	}
	return '0' <= c && c <= '9'
}

func appendArg(dst []byte, verb byte, prec int, arg any) []byte {
	switch verb {
	case 's', 'v':
		return appendValue(dst, verb, prec, arg)
	case 'q':
		if s, ok := arg.(string); ok {
			return strconv.AppendQuote(dst, s)
		}
	case 'd':
		if v, ok := toInt(arg); ok {
			return strconv.AppendInt(dst, v, 10)
		}
		if u, ok := toUint(arg); ok {
			return strconv.AppendUint(dst, u, 10)
		}
	case 'x', 'X':
		start := len(dst)
		if v, ok := toInt(arg); ok {
			dst = strconv.AppendInt(dst, v, 16)
		} else if u, ok := toUint(arg); ok {
			dst = strconv.AppendUint(dst, u, 16)
		} else {
			break
		}
		if verb == 'X' {
			for j := start; j < len(dst); j++ {
				if 'a' <= dst[j] && dst[j] <= 'f' {
					dst[j] -= 'a' - 'A'
				}
			}
		}
		return dst
	case 't':
		if b, ok := arg.(bool); ok {
			return strconv.AppendBool(dst, b)
		}
	case 'f':
		if prec < 0 {
			prec = 6
		}
		switch f := arg.(type) {
		case float32:
			return strconv.AppendFloat(dst, float64(f), 'f', prec, 32)
		case float64:
			return strconv.AppendFloat(dst, f, 'f', prec, 64)
		}
	}
	dst = append(dst, '%', '!', verb)
	return append(dst, "(BADTYPE)"...)
}

func appendValue(dst []byte, verb byte, prec int, arg any) []byte {
	var s string
	switch x := arg.(type) {
	case nil:
		return append(dst, "<nil>"...)
	case string:
		s = x
	case []byte:
		s = string(x)
	case error:
		s = x.Error()
	case stringer:
		s = x.String()
	case bool:
		return strconv.AppendBool(dst, x)
	case float32:
		return strconv.AppendFloat(dst, float64(x), 'g', -1, 32)
	case float64:
		return strconv.AppendFloat(dst, x, 'g', -1, 64)
	default:
		if v, ok := toInt(arg); ok {
			return strconv.AppendInt(dst, v, 10)
		}
		if u, ok := toUint(arg); ok {
			return strconv.AppendUint(dst, u, 10)
		}
		dst = append(dst, '%', '!', verb)
		return append(dst, "(BADTYPE)"...)
	}
	if prec >= 0 && prec < len(s) {
		s = s[:prec]
	}
	return append(dst, s...)
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}

func toUint(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	case uintptr:
		return uint64(x), true
	}
	return 0, false
}
