package core

// Formatting helpers that avoid fmt, which TinyGo on AVR cannot afford.

// utoa converts an unsigned integer to a decimal string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// itoa converts a signed integer to a decimal string
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

const hexDigits = "0123456789abcdef"

// hexByte formats b as two lowercase hex digits
func hexByte(b byte) string {
	return string([]byte{hexDigits[b>>4], hexDigits[b&0x0F]})
}

// FrameString renders a frame as eight space-separated hex bytes, line 0 first
func FrameString(f Frame) string {
	buf := make([]byte, 0, DisplaySize*3)
	for i, line := range f {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, hexDigits[line>>4], hexDigits[line&0x0F])
	}
	return string(buf)
}

// valueToString converts a dictionary constant to its string form
func valueToString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return itoa(val)
	case uint8:
		return utoa(uint32(val))
	case uint16:
		return utoa(uint32(val))
	case uint32:
		return utoa(val)
	case GPIOPin:
		return utoa(uint32(val))
	default:
		return ""
	}
}
