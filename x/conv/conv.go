// Package conv formats numbers without fmt or strconv, so error paths stay
// allocation-light and TinyGo-friendly.
package conv

// Itoa writes the base-10 representation of n into buf and returns the
// used slice. buf should be at least 20 bytes for a full int64.
func Itoa(buf []byte, n int64) []byte {
	if n < 0 {
		s := Utoa(buf[1:], uint64(-n))
		buf[len(buf)-len(s)-1] = '-'
		return buf[len(buf)-len(s)-1:]
	}
	return Utoa(buf, uint64(n))
}

// Utoa is Itoa for unsigned values.
func Utoa(buf []byte, n uint64) []byte {
	i := len(buf)
	if n == 0 && i > 0 {
		i--
		buf[i] = '0'
	}
	for n > 0 && i > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return buf[i:]
}
