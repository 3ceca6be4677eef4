package notfound

import (
	"math"
	"net/netip"
	"strings"

	"github.com/spf13/cast"
)

// ValidClientAddress reports whether addr is a plain IPv4 or IPv6 literal.
// Zoned IPv6 addresses ("fe80::1%eth0") are rejected.
func ValidClientAddress(addr string) bool {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	return ip.Zone() == ""
}

// absint turns a reported request time into non-negative whole seconds.
// Only base-10 input is accepted: "010" is 10 and "0x10" is 0. Non-numeric
// input yields 0, negatives are made positive and fractions are truncated.
func absint(raw string) int64 {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimLeft(raw, "+-")
	if !isDecimal(raw) {
		return 0
	}

	// cast guesses the base from a leading zero
	if digits := strings.TrimLeft(raw, "0"); !strings.ContainsAny(raw, ".eE") {
		if digits == "" {
			return 0
		}
		if n, err := cast.ToInt64E(digits); err == nil {
			return n
		}
	}

	f, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Abs(f)
	if f >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}

// isDecimal reports whether s is an unsigned base-10 number with an optional
// fraction and exponent, e.g. "12", "12.5", ".5", "1e3".
func isDecimal(s string) bool {
	i, mantissa := 0, 0
	for i < len(s) && isDigit(s[i]) {
		i++
		mantissa++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			mantissa++
		}
	}
	if mantissa == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == exp {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
