package ctxcache

import (
	"strconv"
	"strings"
	"time"
)

// DefaultTTL is used when no TTL is requested or the requested one is
// malformed.
const DefaultTTL = time.Hour

// ParseTTL parses a TTL string in the seconds format used by cache
// annotations and the remote API: digits, optionally fractional, followed
// by "s" (e.g. "3600s", "1.5s"). ok is false for anything else.
func ParseTTL(s string) (time.Duration, bool) {
	body, found := strings.CutSuffix(s, "s")
	if !found || !validSeconds(body) {
		return 0, false
	}
	f, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(f * float64(time.Second)), true
}

// validSeconds accepts [0-9]*.?[0-9]+ only; ParseFloat alone would also
// take exponents, signs and "Inf".
func validSeconds(s string) bool {
	digits := 0
	dots := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1 && !strings.HasSuffix(s, ".")
}
