package domain

import (
	"cmp"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used for filtering.
const DateLayout = "2006-01-02"

// CompareTS compares two platform timestamps numerically, returning -1, 0
// or +1. Timestamps of the form "seconds.fraction" are compared exactly as
// decimals, since float64 cannot hold every microsecond-precision value.
// Other values fall back to float comparison, then string comparison.
func CompareTS(a, b string) int {
	aw, af, aok := splitDecimal(a)
	bw, bf, bok := splitDecimal(b)
	if !aok || !bok {
		fa, errA := strconv.ParseFloat(a, 64)
		fb, errB := strconv.ParseFloat(b, 64)
		if errA == nil && errB == nil {
			return cmp.Compare(fa, fb)
		}
		return strings.Compare(a, b)
	}

	if len(aw) != len(bw) {
		return cmp.Compare(len(aw), len(bw))
	}
	if c := strings.Compare(aw, bw); c != 0 {
		return c
	}
	return strings.Compare(af, bf)
}

// MaxTS returns the later of two timestamps. An empty value loses.
func MaxTS(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" || CompareTS(a, b) >= 0 {
		return a
	}
	return b
}

// splitDecimal returns the normalised whole and fractional digits of an
// unsigned decimal string.
func splitDecimal(s string) (whole, frac string, ok bool) {
	whole, frac, _ = strings.Cut(s, ".")
	if whole == "" || !isDigits(whole) || !isDigits(frac) {
		return "", "", false
	}
	return strings.TrimLeft(whole, "0"), strings.TrimRight(frac, "0"), true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Bounds of years 1 through 9999 in Unix seconds.
const (
	minUnix = -62135596800
	maxUnix = 253402300799
)

// DateFromTS returns the UTC calendar date of a timestamp, or an empty
// string when the timestamp cannot be parsed.
func DateFromTS(ts string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(ts), 64)
	if err != nil || math.IsNaN(f) || f < minUnix || f > maxUnix {
		return ""
	}
	return time.Unix(int64(math.Floor(f)), 0).UTC().Format(DateLayout)
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
