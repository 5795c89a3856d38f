package provider

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDecimalToCents converts a signed decimal string in currency units to
// minor units ("10.50" -> 1050, "-0.20" -> -20). Providers send at most two
// fractional digits; anything beyond that is rejected rather than silently
// rounded.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" || s == "." {
		return 0, fmt.Errorf("malformed amount")
	}

	wholeStr, fracStr := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		wholeStr, fracStr = s[:i], s[i+1:]
	}
	if wholeStr == "" {
		wholeStr = "0"
	}
	if len(fracStr) > 2 {
		return 0, fmt.Errorf("amount %q has more than 2 decimal places", s)
	}
	for len(fracStr) < 2 {
		fracStr += "0"
	}

	whole, err := strconv.ParseInt(wholeStr, 10, 64)
	if err != nil || whole < 0 {
		return 0, fmt.Errorf("malformed amount %q", s)
	}
	frac, err := strconv.ParseInt(fracStr, 10, 64)
	if err != nil || frac < 0 {
		return 0, fmt.Errorf("malformed amount %q", s)
	}

	cents := whole*100 + frac
	if negative {
		cents = -cents
	}
	return cents, nil
}

// FormatCents converts minor units to a decimal string (1050 -> "10.50",
// -20 -> "-0.20").
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
