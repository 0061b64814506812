// Package currency normalizes numeric price input as it is typed.
// Formatting never fails: invalid characters are dropped rather than
// rejected, and formatting an already formatted string is a no-op.
package currency

import (
	"regexp"
	"strings"
)

const (
	maxIntegralDigits = 6
	maxFractionDigits = 2
)

// plainDecimal matches an unsigned decimal number without exponent or
// sign, the only shape accepted for a price field.
var plainDecimal = regexp.MustCompile(`^[0-9]+(\.[0-9]*)?$`)

// FormatInput enforces the price input grammar on raw text: leading
// zeros collapse (a bare "0" survives), at most one decimal point, at
// most two fraction digits and at most six integral digits. Extra
// digits are truncated, never reported as errors. The function is
// idempotent.
func FormatInput(raw string) string {
	integral := make([]rune, 0, maxIntegralDigits)
	fraction := make([]rune, 0, maxFractionDigits)
	seenDot := false

	for _, r := range raw {
		switch {
		case r == '.':
			if !seenDot {
				seenDot = true
			}
		case r >= '0' && r <= '9':
			if seenDot {
				if len(fraction) < maxFractionDigits {
					fraction = append(fraction, r)
				}
				continue
			}
			// "0" followed by another digit collapses to that digit
			if len(integral) == 1 && integral[0] == '0' {
				integral[0] = r
				continue
			}
			if len(integral) < maxIntegralDigits {
				integral = append(integral, r)
			}
		default:
			// non-numeric input is dropped
		}
	}

	var b strings.Builder
	b.Grow(len(integral) + len(fraction) + 1)
	for _, r := range integral {
		b.WriteRune(r)
	}
	if seenDot {
		b.WriteRune('.')
		for _, r := range fraction {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValid reports whether text is acceptable as a price value. The
// empty string is valid (nothing entered yet), text starting with a
// decimal point is not, anything else must parse as a plain decimal
// number.
func IsValid(text string) bool {
	if text == "" {
		return true
	}
	if strings.HasPrefix(text, ".") {
		return false
	}
	return plainDecimal.MatchString(text)
}
