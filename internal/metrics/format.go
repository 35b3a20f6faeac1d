package metrics

import (
	"fmt"
	"math"
	"strings"
)

// FormatPercent renders a change percentage for display.
// Undefined metrics render as "-", infinite ones as the infinity symbol.
func FormatPercent(c Change) string {
	if !c.Defined {
		return "-"
	}
	if math.IsInf(c.Pct, 1) {
		return "∞"
	}
	if math.IsInf(c.Pct, -1) {
		return "-∞"
	}
	return fmt.Sprintf("%.2f%%", c.Pct)
}

// FormatDeltaCompact renders a signed delta in compact notation: 950,
// +1.2K, -3.4M. Zero carries no sign.
func FormatDeltaCompact(delta int64) string {
	if delta == 0 {
		return "0"
	}

	sign := "+"
	abs := delta
	if delta < 0 {
		sign = "-"
		abs = -delta
	}

	var body string
	switch {
	case abs < 1_000:
		body = fmt.Sprintf("%d", abs)
	case abs < 1_000_000:
		body = compactUnit(abs, 1_000, "K")
	case abs < 1_000_000_000:
		body = compactUnit(abs, 1_000_000, "M")
	default:
		body = compactUnit(abs, 1_000_000_000, "B")
	}

	return sign + body
}

// compactUnit formats abs/unit with one decimal place, trimming a
// trailing ".0" so 2000 renders as 2K rather than 2.0K.
func compactUnit(abs, unit int64, suffix string) string {
	value := float64(abs) / float64(unit)
	body := fmt.Sprintf("%.1f", value)
	body = strings.TrimSuffix(body, ".0")
	return body + suffix
}
