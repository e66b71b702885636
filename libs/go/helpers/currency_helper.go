package helpers

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCentsUSD renders a cent amount as a display dollar string with
// thousands separators, e.g. 123456789 -> "$1,234,567.89". Liability math
// stays in integer cents everywhere; this is presentation only.
func FormatCentsUSD(cents int64) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}

	dollars := cents / 100
	remainder := cents % 100

	formatted := groupThousands(strconv.FormatInt(dollars, 10))
	out := fmt.Sprintf("$%s.%02d", formatted, remainder)
	if negative {
		return "-" + out
	}
	return out
}

// FormatRatePercent renders a fractional rate as a percentage,
// e.g. 0.0725 -> "7.25%". Trailing zeros are trimmed so 0.06 reads "6%".
func FormatRatePercent(rate float64) string {
	s := strconv.FormatFloat(rate*100, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s + "%"
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
