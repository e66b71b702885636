package helpers

import "strings"

// NormalizeJurisdictionCode upper-cases and trims a jurisdiction code so
// "ca ", "Ca" and "CA" aggregate into one bucket.
func NormalizeJurisdictionCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsJurisdictionCodeValid checks if the provided string is a usable
// jurisdiction code. It verifies:
// 1. The code is non-empty after trimming
// 2. The code is 2-6 characters of letters, digits or a single hyphen
//    (covers "CA", "NYC", "US-CA" style codes)
func IsJurisdictionCodeValid(code string) bool {
	code = strings.TrimSpace(code)
	if len(code) < 2 || len(code) > 6 {
		return false
	}

	hyphens := 0
	for _, c := range code {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-':
			hyphens++
			if hyphens > 1 {
				return false
			}
		default:
			return false
		}
	}

	// A hyphen may not lead or trail
	if strings.HasPrefix(code, "-") || strings.HasSuffix(code, "-") {
		return false
	}

	return true
}
