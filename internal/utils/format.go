package utils

import "fmt"

// emptyPhonePlaceholder is what spreadsheet imports leave in blank phone cells
const emptyPhonePlaceholder = "(empty)"

// NormalizeExpiry renders a stored expiry as MM/YY. It accepts
// 12/2024, 2024-12, 12.2024, 12-2024, 1224, 2024 (year only) and 12 (month only).
// Values matching none of these are returned unchanged.
func NormalizeExpiry(raw string) string {
	if raw == "" || raw == "-" {
		return "-"
	}

	digits := digitsOnly(raw)
	switch {
	case len(digits) == 6 && digits[:2] == "20":
		// YYYYMM
		return digits[4:] + "/" + digits[2:4]
	case len(digits) == 6:
		// MMYYYY
		return digits[:2] + "/" + digits[4:]
	case len(digits) == 4 && digits[:2] == "20":
		return "01/" + digits[2:]
	case len(digits) == 4:
		return digits[:2] + "/" + digits[2:]
	case len(digits) <= 2:
		for len(digits) < 2 {
			digits = "0" + digits
		}
		return digits + "/--"
	}
	return raw
}

// NormalizePhone renders a phone as +998 XX XXX XX XX.
// Numbers of 9 digits are treated as local Uzbek numbers.
func NormalizePhone(raw string) string {
	if raw == "" || raw == emptyPhonePlaceholder {
		return "-"
	}

	digits := digitsOnly(raw)
	if len(digits) == 12 && digits[:3] == "998" {
		digits = digits[3:]
	} else if len(digits) != 9 {
		return raw
	}
	return fmt.Sprintf("+998 %s %s %s %s", digits[0:2], digits[2:5], digits[5:7], digits[7:9])
}
