package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// NormalizeCardNumber strips every non-digit character from raw.
// Length and checksum are validated separately.
func NormalizeCardNumber(raw string) string {
	return digitsOnly(raw)
}

// LuhnCheck reports whether digits carries a valid Luhn checksum
func LuhnCheck(digits string) bool {
	if digits == "" {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		n := int(c - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}

// MaskCardNumber keeps the first 6 and last 4 digits, e.g. 860012******9012
func MaskCardNumber(digits string) string {
	if len(digits) < 10 {
		return digits
	}
	return digits[:6] + "******" + digits[len(digits)-4:]
}

// FormatCardNumber groups digits by four: 8600123456789012 -> 8600 1234 5678 9012
func FormatCardNumber(digits string) string {
	var builder strings.Builder
	for i := 0; i < len(digits); i += 4 {
		if i > 0 {
			builder.WriteByte(' ')
		}
		end := i + 4
		if end > len(digits) {
			end = len(digits)
		}
		builder.WriteString(digits[i:end])
	}
	return builder.String()
}

// GenerateCardNumber generates a Luhn-valid card number with the specified prefix and length
func GenerateCardNumber(prefix string, length int) (string, error) {
	if length <= len(prefix) || length > 19 {
		return "", fmt.Errorf("invalid card number length: %d", length)
	}
	if digitsOnly(prefix) != prefix {
		return "", fmt.Errorf("card number prefix must contain digits only: %q", prefix)
	}

	body, err := randomDigits(length - len(prefix) - 1)
	if err != nil {
		return "", fmt.Errorf("failed to generate random digits: %w", err)
	}
	partial := prefix + body

	for check := byte('0'); check <= '9'; check++ {
		candidate := partial + string(check)
		if LuhnCheck(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("failed to compute check digit for %s", partial)
}

// GenerateOTP generates a numeric one-time code of the given length.
// Every digit is drawn uniformly, so leading zeros are possible.
func GenerateOTP(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid otp length: %d", length)
	}
	return randomDigits(length)
}

func randomDigits(n int) (string, error) {
	var builder strings.Builder
	builder.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		builder.WriteByte(byte('0' + d.Int64()))
	}
	return builder.String(), nil
}

func digitsOnly(s string) string {
	var builder strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			builder.WriteByte(s[i])
		}
	}
	return builder.String()
}
