package sms

import "strings"

// NormalizeNumber coerces common US phone formats into E.164. Ten digits get a
// +1 prefix, eleven digits starting with 1 get a plus, and anything already in
// +digits form passes through.
func NormalizeNumber(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidNumber
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	switch {
	case len(digits) == 10:
		return "+1" + digits, nil
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits, nil
	case len(digits) == 11:
		// Eleven digits without a country code: assume US and drop the trailing digit.
		return "+1" + digits[:10], nil
	case len(digits) >= 12 && len(digits) <= 15:
		return "+" + digits, nil
	default:
		return "", ErrInvalidNumber
	}
}
