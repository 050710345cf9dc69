package shipment

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// digit matches ASCII, Arabic-Indic and Extended Arabic-Indic digits.
const digit = `[0-9\x{0660}-\x{0669}\x{06F0}-\x{06F9}]`

var (
	// PhonePattern finds Iraqi mobile numbers in local or +964 form.
	PhonePattern = regexp.MustCompile(`\+964[ \t-]?[7\x{0667}\x{06F7}]` + digit + `{9}|[0\x{0660}\x{06F0}][7\x{0667}\x{06F7}]` + digit + `{9}`)

	intlPrefix      = regexp.MustCompile(`^\+964[ \t-]*`)
	thousandPattern = regexp.MustCompile(`(?i)^(\d+)\s*(?:thousand|الف|ألف|آلاف|الاف)$`)
)

// FoldDigits rewrites Arabic-Indic digits to ASCII.
func FoldDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		}
		return r
	}, s)
}

// NormalizePhone converts +964 numbers to the local 07 form and keeps digits only.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(FoldDigits(phone))
	if phone == "" || phone == PhoneUnknown {
		return phone
	}
	phone = intlPrefix.ReplaceAllString(phone, "0")
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// IsValidPhone reports whether phone is exactly 11 digits starting with 07.
func IsValidPhone(phone string) bool {
	if len(phone) != 11 || !strings.HasPrefix(phone, "07") {
		return false
	}
	return isDigits(phone)
}

// NormalizeAmount parses plain digits or "<N> thousand" into whole dinars.
func NormalizeAmount(text string) (int64, error) {
	clean := strings.TrimSpace(FoldDigits(text))
	if clean == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	compact := strings.NewReplacer(",", "", "،", "", "٬", "", " ", "").Replace(clean)
	if isDigits(compact) {
		num, err := strconv.ParseInt(compact, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
		}
		return num, nil
	}
	if m := thousandPattern.FindStringSubmatch(strings.ReplaceAll(clean, ",", "")); m != nil {
		num, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || num > math.MaxInt64/1000 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
		}
		return num * 1000, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
}

// ParsePlainAmount accepts digits only, ignoring thousands separators.
// Arabic-Indic digits are folded first.
func ParsePlainAmount(text string) (int64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(FoldDigits(text)), ",", "")
	if !isDigits(raw) {
		return 0, false
	}
	num, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return num, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
