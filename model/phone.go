package model

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone formats a phone number to E.164, assuming Greek numbers
// when no country code is given. It is a best-effort helper for exports;
// submission validation uses the permissive pattern instead, so a value
// that fails to parse here is returned unchanged by callers.
func NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)

	num, err := phonenumbers.Parse(phone, "GR")
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", phonenumbers.ErrNotANumber
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
