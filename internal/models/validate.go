package models

import (
	"net/mail"
	"regexp"
	"unicode/utf8"
)

const (
	MaxEmailLen        = 254
	MaxUsernameLen     = 150
	MaxFullNameLen     = 120
	MaxPhoneLen        = 20
	MaxCategoryNameLen = 100
	MaxMenuItemNameLen = 150
	MaxOrderQuantity   = 100
)

var phonePattern = regexp.MustCompile(`^[0-9+\-() ]+$`)

// ValidEmail accepts a bare address such as "a@b.co", without display name,
// of at most MaxEmailLen characters.
func ValidEmail(s string) bool {
	if TooLong(s, MaxEmailLen) {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// ValidPhone accepts the empty string or up to MaxPhoneLen digits, spaces and +-().
func ValidPhone(s string) bool {
	if s == "" {
		return true
	}
	return len(s) <= MaxPhoneLen && phonePattern.MatchString(s)
}

func TooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
