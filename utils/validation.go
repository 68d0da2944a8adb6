package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidateName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= 2 && n <= 50
}

func ValidateEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

func ValidatePassword(password string) bool {
	n := utf8.RuneCountInString(password)
	return n >= 6 && n <= 100
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
