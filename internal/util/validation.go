package util

import (
	"regexp"
)

var tokenRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)

// IsValidToken reports whether s has the shape produced by GenerateToken.
func IsValidToken(s string) bool {
	if s == "" {
		return false
	}
	return tokenRegex.MatchString(s)
}

func IsValidEnum(value string, validValues []string) bool {
	if value == "" {
		return true
	}
	for _, v := range validValues {
		if value == v {
			return true
		}
	}
	return false
}
