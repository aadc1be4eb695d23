package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultNicknameMaxLength is the display name limit used when none is configured.
const DefaultNicknameMaxLength = 20

// NormalizeNickname trims surrounding whitespace from a display name
func NormalizeNickname(name string) string {
	return strings.TrimSpace(name)
}

// ValidateNickname checks a normalized display name against the length bound.
// maxLength is counted in runes; a non-positive value falls back to the default.
func ValidateNickname(name string, maxLength int) error {
	if maxLength <= 0 {
		maxLength = DefaultNicknameMaxLength
	}
	if name == "" {
		return fmt.Errorf("nickname cannot be empty")
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("nickname is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(name); n > maxLength {
		return fmt.Errorf("nickname too long: expected at most %d characters, got %d", maxLength, n)
	}
	return nil
}

// ValidateAndNormalizeNickname normalizes a display name and validates the result
func ValidateAndNormalizeNickname(name string, maxLength int) (string, error) {
	normalized := NormalizeNickname(name)
	if err := ValidateNickname(normalized, maxLength); err != nil {
		return "", err
	}
	return normalized, nil
}
