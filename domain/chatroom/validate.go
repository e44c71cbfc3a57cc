package chatroom

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validation constants.
const (
	MaxUsernameLength = 32
	MaxMessageLength  = 1000
)

// allowedEmoji is the fixed whitelist of reaction emoji. Unknown emoji
// are rejected before any mutation of the reaction table.
var allowedEmoji = map[string]struct{}{
	"👍": {},
	"👎": {},
	"❤️": {},
	"😂": {},
	"😮": {},
	"😢": {},
	"🎉": {},
}

// ValidateUsername checks username format and length. It is a pure
// function: the hub calls it on join and never re-derives identity
// from anything else.
func ValidateUsername(username string) error {
	name := strings.TrimSpace(username)
	if name == "" {
		return NewValidationError("username cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxUsernameLength {
		return NewValidationError(fmt.Sprintf("username exceeds %d characters", MaxUsernameLength))
	}
	if !utf8.ValidString(name) {
		return NewValidationError("username is not valid UTF-8")
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
			return NewValidationError("username may only contain letters, digits, '_' and '-'")
		}
	}
	return nil
}

// ValidateMessageText checks message text after trimming.
func ValidateMessageText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return NewValidationError("message text cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageLength {
		return NewValidationError(fmt.Sprintf("message exceeds %d characters", MaxMessageLength))
	}
	if !utf8.ValidString(trimmed) {
		return NewValidationError("message text is not valid UTF-8")
	}
	return nil
}

// ValidateEmoji checks the emoji against the reaction whitelist.
func ValidateEmoji(emoji string) error {
	if _, ok := allowedEmoji[emoji]; !ok {
		return NewValidationError(fmt.Sprintf("emoji %q is not allowed", emoji))
	}
	return nil
}

// AllowedEmoji returns the reaction whitelist.
func AllowedEmoji() []string {
	out := make([]string, 0, len(allowedEmoji))
	for e := range allowedEmoji {
		out = append(out, e)
	}
	return out
}
