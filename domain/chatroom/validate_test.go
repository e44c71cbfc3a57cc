package chatroom

import (
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name        string
		username    string
		expectError bool
	}{
		{
			name:        "valid simple name",
			username:    "alice",
			expectError: false,
		},
		{
			name:        "valid with digits and separators",
			username:    "bob_42-x",
			expectError: false,
		},
		{
			name:        "valid unicode letters",
			username:    "Zoë",
			expectError: false,
		},
		{
			name:        "surrounding whitespace is trimmed",
			username:    "  alice  ",
			expectError: false,
		},
		{
			name:        "empty",
			username:    "",
			expectError: true,
		},
		{
			name:        "whitespace only",
			username:    "   ",
			expectError: true,
		},
		{
			name:        "too long",
			username:    strings.Repeat("a", MaxUsernameLength+1),
			expectError: true,
		},
		{
			name:        "exactly max length",
			username:    strings.Repeat("a", MaxUsernameLength),
			expectError: false,
		},
		{
			name:        "inner space",
			username:    "alice smith",
			expectError: true,
		},
		{
			name:        "punctuation",
			username:    "alice!",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)

			if tt.expectError {
				if err == nil {
					t.Errorf("ValidateUsername(%q) expected error, got nil", tt.username)
				} else if KindOf(err) != ErrorKindValidation {
					t.Errorf("ValidateUsername(%q) kind = %q, want %q", tt.username, KindOf(err), ErrorKindValidation)
				}
				return
			}

			if err != nil {
				t.Errorf("ValidateUsername(%q) unexpected error: %v", tt.username, err)
			}
		})
	}
}

func TestValidateMessageText(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		expectError bool
	}{
		{
			name:        "valid text",
			text:        "Hello, World!",
			expectError: false,
		},
		{
			name:        "empty",
			text:        "",
			expectError: true,
		},
		{
			name:        "whitespace only",
			text:        " \t\n ",
			expectError: true,
		},
		{
			name:        "exactly max length",
			text:        strings.Repeat("x", MaxMessageLength),
			expectError: false,
		},
		{
			name:        "too long",
			text:        strings.Repeat("x", MaxMessageLength+1),
			expectError: true,
		},
		{
			name:        "max length applies after trimming",
			text:        "  " + strings.Repeat("x", MaxMessageLength) + "  ",
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessageText(tt.text)

			if tt.expectError && err == nil {
				t.Error("ValidateMessageText() expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("ValidateMessageText() unexpected error: %v", err)
			}
		})
	}
}

func TestValidateEmoji(t *testing.T) {
	for _, emoji := range AllowedEmoji() {
		if err := ValidateEmoji(emoji); err != nil {
			t.Errorf("ValidateEmoji(%q) unexpected error: %v", emoji, err)
		}
	}

	for _, emoji := range []string{"", "x", "🙃", "👍👍"} {
		err := ValidateEmoji(emoji)
		if err == nil {
			t.Errorf("ValidateEmoji(%q) expected error, got nil", emoji)
			continue
		}
		if KindOf(err) != ErrorKindValidation {
			t.Errorf("ValidateEmoji(%q) kind = %q, want %q", emoji, KindOf(err), ErrorKindValidation)
		}
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(NewUnauthorizedError("nope")); got != ErrorKindUnauthorized {
		t.Errorf("KindOf(unauthorized) = %q, want %q", got, ErrorKindUnauthorized)
	}
	if got := KindOf(ErrMessageNotFound); got != "" {
		t.Errorf("KindOf(untyped) = %q, want empty", got)
	}
}
