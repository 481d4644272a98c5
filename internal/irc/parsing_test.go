package irc

import "testing"

func TestCheckAddressed(t *testing.T) {
	tests := []struct {
		name    string
		message string
		nick    string
		want    bool
	}{
		{"exact with colon", "bot: hello", "bot", true},
		{"exact with space", "bot hello", "bot", true},
		{"exact with comma", "bot, hello", "bot", true},
		{"nick prefix matches longer word", "botter hello", "bot", false},
		{"nick in middle", "hello bot", "bot", false},
		{"empty message", "", "bot", false},
		{"empty nick", "bot: hello", "", false},
		{"case sensitive", "Bot: hello", "bot", false},
		{"just nick", "bot", "bot", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckAddressed(tt.message, tt.nick)
			if got != tt.want {
				t.Errorf("CheckAddressed(%q, %q) = %v, want %v", tt.message, tt.nick, got, tt.want)
			}
		})
	}
}

func TestStripAddress(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"bot: /ping", "/ping"},
		{"bot, what's up", "what's up"},
		{"bot hello", "hello"},
		{"bot", ""},
		{"botter: hi", "botter: hi"},
		{"/help", "/help"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := StripAddress(tt.message, "bot"); got != tt.want {
				t.Errorf("StripAddress(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestCheckPrivate(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"#channel", false},
		{"#", false},
		{"#test-channel", false},
		{"nickname", true},
		{"user123", true},
		{"", true},
		{"&channel", true}, // Only # is checked
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got := CheckPrivate(tt.target)
			if got != tt.want {
				t.Errorf("CheckPrivate(%q) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}
