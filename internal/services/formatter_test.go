package services

import "testing"

func TestFormatTimestamp(t *testing.T) {
	if got := FormatTimestamp(1700000000, "F"); got != "<t:1700000000:F>" {
		t.Errorf("FormatTimestamp() = %q", got)
	}
	if got := FormatTimestampFull(1700000000); got != "<t:1700000000:F> (<t:1700000000:R>)" {
		t.Errorf("FormatTimestampFull() = %q", got)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain text", "plain text"},
		{"*bold*", "\\*bold\\*"},
		{"`code`", "\\`code\\`"},
		{"||spoiler||", "\\|\\|spoiler\\|\\|"},
		{"> quote", "\\> quote"},
	}

	for _, tt := range tests {
		if got := EscapeMarkdown(tt.input); got != tt.want {
			t.Errorf("EscapeMarkdown(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"shorter than max", "hello", 10, "hello"},
		{"exactly max", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello w…"},
		{"multibyte runes", "привет мир", 7, "привет…"},
		{"max of one", "hello", 1, "h"},
		{"zero max", "hello", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateText(tt.input, tt.max); got != tt.want {
				t.Errorf("TruncateText(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}
