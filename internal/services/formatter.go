package services

import (
	"fmt"
	"strings"
)

// FormatTimestamp renders a Discord timestamp tag. Style "F" is full
// date-time, "R" is relative.
func FormatTimestamp(epoch int64, style string) string {
	return fmt.Sprintf("<t:%d:%s>", epoch, style)
}

// FormatTimestampFull renders "<t:ts:F> (<t:ts:R>)", the layout staff are
// used to from the log channel.
func FormatTimestampFull(epoch int64) string {
	return fmt.Sprintf("%s (%s)", FormatTimestamp(epoch, "F"), FormatTimestamp(epoch, "R"))
}

var markdownEscaper = strings.NewReplacer(
	"*", "\\*",
	"_", "\\_",
	"`", "\\`",
	"~", "\\~",
	"|", "\\|",
	">", "\\>",
)

// EscapeMarkdown neutralizes Discord markdown in user-provided text before
// it is echoed into the log channel.
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// TruncateText shortens text to at most max runes, marking the cut.
func TruncateText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
