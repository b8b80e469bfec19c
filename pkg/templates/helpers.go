package templates

import (
	"strings"
)

// EscapeMarkdownV2 escapes special characters for Telegram MarkdownV2 format.
// Telegram requires escaping of '_', '*', '[', ']', '(', ')', '~', '`', '>',
// '#', '+', '-', '=', '|', '{', '}', '.', '!' outside code entities.
func EscapeMarkdownV2(text string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\", // backslash first
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)
	return replacer.Replace(text)
}

// Truncate shortens text to at most limit runes, appending an ellipsis
// marker when cut. Telegram messages cap at 4096 characters.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
