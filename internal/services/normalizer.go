package services

import "strings"

// Punctuation people tend to paste along with keys: quotes, codeblock
// backticks, blockquote markers and the like.
var guessReplacer = strings.NewReplacer(
	".", "",
	",", "",
	"!", "",
	"?", "",
	"-", "",
	"/", "",
	">", "",
	"`", "",
	`"`, "",
	"'", "",
)

// NormalizeGuess strips common punctuation and lowercases the text so a
// pasted "WildPumpkin!" still matches the stored key.
func NormalizeGuess(content string) string {
	return strings.ToLower(guessReplacer.Replace(content))
}
