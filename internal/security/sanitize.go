package security

import (
	"regexp"
	"strings"
)

// MaxChatLength is the maximum number of characters accepted for a chat message
const MaxChatLength = 500

var (
	angleBrackets = regexp.MustCompile(`[<>]`)
	jsProtocol    = regexp.MustCompile(`(?i)javascript:`)
	eventHandler  = regexp.MustCompile(`(?i)on\w+=`)
)

// Sanitize strips angle brackets, javascript: URIs and inline event-handler
// attributes from user input and trims surrounding whitespace.
// Removal repeats until the input is stable, so nested patterns such as
// "javajavascript:script:" cannot reassemble.
func Sanitize(input string) string {
	out := input
	for {
		next := angleBrackets.ReplaceAllString(out, "")
		next = jsProtocol.ReplaceAllString(next, "")
		next = eventHandler.ReplaceAllString(next, "")
		if next == out {
			break
		}
		out = next
	}
	return strings.TrimSpace(out)
}

// SanitizeChat sanitizes a chat message and caps it at MaxChatLength runes
func SanitizeChat(input string) string {
	return Truncate(Sanitize(input), MaxChatLength)
}

// Truncate returns at most max runes of s, trimmed of trailing whitespace
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max]))
}
