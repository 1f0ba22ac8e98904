package chat

import "strings"

const (
	directiveOpen  = "[generate_image:"
	directiveClose = "]"
)

// ExtractImageDirective splits a model reply into its visible text and an
// embedded image prompt. The persona instruction allows at most one
// directive per reply, so only the first occurrence is honored; any later
// ones remain in the text as-is. An unterminated marker is treated as
// plain text.
func ExtractImageDirective(reply string) (text, prompt string) {
	start := strings.Index(reply, directiveOpen)
	if start < 0 {
		return reply, ""
	}
	rest := reply[start+len(directiveOpen):]
	end := strings.Index(rest, directiveClose)
	if end < 0 {
		return reply, ""
	}
	prompt = strings.TrimSpace(rest[:end])
	text = strings.TrimSpace(reply[:start] + rest[end+len(directiveClose):])
	return text, prompt
}
