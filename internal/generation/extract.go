package generation

import (
	"fmt"
	"strings"
)

// ExtractJSON returns the JSON payload of a model reply. Replies wrapped
// in a ```json (or bare ```) fence are unwrapped; anything else is
// returned trimmed.
func ExtractJSON(reply string) (string, error) {
	content := reply
	if _, after, ok := strings.Cut(reply, "```json"); ok {
		content, _, _ = strings.Cut(after, "```")
	} else if _, after, ok := strings.Cut(reply, "```"); ok {
		content, _, _ = strings.Cut(after, "```")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: reply contains no JSON", ErrInvalidResponse)
	}
	return content, nil
}
