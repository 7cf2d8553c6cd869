package relay

import (
	_ "embed"
	"strings"
)

//go:embed prompts/system.md
var defaultSystemPrompt string

// SystemPrompt returns the assistant system prompt, preferring a non-empty
// override from configuration.
func SystemPrompt(override string) string {
	if s := strings.TrimSpace(override); s != "" {
		return s
	}
	return strings.TrimSpace(defaultSystemPrompt)
}
