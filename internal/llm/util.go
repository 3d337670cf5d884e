package llm

import "strings"

// CleanJSONBlock removes markdown code-fence wrappers from a response.
// Models often wrap JSON in ```json ... ``` blocks even when instructed
// not to, so response text is treated as untrusted and stripped first.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	// Models sometimes prepend chatter ("Sure! ```json ..."); jump to the
	// first fence so the block itself is what gets unwrapped.
	if !strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "```"); idx >= 0 {
			text = text[idx:]
		}
	}

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Drop a language identifier on the first line, if present.
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return text
}
