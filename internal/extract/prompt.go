package extract

import (
	"fmt"
	"strings"
)

// strictReminder is appended on the single retry after malformed output.
const strictReminder = "\n\nREMINDER: Return ONLY a raw JSON object. No markdown, no code fences, no commentary."

// buildPrompt constructs the extraction prompt from the schema and
// sanitized page content.
func buildPrompt(schema Schema, content string) string {
	var sb strings.Builder

	sb.WriteString("You are a structured-extraction agent. ")
	sb.WriteString("Extract data from the page content below and map it onto the requested fields.\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, f := range schema {
		sb.WriteString(fmt.Sprintf("  %q: %s", f.Name, f.Type))
		if i < len(schema)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract values directly from the content, do not invent data.\n")
	sb.WriteString("- Use null for any field the content does not answer.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	sb.WriteString("Page content:\n\"\"\"\n")
	sb.WriteString(content)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}
