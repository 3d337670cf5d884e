package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain json untouched",
			input:    `{"title": "Widget"}`,
			expected: `{"title": "Widget"}`,
		},
		{
			name:     "json fence",
			input:    "```json\n{\"title\": \"Widget\"}\n```",
			expected: `{"title": "Widget"}`,
		},
		{
			name:     "bare fence",
			input:    "```\n{\"title\": \"Widget\"}\n```",
			expected: `{"title": "Widget"}`,
		},
		{
			name:     "fence with language identifier",
			input:    "```javascript\n{\"title\": \"Widget\"}\n```",
			expected: `{"title": "Widget"}`,
		},
		{
			name:     "leading chatter before fence",
			input:    "Sure! ```json {\"title\": null} ``` ",
			expected: `{"title": null}`,
		},
		{
			name:     "surrounding whitespace",
			input:    "  \n```json\n{}\n```\n  ",
			expected: `{}`,
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}
