package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/schemascrape/internal/llm"
)

// fakeClient replays canned completion responses in order.
type fakeClient struct {
	responses []string
	errs      []error
	prompts   []string
}

func (f *fakeClient) Complete(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	call := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	if call < len(f.errs) && f.errs[call] != nil {
		return "", f.errs[call]
	}
	if call < len(f.responses) {
		return f.responses[call], nil
	}
	return "", errors.New("no response configured")
}

func (f *fakeClient) Close() error { return nil }

func productSchema() Schema {
	return Schema{
		{Name: "title", Type: "string"},
		{Name: "price", Type: "string"},
	}
}

func TestExtract_HappyPath(t *testing.T) {
	client := &fakeClient{responses: []string{`{"title": "Widget Deluxe", "price": "$19.99"}`}}
	e := NewExtractor(client, llm.TierStandard, "gemini-2.5-flash", nil)

	result, err := e.Extract(context.Background(), productSchema(), "Widget Deluxe costs $19.99")
	require.NoError(t, err)
	assert.Equal(t, "Widget Deluxe", result.Content["title"])
	assert.Equal(t, "$19.99", result.Content["price"])
	assert.Equal(t, "gemini-2.5-flash", result.Engine)
	assert.Positive(t, result.TokensUsed)
	assert.Len(t, client.prompts, 1)
}

func TestExtract_FencedOutputParses(t *testing.T) {
	client := &fakeClient{responses: []string{"Sure! ```json {\"title\": null} ``` "}}
	e := NewExtractor(client, "", "", nil)

	result, err := e.Extract(context.Background(), Schema{{Name: "title", Type: "string"}}, "page")
	require.NoError(t, err)
	assert.Nil(t, result.Content["title"])
	assert.Len(t, client.prompts, 1) // fence stripping must not trigger the retry
}

func TestExtract_KeySetEqualsSchema(t *testing.T) {
	// Model returns an extra field and omits one.
	client := &fakeClient{responses: []string{`{"title": "Widget", "sku": "X-1"}`}}
	e := NewExtractor(client, "", "", nil)

	result, err := e.Extract(context.Background(), productSchema(), "page")
	require.NoError(t, err)
	assert.Len(t, result.Content, 2)
	assert.Equal(t, "Widget", result.Content["title"])
	assert.Contains(t, result.Content, "price")
	assert.Nil(t, result.Content["price"])
	assert.NotContains(t, result.Content, "sku")
}

func TestExtract_RetryOnMalformedThenSuccess(t *testing.T) {
	client := &fakeClient{responses: []string{
		"I could not find structured data on that page.",
		`{"title": "Widget", "price": null}`,
	}}
	e := NewExtractor(client, "", "", nil)

	result, err := e.Extract(context.Background(), productSchema(), "page")
	require.NoError(t, err)
	assert.Equal(t, "Widget", result.Content["title"])
	require.Len(t, client.prompts, 2)
	assert.True(t, strings.HasSuffix(client.prompts[1], strictReminder))
}

func TestExtract_RetryExhaustedIsMalformedOutput(t *testing.T) {
	client := &fakeClient{responses: []string{"nope", "still nope"}}
	e := NewExtractor(client, "", "", nil)

	_, err := e.Extract(context.Background(), productSchema(), "page")
	require.Error(t, err)

	var malformed *MalformedOutputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "still nope", malformed.Raw)
	assert.Len(t, client.prompts, 2) // exactly one retry
}

func TestExtract_InferenceFailureNotRetried(t *testing.T) {
	client := &fakeClient{errs: []error{errors.New("quota exhausted")}}
	e := NewExtractor(client, "", "", nil)

	_, err := e.Extract(context.Background(), productSchema(), "page")
	require.Error(t, err)

	var inference *InferenceError
	require.ErrorAs(t, err, &inference)
	assert.Len(t, client.prompts, 1)
}

func TestExtract_InvalidSchemaRejected(t *testing.T) {
	client := &fakeClient{}
	e := NewExtractor(client, "", "", nil)

	_, err := e.Extract(context.Background(), Schema{}, "page")
	require.Error(t, err)
	assert.Empty(t, client.prompts) // no completion call for caller errors
}

func TestExtract_TypeDriftWarnsButSucceeds(t *testing.T) {
	client := &fakeClient{responses: []string{`{"title": 42, "price": "$1"}`}}
	e := NewExtractor(client, "", "", nil)

	result, err := e.Extract(context.Background(), productSchema(), "page")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Warnings)
}

func TestBuildPrompt_ContainsSchemaAndContent(t *testing.T) {
	prompt := buildPrompt(productSchema(), "PAGE CONTENT HERE")
	assert.Contains(t, prompt, `"title": string`)
	assert.Contains(t, prompt, `"price": string`)
	assert.Contains(t, prompt, "PAGE CONTENT HERE")
	assert.Contains(t, prompt, "null")
	assert.Contains(t, prompt, "ONLY")
}
