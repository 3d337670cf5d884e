// Package extract maps sanitized page content onto a user-defined schema
// by prompting a completion service and parsing its response defensively.
package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/jonathan/schemascrape/internal/llm"
)

// Result is the structured output of one extraction.
type Result struct {
	// Content has exactly the schema's keys; unknown values are null.
	Content map[string]any
	// Engine identifies the model that produced the output.
	Engine string
	// TokensUsed is an approximate token cost for the call.
	TokensUsed int
	// Warnings carries best-effort schema validation findings; a warning
	// does not fail the extraction.
	Warnings []string
}

// Extractor drives schema-guided extraction against a completion client.
type Extractor struct {
	client llm.Client
	tier   llm.ModelTier
	engine string
	logger *zap.Logger
}

// NewExtractor creates an extractor using the given completion client.
func NewExtractor(client llm.Client, tier llm.ModelTier, engine string, logger *zap.Logger) *Extractor {
	if tier == "" {
		tier = llm.TierStandard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{client: client, tier: tier, engine: engine, logger: logger}
}

// Extract prompts the completion service with content and schema, parses
// the response as JSON, and normalizes it so the output key set equals
// the schema's key set. A malformed response is retried exactly once
// with a stricter reminder; inference failures are never retried.
func (e *Extractor) Extract(ctx context.Context, schema Schema, content string) (*Result, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	prompt := buildPrompt(schema, content)

	raw, err := e.client.Complete(ctx, prompt, e.tier)
	if err != nil {
		return nil, &InferenceError{Message: "completion call failed", Cause: err}
	}

	parsed, parseErr := parseResponse(raw)
	if parseErr != nil {
		e.logger.Warn("model output unparseable, retrying with strict reminder",
			zap.Error(parseErr))

		raw, err = e.client.Complete(ctx, prompt+strictReminder, e.tier)
		if err != nil {
			return nil, &InferenceError{Message: "completion call failed on retry", Cause: err}
		}
		parsed, parseErr = parseResponse(raw)
		if parseErr != nil {
			return nil, parseErr
		}
	}

	result := &Result{
		Content:    normalize(schema, parsed),
		Engine:     e.engine,
		TokensUsed: approxTokens(prompt, raw),
	}
	result.Warnings = validateAgainstSchema(schema, result.Content)
	return result, nil
}

// parseResponse strips code fences and decodes the response as a JSON object.
func parseResponse(raw string) (map[string]any, error) {
	cleaned := llm.CleanJSONBlock(raw)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, &MalformedOutputError{
			Message: "response is not a JSON object",
			Raw:     raw,
			Cause:   err,
		}
	}
	return parsed, nil
}

// normalize forces the output key set to equal the schema's key set:
// missing fields become explicit nulls, extra fields are dropped.
func normalize(schema Schema, parsed map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for _, f := range schema {
		if v, ok := parsed[f.Name]; ok {
			out[f.Name] = v
		} else {
			out[f.Name] = nil
		}
	}
	return out
}

// validateAgainstSchema checks the normalized output against a JSON
// Schema generated from the target schema. Violations are reported as
// warnings only; type drift in model output is tolerated.
func validateAgainstSchema(schema Schema, content map[string]any) []string {
	schemaLoader := gojsonschema.NewGoLoader(schema.jsonSchema())
	docLoader := gojsonschema.NewGoLoader(content)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return []string{fmt.Sprintf("schema validation unavailable: %v", err)}
	}

	var warnings []string
	for _, desc := range result.Errors() {
		warnings = append(warnings, desc.String())
	}
	return warnings
}

// approxTokens estimates token cost as total characters divided by four.
func approxTokens(prompt, response string) int {
	return (len(prompt) + len(response)) / 4
}
