// Package llm provides the completion-service client used for
// schema-guided extraction, with centralized model configuration.
package llm

// ModelTier selects the capability level used for a completion call.
type ModelTier string

const (
	// TierLite is for cheap, high-volume extraction.
	TierLite ModelTier = "lite"
	// TierStandard is the default tier for structured extraction.
	TierStandard ModelTier = "standard"
	// TierAdvanced is for pages that need deeper reasoning.
	TierAdvanced ModelTier = "advanced"
)

// Provider identifies a completion-service backend.
type Provider string

// Supported providers.
const (
	ProviderGemini Provider = "gemini"
)

// Config holds the completion-service model configuration.
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
}

// DefaultConfig returns the default configuration (currently Gemini).
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// Model returns the model name for a tier, falling back to standard
// and then lite when the tier has no explicit mapping.
func (c *Config) Model(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}
