package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.NotEmpty(t, cfg.Models[TierLite])
	assert.NotEmpty(t, cfg.Models[TierStandard])
	assert.NotEmpty(t, cfg.Models[TierAdvanced])
}

func TestConfigModel_Fallbacks(t *testing.T) {
	cfg := &Config{Models: map[ModelTier]string{
		TierStandard: "standard-model",
	}}

	assert.Equal(t, "standard-model", cfg.Model(TierStandard))
	// Unmapped tiers fall back to standard.
	assert.Equal(t, "standard-model", cfg.Model(TierAdvanced))
	assert.Equal(t, "standard-model", cfg.Model(ModelTier("bogus")))

	lite := &Config{Models: map[ModelTier]string{TierLite: "lite-model"}}
	assert.Equal(t, "lite-model", lite.Model(TierAdvanced))

	empty := &Config{}
	assert.Equal(t, "", empty.Model(TierStandard))
}
