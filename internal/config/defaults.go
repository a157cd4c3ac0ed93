package config

// QualityPreset describes the models to use for a given quality tier.
// InterpretModel is used for intent summaries, Model for correction generation.
type QualityPreset struct {
	Model          string
	InterpretModel string
}

// qualityPresets maps each provider+quality combination to its model choices.
var qualityPresets = map[ProviderType]map[QualityTier]QualityPreset{
	ProviderOpenAI: {
		QualityLite:   {Model: "gpt-4o-mini", InterpretModel: "gpt-4o-mini"},
		QualityNormal: {Model: "gpt-4o", InterpretModel: "gpt-4o-mini"},
		QualityMax:    {Model: "gpt-4", InterpretModel: "gpt-4o"},
	},
	ProviderGoogle: {
		QualityLite:   {Model: "gemini-2.0-flash-exp", InterpretModel: "gemini-2.0-flash-exp"},
		QualityNormal: {Model: "gemini-2.5-flash", InterpretModel: "gemini-2.0-flash-exp"},
		QualityMax:    {Model: "gemini-2.5-pro", InterpretModel: "gemini-2.5-flash"},
	},
	ProviderOllama: {
		QualityLite:   {Model: "llama3", InterpretModel: "llama3"},
		QualityNormal: {Model: "llama3", InterpretModel: "llama3"},
		QualityMax:    {Model: "llama3:70b", InterpretModel: "llama3"},
	},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderGoogle,
		Model:          "gemini-2.5-flash",
		InterpretModel: "gemini-2.0-flash-exp",
		Quality:        QualityNormal,
		DataDir:        ".lingtutor",
		Server: ServerConfig{
			Port:            8642,
			AllowAllOrigins: false,
		},
	}
}

// GetPreset returns the quality preset for the given provider and tier.
// Returns the Normal Google preset if the combination is not found.
func GetPreset(provider ProviderType, tier QualityTier) QualityPreset {
	if tiers, ok := qualityPresets[provider]; ok {
		if preset, ok := tiers[tier]; ok {
			return preset
		}
	}
	return qualityPresets[ProviderGoogle][QualityNormal]
}
