package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .lingtutor.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to lingtutor! Let's configure your tutor.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"google", "openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	// 2. Quality tier.
	qualityPrompt := promptui.Select{
		Label: "Select quality tier",
		Items: []string{
			"lite   — fast & cheap (flash-exp / gpt-4o-mini)",
			"normal — balanced (2.5-flash / gpt-4o)",
			"max    — highest quality (2.5-pro / gpt-4)",
		},
	}
	qualityIdx, _, err := qualityPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("quality selection: %w", err)
	}
	tiers := []QualityTier{QualityLite, QualityNormal, QualityMax}
	quality := tiers[qualityIdx]

	preset := GetPreset(provider, quality)

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory for the lesson database",
		Default: ".lingtutor",
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 4. Server port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP server port",
		Default: "8642",
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p <= 0 || p > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server port: %w", err)
	}
	port, _ := strconv.Atoi(portStr)

	// Build the config.
	cfg := &Config{
		Provider:       provider,
		Model:          preset.Model,
		InterpretModel: preset.InterpretModel,
		Quality:        quality,
		DataDir:        dataDir,
		Server: ServerConfig{
			Port:            port,
			AllowAllOrigins: false,
		},
	}

	// Check for API key.
	envVar := APIKeyEnvVar(provider)
	if envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running lingtutor.\n", envVar)
		}
	}

	// Save to .lingtutor.yml.
	configPath := ".lingtutor.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}
