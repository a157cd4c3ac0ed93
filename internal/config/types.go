package config

// QualityTier controls the model selection and trade-off between speed/cost and quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGoogle ProviderType = "google"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level lingtutor configuration, corresponding to .lingtutor.yml.
type Config struct {
	Provider       ProviderType `yaml:"provider" koanf:"provider"`
	Model          string       `yaml:"model" koanf:"model"`
	InterpretModel string       `yaml:"interpret_model" koanf:"interpret_model"`
	Quality        QualityTier  `yaml:"quality" koanf:"quality"`
	DataDir        string       `yaml:"data_dir" koanf:"data_dir"`
	Server         ServerConfig `yaml:"server" koanf:"server"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
