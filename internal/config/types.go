package config

// BackendType identifies an LLM backend.
type BackendType string

const (
	BackendLocal     BackendType = "local"
	BackendOpenAI    BackendType = "openai"
	BackendAnthropic BackendType = "anthropic"
)

// Config is the top-level pulse configuration, corresponding to .pulse.yml.
type Config struct {
	Backend  BackendType `yaml:"backend" koanf:"backend"`
	Model    string      `yaml:"model" koanf:"model"`
	Endpoint string      `yaml:"endpoint" koanf:"endpoint"`
	DBPath   string      `yaml:"db_path" koanf:"db_path"`
	Port     int         `yaml:"port" koanf:"port"`
	// AutoEnrich controls whether logged meals get macronutrient
	// breakdowns from the model.
	AutoEnrich bool `yaml:"auto_enrich" koanf:"auto_enrich"`
	// MaxConcurrency bounds concurrent enrichment requests per meal.
	MaxConcurrency int `yaml:"max_concurrency" koanf:"max_concurrency"`
	// MacroTolerancePercent is the allowed variance between reported
	// calories and the value computed from macros.
	MacroTolerancePercent float64 `yaml:"macro_tolerance_percent" koanf:"macro_tolerance_percent"`
	// AllowAllOrigins opens CORS up for local development.
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
