package config

// backendDefaultModels maps each backend to its default model.
var backendDefaultModels = map[BackendType]string{
	BackendLocal:     "llama3",
	BackendOpenAI:    "gpt-4o-mini",
	BackendAnthropic: "claude-haiku-4-5-20251001",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend:               BackendLocal,
		Model:                 backendDefaultModels[BackendLocal],
		DBPath:                "pulse.db",
		Port:                  8080,
		AutoEnrich:            true,
		MaxConcurrency:        4,
		MacroTolerancePercent: 10.0,
	}
}

// DefaultModel returns the default model for the given backend, falling back
// to the local default for unknown backends.
func DefaultModel(backend BackendType) string {
	if model, ok := backendDefaultModels[backend]; ok {
		return model
	}
	return backendDefaultModels[BackendLocal]
}
