package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .pulse.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to pulse! Let's configure your meal tracker.")
	fmt.Println()

	// 1. Backend selection.
	backendPrompt := promptui.Select{
		Label: "Select LLM backend",
		Items: []string{
			"local     — Ollama, no API key needed",
			"openai    — OpenAI API",
			"anthropic — Anthropic API",
		},
	}
	backendIdx, _, err := backendPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("backend selection: %w", err)
	}
	backends := []BackendType{BackendLocal, BackendOpenAI, BackendAnthropic}
	backend := backends[backendIdx]

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: DefaultModel(backend),
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Database path.
	dbPrompt := promptui.Prompt{
		Label:   "Database file",
		Default: "pulse.db",
	}
	dbPath, err := dbPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}

	// 4. Server port.
	portPrompt := promptui.Prompt{
		Label:   "Server port",
		Default: "8080",
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("must be a port number")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	port, _ := strconv.Atoi(portStr)

	// 5. Automatic enrichment.
	enrichPrompt := promptui.Select{
		Label: "Enrich logged meals with macronutrients automatically?",
		Items: []string{"yes", "no"},
	}
	enrichIdx, _, err := enrichPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("enrichment: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Backend = backend
	cfg.Model = model
	cfg.DBPath = dbPath
	cfg.Port = port
	cfg.AutoEnrich = enrichIdx == 0

	// Check for API key.
	envVar := APIKeyEnvVar(backend)
	if envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running pulse serve.\n", envVar)
		}
	}

	// Save to .pulse.yml.
	configPath := ".pulse.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}
