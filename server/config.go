package server

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the careercraft server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8335").
	ListenAddr string `toml:"listen_addr"`

	// DBPath is the path to the SQLite database file. Empty runs on
	// the in-memory store.
	DBPath string `toml:"db_path"`

	// Token, when set, is required as a bearer token on every /api
	// route.
	Token string `toml:"token"`

	// ProfilePath points at the candidate profile YAML, hot-reloaded
	// while the server runs. Empty analyzes without profile context.
	ProfilePath string `toml:"profile_path"`

	// Debug enables debug logging.
	Debug bool `toml:"debug"`

	// Provider selects the model backend.
	Provider ProviderConfig `toml:"provider"`
}

// ProviderConfig parameterizes the model backend.
type ProviderConfig struct {
	// Name is "openai", "gemini" or "keyword". Empty selects the
	// keyword scorer so the server runs without credentials.
	Name string `toml:"name"`

	// Model overrides the provider's default model.
	Model string `toml:"model"`

	// APIKey is the provider credential.
	APIKey string `toml:"api_key"`

	// BaseURL overrides the OpenAI-compatible endpoint.
	BaseURL string `toml:"base_url"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{ListenAddr: ":8335"}
}

// LoadConfig reads a TOML configuration file over the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return config, nil
}
