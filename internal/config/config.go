package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default configuration file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML with env overrides.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	DatabaseURL   string `yaml:"databaseURL"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	TokenSecret string `yaml:"tokenSecret"`
	TokenTTL    string `yaml:"tokenTTL"`
	SessionTTL  string `yaml:"sessionTTL"`

	OpenAIAPIKey  string `yaml:"openaiAPIKey"`
	OpenAIBaseURL string `yaml:"openaiBaseURL"`
	OpenAIModel   string `yaml:"openaiModel"`
	GeminiAPIKey  string `yaml:"geminiAPIKey"`
	GeminiModel   string `yaml:"geminiModel"`
	OllamaBaseURL string `yaml:"ollamaBaseURL"`
	OllamaModel   string `yaml:"ollamaModel"`

	DefaultProvider   string `yaml:"defaultProvider"`
	GenerationTimeout string `yaml:"generationTimeout"`
	PersonasFile      string `yaml:"personasFile"`
	StaticDir         string `yaml:"staticDir"`
}

// Load reads config from path (defaults to config.yaml). A missing file is
// not an error; configuration can come entirely from the environment.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	// Override with environment variables.
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("JWT_SECRET_KEY"); v != "" {
		cfg.TokenSecret = v
	}
	if v := os.Getenv("JWT_TOKEN_TTL"); v != "" {
		cfg.TokenTTL = strings.TrimSpace(v)
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		cfg.SessionTTL = strings.TrimSpace(v)
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAIBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAIModel = strings.TrimSpace(v)
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.GeminiModel = strings.TrimSpace(v)
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.OllamaBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.OllamaModel = strings.TrimSpace(v)
	}
	if v := os.Getenv("DEFAULT_API_PROVIDER"); v != "" {
		cfg.DefaultProvider = strings.TrimSpace(v)
	}
	if v := os.Getenv("GENERATION_TIMEOUT"); v != "" {
		cfg.GenerationTimeout = strings.TrimSpace(v)
	}
	if v := os.Getenv("PERSONAS_FILE"); v != "" {
		cfg.PersonasFile = strings.TrimSpace(v)
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		cfg.StaticDir = strings.TrimSpace(v)
	}
	if cfg.Port == "" {
		cfg.Port = "5000"
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if strings.TrimSpace(cfg.TokenSecret) == "" {
		return errors.New("config: tokenSecret is required (set in config.yaml or JWT_SECRET_KEY)")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	return nil
}

// ParseDuration parses an optional duration string, returning fallback when
// the value is empty.
func ParseDuration(value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	dur, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	return dur, nil
}
