package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/newsportal/aggregator/internal/source"
)

type Config struct {
	// Content-management API
	APIBaseURL    string
	AdminUsername string
	AdminPassword string

	// Providers
	UnsplashAccessKey string
	GeminiAPIKey      string // empty disables the Gemini translation fallback

	// Scheduling
	ScheduleSpec string
	Timezone     string

	// App settings
	SourcesPath string
	LogFilePath string
	Debug       bool

	// Source registry, loaded from SourcesPath. Immutable after Load.
	Sources []source.Config
}

// Load reads the environment, applies defaults, loads the source registry
// and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		APIBaseURL:        getEnvOrDefault("API_BASE_URL", "http://localhost:5000/api"),
		AdminUsername:     getEnvOrDefault("ADMIN_USERNAME", "admin"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		UnsplashAccessKey: getEnvOrDefault("UNSPLASH_ACCESS_KEY", "demo"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		ScheduleSpec:      getEnvOrDefault("SCHEDULE_SPEC", "0 5 * * *"),
		Timezone:          getEnvOrDefault("SCHEDULE_TIMEZONE", "Europe/Istanbul"),
		SourcesPath:       getEnvOrDefault("SOURCES_CONFIG_PATH", "configs/sources.yaml"),
		LogFilePath:       getEnvOrDefault("LOG_FILE_PATH", "news_aggregator.log"),
	}

	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	sources, err := LoadSources(cfg.SourcesPath)
	if err != nil {
		return nil, err
	}
	cfg.Sources = sources

	return cfg, cfg.Validate()
}

// LoadSources reads the static source registry from a YAML file.
func LoadSources(path string) ([]source.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source registry: %w", err)
	}
	defer f.Close()

	var registry struct {
		Sources []source.Config `yaml:"sources"`
	}
	if err := yaml.NewDecoder(f).Decode(&registry); err != nil {
		return nil, fmt.Errorf("parse source registry %s: %w", path, err)
	}

	return registry.Sources, nil
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("source registry is empty")
	}
	for _, s := range c.Sources {
		if s.Name == "" || s.URL == "" {
			return fmt.Errorf("source registry: every source needs a name and url")
		}
		if !source.ValidKind(s.Parser) {
			return fmt.Errorf("source %s: unknown parser kind %q", s.Name, s.Parser)
		}
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
