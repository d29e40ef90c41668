package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Thresholds  ThresholdsConfig
	Matching    MatchingConfig
	Adjudicator AdjudicatorConfig
	Store       StoreConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ThresholdsConfig holds the decision classifier cutoffs
type ThresholdsConfig struct {
	Match         int     `mapstructure:"match"`
	AmbiguousLow  int     `mapstructure:"ambiguous_low"`
	AmbiguousHigh int     `mapstructure:"ambiguous_high"`
	RaisePct      float64 `mapstructure:"raise_pct"`
	LowerPct      float64 `mapstructure:"lower_pct"`
	ReviewPct     int     `mapstructure:"review_pct"`
	CriticalPct   int     `mapstructure:"critical_pct"`
}

// MatchingConfig holds scorer and run-controller configuration
type MatchingConfig struct {
	EnableFuzzyTokens  bool `mapstructure:"enable_fuzzy_tokens"`
	FuzzyEditDistance  int  `mapstructure:"fuzzy_edit_distance"`
	Workers            int  `mapstructure:"workers"`
	EnableDebugLogging bool `mapstructure:"enable_debug_logging"`
}

// AdjudicatorConfig holds the external adjudicator's credentials and limits.
// An empty API key disables the adjudicator entirely.
type AdjudicatorConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// StoreConfig selects and configures the persistence collaborator
type StoreConfig struct {
	Type        string `mapstructure:"type"` // "memory", "sqlite" or "supabase"
	Path        string `mapstructure:"path"`
	SupabaseURL string `mapstructure:"supabase_url"`
	SupabaseKey string `mapstructure:"supabase_key"`
	Table       string `mapstructure:"table"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricepilot/")

	v.SetEnvPrefix("PRICEPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("thresholds.match", 60)
	v.SetDefault("thresholds.ambiguous_low", 60)
	v.SetDefault("thresholds.ambiguous_high", 85)
	v.SetDefault("thresholds.raise_pct", 10.0)
	v.SetDefault("thresholds.lower_pct", 5.0)
	v.SetDefault("thresholds.review_pct", 85)
	v.SetDefault("thresholds.critical_pct", 70)

	v.SetDefault("matching.enable_fuzzy_tokens", false)
	v.SetDefault("matching.fuzzy_edit_distance", 1)
	v.SetDefault("matching.workers", 1)
	v.SetDefault("matching.enable_debug_logging", false)

	// Empty defaults keep these keys visible to Unmarshal when set via env.
	v.SetDefault("adjudicator.api_key", "")
	v.SetDefault("adjudicator.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("adjudicator.model", "google/gemini-2.0-flash-exp:free")
	v.SetDefault("adjudicator.request_timeout", "30s")
	v.SetDefault("adjudicator.requests_per_second", 1.0)

	v.SetDefault("store.type", "memory")
	v.SetDefault("store.path", "pricepilot.db")
	v.SetDefault("store.supabase_url", "")
	v.SetDefault("store.supabase_key", "")
	v.SetDefault("store.table", "analysis_results")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Store.Type {
	case "memory", "sqlite", "supabase":
	default:
		return fmt.Errorf("store type must be 'memory', 'sqlite' or 'supabase', got: %s", config.Store.Type)
	}

	if config.Store.Type == "supabase" && (config.Store.SupabaseURL == "" || config.Store.SupabaseKey == "") {
		return fmt.Errorf("supabase URL and key are required when store type is 'supabase'")
	}

	t := config.Thresholds
	if t.AmbiguousLow > t.AmbiguousHigh {
		return fmt.Errorf("thresholds.ambiguous_low (%d) must not exceed thresholds.ambiguous_high (%d)", t.AmbiguousLow, t.AmbiguousHigh)
	}
	if t.Match < 0 || t.Match > 100 || t.ReviewPct < 0 || t.ReviewPct > 100 {
		return fmt.Errorf("confidence thresholds must be within [0,100]")
	}

	return nil
}
