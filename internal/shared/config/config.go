package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultPort         = "4021"
	defaultStockfishURL = "https://stockfish.online/api/s/v2.php"
	defaultPrice        = "$0.01"
)

// Config holds application configuration. It is built once at startup and
// never mutated afterwards.
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowOrigin    []string
	FacilitatorURL     string
	PayTo              string
	Network            string
	Price              string
	StockfishURL       string
	UpstreamTimeout    time.Duration
	FacilitatorTimeout time.Duration
}

// ConfigError reports missing or unusable configuration. It is fatal at startup.
type ConfigError struct {
	Missing []string
	Message string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Missing, ", "))
	}
	return "invalid configuration: " + e.Message
}

var requiredKeys = []string{"FACILITATOR_URL", "ADDRESS", "NETWORK"}

// Load reads configuration from the environment, falling back to a local .env
// file for values the environment does not set.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path.
func LoadFile(envFile string) (Config, error) {
	v := viper.New()
	v.SetDefault("PORT", defaultPort)
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOW_ORIGINS", "")
	v.SetDefault("PRICE", defaultPrice)
	v.SetDefault("STOCKFISH_API_URL", defaultStockfishURL)
	v.SetDefault("UPSTREAM_TIMEOUT", "0s")
	v.SetDefault("FACILITATOR_TIMEOUT", "10s")

	if err := readEnvFile(v, envFile); err != nil {
		return Config{}, err
	}
	v.AutomaticEnv()

	cfg := Config{
		Port:               v.GetString("PORT"),
		Env:                normalizeEnv(v.GetString("ENV")),
		LogLevel:           strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		CORSAllowOrigin:    splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		FacilitatorURL:     strings.TrimRight(strings.TrimSpace(v.GetString("FACILITATOR_URL")), "/"),
		PayTo:              strings.TrimSpace(v.GetString("ADDRESS")),
		Network:            strings.TrimSpace(v.GetString("NETWORK")),
		Price:              strings.TrimSpace(v.GetString("PRICE")),
		StockfishURL:       strings.TrimSpace(v.GetString("STOCKFISH_API_URL")),
		UpstreamTimeout:    v.GetDuration("UPSTREAM_TIMEOUT"),
		FacilitatorTimeout: v.GetDuration("FACILITATOR_TIMEOUT"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every required value is present.
func (c Config) Validate() error {
	values := map[string]string{
		"FACILITATOR_URL": c.FacilitatorURL,
		"ADDRESS":         c.PayTo,
		"NETWORK":         c.Network,
	}
	var missing []string
	for _, key := range requiredKeys {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	if c.StockfishURL == "" {
		return &ConfigError{Message: "STOCKFISH_API_URL must not be empty"}
	}
	if c.UpstreamTimeout < 0 || c.FacilitatorTimeout < 0 {
		return &ConfigError{Message: "timeouts must not be negative"}
	}
	return nil
}

// readEnvFile merges KEY=VALUE pairs from path. A missing file is ignored.
func readEnvFile(v *viper.Viper, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &ConfigError{Message: fmt.Sprintf("read %s: %v", path, err)}
	}
	return nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	default:
		return "dev"
	}
}
