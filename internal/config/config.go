package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/dig"

	"github.com/PCcoding666/LLM-QUOTATION/internal/pricing"
)

// Config represents the quotation engine configuration.
type Config struct {
	Redis   RedisConfig
	Quote   QuoteConfig
	Pricing PricingConfig
}

// RedisConfig contains the connection settings for the sequence counter.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`
}

// QuoteConfig contains quote lifecycle defaults.
type QuoteConfig struct {
	DefaultValidDays int    `env:"QUOTE_DEFAULT_VALID_DAYS" envDefault:"30"`
	Currency         string `env:"QUOTE_CURRENCY"           envDefault:"USD"`
}

// PricingConfig contains the volume tier table, encoded as
// "threshold:factor" pairs separated by commas.
type PricingConfig struct {
	VolumeTiers []string `env:"PRICING_VOLUME_TIERS" envSeparator:"," envDefault:"10000:0.9,100000:0.8,1000000:0.7"`
}

// Tiers parses the configured tier table.
func (c PricingConfig) Tiers() ([]pricing.Tier, error) {
	tiers := make([]pricing.Tier, 0, len(c.VolumeTiers))
	for _, entry := range c.VolumeTiers {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed volume tier %q, want threshold:factor", entry)
		}

		threshold, err := decimal.NewFromString(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("malformed tier threshold %q: %w", parts[0], err)
		}
		factor, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("malformed tier factor %q: %w", parts[1], err)
		}

		tiers = append(tiers, pricing.Tier{Threshold: threshold, Factor: factor})
	}
	return tiers, nil
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*RedisConfig
	*QuoteConfig
	*PricingConfig
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Redis,
		&cfg.Quote,
		&cfg.Pricing,
	}
}
