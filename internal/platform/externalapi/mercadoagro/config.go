// Package mercadoagro provides a scraper for the daily INMAG report of the
// Mercado Agroganadero cattle market.
package mercadoagro

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"cattle_backend/internal/feature/prices/domain/entity"
)

const (
	// DefaultBaseURL is the report endpoint; without query parameters it serves the latest data.
	DefaultBaseURL = "https://www.mercadoagroganadero.com.ar/dll/hacienda2.dll/haciinfo000011"
	// DefaultUserAgent is sent on every request; the site rejects unknown clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	// DefaultTimeout bounds a whole request.
	DefaultTimeout = 15 * time.Second
)

// Config holds configuration for the market scraper.
type Config struct {
	BaseURL   string                  // Report endpoint
	UserAgent string                  // Fixed browser-like User-Agent
	Timeout   time.Duration           // HTTP request timeout
	Policy    entity.AcceptancePolicy // Row acceptance bounds
}

// LoadConfig loads scraper configuration from environment variables.
// SCRAPER_POLICY_FILE may point to a YAML file with the acceptance bounds;
// the SCRAPER_* bound variables override individual values.
func LoadConfig() (Config, error) {
	cfg := Config{
		BaseURL:   getEnv("MERCADO_BASE_URL", DefaultBaseURL),
		UserAgent: getEnv("MERCADO_USER_AGENT", DefaultUserAgent),
		Timeout:   DefaultTimeout,
		Policy:    entity.DefaultAcceptancePolicy(),
	}

	if v := os.Getenv("MERCADO_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse MERCADO_TIMEOUT %q: %w", v, err)
		}
		cfg.Timeout = d
	}

	if path := os.Getenv("SCRAPER_POLICY_FILE"); path != "" {
		p, err := LoadPolicyFile(path, cfg.Policy)
		if err != nil {
			return Config{}, err
		}
		cfg.Policy = p
	}

	overrides := []struct {
		key string
		dst *float64
	}{
		{"SCRAPER_MIN_INDEX", &cfg.Policy.MinIndex},
		{"SCRAPER_MAX_INDEX", &cfg.Policy.MaxIndex},
		{"SCRAPER_MIN_HEADCOUNT", &cfg.Policy.MinHeadCount},
		{"SCRAPER_MAX_HEADCOUNT", &cfg.Policy.MaxHeadCount},
	}
	for _, o := range overrides {
		v := os.Getenv(o.key)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s %q: %w", o.key, v, err)
		}
		*o.dst = f
	}

	if err := cfg.Policy.Validate(); err != nil {
		return Config{}, fmt.Errorf("scraper policy: %w", err)
	}
	return cfg, nil
}

// LoadPolicyFile reads acceptance bounds from a YAML file. Keys missing from
// the file keep the values of base.
func LoadPolicyFile(path string, base entity.AcceptancePolicy) (entity.AcceptancePolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.AcceptancePolicy{}, fmt.Errorf("failed to read policy file '%s': %w", path, err)
	}
	p := base
	if err := yaml.Unmarshal(data, &p); err != nil {
		return entity.AcceptancePolicy{}, fmt.Errorf("failed to parse policy file '%s': %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return entity.AcceptancePolicy{}, err
	}
	return p, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
