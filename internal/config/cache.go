package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// CacheConfig defines settings for the response cache middleware that sits
// in front of the storefront availability endpoint.  When Enabled is false
// or no Redis client is configured, caching is disabled.  TTL is kept short
// because availability changes with every booking.
type CacheConfig struct {
	Enabled      bool            `env:"CACHE_ENABLED" envDefault:"true"`
	RawMethods   string          `env:"CACHE_METHODS" envDefault:"GET"`
	Methods      map[string]bool `env:"-"`
	TTL          time.Duration   `env:"CACHE_TTL" envDefault:"15s"`
	KeyStrategy  string          `env:"CACHE_KEY_STRATEGY" envDefault:"route_query"`
	Prefix       string          `env:"CACHE_PREFIX" envDefault:"cache"`
	MaxBodyBytes int             `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`
}

// LoadCacheConfig reads the CACHE_* variables.  Unparseable values fall back
// to the defaults.
func LoadCacheConfig() CacheConfig {
	var cfg CacheConfig
	if err := env.Parse(&cfg); err != nil {
		cfg = CacheConfig{Enabled: true, RawMethods: "GET", TTL: 15 * time.Second, KeyStrategy: "route_query", Prefix: "cache", MaxBodyBytes: 1 << 20}
	}
	cfg.Methods = parseMethods(cfg.RawMethods)
	if cfg.TTL <= 0 {
		cfg.TTL = time.Second
	}
	return cfg
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
