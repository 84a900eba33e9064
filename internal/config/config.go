// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"everypay-integration/internal/exchange"
)

type RuntimeConfig struct {
	Dev bool
}

type GatewayConfig struct {
	APIUsername string `yaml:"api_username"`
	APISecret   string `yaml:"api_secret"` // overridden by GATEWAY_API_SECRET
	AccountID   string `yaml:"account_id"`
	// Protocol is the signing revision: 1 fixed subset | 2 manifest | 3 sorted manifest,
	// optionally written as "v3". Version holds the parsed value.
	Protocol        string           `yaml:"protocol"`
	Version         exchange.Version `yaml:"-"`
	FreshnessWindow time.Duration    `yaml:"freshness_window"` // 0 = protocol default
	IncludeManifest bool             `yaml:"include_manifest"`
	Locale          string           `yaml:"locale"`
	PaymentURL      string           `yaml:"payment_url"` // form action for outbound requests
	Origin          string           `yaml:"origin"`      // origin of the embedded payment frame
	CallbackURL     string           `yaml:"callback_url"`
	CustomerURL     string           `yaml:"customer_url"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimit      int           `yaml:"rate_limit"` // requests per client per minute, 0 = off

	// TrustProxyHeaders takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type NonceConfig struct {
	Store         string        `yaml:"store"` // redis|memory|none
	KeyPrefix     string        `yaml:"key_prefix"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
	Nonce   NonceConfig   `yaml:"nonce"`
	Redis   RedisConfig   `yaml:"redis"`

	Runtime RuntimeConfig `yaml:"-"`
}

const (
	NonceStoreRedis  = "redis"
	NonceStoreMemory = "memory"
	NonceStoreNone   = "none"
)

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

// Parse decodes YAML, applies defaults and env overrides, and validates.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if s := os.Getenv("GATEWAY_API_SECRET"); s != "" {
		cfg.Gateway.APISecret = s
	}

	// defaults
	if strings.TrimSpace(cfg.Gateway.Protocol) == "" {
		cfg.Gateway.Protocol = "3"
	}
	if cfg.Gateway.Locale == "" {
		cfg.Gateway.Locale = "en"
	}
	if cfg.Gateway.PaymentURL == "" {
		cfg.Gateway.PaymentURL = "https://igw-demo.every-pay.com/transactions/"
	}
	if cfg.Gateway.Origin == "" {
		cfg.Gateway.Origin = "https://igw-demo.every-pay.com"
	}
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Nonce.Store = strings.ToLower(strings.TrimSpace(cfg.Nonce.Store))
	if cfg.Nonce.Store == "" {
		cfg.Nonce.Store = NonceStoreRedis
	}
	if cfg.Nonce.KeyPrefix == "" {
		cfg.Nonce.KeyPrefix = "gateway_nonce"
	}
	if cfg.Nonce.SweepInterval <= 0 {
		cfg.Nonce.SweepInterval = time.Minute
	}

	// Minimal validation
	if cfg.Gateway.APIUsername == "" {
		return nil, errors.New("gateway.api_username is required")
	}
	if cfg.Gateway.APISecret == "" {
		return nil, errors.New("gateway.api_secret is required (or set GATEWAY_API_SECRET)")
	}
	v, err := exchange.ParseVersion(cfg.Gateway.Protocol)
	if err != nil {
		return nil, fmt.Errorf("gateway.protocol: %w", err)
	}
	cfg.Gateway.Version = v
	if cfg.Gateway.FreshnessWindow < 0 {
		return nil, errors.New("gateway.freshness_window must not be negative")
	}
	switch cfg.Nonce.Store {
	case NonceStoreRedis:
		if cfg.Redis.URL == "" {
			return nil, errors.New("redis.url is required when nonce.store is redis")
		}
	case NonceStoreMemory, NonceStoreNone:
	default:
		return nil, fmt.Errorf("nonce.store %q is not one of redis|memory|none", cfg.Nonce.Store)
	}

	return &cfg, nil
}
