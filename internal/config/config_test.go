//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"everypay-integration/internal/exchange"
)

const minimal = `
gateway:
  api_username: shop1
  api_secret: s3cr3t
redis:
  url: localhost:6379
`

func TestParse_Defaults(t *testing.T) {
	t.Setenv("GATEWAY_API_SECRET", "")
	cfg, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if cfg.Gateway.Version != exchange.VersionSortedManifest {
		t.Errorf("expected protocol 3, but got %s", cfg.Gateway.Version)
	}
	if cfg.Gateway.Locale != "en" || cfg.Gateway.Origin != "https://igw-demo.every-pay.com" {
		t.Errorf("unexpected gateway defaults %+v", cfg.Gateway)
	}
	if cfg.HTTP.Port != 8080 || cfg.HTTP.RequestTimeout != 10*time.Second {
		t.Errorf("unexpected http defaults %+v", cfg.HTTP)
	}
	if cfg.Nonce.Store != NonceStoreRedis || cfg.Nonce.KeyPrefix != "gateway_nonce" || cfg.Nonce.SweepInterval != time.Minute {
		t.Errorf("unexpected nonce defaults %+v", cfg.Nonce)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log defaults %+v", cfg.Log)
	}
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("GATEWAY_API_SECRET", "from-env")
	cfg, err := Parse([]byte(`
gateway:
  api_username: shop1
  api_secret: from-file
  protocol: 1
  freshness_window: 2m
  include_manifest: true
nonce:
  store: " Memory "
http:
  rate_limit: 30
`))
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if cfg.Gateway.APISecret != "from-env" {
		t.Errorf("expected env secret to win, but got %q", cfg.Gateway.APISecret)
	}
	if cfg.Gateway.Version != exchange.VersionFixedSubset || cfg.Gateway.FreshnessWindow != 2*time.Minute || !cfg.Gateway.IncludeManifest {
		t.Errorf("unexpected gateway config %+v", cfg.Gateway)
	}
	if cfg.Nonce.Store != NonceStoreMemory {
		t.Errorf("expected normalised store name, but got %q", cfg.Nonce.Store)
	}
	if cfg.HTTP.RateLimit != 30 {
		t.Errorf("expected rate limit 30, but got %d", cfg.HTTP.RateLimit)
	}
}

func TestParse_Validation(t *testing.T) {
	t.Setenv("GATEWAY_API_SECRET", "")
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"missing username", "gateway: {api_secret: x}\nnonce: {store: none}", "api_username"},
		{"missing secret", "gateway: {api_username: x}\nnonce: {store: none}", "api_secret"},
		{"bad protocol", "gateway: {api_username: x, api_secret: y, protocol: 7}\nnonce: {store: none}", "protocol"},
		{"non numeric protocol", "gateway: {api_username: x, api_secret: y, protocol: 3abc}\nnonce: {store: none}", "gateway.protocol"},
		{"negative window", "gateway: {api_username: x, api_secret: y, freshness_window: -1s}\nnonce: {store: none}", "freshness_window"},
		{"redis without url", "gateway: {api_username: x, api_secret: y}", "redis.url"},
		{"unknown store", "gateway: {api_username: x, api_secret: y}\nnonce: {store: etcd}", "nonce.store"},
		{"malformed yaml", "gateway: [", "parse config"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatal("expected an error, but got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error mentioning %q, but got %v", tc.want, err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("GATEWAY_API_SECRET", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(minimal), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if !cfg.Runtime.Dev {
		t.Error("expected dev flag to be carried into runtime config")
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestParse_ProtocolSpellings(t *testing.T) {
	t.Setenv("GATEWAY_API_SECRET", "")
	cases := map[string]exchange.Version{
		"1":    exchange.VersionFixedSubset,
		`"v2"`: exchange.VersionManifest,
		"v3":   exchange.VersionSortedManifest,
	}
	for raw, want := range cases {
		cfg, err := Parse([]byte("gateway: {api_username: x, api_secret: y, protocol: " + raw + "}\nnonce: {store: none}"))
		if err != nil {
			t.Fatalf("protocol %s: expected no error, but got: %v", raw, err)
		}
		if cfg.Gateway.Version != want {
			t.Errorf("protocol %s: expected %s, but got %s", raw, want, cfg.Gateway.Version)
		}
	}
}
