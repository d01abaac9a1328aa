package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestTokenModeUnmarshalText(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    TokenMode
		expectError bool
	}{
		{name: "jwks", input: "jwks", expected: TokenModeJWKS},
		{name: "static", input: "static", expected: TokenModeStatic},
		{name: "uppercase is normalized", input: "JWKS", expected: TokenModeJWKS},
		{name: "unknown mode", input: "oauth", expectError: true},
		{name: "empty", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m TokenMode
			err := m.UnmarshalText([]byte(tt.input))
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for input %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, m)
			}
		})
	}
}

func TestAuthConfigValidate(t *testing.T) {
	jwks := AuthConfig{Mode: TokenModeJWKS}
	if err := jwks.Validate(); err == nil {
		t.Fatal("expected error for jwks mode without URL")
	}
	jwks.JWKSURL = "https://auth.lumenplay.net/.well-known/jwks.json"
	if err := jwks.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	static := AuthConfig{Mode: TokenModeStatic}
	if err := static.Validate(); err == nil {
		t.Fatal("expected error for static mode without secret")
	}
	static.StaticSecret = "sekrit"
	if err := static.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSanitizeClampsValues(t *testing.T) {
	cfg := AppConfig{}
	cfg.XMPP.MaxFrameBytes = -1
	cfg.XMPP.WriteTimeout = 0
	cfg.HTTP.ShutdownGrace = -time.Second

	cfg.Sanitize()

	if cfg.XMPP.Domain == "" {
		t.Fatal("expected default XMPP domain")
	}
	if cfg.XMPP.MaxFrameBytes <= 0 {
		t.Fatalf("expected positive frame cap, got %d", cfg.XMPP.MaxFrameBytes)
	}
	if cfg.XMPP.WriteTimeout <= 0 {
		t.Fatal("expected positive write timeout")
	}
	if cfg.HTTP.ShutdownGrace <= 0 {
		t.Fatal("expected positive shutdown grace")
	}
}

func TestParseDefaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse defaults: %v", err)
	}
	cfg.Sanitize()

	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected default addr: %q", cfg.HTTP.Addr)
	}
	if cfg.XMPP.Domain != "chat.lumenplay.net" {
		t.Fatalf("unexpected default domain: %q", cfg.XMPP.Domain)
	}
	if !cfg.Redis.MirrorEnabled {
		t.Fatal("expected presence mirror enabled by default")
	}
}
