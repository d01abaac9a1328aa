package config

import (
	"fmt"
	"strings"
)

// TokenMode represents how access tokens are verified.
type TokenMode string

const (
	// TokenModeJWKS verifies tokens against the platform auth service's JWKS endpoint.
	TokenModeJWKS TokenMode = "jwks"
	// TokenModeStatic verifies tokens with a shared HMAC secret (dev/test only).
	TokenModeStatic TokenMode = "static"
)

// UnmarshalText implements encoding.TextUnmarshaler for TokenMode.
func (m *TokenMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "jwks", "static":
		*m = TokenMode(v)
		return nil
	default:
		return fmt.Errorf("invalid TokenMode: %q (valid options: jwks, static)", v)
	}
}

// AuthConfig groups access-token verification configuration.
//
// The presence gateway never issues tokens; clients present tokens minted by
// the platform auth service and this config tells the verifier how to check them.
type AuthConfig struct {
	// Mode determines which verification backend to use.
	Mode TokenMode `env:"AUTH_MODE" envDefault:"jwks"`

	// JWKSURL is the JSON Web Key Set endpoint of the auth service
	// (used when Mode=jwks).
	JWKSURL string `env:"AUTH_JWKS_URL" envDefault:""`

	// StaticSecret is the shared HMAC-SHA256 secret (used when Mode=static).
	StaticSecret string `env:"AUTH_STATIC_SECRET" envDefault:""`

	// Issuer is the expected "iss" claim. Empty disables the check.
	Issuer string `env:"AUTH_ISSUER" envDefault:""`

	// Audience is the expected "aud" claim. Empty disables the check.
	Audience string `env:"AUTH_AUDIENCE" envDefault:""`
}

// Validate checks that the selected mode has the material it needs.
func (a *AuthConfig) Validate() error {
	switch a.Mode {
	case TokenModeJWKS:
		if a.JWKSURL == "" {
			return fmt.Errorf("AUTH_JWKS_URL is required when AUTH_MODE=jwks")
		}
	case TokenModeStatic:
		if a.StaticSecret == "" {
			return fmt.Errorf("AUTH_STATIC_SECRET is required when AUTH_MODE=static")
		}
	}
	return nil
}
