package tokens

// Package tokens verifies platform access tokens presented during SASL.
// The gateway never mints tokens; it only checks signatures and claims
// against the platform auth service's key material.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/lumenplay/presenced/config"
)

// ErrTokenInvalid is returned for any token that fails verification:
// bad signature, expired, wrong issuer/audience, or missing subject.
var ErrTokenInvalid = errors.New("token invalid")

// Verifier validates JWT access tokens and extracts the subject account id.
// It implements ports.TokenVerifier.
type Verifier struct {
	keyFunc jwt.Keyfunc
	opts    []jwt.ParserOption
	jwks    *keyfunc.JWKS
}

// NewVerifier builds a verifier from configuration. In jwks mode it
// fetches the key set immediately and refreshes it in the background
// until Close is called; in static mode a shared HMAC secret is used.
func NewVerifier(ctx context.Context, cfg config.AuthConfig, logger *slog.Logger) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("auth config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	v := &Verifier{
		opts: []jwt.ParserOption{jwt.WithExpirationRequired()},
	}
	if cfg.Issuer != "" {
		v.opts = append(v.opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		v.opts = append(v.opts, jwt.WithAudience(cfg.Audience))
	}

	switch cfg.Mode {
	case config.TokenModeJWKS:
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			Ctx:             ctx,
			RefreshInterval: time.Hour,
			RefreshErrorHandler: func(err error) {
				logger.Error("jwks refresh failed", "error", err)
			},
		})
		if err != nil {
			return nil, fmt.Errorf("fetch jwks from %s: %w", cfg.JWKSURL, err)
		}
		v.jwks = jwks
		v.keyFunc = jwks.Keyfunc
		v.opts = append(v.opts, jwt.WithValidMethods([]string{"RS256", "ES256", "PS256"}))
	case config.TokenModeStatic:
		secret := []byte(cfg.StaticSecret)
		v.keyFunc = func(*jwt.Token) (any, error) { return secret, nil }
		v.opts = append(v.opts, jwt.WithValidMethods([]string{"HS256"}))
	default:
		return nil, fmt.Errorf("unsupported token mode %q", cfg.Mode)
	}

	return v, nil
}

// Verify checks the raw token and returns its subject account id.
func (v *Verifier) Verify(_ context.Context, raw string) (string, error) {
	token, err := jwt.Parse(raw, v.keyFunc, v.opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("%w: read subject: %w", ErrTokenInvalid, err)
	}
	if subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrTokenInvalid)
	}
	return subject, nil
}

// Close stops the background JWKS refresh, if one is running.
func (v *Verifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
