package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// InternalKey authorizes the internal push/presence endpoints.
	// Sibling subsystems send it as X-Internal-Key. Leave empty in dev
	// to disable the check; required for production deployments.
	InternalKey string `env:"HTTP_INTERNAL_KEY" envDefault:""`

	// ReadHeaderTimeout bounds how long the server waits for request headers.
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`

	// ShutdownGrace is how long graceful shutdown waits for in-flight
	// requests before forcing the listener closed.
	ShutdownGrace time.Duration `env:"HTTP_SHUTDOWN_GRACE" envDefault:"15s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.ReadHeaderTimeout <= 0 {
		h.ReadHeaderTimeout = 10 * time.Second
	}
	if h.ShutdownGrace <= 0 {
		h.ShutdownGrace = 15 * time.Second
	}
}
