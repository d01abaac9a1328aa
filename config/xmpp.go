package config

import "time"

// XMPPConfig contains websocket/XMPP stream configuration.
type XMPPConfig struct {
	// Domain is the XMPP domain used to form JIDs
	// ({accountId}@{domain}/{resource}).
	Domain string `env:"XMPP_DOMAIN" envDefault:"chat.lumenplay.net"`

	// MaxFrameBytes caps a single inbound websocket text frame. Frames
	// over the cap are a protocol violation and close the stream.
	MaxFrameBytes int64 `env:"XMPP_MAX_FRAME_BYTES" envDefault:"65536"`

	// WriteTimeout bounds a single outbound frame write. A peer that
	// cannot drain its socket within this window is disconnected.
	WriteTimeout time.Duration `env:"XMPP_WRITE_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to XMPP configuration values.
func (x *XMPPConfig) Sanitize() {
	if x.Domain == "" {
		x.Domain = "chat.lumenplay.net"
	}
	if x.MaxFrameBytes <= 0 {
		x.MaxFrameBytes = 65536
	}
	if x.WriteTimeout <= 0 {
		x.WriteTimeout = 10 * time.Second
	}
}
