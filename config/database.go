package config

import "time"

// DBConfig contains PostgreSQL database configuration.
//
// The gateway only reads from the platform database (accounts and accepted
// friendships); all session state is in-memory.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"lumenplay"`
	Password string `env:"PASSWORD" envDefault:"lumenplay"`
	Name     string `env:"NAME"     envDefault:"lumenplay"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
}

// RedisConfig contains Redis configuration for the presence mirror.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`

	// MirrorEnabled toggles publishing presence snapshots to Redis.
	// Routing never depends on the mirror; it exists so sibling
	// subsystems can answer "is this account online" cheaply.
	MirrorEnabled bool `env:"MIRROR_ENABLED" envDefault:"true"`

	// MirrorTTL is the expiry on each mirrored presence record. It acts
	// as a dead-man switch if the gateway dies without cleaning up.
	MirrorTTL time.Duration `env:"MIRROR_TTL" envDefault:"12h"`
}
