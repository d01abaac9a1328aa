package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/lumenplay/presenced/config"
	redisadapter "github.com/lumenplay/presenced/internal/adapters/redis"
	"github.com/lumenplay/presenced/internal/adapters/tokens"
	"github.com/lumenplay/presenced/internal/data"
	"github.com/lumenplay/presenced/internal/ports"
	"github.com/lumenplay/presenced/internal/presence"
)

// AppServices is the wired application graph: one hub, its adapters, and
// the token verifier that needs explicit teardown.
type AppServices struct {
	Hub      *presence.Hub
	Verifier *tokens.Verifier
	Mirror   ports.PresenceMirror
}

// BuildServices wires repositories and adapters into the hub. The redis
// client may be nil when the presence mirror is disabled.
func BuildServices(
	ctx context.Context,
	cfg *config.AppConfig,
	db *sql.DB,
	redisClient redis.UniversalClient,
	logger *slog.Logger,
) (*AppServices, error) {
	verifier, err := tokens.NewVerifier(ctx, cfg.Auth, logger)
	if err != nil {
		return nil, fmt.Errorf("build token verifier: %w", err)
	}

	var mirror ports.PresenceMirror
	if cfg.Redis.MirrorEnabled && redisClient != nil {
		mirror = redisadapter.NewPresenceMirror(redisClient, cfg.Redis.MirrorTTL)
	}

	hub := presence.NewHub(presence.HubOptions{
		Domain:   cfg.XMPP.Domain,
		Logger:   logger,
		Verifier: verifier,
		Accounts: data.NewAccountRepo(db),
		Friends:  data.NewFriendRepo(db),
		Mirror:   mirror,
	})

	return &AppServices{Hub: hub, Verifier: verifier, Mirror: mirror}, nil
}

// Close releases service resources that outlive individual requests.
func (s *AppServices) Close() {
	if s.Verifier != nil {
		s.Verifier.Close()
	}
}
