package httpx

import (
	"log/slog"
	"net/http"

	"github.com/lumenplay/presenced/internal/ports"
)

// RouterServices holds the collaborators the HTTP router needs.
type RouterServices struct {
	// Push delivers trusted payloads to connected accounts.
	Push PushService
	// WS is the websocket upgrade handler (presence.WSHandler).
	WS http.Handler
	// Mirror answers presence lookups; nil disables the endpoint.
	Mirror ports.PresenceMirror
	// InternalKey authorizes /send and /presence. Empty disables the
	// check (dev only).
	InternalKey string
	Logger      *slog.Logger
}

// NewRouter creates and configures the HTTP router. /ws is the public
// game-client entry point; everything else except /healthz sits behind
// the internal key.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	if services.WS != nil {
		mux.Handle("GET /ws", services.WS)
	}

	internal := RequireInternalKey(services.InternalKey)

	pushHandlers := &PushHandlers{Svc: services.Push, Logger: services.Logger}
	mux.Handle("POST /send", internal(http.HandlerFunc(pushHandlers.Send)))

	presenceHandlers := &PresenceHandlers{Mirror: services.Mirror}
	mux.Handle("GET /presence/{accountId}", internal(http.HandlerFunc(presenceHandlers.Get)))

	return mux
}
