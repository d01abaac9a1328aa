package presence

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/lumenplay/presenced/internal/domain/model"
	"github.com/lumenplay/presenced/internal/ports"
	"github.com/lumenplay/presenced/internal/xmpp"
)

// errStreamClosed signals ServeConn that the stream terminated and the
// read loop should stop. It is never surfaced to peers.
var errStreamClosed = errors.New("stream closed")

const mirrorTimeout = 2 * time.Second

// HubOptions groups the dependencies for NewHub.
type HubOptions struct {
	// Domain is the XMPP domain used to form JIDs.
	Domain   string
	Logger   *slog.Logger
	Verifier ports.TokenVerifier
	Accounts ports.AccountStore
	Friends  ports.FriendsStore
	// Mirror is optional; nil disables presence mirroring.
	Mirror ports.PresenceMirror
}

// Hub is the single owner of all live sessions in this process: it
// terminates connections, drives the handshake state machine and routes
// presence/message traffic. One hub is constructed per deployment shard;
// there is no other shared mutable state.
//
// Locking discipline: h.mu guards the registry and every post-auth
// session field. External I/O (token verification, account and friend
// lookups) happens before the lock is taken, so a slow handshake on one
// connection never blocks routing for established ones. Socket writes
// happen after the lock is released.
type Hub struct {
	domain   string
	logger   *slog.Logger
	verifier ports.TokenVerifier
	accounts ports.AccountStore
	friends  ports.FriendsStore
	mirror   ports.PresenceMirror

	mu  sync.RWMutex
	reg *registry
}

// NewHub creates the session hub.
func NewHub(opts HubOptions) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		domain:   opts.Domain,
		logger:   logger,
		verifier: opts.Verifier,
		accounts: opts.Accounts,
		friends:  opts.Friends,
		mirror:   opts.Mirror,
		reg:      newRegistry(),
	}
}

// ServeConn owns one connection for its lifetime: it runs the read loop,
// dispatches frames, and tears the session down (with the offline
// broadcast) when the socket closes for any reason.
func (h *Hub) ServeConn(ctx context.Context, conn Conn) {
	s := newSession(conn)

	h.mu.Lock()
	h.reg.track(s)
	h.mu.Unlock()

	h.logger.InfoContext(ctx, "stream opened", "session_id", s.ID)
	defer h.teardown(ctx, s)

	for {
		raw, err := conn.ReadFrame()
		if err != nil {
			return
		}
		if err := h.dispatch(ctx, s, raw); err != nil {
			return
		}
	}
}

// dispatch parses, classifies and handles one inbound frame. A returned
// error means the stream is finished. Unexpected internal failures are
// contained here: they close this stream with internal-server-error and
// never take the hub down with it.
func (h *Hub) dispatch(ctx context.Context, s *Session, raw string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.ErrorContext(ctx, "panic handling frame",
				"session_id", s.ID,
				"panic", rec,
				"stack", string(debug.Stack()))
			h.closeWithStreamError(s, streamInternalServerError)
			err = errStreamClosed
		}
	}()

	st, err := xmpp.Parse(raw)
	if err != nil {
		h.logger.InfoContext(ctx, "bad frame", "session_id", s.ID, "error", err)
		h.closeWithStreamError(s, streamBadFormat)
		return errStreamClosed
	}

	f, err := classify(st)
	if err != nil {
		h.closeWithStreamError(s, streamFeatureNotImplemented)
		return errStreamClosed
	}

	switch f := f.(type) {
	case closeFrame:
		h.sendClose(s)
		return errStreamClosed
	case openFrame:
		return h.handleOpen(ctx, s)
	case authFrame:
		return h.handleAuth(ctx, s, f)
	case *iqFrame:
		return h.handleIQ(ctx, s, f)
	case messageFrame:
		return h.handleMessage(ctx, s, f)
	case presenceFrame:
		return h.handlePresence(ctx, s, f)
	}
	return nil
}

// teardown releases the session: removes it from the registry, and if it
// was authenticated broadcasts unavailable presence to connected friends
// and clears the mirror record.
func (h *Hub) teardown(ctx context.Context, s *Session) {
	h.mu.Lock()
	if s.state == StateClosed {
		h.mu.Unlock()
		return
	}
	wasAuthenticated := s.state >= StateAuthenticated
	accountID := s.account.ID
	from := s.addr(h.domain)
	s.state = StateClosed
	h.reg.remove(s)

	var recipients []*Session
	if wasAuthenticated {
		recipients = h.friendAudienceLocked(accountID)
	}
	h.mu.Unlock()

	_ = s.conn.Close()

	if !wasAuthenticated {
		h.logger.InfoContext(ctx, "stream closed", "session_id", s.ID)
		return
	}

	offline := xmpp.NewStanza("presence").
		Attr("from", from.String()).
		Attr("type", "unavailable")
	for _, r := range recipients {
		h.deliver(ctx, r, offline)
	}
	h.clearMirror(ctx, accountID)
	h.logger.InfoContext(ctx, "stream closed",
		"session_id", s.ID,
		"account_id", accountID,
		"notified_friends", len(recipients))
}

// friendAudienceLocked returns every other live in-session connection
// whose friend snapshot contains the account. Callers hold h.mu.
func (h *Hub) friendAudienceLocked(accountID string) []*Session {
	var out []*Session
	for _, r := range h.reg.sessions() {
		if r.account.ID == accountID {
			continue
		}
		if r.state != StateInSession {
			continue
		}
		if r.isFriendOf(accountID) {
			out = append(out, r)
		}
	}
	return out
}

// deliver writes a stanza to a session, logging (not propagating) write
// failures: a dead receiver is cleaned up by its own read loop.
func (h *Hub) deliver(ctx context.Context, r *Session, st *xmpp.Stanza) {
	if err := r.send(st); err != nil {
		h.logger.WarnContext(ctx, "deliver failed",
			"session_id", r.ID,
			"stanza", st.Name,
			"error", err)
	}
}

func (h *Hub) sendClose(s *Session) {
	_ = s.send(xmpp.NewStanza("close").Attr("xmlns", nsFraming))
	_ = s.conn.Close()
}

// closeWithStreamError sends a stream error and a close frame, then
// drops the socket.
func (h *Hub) closeWithStreamError(s *Session, cond streamCondition) {
	errStanza := xmpp.NewStanza("stream:error").
		Attr("xmlns:stream", nsStreams).
		Child(xmpp.NewStanza(string(cond)).Attr("xmlns", nsStreams))
	_ = s.send(errStanza)
	h.sendClose(s)
}

// publishMirror writes the account's live presence snapshot, best effort.
func (h *Hub) publishMirror(ctx context.Context, accountID string, p model.PresenceStatus) {
	if h.mirror == nil {
		return
	}
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorTimeout)
	defer cancel()
	rec := model.MirrorRecord{
		AccountID: accountID,
		Online:    true,
		Away:      p.Away,
		Status:    p.Status,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.mirror.Publish(mctx, rec); err != nil {
		h.logger.WarnContext(ctx, "presence mirror publish failed", "account_id", accountID, "error", err)
	}
}

func (h *Hub) clearMirror(ctx context.Context, accountID string) {
	if h.mirror == nil {
		return
	}
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorTimeout)
	defer cancel()
	if err := h.mirror.Clear(mctx, accountID); err != nil {
		h.logger.WarnContext(ctx, "presence mirror clear failed", "account_id", accountID, "error", err)
	}
}

// ConnectedCount reports the number of tracked sessions (any state).
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.reg.all)
}

// Shutdown closes every live stream with a close frame. Read loops then
// unwind through their own teardown.
func (h *Hub) Shutdown(ctx context.Context) {
	h.mu.RLock()
	sessions := h.reg.sessions()
	h.mu.RUnlock()

	h.logger.InfoContext(ctx, "hub shutdown", "live_sessions", len(sessions))
	for _, s := range sessions {
		h.sendClose(s)
	}
}
