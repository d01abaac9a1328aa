package presence

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lumenplay/presenced/internal/data"
	"github.com/lumenplay/presenced/internal/domain/model"
	"github.com/lumenplay/presenced/internal/xmpp"
)

// handleOpen acknowledges a stream open and advertises features. The
// features differ by auth state so a client reopening the stream on the
// same socket after authentication is offered bind/session instead of
// SASL mechanisms.
func (h *Hub) handleOpen(ctx context.Context, s *Session) error {
	h.mu.RLock()
	authenticated := s.state >= StateAuthenticated
	h.mu.RUnlock()

	ack := xmpp.NewStanza("open").
		Attr("xmlns", nsFraming).
		Attr("from", h.domain).
		Attr("id", s.ID).
		Attr("version", "1.0")
	if err := s.send(ack); err != nil {
		return errStreamClosed
	}

	features := xmpp.NewStanza("stream:features").Attr("xmlns:stream", nsStreams)
	if authenticated {
		features.
			Child(xmpp.NewStanza("bind").Attr("xmlns", nsBind)).
			Child(xmpp.NewStanza("session").Attr("xmlns", nsSession))
	} else {
		features.Child(
			xmpp.NewStanza("mechanisms").Attr("xmlns", nsSASL).
				Child(xmpp.NewStanza("mechanism").SetText("PLAIN")))
	}
	if err := s.send(features); err != nil {
		return errStreamClosed
	}
	return nil
}

// handleAuth runs the one-shot SASL PLAIN exchange: decode credentials,
// verify the access token, load the account and friend snapshot, and
// claim the account in the registry. Every failure sends a specific SASL
// condition and closes the stream.
func (h *Hub) handleAuth(ctx context.Context, s *Session, f authFrame) error {
	h.mu.RLock()
	state := s.state
	h.mu.RUnlock()
	if state != StateOpened {
		// Re-authentication on the same socket is not supported.
		h.closeWithStreamError(s, streamNotAuthorized)
		return errStreamClosed
	}

	if !strings.EqualFold(f.mechanism, "PLAIN") {
		return h.failAuth(ctx, s, condMalformedRequest, fmt.Errorf("unsupported mechanism %q", f.mechanism))
	}

	token, err := decodePlainToken(f.payload)
	if err != nil {
		var cond saslCondition = condMalformedRequest
		if errors.Is(err, errBadEncoding) {
			cond = condIncorrectEncoding
		}
		return h.failAuth(ctx, s, cond, err)
	}

	// External I/O happens without the hub lock held.
	accountID, err := h.verifier.Verify(ctx, token)
	if err != nil {
		return h.failAuth(ctx, s, condNotAuthorized, fmt.Errorf("verify token: %w", err))
	}

	account, err := h.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, data.ErrAccountNotFound) {
			return h.failAuth(ctx, s, condNotAuthorized, fmt.Errorf("account %s: %w", accountID, err))
		}
		h.logger.ErrorContext(ctx, "account lookup failed", "account_id", accountID, "error", err)
		h.closeWithStreamError(s, streamInternalServerError)
		return errStreamClosed
	}
	if account.Banned {
		return h.failAuth(ctx, s, condAccountDisabled, fmt.Errorf("account %s is banned", accountID))
	}

	friendIDs, err := h.friends.ListAcceptedFriendIDs(ctx, accountID)
	if err != nil {
		h.logger.ErrorContext(ctx, "friend snapshot load failed", "account_id", accountID, "error", err)
		h.closeWithStreamError(s, streamInternalServerError)
		return errStreamClosed
	}

	snapshot := make(map[string]struct{}, len(friendIDs))
	for _, id := range friendIDs {
		snapshot[id] = struct{}{}
	}

	h.mu.Lock()
	if s.state != StateOpened {
		h.mu.Unlock()
		h.closeWithStreamError(s, streamNotAuthorized)
		return errStreamClosed
	}
	s.account = account
	if !h.reg.claimAccount(s) {
		s.account = model.Account{}
		h.mu.Unlock()
		return h.failAuth(ctx, s, condResourceConstraint,
			fmt.Errorf("account %s already has a live session", accountID))
	}
	s.friendIDs = snapshot
	s.state = StateAuthenticated
	h.mu.Unlock()

	h.logger.InfoContext(ctx, "session authenticated",
		"session_id", s.ID,
		"account_id", accountID,
		"friends", len(snapshot))
	if err := s.send(xmpp.NewStanza("success").Attr("xmlns", nsSASL)); err != nil {
		return errStreamClosed
	}
	return nil
}

var errBadEncoding = errors.New("payload is not valid base64")

// decodePlainToken unpacks a SASL PLAIN payload: base64 of
// authzid NUL authcid NUL password, where the password field carries the
// platform access token.
func decodePlainToken(payload string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", errBadEncoding
	}
	parts := strings.Split(string(raw), "\x00")
	if len(parts) != 3 {
		return "", fmt.Errorf("expected 3 NUL-separated fields, got %d", len(parts))
	}
	if parts[2] == "" {
		return "", errors.New("empty token field")
	}
	return parts[2], nil
}

// failAuth reports a SASL failure with its condition and closes the
// stream. Authentication is strictly one-shot per connection.
func (h *Hub) failAuth(ctx context.Context, s *Session, cond saslCondition, cause error) error {
	h.logger.InfoContext(ctx, "authentication failed",
		"session_id", s.ID,
		"condition", string(cond),
		"error", cause)
	failure := xmpp.NewStanza("failure").
		Attr("xmlns", nsSASL).
		Child(xmpp.NewStanza(string(cond)))
	_ = s.send(failure)
	h.sendClose(s)
	return errStreamClosed
}

// handleIQ drives resource binding and session establishment, and
// answers generic queries once a session exists. An IQ arriving before
// its prerequisite state closes the stream.
func (h *Hub) handleIQ(ctx context.Context, s *Session, f *iqFrame) error {
	switch {
	case f.bind != nil:
		return h.handleBind(ctx, s, f)
	case f.session:
		return h.handleSession(ctx, s, f)
	default:
		return h.handleGenericIQ(ctx, s, f)
	}
}

func (h *Hub) handleBind(ctx context.Context, s *Session, f *iqFrame) error {
	resource := strings.TrimSpace(f.bind.resource)
	if resource == "" {
		resource = uuid.NewString()
	}

	h.mu.Lock()
	if s.state != StateAuthenticated {
		h.mu.Unlock()
		h.closeWithStreamError(s, streamNotAuthorized)
		return errStreamClosed
	}
	full := xmpp.NewJID(s.account.ID, h.domain, resource)
	// Collisions are keyed by full address, not resource name alone: the
	// same suggested resource under different accounts binds as-is.
	for h.reg.fullAddrTaken(full) {
		full.Resource = resource + "-" + uuid.NewString()[:8]
	}
	s.jid = full
	h.reg.bindFull(s)
	s.state = StateBound
	h.mu.Unlock()

	h.logger.InfoContext(ctx, "resource bound",
		"session_id", s.ID,
		"account_id", s.account.ID,
		"jid", full.String())

	reply := xmpp.NewStanza("iq").
		Attr("id", f.id).
		Attr("type", "result").
		Child(xmpp.NewStanza("bind").Attr("xmlns", nsBind).
			Child(xmpp.NewStanza("jid").SetText(full.String())))
	if err := s.send(reply); err != nil {
		return errStreamClosed
	}
	return nil
}

// handleSession acknowledges session establishment and replays current
// presence from every connected friend so the client starts with a
// roster-presence snapshot.
func (h *Hub) handleSession(ctx context.Context, s *Session, f *iqFrame) error {
	h.mu.Lock()
	if s.state != StateBound {
		h.mu.Unlock()
		h.closeWithStreamError(s, streamNotAuthorized)
		return errStreamClosed
	}
	s.state = StateInSession

	type friendPresence struct {
		from xmpp.JID
		p    model.PresenceStatus
	}
	var replay []friendPresence
	for friendID := range s.friendIDs {
		r, ok := h.reg.byAccountID(friendID)
		if !ok || r.state != StateInSession {
			continue
		}
		replay = append(replay, friendPresence{from: r.addr(h.domain), p: r.lastPresence})
	}
	accountID := s.account.ID
	h.mu.Unlock()

	reply := xmpp.NewStanza("iq").Attr("id", f.id).Attr("type", "result")
	if err := s.send(reply); err != nil {
		return errStreamClosed
	}

	for _, fp := range replay {
		h.deliver(ctx, s, presenceStanza(fp.from, fp.p))
	}
	h.publishMirror(ctx, accountID, model.PresenceStatus{})

	h.logger.InfoContext(ctx, "session established",
		"session_id", s.ID,
		"account_id", accountID,
		"replayed_presence", len(replay))
	return nil
}

// handleGenericIQ answers in-session get/set queries the gateway has no
// special handling for with an empty result.
func (h *Hub) handleGenericIQ(ctx context.Context, s *Session, f *iqFrame) error {
	h.mu.RLock()
	inSession := s.state == StateInSession
	h.mu.RUnlock()
	if !inSession {
		h.closeWithStreamError(s, streamNotAuthorized)
		return errStreamClosed
	}
	if err := s.send(xmpp.NewStanza("iq").Attr("id", f.id).Attr("type", "result")); err != nil {
		return errStreamClosed
	}
	return nil
}

// presenceStanza builds an available-presence frame carrying the cached
// away flag and opaque status text.
func presenceStanza(from xmpp.JID, p model.PresenceStatus) *xmpp.Stanza {
	st := xmpp.NewStanza("presence").
		Attr("from", from.String()).
		Attr("type", "available")
	if p.Away {
		st.Child(xmpp.NewStanza("show").SetText("away"))
	}
	st.Child(xmpp.NewStanza("status").SetText(p.Status))
	return st
}
