package presence

import (
	"context"

	"github.com/lumenplay/presenced/internal/domain/model"
	"github.com/lumenplay/presenced/internal/xmpp"
)

// handleMessage routes a direct chat or JSON notification. Routing misses
// and authorization failures are silent: the sender learns nothing about
// who is connected or who is a friend.
func (h *Hub) handleMessage(ctx context.Context, s *Session, f messageFrame) error {
	h.mu.RLock()
	if s.state != StateInSession {
		h.mu.RUnlock()
		h.closeWithStreamError(s, streamNotAuthorized)
		return errStreamClosed
	}
	from := s.addr(h.domain)
	h.mu.RUnlock()

	if f.typ == "chat" {
		if f.to == "" {
			return nil
		}
		if r := h.authorizedRecipient(s, f.to); r != nil {
			relay := chatStanza(from, f)
			h.deliver(ctx, r, relay)
		}
		return nil
	}

	// Non-chat messages carry JSON bodies classified by a fixed
	// allow-list. Malformed JSON is dropped; unknown types are echoed to
	// the sender only, never forwarded.
	n, ok := model.ParseNotification(f.body)
	if !ok {
		return nil
	}
	if !n.Kind.Relayable() {
		echo := messageStanza(from, from.String(), f.id, n.Raw)
		h.deliver(ctx, s, echo)
		return nil
	}
	if f.to == "" {
		return nil
	}
	if r := h.authorizedRecipient(s, f.to); r != nil {
		h.deliver(ctx, r, messageStanza(from, f.to, f.id, n.Raw))
	}
	return nil
}

// authorizedRecipient resolves the target address and applies the
// friend-only delivery rule: the recipient must be live, authenticated,
// not the sender, and in the sender's friend snapshot. Returns nil when
// delivery is not allowed, for any reason.
func (h *Hub) authorizedRecipient(s *Session, to string) *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	r := h.reg.resolve(to)
	if r == nil || r == s {
		return nil
	}
	if r.state < StateAuthenticated || r.state == StateClosed {
		return nil
	}
	if !s.isFriendOf(r.account.ID) {
		return nil
	}
	return r
}

// handlePresence caches the sender's presence and fans it out to every
// other live session whose friend snapshot contains the sender.
func (h *Hub) handlePresence(ctx context.Context, s *Session, f presenceFrame) error {
	h.mu.Lock()
	if s.state != StateInSession {
		h.mu.Unlock()
		h.closeWithStreamError(s, streamNotAuthorized)
		return errStreamClosed
	}
	s.lastPresence = model.PresenceStatus{Away: f.away, Status: f.status}
	from := s.addr(h.domain)
	accountID := s.account.ID
	status := s.lastPresence
	recipients := h.friendAudienceLocked(accountID)
	h.mu.Unlock()

	st := presenceStanza(from, status)
	for _, r := range recipients {
		h.deliver(ctx, r, st)
	}
	h.publishMirror(ctx, accountID, status)
	return nil
}

func chatStanza(from xmpp.JID, f messageFrame) *xmpp.Stanza {
	st := xmpp.NewStanza("message").
		Attr("from", from.String()).
		Attr("to", f.to).
		Attr("type", "chat").
		Child(xmpp.NewStanza("body").SetText(f.body))
	if f.id != "" {
		st.Attr("id", f.id)
	}
	return st
}

func messageStanza(from xmpp.JID, to, id, body string) *xmpp.Stanza {
	st := xmpp.NewStanza("message").
		Attr("from", from.String()).
		Attr("to", to).
		Child(xmpp.NewStanza("body").SetText(body))
	if id != "" {
		st.Attr("id", id)
	}
	return st
}
