package presence

import "github.com/lumenplay/presenced/internal/xmpp"

// registry indexes the live sessions of one hub. It has no lock of its
// own: every method is called with the hub mutex held, preserving the
// single-owner discipline for the socket set.
type registry struct {
	byAccount map[string]*Session // populated at auth; one live session per account
	byFull    map[string]*Session // populated at bind
	all       map[*Session]struct{}
}

func newRegistry() *registry {
	return &registry{
		byAccount: make(map[string]*Session),
		byFull:    make(map[string]*Session),
		all:       make(map[*Session]struct{}),
	}
}

func (r *registry) track(s *Session) {
	r.all[s] = struct{}{}
}

// claimAccount registers the session under its account id. It returns
// false when another live session already holds the account.
func (r *registry) claimAccount(s *Session) bool {
	if _, taken := r.byAccount[s.account.ID]; taken {
		return false
	}
	r.byAccount[s.account.ID] = s
	return true
}

// fullAddrTaken reports whether a live session already holds the full JID.
func (r *registry) fullAddrTaken(full xmpp.JID) bool {
	_, taken := r.byFull[full.String()]
	return taken
}

func (r *registry) bindFull(s *Session) {
	r.byFull[s.jid.String()] = s
}

func (r *registry) remove(s *Session) {
	delete(r.all, s)
	if s.account.ID != "" && r.byAccount[s.account.ID] == s {
		delete(r.byAccount, s.account.ID)
	}
	if !s.jid.IsZero() && r.byFull[s.jid.String()] == s {
		delete(r.byFull, s.jid.String())
	}
}

// resolve finds the session a message address refers to, trying in order:
// exact full-address match, account-id match, then base-address match.
func (r *registry) resolve(to string) *Session {
	if s, ok := r.byFull[to]; ok {
		return s
	}
	if s, ok := r.byAccount[to]; ok {
		return s
	}
	jid, err := xmpp.ParseJID(to)
	if err != nil {
		return nil
	}
	if s, ok := r.byAccount[jid.Account]; ok && s.addrMatchesBare(jid) {
		return s
	}
	return nil
}

func (s *Session) addrMatchesBare(bare xmpp.JID) bool {
	return s.account.ID == bare.Account && (s.jid.IsZero() || s.jid.Domain == bare.Domain)
}

// sessions returns a snapshot slice of every tracked session, so callers
// can finish socket writes after releasing the hub lock.
func (r *registry) sessions() []*Session {
	out := make([]*Session, 0, len(r.all))
	for s := range r.all {
		out = append(out, s)
	}
	return out
}

// byAccountID returns the live session for an account, if any.
func (r *registry) byAccountID(accountID string) (*Session, bool) {
	s, ok := r.byAccount[accountID]
	return s, ok
}
