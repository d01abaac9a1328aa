package presence

import (
	"sync"

	"github.com/google/uuid"
	"github.com/lumenplay/presenced/internal/domain/model"
	"github.com/lumenplay/presenced/internal/xmpp"
)

// State is a session's position in the stream handshake.
type State uint8

const (
	// StateOpened is the initial state: socket open, nothing proven.
	StateOpened State = iota
	// StateAuthenticated means the access token was verified and the
	// account snapshot and friend ids are loaded.
	StateAuthenticated
	// StateBound means the session has a full JID.
	StateBound
	// StateInSession means the session receives routed traffic.
	StateInSession
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpened:
		return "opened"
	case StateAuthenticated:
		return "authenticated"
	case StateBound:
		return "bound"
	case StateInSession:
		return "in-session"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Conn is the transport a session talks through. The production
// implementation wraps a websocket; tests substitute scripted fakes.
type Conn interface {
	// ReadFrame blocks for the next inbound text frame.
	ReadFrame() (string, error)
	// WriteFrame writes one outbound text frame.
	WriteFrame(frame string) error
	Close() error
}

// Session is the per-socket record owned by the hub. Before
// authentication its fields are touched only by the connection's own read
// loop; after authentication every field below the conn is guarded by the
// hub mutex, because fan-out from other connections reads them.
type Session struct {
	// ID is the stream id, random per connection.
	ID string

	conn    Conn
	writeMu sync.Mutex

	state        State
	account      model.Account
	jid          xmpp.JID // full JID, zero until bound
	friendIDs    map[string]struct{}
	lastPresence model.PresenceStatus
}

func newSession(conn Conn) *Session {
	return &Session{
		ID:    uuid.NewString(),
		conn:  conn,
		state: StateOpened,
	}
}

// send serializes one stanza to the socket. Writes from different
// goroutines (own handshake replies, fan-out from peers, external push)
// serialize on the session's write mutex, never on the hub mutex.
func (s *Session) send(st *xmpp.Stanza) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteFrame(st.String())
}

// isFriendOf reports whether other's account id is in this session's
// friend snapshot. The snapshot is loaded once at auth time and is
// read-only afterwards.
func (s *Session) isFriendOf(accountID string) bool {
	_, ok := s.friendIDs[accountID]
	return ok
}

// addr returns the session's full JID, falling back to the bare address
// when the session authenticated but never bound a resource.
func (s *Session) addr(domain string) xmpp.JID {
	if !s.jid.IsZero() {
		return s.jid
	}
	return xmpp.NewJID(s.account.ID, domain, "")
}
