package presence

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/lumenplay/presenced/internal/data"
	"github.com/lumenplay/presenced/internal/domain/model"
	"github.com/lumenplay/presenced/internal/xmpp"
	"github.com/stretchr/testify/require"
)

const testDomain = "chat.lumenplay.net"

// fakeConn records written frames. Tests drive the state machine through
// dispatch directly, so ReadFrame is only used by lifecycle tests.
type fakeConn struct {
	mu     sync.Mutex
	out    []string
	closed bool
}

func (c *fakeConn) ReadFrame() (string, error) {
	return "", io.EOF
}

func (c *fakeConn) WriteFrame(frame string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("write on closed conn")
	}
	c.out = append(c.out, frame)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// written parses every frame written so far.
func (c *fakeConn) written(t *testing.T) []*xmpp.Stanza {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*xmpp.Stanza, 0, len(c.out))
	for _, raw := range c.out {
		st, err := xmpp.Parse(raw)
		require.NoError(t, err, "server emitted unparseable frame %q", raw)
		out = append(out, st)
	}
	return out
}

// writtenNamed returns written stanzas with the given element name.
func (c *fakeConn) writtenNamed(t *testing.T, name string) []*xmpp.Stanza {
	t.Helper()
	var out []*xmpp.Stanza
	for _, st := range c.written(t) {
		if st.Name == name {
			out = append(out, st)
		}
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = nil
}

// Hand-written port stubs, one per external collaborator.

type stubVerifier struct {
	// subjects maps raw token text to the subject account id.
	subjects map[string]string
}

func (v *stubVerifier) Verify(_ context.Context, token string) (string, error) {
	if id, ok := v.subjects[token]; ok {
		return id, nil
	}
	return "", errors.New("token rejected")
}

type stubAccounts struct {
	accounts map[string]model.Account
}

func (a *stubAccounts) FindByID(_ context.Context, accountID string) (model.Account, error) {
	if acc, ok := a.accounts[accountID]; ok {
		return acc, nil
	}
	return model.Account{}, data.ErrAccountNotFound
}

type stubFriends struct {
	mu      sync.Mutex
	friends map[string][]string
}

func (f *stubFriends) ListAcceptedFriendIDs(_ context.Context, accountID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.friends[accountID]...), nil
}

func (f *stubFriends) set(accountID string, ids []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.friends[accountID] = ids
}

type stubMirror struct {
	mu   sync.Mutex
	recs map[string]model.MirrorRecord
}

func newStubMirror() *stubMirror {
	return &stubMirror{recs: make(map[string]model.MirrorRecord)}
}

func (m *stubMirror) Publish(_ context.Context, rec model.MirrorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[rec.AccountID] = rec
	return nil
}

func (m *stubMirror) Clear(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, accountID)
	return nil
}

func (m *stubMirror) Get(_ context.Context, accountID string) (model.MirrorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[accountID]
	if !ok {
		return model.MirrorRecord{}, errors.New("not found")
	}
	return rec, nil
}

// testWorld wires a hub against stub collaborators. Accounts u1..u3 exist
// with tokens tok-u1..tok-u3; u1 and u2 are mutual friends, u3 is alone.
type testWorld struct {
	hub      *Hub
	friends  *stubFriends
	accounts *stubAccounts
	verifier *stubVerifier
	mirror   *stubMirror
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	verifier := &stubVerifier{subjects: map[string]string{
		"tok-u1": "u1",
		"tok-u2": "u2",
		"tok-u3": "u3",
	}}
	accounts := &stubAccounts{accounts: map[string]model.Account{
		"u1": {ID: "u1", DisplayName: "Player One"},
		"u2": {ID: "u2", DisplayName: "Player Two"},
		"u3": {ID: "u3", DisplayName: "Player Three"},
	}}
	friends := &stubFriends{friends: map[string][]string{
		"u1": {"u2"},
		"u2": {"u1"},
	}}
	mirror := newStubMirror()
	hub := NewHub(HubOptions{
		Domain:   testDomain,
		Logger:   slog.New(slog.DiscardHandler),
		Verifier: verifier,
		Accounts: accounts,
		Friends:  friends,
		Mirror:   mirror,
	})
	return &testWorld{hub: hub, friends: friends, accounts: accounts, verifier: verifier, mirror: mirror}
}

// openConn registers a fresh session the way ServeConn does, without
// starting a read loop, so tests can feed frames synchronously.
func (w *testWorld) openConn(t *testing.T) (*Session, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	s := newSession(conn)
	w.hub.mu.Lock()
	w.hub.reg.track(s)
	w.hub.mu.Unlock()
	return s, conn
}

func (w *testWorld) feed(t *testing.T, s *Session, frame string) error {
	t.Helper()
	return w.hub.dispatch(context.Background(), s, frame)
}

func (w *testWorld) close(t *testing.T, s *Session) {
	t.Helper()
	w.hub.teardown(context.Background(), s)
}

func saslPayload(token string) string {
	return base64.StdEncoding.EncodeToString([]byte("\x00user\x00" + token))
}

func authFrameFor(token string) string {
	return fmt.Sprintf(`<auth mechanism="PLAIN" xmlns="%s">%s</auth>`, nsSASL, saslPayload(token))
}

// connect walks a connection through the full handshake to InSession.
func (w *testWorld) connect(t *testing.T, token, resource string) (*Session, *fakeConn) {
	t.Helper()
	s, conn := w.openConn(t)

	require.NoError(t, w.feed(t, s, `<open to="`+testDomain+`" version="1.0"/>`))
	require.NoError(t, w.feed(t, s, authFrameFor(token)))
	require.NotEmpty(t, conn.writtenNamed(t, "success"), "expected SASL success")

	bind := fmt.Sprintf(`<iq id="b1" type="set"><bind xmlns="%s"><resource>%s</resource></bind></iq>`, nsBind, resource)
	require.NoError(t, w.feed(t, s, bind))
	require.NoError(t, w.feed(t, s, fmt.Sprintf(`<iq id="s1" type="set"><session xmlns="%s"/></iq>`, nsSession)))

	conn.reset()
	return s, conn
}
