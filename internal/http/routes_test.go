package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenplay/presenced/internal/domain/model"
	"github.com/lumenplay/presenced/internal/ports"
	"github.com/lumenplay/presenced/internal/presence"
)

type stubPush struct {
	gotAccounts []string
	gotPayload  json.RawMessage
	report      presence.PushReport
}

func (s *stubPush) SendMessageMulti(_ context.Context, accountIDs []string, payload json.RawMessage) presence.PushReport {
	s.gotAccounts = accountIDs
	s.gotPayload = payload
	return s.report
}

type stubMirror struct {
	recs map[string]model.MirrorRecord
}

func (m *stubMirror) Publish(_ context.Context, rec model.MirrorRecord) error {
	m.recs[rec.AccountID] = rec
	return nil
}

func (m *stubMirror) Clear(_ context.Context, accountID string) error {
	delete(m.recs, accountID)
	return nil
}

func (m *stubMirror) Get(_ context.Context, accountID string) (model.MirrorRecord, error) {
	rec, ok := m.recs[accountID]
	if !ok {
		return model.MirrorRecord{}, errors.New("not found")
	}
	return rec, nil
}

func testRouter(push PushService, mirror ports.PresenceMirror, internalKey string) http.Handler {
	return NewRouter(RouterServices{
		Push:        push,
		Mirror:      mirror,
		InternalKey: internalKey,
	})
}

func TestHealthz(t *testing.T) {
	router := testRouter(&stubPush{}, nil, "")

	for _, method := range []string{http.MethodGet, http.MethodHead} {
		req := httptest.NewRequest(method, "/healthz", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestSendRequiresInternalKey(t *testing.T) {
	router := testRouter(&stubPush{}, nil, "sekrit")

	body := `{"accountIds":["u1"],"message":{"type":"party.ping"}}`

	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body))
	req.Header.Set("X-Internal-Key", "wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body))
	req.Header.Set("X-Internal-Key", "sekrit")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSendDeliversAndReports(t *testing.T) {
	push := &stubPush{report: presence.PushReport{
		Delivered: []string{"u1"},
		Offline:   []string{"u2"},
	}}
	router := testRouter(push, nil, "")

	body := `{"accountIds":["u1","u2"],"message":{"type":"party.invite","partyId":"p-1"}}`
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"u1", "u2"}, push.gotAccounts)
	assert.JSONEq(t, `{"type":"party.invite","partyId":"p-1"}`, string(push.gotPayload))

	var report presence.PushReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, []string{"u1"}, report.Delivered)
	assert.Equal(t, []string{"u2"}, report.Offline)
}

func TestSendRejectsBadBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "nope"},
		{name: "unknown field", body: `{"accounts":["u1"],"message":{}}`},
		{name: "missing account ids", body: `{"accountIds":[],"message":{}}`},
		{name: "missing message", body: `{"accountIds":["u1"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			push := &stubPush{}
			router := testRouter(push, nil, "")

			req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, push.gotAccounts, "push must not run on a bad request")
		})
	}
}

func TestPresenceLookup(t *testing.T) {
	mirror := &stubMirror{recs: map[string]model.MirrorRecord{
		"u1": {AccountID: "u1", Online: true, Away: true, Status: `{"online":true}`},
	}}
	router := testRouter(&stubPush{}, mirror, "")

	req := httptest.NewRequest(http.MethodGet, "/presence/u1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.MirrorRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Online)
	assert.True(t, got.Away)
}

func TestPresenceLookupUnknownAccountIsOffline(t *testing.T) {
	mirror := &stubMirror{recs: map[string]model.MirrorRecord{}}
	router := testRouter(&stubPush{}, mirror, "")

	req := httptest.NewRequest(http.MethodGet, "/presence/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.MirrorRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ghost", got.AccountID)
	assert.False(t, got.Online)
}

func TestPresenceLookupWithoutMirror(t *testing.T) {
	router := testRouter(&stubPush{}, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/presence/u1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
