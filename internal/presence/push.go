package presence

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lumenplay/presenced/internal/xmpp"
)

// PushReport summarizes one external push: which accounts had a live
// authenticated session and which did not. There is no queue; accounts
// without a session simply miss the payload.
type PushReport struct {
	Delivered []string `json:"delivered"`
	Offline   []string `json:"offline"`
}

// SendMessageMulti delivers a JSON payload as a message stanza to every
// listed account with a live, authenticated session. This entry point is
// for trusted internal callers (party invites, pings) and intentionally
// bypasses the friend-only delivery rule.
func (h *Hub) SendMessageMulti(ctx context.Context, accountIDs []string, payload json.RawMessage) PushReport {
	body := string(payload)
	id := uuid.NewString()

	var report PushReport
	for _, accountID := range accountIDs {
		h.mu.RLock()
		r, ok := h.reg.byAccountID(accountID)
		if ok && (r.state < StateAuthenticated || r.state == StateClosed) {
			ok = false
		}
		var to string
		if ok {
			to = r.addr(h.domain).String()
		}
		h.mu.RUnlock()

		if !ok {
			report.Offline = append(report.Offline, accountID)
			continue
		}

		st := xmpp.NewStanza("message").
			Attr("from", h.domain).
			Attr("to", to).
			Attr("id", id).
			Child(xmpp.NewStanza("body").SetText(body))
		h.deliver(ctx, r, st)
		report.Delivered = append(report.Delivered, accountID)
	}

	h.logger.InfoContext(ctx, "external push",
		"targets", len(accountIDs),
		"delivered", len(report.Delivered))
	return report
}
