package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lumenplay/presenced/internal/presence"
)

// PushService delivers a payload to a set of connected accounts. The hub
// implements it.
type PushService interface {
	SendMessageMulti(ctx context.Context, accountIDs []string, payload json.RawMessage) presence.PushReport
}

// PushHandlers serves the trusted push endpoint used by sibling
// subsystems (party invites, pings). Callers are inside the platform
// perimeter; the friend-only rule does not apply here.
type PushHandlers struct {
	Svc    PushService
	Logger *slog.Logger
}

type sendRequest struct {
	AccountIDs []string        `json:"accountIds"`
	Message    json.RawMessage `json:"message"`
}

// Send handles POST /send.
func (h *PushHandlers) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if len(req.AccountIDs) == 0 {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_request",
			Err:     errors.New("accountIds is required"),
		})
		return
	}
	if len(req.Message) == 0 || !json.Valid(req.Message) {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_request",
			Err:     errors.New("message must be a JSON value"),
		})
		return
	}

	report := h.Svc.SendMessageMulti(r.Context(), req.AccountIDs, req.Message)
	WriteJSON(w, http.StatusOK, report)
}
