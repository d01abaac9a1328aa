package httpx

import (
	"errors"
	"net/http"

	"github.com/lumenplay/presenced/internal/domain/model"
	"github.com/lumenplay/presenced/internal/ports"
)

// PresenceHandlers serves mirror lookups for sibling subsystems that
// want liveness without holding a socket.
type PresenceHandlers struct {
	Mirror ports.PresenceMirror
}

// Get handles GET /presence/{accountId}. An account with no mirror
// record is reported offline rather than as an error; the mirror is
// best-effort and records age out on their own.
func (h *PresenceHandlers) Get(w http.ResponseWriter, r *http.Request) {
	if h.Mirror == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "mirror_disabled",
			Err:     errors.New("presence mirror is disabled"),
		})
		return
	}

	accountID := r.PathValue("accountId")
	rec, err := h.Mirror.Get(r.Context(), accountID)
	if err != nil {
		WriteJSON(w, http.StatusOK, model.MirrorRecord{AccountID: accountID, Online: false})
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}
