package api

import (
	"encoding/json"
	"net/http"

	"github.com/trackline/trackline/internal/api/respond"
	syncsvc "github.com/trackline/trackline/internal/sync"
)

// SyncHandler exposes manual sync triggers and status.
type SyncHandler struct {
	orch *syncsvc.Orchestrator
}

func NewSyncHandler(orch *syncsvc.Orchestrator) *SyncHandler { return &SyncHandler{orch: orch} }

// Trigger POST /api/sync
// A pass failure is reported in the status payload, not as an HTTP error:
// sync is best effort and local data stays authoritative.
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	_ = h.orch.Sync(r.Context())
	respond.WriteJSON(w, http.StatusOK, h.orch.StatusInfo())
}

// Status GET /api/sync/status
func (h *SyncHandler) Status(w http.ResponseWriter, _ *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.orch.StatusInfo())
}

// Foreground POST /api/client/foreground
func (h *SyncHandler) Foreground(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Foreground bool `json:"foreground"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	h.orch.SetForeground(req.Foreground)
	respond.WriteJSON(w, http.StatusOK, h.orch.StatusInfo())
}
