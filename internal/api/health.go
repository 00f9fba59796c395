package api

import (
	"net/http"
	"time"

	"github.com/trackline/trackline/internal/api/respond"
	syncsvc "github.com/trackline/trackline/internal/sync"
)

// HealthHandler reports process liveness and sync connectivity.
type HealthHandler struct {
	orch            *syncsvc.Orchestrator
	remoteConfigured bool
}

func NewHealthHandler(orch *syncsvc.Orchestrator, remoteConfigured bool) *HealthHandler {
	return &HealthHandler{orch: orch, remoteConfigured: remoteConfigured}
}

// Check GET /api/health
func (h *HealthHandler) Check(w http.ResponseWriter, _ *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]any{
		"status":           "healthy",
		"remoteConfigured": h.remoteConfigured,
		"online":           h.orch.Online(),
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}
