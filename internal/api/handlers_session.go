package api

import (
	"encoding/json"
	"net/http"

	"github.com/trackline/trackline/internal/api/respond"
	"github.com/trackline/trackline/internal/model"
	"github.com/trackline/trackline/internal/tracker"
)

// SessionHandler manages the active identity.
type SessionHandler struct {
	tracker *tracker.Tracker
}

func NewSessionHandler(tr *tracker.Tracker) *SessionHandler { return &SessionHandler{tracker: tr} }

// Login POST /api/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UID   string `json:"uid"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	if req.UID == "" {
		respond.WriteBadRequest(w, "uid required")
		return
	}
	id := model.Identity{UID: req.UID, Email: req.Email}
	if err := h.tracker.SetUser(r.Context(), id); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, id)
}

// Guest POST /api/session/guest
func (h *SessionHandler) Guest(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.SetUser(r.Context(), model.Guest()); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, model.Guest())
}

// Logout POST /api/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.tracker.ClearUser()
	respond.WriteJSON(w, http.StatusOK, map[string]any{"loggedOut": true})
}

// Current GET /api/session
func (h *SessionHandler) Current(w http.ResponseWriter, _ *http.Request) {
	id := h.tracker.User()
	respond.WriteJSON(w, http.StatusOK, map[string]any{
		"active":   !id.IsZero(),
		"identity": id,
		"guest":    id.IsGuest(),
	})
}
