package api

import (
	"encoding/json"
	"net/http"

	"github.com/trackline/trackline/internal/api/respond"
	"github.com/trackline/trackline/internal/tracker"
)

// TimerHandler exposes the timer state machine.
type TimerHandler struct {
	tracker *tracker.Tracker
}

func NewTimerHandler(tr *tracker.Tracker) *TimerHandler { return &TimerHandler{tracker: tr} }

// Start POST /api/timer/start
func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Activity string `json:"activity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	if err := h.tracker.StartTimer(req.Activity); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, h.tracker.TimerStatus())
}

// Pause POST /api/timer/pause
func (h *TimerHandler) Pause(w http.ResponseWriter, _ *http.Request) {
	if err := h.tracker.PauseTimer(); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, h.tracker.TimerStatus())
}

// Resume POST /api/timer/resume
func (h *TimerHandler) Resume(w http.ResponseWriter, _ *http.Request) {
	if err := h.tracker.ResumeTimer(); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, h.tracker.TimerStatus())
}

// Stop POST /api/timer/stop
func (h *TimerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	rec, err := h.tracker.StopTimer(r.Context())
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, rec)
}

// Status GET /api/timer
func (h *TimerHandler) Status(w http.ResponseWriter, _ *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.tracker.TimerStatus())
}
