package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/trackline/trackline/internal/api/respond"
	"github.com/trackline/trackline/internal/tracker"
)

// RecordsHandler serves the record collection views.
type RecordsHandler struct {
	tracker *tracker.Tracker
}

func NewRecordsHandler(tr *tracker.Tracker) *RecordsHandler { return &RecordsHandler{tracker: tr} }

// List GET /api/records
func (h *RecordsHandler) List(w http.ResponseWriter, _ *http.Request) {
	records := h.tracker.Records()
	respond.WriteJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

// Day GET /api/records/day/{dateKey}
func (h *RecordsHandler) Day(w http.ResponseWriter, r *http.Request) {
	dateKey := mux.Vars(r)["dateKey"]
	records, err := h.tracker.DayRecords(dateKey)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{
		"dateKey": dateKey,
		"records": records,
		"count":   len(records),
	})
}

// TodayStats GET /api/records/today/stats
func (h *RecordsHandler) TodayStats(w http.ResponseWriter, _ *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.tracker.TodayStats())
}
