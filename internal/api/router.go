package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trackline/trackline/internal/api/recovery"
	syncsvc "github.com/trackline/trackline/internal/sync"
	"github.com/trackline/trackline/internal/tracker"
)

// NewRouter builds the HTTP surface over the tracker core and the sync
// orchestrator.
func NewRouter(tr *tracker.Tracker, orch *syncsvc.Orchestrator, remoteConfigured bool) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	healthHandler := NewHealthHandler(orch, remoteConfigured)
	sessionHandler := NewSessionHandler(tr)
	timerHandler := NewTimerHandler(tr)
	recordsHandler := NewRecordsHandler(tr)
	commentsHandler := NewCommentsHandler(tr)
	syncHandler := NewSyncHandler(orch)

	router.HandleFunc("/api/health", healthHandler.Check).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.HandleFunc("/api/session/login", sessionHandler.Login).Methods("POST")
	router.HandleFunc("/api/session/guest", sessionHandler.Guest).Methods("POST")
	router.HandleFunc("/api/session/logout", sessionHandler.Logout).Methods("POST")
	router.HandleFunc("/api/session", sessionHandler.Current).Methods("GET")

	router.HandleFunc("/api/timer/start", timerHandler.Start).Methods("POST")
	router.HandleFunc("/api/timer/pause", timerHandler.Pause).Methods("POST")
	router.HandleFunc("/api/timer/resume", timerHandler.Resume).Methods("POST")
	router.HandleFunc("/api/timer/stop", timerHandler.Stop).Methods("POST")
	router.HandleFunc("/api/timer", timerHandler.Status).Methods("GET")

	router.HandleFunc("/api/records", recordsHandler.List).Methods("GET")
	router.HandleFunc("/api/records/day/{dateKey}", recordsHandler.Day).Methods("GET")
	router.HandleFunc("/api/records/today/stats", recordsHandler.TodayStats).Methods("GET")

	router.HandleFunc("/api/comments", commentsHandler.List).Methods("GET")
	router.HandleFunc("/api/comments", commentsHandler.Create).Methods("POST")
	router.HandleFunc("/api/comments/{ref}", commentsHandler.Update).Methods("PUT")
	router.HandleFunc("/api/comments/{ref}", commentsHandler.Delete).Methods("DELETE")
	router.HandleFunc("/api/comments/{ref}/report", commentsHandler.Report).Methods("POST")

	router.HandleFunc("/api/sync", syncHandler.Trigger).Methods("POST")
	router.HandleFunc("/api/sync/status", syncHandler.Status).Methods("GET")
	router.HandleFunc("/api/client/foreground", syncHandler.Foreground).Methods("POST")

	return router
}
