package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/trackline/trackline/internal/api/respond"
	"github.com/trackline/trackline/internal/tracker"
)

const defaultCommentPageSize = 10

// CommentsHandler serves comment CRUD and moderation.
type CommentsHandler struct {
	tracker *tracker.Tracker
}

func NewCommentsHandler(tr *tracker.Tracker) *CommentsHandler { return &CommentsHandler{tracker: tr} }

// List GET /api/comments?page=&pageSize=
func (h *CommentsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize <= 0 {
		pageSize = defaultCommentPageSize
	}
	comments, totalPages := h.tracker.Comments(page, pageSize)
	respond.WriteJSON(w, http.StatusOK, map[string]any{
		"comments":   comments,
		"totalPages": totalPages,
	})
}

// Create POST /api/comments
func (h *CommentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	c, err := h.tracker.SubmitComment(r.Context(), req.Content)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, c)
}

// Update PUT /api/comments/{ref}
func (h *CommentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON")
		return
	}
	if err := h.tracker.EditComment(r.Context(), ref, req.Content); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"updated": ref})
}

// Delete DELETE /api/comments/{ref}
func (h *CommentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]
	if err := h.tracker.DeleteComment(r.Context(), ref); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"deleted": ref})
}

// Report POST /api/comments/{ref}/report
func (h *CommentsHandler) Report(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]
	if err := h.tracker.ReportComment(r.Context(), ref); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"reported": ref})
}
