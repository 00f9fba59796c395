package tracker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trackline/trackline/internal/events"
	"github.com/trackline/trackline/internal/model"
)

// SubmitComment creates a comment owned by the active identity. Local
// persistence always succeeds before the remote write is attempted; a remote
// failure queues the comment for the next sync pass.
func (t *Tracker) SubmitComment(ctx context.Context, content string) (model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Comment{}, fmt.Errorf("%w: empty comment", model.ErrValidation)
	}

	t.mu.Lock()
	if t.user.IsZero() {
		t.mu.Unlock()
		return model.Comment{}, fmt.Errorf("%w: no active session", model.ErrValidation)
	}
	author := t.user.Email
	if author == "" {
		author = t.user.UID
	}
	c := model.Comment{
		LocalID:   "loc_" + uuid.NewString(),
		UserID:    t.user.UID,
		Author:    author,
		Content:   content,
		CreatedAt: t.now(),
	}
	t.comments = append(t.comments, c)
	t.persistCommentsLocked()
	uid := t.user.UID
	useRemote := t.remoteUsableLocked()
	t.mu.Unlock()

	if useRemote {
		id, err := t.remote.InsertComment(ctx, c)
		t.mu.Lock()
		if t.user.UID == uid {
			if err != nil {
				t.log.Warn().Err(err).Str("localId", c.LocalID).Msg("remote comment write failed, queued")
				t.queue.AddComment(c)
				t.bus.Publish(events.Event{Kind: events.SyncState, Detail: "comment queued for sync"})
			} else {
				for i := range t.comments {
					if t.comments[i].LocalID == c.LocalID {
						t.comments[i].ID = id
						break
					}
				}
				c.ID = id
				t.persistCommentsLocked()
			}
		}
		t.mu.Unlock()
	}

	t.bus.Publish(events.Event{Kind: events.CommentsChanged})
	return c, nil
}

// EditComment rewrites a comment's content. Only the owner may edit; the
// guest identity owns guest comments.
func (t *Tracker) EditComment(ctx context.Context, ref, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("%w: empty comment", model.ErrValidation)
	}
	t.mu.Lock()
	i := t.findCommentLocked(ref)
	if i < 0 {
		t.mu.Unlock()
		return fmt.Errorf("%w: comment %q", model.ErrNotFound, ref)
	}
	if t.comments[i].UserID != t.user.UID {
		t.mu.Unlock()
		return fmt.Errorf("%w: comment %q", model.ErrNotOwner, ref)
	}
	t.comments[i].Content = content
	remoteID := t.comments[i].ID
	t.persistCommentsLocked()
	useRemote := t.remoteUsableLocked()
	t.mu.Unlock()

	if useRemote && remoteID != "" {
		if err := t.remote.UpdateComment(ctx, remoteID, map[string]any{"content": content}); err != nil {
			t.log.Warn().Err(err).Str("id", remoteID).Msg("remote comment update failed")
		}
	}
	t.bus.Publish(events.Event{Kind: events.CommentsChanged})
	return nil
}

// DeleteComment removes an owned comment. The remote delete is best effort;
// the local removal is what counts.
func (t *Tracker) DeleteComment(ctx context.Context, ref string) error {
	t.mu.Lock()
	i := t.findCommentLocked(ref)
	if i < 0 {
		t.mu.Unlock()
		return fmt.Errorf("%w: comment %q", model.ErrNotFound, ref)
	}
	if t.comments[i].UserID != t.user.UID {
		t.mu.Unlock()
		return fmt.Errorf("%w: comment %q", model.ErrNotOwner, ref)
	}
	remoteID := t.comments[i].ID
	t.comments = append(t.comments[:i], t.comments[i+1:]...)
	t.persistCommentsLocked()
	useRemote := t.remoteUsableLocked()
	t.mu.Unlock()

	if useRemote && remoteID != "" {
		if err := t.remote.DeleteComment(ctx, remoteID); err != nil {
			t.log.Warn().Err(err).Str("id", remoteID).Msg("remote comment delete failed")
		}
	}
	t.bus.Publish(events.Event{Kind: events.CommentsChanged})
	return nil
}

// ReportComment sets the one-way moderation flag. Any identity may report
// any comment; reporting an already-reported comment is a no-op.
func (t *Tracker) ReportComment(ctx context.Context, ref string) error {
	t.mu.Lock()
	i := t.findCommentLocked(ref)
	if i < 0 {
		t.mu.Unlock()
		return fmt.Errorf("%w: comment %q", model.ErrNotFound, ref)
	}
	if t.comments[i].Reported {
		t.mu.Unlock()
		return nil
	}
	t.comments[i].Reported = true
	remoteID := t.comments[i].ID
	t.persistCommentsLocked()
	useRemote := t.remoteUsableLocked()
	t.mu.Unlock()

	if useRemote && remoteID != "" {
		if err := t.remote.UpdateComment(ctx, remoteID, map[string]any{"reported": true}); err != nil {
			t.log.Warn().Err(err).Str("id", remoteID).Msg("remote comment report failed")
		}
	}
	t.bus.Publish(events.Event{Kind: events.CommentsChanged})
	return nil
}

// Comments returns one page of comments, newest first, plus the total page
// count. Page numbers are 1-based and clamped into range.
func (t *Tracker) Comments(page, pageSize int) ([]model.Comment, int) {
	if pageSize <= 0 {
		pageSize = 10
	}
	t.mu.Lock()
	all := make([]model.Comment, len(t.comments))
	copy(all, t.comments)
	t.mu.Unlock()

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	totalPages := (len(all) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], totalPages
}

// findCommentLocked resolves a reference that may be either a remote id or a
// local id.
func (t *Tracker) findCommentLocked(ref string) int {
	for i, c := range t.comments {
		if (c.ID != "" && c.ID == ref) || c.LocalID == ref {
			return i
		}
	}
	return -1
}
