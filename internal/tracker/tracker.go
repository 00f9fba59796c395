// Package tracker owns the in-memory record and comment collections, the
// timer session state machine, and the local-first write path: every change
// lands in the local store immediately, remote persistence is best effort
// and falls back to the pending queue.
package tracker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/trackline/trackline/internal/events"
	"github.com/trackline/trackline/internal/integrity"
	"github.com/trackline/trackline/internal/localstore"
	"github.com/trackline/trackline/internal/merge"
	"github.com/trackline/trackline/internal/model"
	"github.com/trackline/trackline/internal/pending"
	"github.com/trackline/trackline/internal/remotestore"
)

// Tracker is the per-process collection owner. All methods are safe for
// concurrent use.
type Tracker struct {
	mu     sync.Mutex
	log    zerolog.Logger
	local  *localstore.Store
	remote remotestore.API // nil when no remote is configured
	queue  *pending.Queue
	bus    *events.Bus

	user     model.Identity
	records  []model.Record
	comments []model.Comment
	timer    timerSession

	now func() time.Time
}

// New constructs a tracker with empty collections and no active identity.
// remote may be nil; the tracker then behaves as permanently local-only.
func New(local *localstore.Store, remote remotestore.API, queue *pending.Queue, bus *events.Bus, log zerolog.Logger) *Tracker {
	return &Tracker{
		log:    log.With().Str("component", "tracker").Logger(),
		local:  local,
		remote: remote,
		queue:  queue,
		bus:    bus,
		now:    time.Now,
	}
}

// remoteUsableLocked reports whether the current identity may touch the
// remote store. Guest data never leaves the device.
func (t *Tracker) remoteUsableLocked() bool {
	return t.remote != nil && !t.user.IsZero() && !t.user.IsGuest()
}

// User returns the active identity (zero value when logged out).
func (t *Tracker) User() model.Identity {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.user
}

// SetUser switches the active identity and re-initializes collections: local
// data loads first, then a remote pull merges in when the identity and
// configuration allow it. A remote failure degrades to local-only silently.
func (t *Tracker) SetUser(ctx context.Context, id model.Identity) error {
	if id.IsZero() {
		return model.ErrValidation
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.queue.Clear()
	t.user = id
	t.records = t.local.LoadRecords(id.UID)
	t.comments = t.local.LoadComments(id.UID)
	t.repairRecordsLocked()
	t.restoreTimerLocked()

	if t.remoteUsableLocked() {
		if err := t.pullRemoteLocked(ctx); err != nil {
			t.log.Warn().Err(err).Str("uid", id.UID).Msg("remote load failed, using local data")
		}
	}

	t.bus.Publish(events.Event{Kind: events.RecordsChanged})
	t.bus.Publish(events.Event{Kind: events.CommentsChanged})
	t.log.Info().Str("uid", id.UID).Int("records", len(t.records)).Int("comments", len(t.comments)).Msg("user session initialized")
	return nil
}

// ClearUser logs out: collections flush to the local store, then in-memory
// state and the pending queue reset.
func (t *Tracker) ClearUser() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.user.IsZero() {
		return
	}
	t.persistRecordsLocked()
	t.persistCommentsLocked()
	t.queue.Clear()
	t.user = model.Identity{}
	t.records = nil
	t.comments = nil
	t.timer = timerSession{}
	t.bus.Publish(events.Event{Kind: events.RecordsChanged})
	t.bus.Publish(events.Event{Kind: events.CommentsChanged})
}

func (t *Tracker) pullRemoteLocked(ctx context.Context) error {
	remoteRecords, err := t.remote.QueryRecords(ctx, t.user.UID)
	if err != nil {
		return err
	}
	remoteComments, err := t.remote.QueryComments(ctx, t.user.UID)
	if err != nil {
		return err
	}
	t.records = merge.Records(t.records, remoteRecords)
	t.comments = merge.Comments(t.comments, remoteComments)
	t.persistRecordsLocked()
	t.persistCommentsLocked()
	return nil
}

// repairRecordsLocked runs the integrity checker over the loaded records.
// Duration drift is repaired in place; everything else is logged and kept.
func (t *Tracker) repairRecordsLocked() {
	violations := integrity.Check(t.records)
	if len(violations) == 0 {
		return
	}
	repaired := false
	for _, v := range violations {
		if v.Repaired {
			repaired = true
		}
		t.log.Warn().Int("index", v.Index).Str("rule", string(v.Rule)).Str("detail", v.Detail).Bool("repaired", v.Repaired).Msg("record integrity violation")
	}
	if repaired {
		t.persistRecordsLocked()
	}
}

func (t *Tracker) persistRecordsLocked() {
	if t.user.IsZero() {
		return
	}
	if err := t.local.SaveRecords(t.user.UID, t.records); err != nil {
		t.log.Error().Err(err).Msg("persist records failed")
	}
}

func (t *Tracker) persistCommentsLocked() {
	if t.user.IsZero() {
		return
	}
	if err := t.local.SaveComments(t.user.UID, t.comments); err != nil {
		t.log.Error().Err(err).Msg("persist comments failed")
	}
}

// FlushLocal persists both collections for the active identity.
func (t *Tracker) FlushLocal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.persistRecordsLocked()
	t.persistCommentsLocked()
}

// Records returns a copy of the record collection, newest start first.
func (t *Tracker) Records() []model.Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Record, len(t.records))
	copy(out, t.records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out
}

// DayRecords returns the deduplicated records for one calendar day.
func (t *Tracker) DayRecords(dateKey string) ([]model.Record, error) {
	if _, err := model.ParseDateKey(dateKey); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var day []model.Record
	for _, r := range t.records {
		key := r.DateKey
		if key == "" {
			key = model.RecordDateKey(r)
		}
		if key == dateKey {
			day = append(day, r)
		}
	}
	return merge.DedupeDay(day), nil
}

// DayStats is the per-activity duration rollup for one day.
type DayStats struct {
	DateKey     string           `json:"dateKey"`
	TotalMillis int64            `json:"totalMillis"`
	ByActivity  map[string]int64 `json:"byActivity"`
	Sessions    int              `json:"sessions"`
}

// TodayStats aggregates today's deduplicated records by activity.
func (t *Tracker) TodayStats() DayStats {
	key := model.DateKey(t.now())
	day, _ := t.DayRecords(key)
	stats := DayStats{DateKey: key, ByActivity: make(map[string]int64)}
	for _, r := range day {
		stats.ByActivity[r.Activity] += r.Duration
		stats.TotalMillis += r.Duration
		stats.Sessions++
	}
	return stats
}

// RecordsSnapshot returns a copy of the records in collection order, for the
// sync pass to merge against.
func (t *Tracker) RecordsSnapshot() []model.Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Record, len(t.records))
	copy(out, t.records)
	return out
}

// CommentsSnapshot returns a copy of the comment collection.
func (t *Tracker) CommentsSnapshot() []model.Comment {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Comment, len(t.comments))
	copy(out, t.comments)
	return out
}

// SetRecords replaces the record collection with a merged set, persists it
// and notifies subscribers. Used by the sync pass.
func (t *Tracker) SetRecords(records []model.Record) {
	t.mu.Lock()
	t.records = records
	t.persistRecordsLocked()
	t.mu.Unlock()
	t.bus.Publish(events.Event{Kind: events.RecordsChanged})
}

// SetComments replaces the comment collection, persists and notifies.
func (t *Tracker) SetComments(comments []model.Comment) {
	t.mu.Lock()
	t.comments = comments
	t.persistCommentsLocked()
	t.mu.Unlock()
	t.bus.Publish(events.Event{Kind: events.CommentsChanged})
}

// ApplySyncedRecords writes remote-assigned ids back into collection records
// that were uploaded by a queue drain, matched by their pre-upload merge key.
func (t *Tracker) ApplySyncedRecords(synced []model.Record) {
	if len(synced) == 0 {
		return
	}
	t.mu.Lock()
	changed := false
	for _, s := range synced {
		bare := s
		bare.ID = ""
		key := bare.MergeKey()
		for i := range t.records {
			if t.records[i].ID == "" && t.records[i].MergeKey() == key {
				t.records[i].ID = s.ID
				changed = true
				break
			}
		}
	}
	if changed {
		t.persistRecordsLocked()
	}
	t.mu.Unlock()
	if changed {
		t.bus.Publish(events.Event{Kind: events.RecordsChanged})
	}
}

// ApplySyncedComments writes remote ids back into drained comments, matched
// by local id.
func (t *Tracker) ApplySyncedComments(synced []model.Comment) {
	if len(synced) == 0 {
		return
	}
	t.mu.Lock()
	changed := false
	for _, s := range synced {
		for i := range t.comments {
			if t.comments[i].ID == "" && t.comments[i].LocalID == s.LocalID {
				t.comments[i].ID = s.ID
				changed = true
				break
			}
		}
	}
	if changed {
		t.persistCommentsLocked()
	}
	t.mu.Unlock()
	if changed {
		t.bus.Publish(events.Event{Kind: events.CommentsChanged})
	}
}

// EnqueueUnsynced queues every record and comment that still lacks a remote
// id, so a reconciliation pass re-attempts them. No-op for guest sessions.
func (t *Tracker) EnqueueUnsynced() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.remoteUsableLocked() {
		return
	}
	for _, r := range t.records {
		if r.ID == "" {
			t.queue.AddRecord(r)
		}
	}
	for _, c := range t.comments {
		if c.ID == "" {
			t.queue.AddComment(c)
		}
	}
}

// saveNewRecord appends a record, persists locally, then attempts the remote
// write. Failure queues the record; local state is already safe either way.
func (t *Tracker) saveNewRecord(ctx context.Context, rec model.Record) model.Record {
	t.mu.Lock()
	t.records = append([]model.Record{rec}, t.records...)
	t.persistRecordsLocked()
	uid := t.user.UID
	useRemote := t.remoteUsableLocked()
	t.mu.Unlock()

	if useRemote {
		id, err := t.remote.InsertRecord(ctx, rec)
		t.mu.Lock()
		if t.user.UID == uid {
			if err != nil {
				t.log.Warn().Err(err).Str("activity", rec.Activity).Msg("remote record write failed, queued")
				t.queue.AddRecord(rec)
				t.bus.Publish(events.Event{Kind: events.SyncState, Detail: "record queued for sync"})
			} else {
				key := rec.MergeKey()
				for i := range t.records {
					if t.records[i].ID == "" && t.records[i].MergeKey() == key {
						t.records[i].ID = id
						break
					}
				}
				rec.ID = id
				t.persistRecordsLocked()
			}
		}
		t.mu.Unlock()
	}

	t.bus.Publish(events.Event{Kind: events.RecordsChanged})
	return rec
}
