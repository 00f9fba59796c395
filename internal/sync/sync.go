// Package sync implements the periodic reconciliation pass between the
// local collections and the remote store: drain pending writes, pull the
// remote sets, merge, and publish when anything changed.
package sync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/trackline/trackline/internal/events"
	"github.com/trackline/trackline/internal/localstore"
	"github.com/trackline/trackline/internal/merge"
	"github.com/trackline/trackline/internal/model"
	"github.com/trackline/trackline/internal/pending"
	"github.com/trackline/trackline/internal/remotestore"
	"github.com/trackline/trackline/internal/tracker"
)

// Status is the externally visible sync state.
type Status struct {
	Online          bool      `json:"online"`
	Foreground      bool      `json:"foreground"`
	Syncing         bool      `json:"syncing"`
	LastSyncTime    time.Time `json:"lastSyncTime,omitzero"`
	PendingRecords  int       `json:"pendingRecords"`
	PendingComments int       `json:"pendingComments"`
	Detail          string    `json:"detail,omitempty"`
}

// Orchestrator coordinates sync passes. Passes are single flight: a trigger
// arriving while one is running is ignored, not queued.
type Orchestrator struct {
	log     zerolog.Logger
	local   *localstore.Store
	remote  remotestore.API // nil when no remote is configured
	queue   *pending.Queue
	tracker *tracker.Tracker
	bus     *events.Bus

	interval   time.Duration
	inFlight   atomic.Bool
	online     atomic.Bool
	foreground atomic.Bool

	mu       sync.Mutex
	lastSync time.Time
	detail   string
}

// New constructs an orchestrator. It starts online and foregrounded; the
// connectivity watcher and the client adjust both at runtime.
func New(tr *tracker.Tracker, local *localstore.Store, remote remotestore.API, queue *pending.Queue, bus *events.Bus, interval time.Duration, log zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		log:      log.With().Str("component", "sync").Logger(),
		local:    local,
		remote:   remote,
		queue:    queue,
		tracker:  tr,
		bus:      bus,
		interval: interval,
	}
	o.online.Store(true)
	o.foreground.Store(true)
	return o
}

// Sync runs one full pass: drain the pending queue, pull remote collections,
// merge against the in-memory sets, persist and publish when changed. If a
// pass is already in flight the call returns immediately.
func (o *Orchestrator) Sync(ctx context.Context) error {
	if !o.inFlight.CompareAndSwap(false, true) {
		o.log.Debug().Msg("sync already in progress, trigger ignored")
		return nil
	}
	defer o.inFlight.Store(false)

	user := o.tracker.User()
	if o.remote == nil || user.IsZero() || user.IsGuest() {
		o.setDetail("local only")
		return nil
	}

	o.setDetail("syncing")
	o.bus.Publish(events.Event{Kind: events.SyncState, Detail: "syncing"})

	syncedRecords := o.queue.DrainRecords(ctx, o.remote)
	o.tracker.ApplySyncedRecords(syncedRecords)
	syncedComments := o.queue.DrainComments(ctx, o.remote)
	o.tracker.ApplySyncedComments(syncedComments)
	pendingDrained.WithLabelValues("record").Add(float64(len(syncedRecords)))
	pendingDrained.WithLabelValues("comment").Add(float64(len(syncedComments)))
	pendingDepth.WithLabelValues("record").Set(float64(o.queue.RecordCount()))
	pendingDepth.WithLabelValues("comment").Set(float64(o.queue.CommentCount()))

	remoteRecords, err := o.remote.QueryRecords(ctx, user.UID)
	if err != nil {
		return o.fail("pull records", err)
	}
	remoteComments, err := o.remote.QueryComments(ctx, user.UID)
	if err != nil {
		return o.fail("pull comments", err)
	}

	localRecords := o.tracker.RecordsSnapshot()
	mergedRecords := merge.Records(localRecords, remoteRecords)
	if !sameRecords(localRecords, mergedRecords) {
		o.tracker.SetRecords(mergedRecords)
	}

	localComments := o.tracker.CommentsSnapshot()
	mergedComments := merge.Comments(localComments, remoteComments)
	if !sameComments(localComments, mergedComments) {
		o.tracker.SetComments(mergedComments)
	}

	o.mu.Lock()
	o.lastSync = time.Now()
	o.detail = "sync complete"
	o.mu.Unlock()
	syncPasses.WithLabelValues("success").Inc()
	o.bus.Publish(events.Event{Kind: events.SyncState, Detail: "sync complete"})
	o.log.Info().Int("records", len(mergedRecords)).Int("comments", len(mergedComments)).Msg("sync pass complete")
	return nil
}

func (o *Orchestrator) fail(stage string, err error) error {
	syncPasses.WithLabelValues("failure").Inc()
	o.setDetail("sync failed")
	o.bus.Publish(events.Event{Kind: events.SyncState, Detail: "sync failed"})
	o.log.Warn().Err(err).Str("stage", stage).Msg("sync pass failed")
	return err
}

// Reconcile queues every entity that still lacks a remote id, then runs a
// full pass. Used when connectivity returns after an offline stretch.
func (o *Orchestrator) Reconcile(ctx context.Context) error {
	o.tracker.EnqueueUnsynced()
	return o.Sync(ctx)
}

// SetOnline flips connectivity state. Going offline persists the offline
// marker and flushes collections to the local store; coming back online
// clears the marker and runs one reconciliation pass.
func (o *Orchestrator) SetOnline(online bool) {
	was := o.online.Swap(online)
	if online == was {
		return
	}
	if !online {
		if err := o.local.SetOfflineMode(); err != nil {
			o.log.Error().Err(err).Msg("persist offline marker failed")
		}
		o.tracker.FlushLocal()
		o.setDetail("offline")
		o.bus.Publish(events.Event{Kind: events.SyncState, Detail: "offline"})
		o.log.Info().Msg("entered offline mode")
		return
	}
	if err := o.local.ClearOfflineMode(); err != nil {
		o.log.Error().Err(err).Msg("clear offline marker failed")
	}
	o.bus.Publish(events.Event{Kind: events.SyncState, Detail: "online"})
	o.log.Info().Msg("connectivity restored, reconciling")
	if err := o.Reconcile(context.Background()); err != nil {
		o.log.Warn().Err(err).Msg("reconciliation after reconnect failed")
	}
}

// Online reports the current connectivity state.
func (o *Orchestrator) Online() bool { return o.online.Load() }

// SetForeground records client visibility; returning to the foreground
// while online triggers an immediate pass.
func (o *Orchestrator) SetForeground(fg bool) {
	was := o.foreground.Swap(fg)
	if fg && !was && o.online.Load() {
		if err := o.Sync(context.Background()); err != nil {
			o.log.Warn().Err(err).Msg("foreground sync failed")
		}
	}
}

// Run drives periodic passes until ctx is cancelled. Passes are skipped
// while offline or backgrounded.
func (o *Orchestrator) Run(ctx context.Context) {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !o.online.Load() || !o.foreground.Load() {
				continue
			}
			if err := o.Sync(ctx); err != nil {
				o.log.Warn().Err(err).Msg("periodic sync failed")
			}
		}
	}
}

// StatusInfo returns a snapshot of the sync state.
func (o *Orchestrator) StatusInfo() Status {
	o.mu.Lock()
	lastSync, detail := o.lastSync, o.detail
	o.mu.Unlock()
	return Status{
		Online:          o.online.Load(),
		Foreground:      o.foreground.Load(),
		Syncing:         o.inFlight.Load(),
		LastSyncTime:    lastSync,
		PendingRecords:  o.queue.RecordCount(),
		PendingComments: o.queue.CommentCount(),
		Detail:          detail,
	}
}

func (o *Orchestrator) setDetail(detail string) {
	o.mu.Lock()
	o.detail = detail
	o.mu.Unlock()
}

// sameRecords compares two record sets field-wise; time comparison uses
// Equal so wall-clock identical instants match regardless of monotonic
// clock readings.
func sameRecords(a, b []model.Record) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID ||
			a[i].Activity != b[i].Activity ||
			a[i].Duration != b[i].Duration ||
			a[i].DateKey != b[i].DateKey ||
			!a[i].StartTime.Equal(b[i].StartTime) ||
			!a[i].EndTime.Equal(b[i].EndTime) {
			return false
		}
	}
	return true
}

func sameComments(a, b []model.Comment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID ||
			a[i].LocalID != b[i].LocalID ||
			a[i].Content != b[i].Content ||
			a[i].Reported != b[i].Reported ||
			!a[i].CreatedAt.Equal(b[i].CreatedAt) {
			return false
		}
	}
	return true
}
