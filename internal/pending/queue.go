// Package pending holds writes that failed remote persistence until a sync
// pass retries them. An entry leaves the queue if and only if its remote
// write succeeds; a failed entry stays queued for the next pass, with no
// retry storm in between.
package pending

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/trackline/trackline/internal/model"
	"github.com/trackline/trackline/internal/remotestore"
)

// Queue is the in-memory pending-write list for records and comments.
// Entries are deduplicated by merge key so repeated save failures of the
// same entity queue it once.
type Queue struct {
	mu       sync.Mutex
	records  []model.Record
	comments []model.Comment
	keys     map[string]bool
	log      zerolog.Logger
}

// New constructs an empty queue.
func New(log zerolog.Logger) *Queue {
	return &Queue{keys: make(map[string]bool), log: log}
}

// AddRecord queues a record lacking a remote id. Records that already have
// one, or are already queued, are ignored.
func (q *Queue) AddRecord(rec model.Record) {
	if rec.ID != "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	key := "rec:" + rec.MergeKey()
	if q.keys[key] {
		return
	}
	q.keys[key] = true
	q.records = append(q.records, rec)
}

// AddComment queues a comment lacking a remote id.
func (q *Queue) AddComment(c model.Comment) {
	if c.ID != "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	key := "com:" + c.MergeKey()
	if q.keys[key] {
		return
	}
	q.keys[key] = true
	q.comments = append(q.comments, c)
}

// RecordCount returns the number of queued records.
func (q *Queue) RecordCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

// CommentCount returns the number of queued comments.
func (q *Queue) CommentCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.comments)
}

// Clear drops every queued entry; used when the user logs out and the
// pending writes no longer belong to the active identity.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = nil
	q.comments = nil
	q.keys = make(map[string]bool)
}

// DrainRecords attempts a remote insert for every queued record, in order.
// Successes are removed and returned with their assigned ids; failures stay
// queued and the drain moves on to the next entry.
func (q *Queue) DrainRecords(ctx context.Context, remote remotestore.API) []model.Record {
	q.mu.Lock()
	batch := q.records
	q.records = nil
	q.mu.Unlock()

	var synced []model.Record
	var kept []model.Record
	for _, rec := range batch {
		id, err := remote.InsertRecord(ctx, rec)
		if err != nil {
			q.log.Warn().Err(err).Str("activity", rec.Activity).Msg("pending record upload failed, keeping queued")
			kept = append(kept, rec)
			continue
		}
		rec.ID = id
		synced = append(synced, rec)
	}

	q.mu.Lock()
	for _, rec := range synced {
		bare := rec
		bare.ID = ""
		delete(q.keys, "rec:"+bare.MergeKey())
	}
	// Anything queued while we were draining goes behind the kept entries.
	q.records = append(kept, q.records...)
	q.mu.Unlock()
	return synced
}

// DrainComments is DrainRecords for comments.
func (q *Queue) DrainComments(ctx context.Context, remote remotestore.API) []model.Comment {
	q.mu.Lock()
	batch := q.comments
	q.comments = nil
	q.mu.Unlock()

	var synced []model.Comment
	var kept []model.Comment
	for _, c := range batch {
		id, err := remote.InsertComment(ctx, c)
		if err != nil {
			q.log.Warn().Err(err).Str("localId", c.LocalID).Msg("pending comment upload failed, keeping queued")
			kept = append(kept, c)
			continue
		}
		c.ID = id
		synced = append(synced, c)
	}

	q.mu.Lock()
	for _, c := range synced {
		bare := c
		bare.ID = ""
		delete(q.keys, "com:"+bare.MergeKey())
	}
	q.comments = append(kept, q.comments...)
	q.mu.Unlock()
	return synced
}
