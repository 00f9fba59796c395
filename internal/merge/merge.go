// Package merge canonicalizes record and comment sets pulled from different
// stores into a unique, time-ordered sequence. All functions are pure and
// idempotent: merge(X, merge(X, Y)) == merge(X, Y).
package merge

import (
	"sort"

	"github.com/trackline/trackline/internal/model"
)

// Records merges a local and a remote record set. Remote entities are
// inserted first and treated as authoritative, because they reflect writes
// visible to all devices. Local entities fill absent merge keys; on a key
// collision the deterministic tie-break decides: id presence, then later end
// time, then strictly greater duration. The result is sorted by start time
// descending.
func Records(local, remote []model.Record) []model.Record {
	byKey := make(map[string]model.Record, len(local)+len(remote))
	for _, r := range remote {
		key := r.MergeKey()
		if existing, ok := byKey[key]; !ok || betterRecord(r, existing) {
			byKey[key] = r
		}
	}
	for _, r := range local {
		key := r.MergeKey()
		if existing, ok := byKey[key]; !ok || betterRecord(r, existing) {
			byKey[key] = r
		}
	}

	out := make([]model.Record, 0, len(byKey))
	for _, r := range byKey {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].MergeKey() < out[j].MergeKey()
	})
	return out
}

// Comments merges comment sets with the same key scheme. The reported flag
// is a one-way transition, so it survives a merge regardless of which copy
// wins.
func Comments(local, remote []model.Comment) []model.Comment {
	byKey := make(map[string]model.Comment, len(local)+len(remote))
	insert := func(c model.Comment) {
		key := c.MergeKey()
		existing, ok := byKey[key]
		if !ok {
			byKey[key] = c
			return
		}
		reported := existing.Reported || c.Reported
		if betterComment(c, existing) {
			existing = c
		}
		existing.Reported = reported
		byKey[key] = existing
	}
	for _, c := range remote {
		insert(c)
	}
	for _, c := range local {
		insert(c)
	}

	out := make([]model.Comment, 0, len(byKey))
	for _, c := range byKey {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].MergeKey() < out[j].MergeKey()
	})
	return out
}

// DedupeDay collapses near-identical copies of the same session inside one
// day view. Unlike the merge key, the day key ignores the remote id and
// rounds timestamps to the minute, so a record persisted through both the
// local and remote save paths renders once. Output is ascending by start
// time, the order day views read naturally.
func DedupeDay(records []model.Record) []model.Record {
	byKey := make(map[string]model.Record, len(records))
	for _, r := range records {
		if r.StartTime.IsZero() || r.EndTime.IsZero() {
			continue
		}
		key := r.DayDedupKey()
		existing, ok := byKey[key]
		if !ok {
			byKey[key] = r
			continue
		}
		preferCloud := r.ID != "" && existing.ID == ""
		preferLonger := r.Duration > existing.Duration
		preferNewerEnd := r.EndTime.After(existing.EndTime)
		if preferCloud || preferLonger || preferNewerEnd {
			byKey[key] = r
		}
	}

	out := make([]model.Record, 0, len(byKey))
	for _, r := range byKey {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].DayDedupKey() < out[j].DayDedupKey()
	})
	return out
}

// betterRecord reports whether candidate should replace existing under the
// fixed tie-break order: id presence, later end time, strictly greater
// duration.
func betterRecord(candidate, existing model.Record) bool {
	if (candidate.ID != "") != (existing.ID != "") {
		return candidate.ID != ""
	}
	if !candidate.EndTime.Equal(existing.EndTime) {
		return candidate.EndTime.After(existing.EndTime)
	}
	return candidate.Duration > existing.Duration
}

func betterComment(candidate, existing model.Comment) bool {
	if (candidate.ID != "") != (existing.ID != "") {
		return candidate.ID != ""
	}
	return candidate.CreatedAt.After(existing.CreatedAt)
}
