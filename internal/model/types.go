package model

import (
	"fmt"
	"strings"
	"time"
)

// GuestUID is the reserved pseudo-user id for unauthenticated sessions.
// Guest data never leaves the local store.
const GuestUID = "guest"

// Identity is the signal supplied by the identity provider. The core treats
// it as an opaque capability: it namespaces local storage and authorizes
// remote writes, nothing more.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
}

// Guest returns the sentinel guest identity.
func Guest() Identity { return Identity{UID: GuestUID} }

// IsGuest reports whether the identity is the guest pseudo-user.
func (id Identity) IsGuest() bool { return id.UID == GuestUID }

// IsZero reports whether no identity is set (logged out).
func (id Identity) IsZero() bool { return id.UID == "" }

// Record is a completed timed activity session. Records are immutable after
// creation except for the remote ID assignment and duration repair.
type Record struct {
	// ID is the remote-assigned document id; empty until the remote write
	// succeeds.
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"userId"`
	Activity  string    `json:"activity"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	// Duration is milliseconds of tracked time; endTime-startTime within a
	// one second tolerance.
	Duration int64 `json:"duration"`
	// Date is the legacy locale date string older persisted shapes carried.
	// Kept so pre-migration blobs round-trip; DateKey is authoritative.
	Date string `json:"date,omitempty"`
	// DateKey is a timezone-local YYYY-MM-DD key derived from EndTime
	// (StartTime when EndTime is absent), used for calendar-day lookups.
	DateKey   string    `json:"dateKey"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Comment is a user-authored note, independent of timing data.
type Comment struct {
	// ID is the remote document id; empty until the remote write succeeds.
	ID string `json:"id,omitempty"`
	// LocalID is a client-generated identifier, always present and stable
	// across local/remote round-trips. It addresses a comment before it has
	// a remote ID.
	LocalID   string    `json:"localId"`
	UserID    string    `json:"userId"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	// Reported is a one-way moderation flag (false -> true only).
	Reported bool `json:"reported"`
}

// TimerState is the persisted snapshot of an in-flight session, so an
// accidental reload resumes the same timer. Cleared on stop.
type TimerState struct {
	Running  bool   `json:"isRunning"`
	Paused   bool   `json:"isPaused"`
	Activity string `json:"currentActivity"`
	// StartTime is the effective session start; on resume it is recomputed
	// so that now-StartTime equals the true elapsed running time.
	StartTime time.Time `json:"startTime"`
	// PausedElapsed is the elapsed running time in milliseconds captured at
	// the moment of pause.
	PausedElapsed int64  `json:"pausedTime"`
	UserID        string `json:"userId"`
}

// MergeKey is the canonical identity used to deduplicate a record across
// local and remote copies: the remote id when present, otherwise a composite
// of activity and second-rounded start/end times. A record that exists both
// with and without an id keeps two keys; day views collapse those via
// DayDedupKey.
func (r Record) MergeKey() string {
	if r.ID != "" {
		return "id:" + r.ID
	}
	return fmt.Sprintf("%s|%d|%d",
		r.Activity,
		r.StartTime.Truncate(time.Second).UnixMilli(),
		r.EndTime.Truncate(time.Second).UnixMilli())
}

// DayDedupKey identifies a record within a single day view: activity plus
// minute-rounded start/end, ignoring the remote id so near-identical copies
// collapse.
func (r Record) DayDedupKey() string {
	return fmt.Sprintf("%s|%d|%d",
		r.Activity,
		r.StartTime.Truncate(time.Minute).UnixMilli(),
		r.EndTime.Truncate(time.Minute).UnixMilli())
}

// MergeKey returns the canonical comment identity: the remote id when
// present, otherwise a composite derived from owner, content and creation
// time. LocalID is deliberately not part of the key; it differs between the
// pre-sync copy and the pulled copy of the same comment.
func (c Comment) MergeKey() string {
	if c.ID != "" {
		return "id:" + c.ID
	}
	return fmt.Sprintf("%s|%s|%d",
		c.UserID,
		strings.TrimSpace(c.Content),
		c.CreatedAt.Truncate(time.Second).UnixMilli())
}

// DateKey formats t as a timezone-local YYYY-MM-DD calendar-day key.
func DateKey(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

// RecordDateKey derives the calendar-day key for a record from its end time,
// falling back to the start time when the end is missing.
func RecordDateKey(r Record) string {
	if !r.EndTime.IsZero() {
		return DateKey(r.EndTime)
	}
	return DateKey(r.StartTime)
}

// ParseDateKey parses a YYYY-MM-DD key back into a local-midnight time.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date key %q", ErrValidation, key)
	}
	return t, nil
}
