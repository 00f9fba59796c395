// Package localstore is the per-user synchronous persistence layer: a
// string-keyed blob store over SQLite. Absence of a key is a valid empty
// state; a malformed blob is discarded with a log line, never an error the
// caller has to handle. Loads self-heal older persisted shapes (missing
// dateKey or localId) and immediately re-save the corrected set.
package localstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/trackline/trackline/internal/model"
)

// Blob key layout. Per-user keys fall back to the unscoped form when no user
// id is available (guest before login on a fresh install).
const (
	recordsKeyPrefix  = "timeTrackerRecords"
	commentsKeyPrefix = "timeTrackerComments"
	timerKeyPrefix    = "timerState"

	offlineModeKey = "app_offline_mode"
	offlineTimeKey = "last_offline_time"
)

// Store is the synchronous local blob store. Safe for use from the single
// event-handling flow; it holds no in-process cache, every call hits SQLite.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (or creates) the store at path.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func scopedKey(prefix, uid string) string {
	if uid == "" {
		return prefix
	}
	return prefix + "_" + uid
}

func (s *Store) get(key string) ([]byte, bool) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("local store read failed")
		return nil, false
	}
	return value, true
}

func (s *Store) put(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO blobs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (s *Store) delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM blobs WHERE key = ?`, key)
	return err
}

// LoadRecords returns the records persisted for uid. Missing and malformed
// blobs both yield an empty set. Entries lacking a dateKey are back-filled
// and the corrected set is re-saved before returning.
func (s *Store) LoadRecords(uid string) []model.Record {
	key := scopedKey(recordsKeyPrefix, uid)
	raw, ok := s.get(key)
	if !ok {
		return nil
	}

	var records []model.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("malformed records blob, starting empty")
		return nil
	}

	records, changed := MigrateRecords(records)
	if changed {
		if err := s.SaveRecords(uid, records); err != nil {
			s.log.Error().Err(err).Str("key", key).Msg("re-save after migration failed")
		}
	}
	return records
}

// SaveRecords persists the full record set for uid.
func (s *Store) SaveRecords(uid string, records []model.Record) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.put(scopedKey(recordsKeyPrefix, uid), raw)
}

// LoadComments returns the comments persisted for uid, back-filling missing
// localIds the way LoadRecords back-fills dateKeys.
func (s *Store) LoadComments(uid string) []model.Comment {
	key := scopedKey(commentsKeyPrefix, uid)
	raw, ok := s.get(key)
	if !ok {
		return nil
	}

	var comments []model.Comment
	if err := json.Unmarshal(raw, &comments); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("malformed comments blob, starting empty")
		return nil
	}

	comments, changed := MigrateComments(comments)
	if changed {
		if err := s.SaveComments(uid, comments); err != nil {
			s.log.Error().Err(err).Str("key", key).Msg("re-save after migration failed")
		}
	}
	return comments
}

// SaveComments persists the full comment set for uid.
func (s *Store) SaveComments(uid string, comments []model.Comment) error {
	raw, err := json.Marshal(comments)
	if err != nil {
		return err
	}
	return s.put(scopedKey(commentsKeyPrefix, uid), raw)
}

// LoadTimerState returns the persisted in-flight timer snapshot for uid, or
// false when there is none (or it belongs to a different user).
func (s *Store) LoadTimerState(uid string) (model.TimerState, bool) {
	raw, ok := s.get(scopedKey(timerKeyPrefix, uid))
	if !ok {
		return model.TimerState{}, false
	}
	var ts model.TimerState
	if err := json.Unmarshal(raw, &ts); err != nil {
		s.log.Error().Err(err).Str("uid", uid).Msg("malformed timer state, discarding")
		return model.TimerState{}, false
	}
	if ts.UserID != uid {
		return model.TimerState{}, false
	}
	return ts, true
}

// SaveTimerState persists the in-flight timer snapshot for uid.
func (s *Store) SaveTimerState(uid string, ts model.TimerState) error {
	raw, err := json.Marshal(ts)
	if err != nil {
		return err
	}
	return s.put(scopedKey(timerKeyPrefix, uid), raw)
}

// ClearTimerState removes the persisted timer snapshot, done on stop.
func (s *Store) ClearTimerState(uid string) error {
	return s.delete(scopedKey(timerKeyPrefix, uid))
}

// SetOfflineMode persists the offline marker so a reload mid-offline-period
// is still recognized.
func (s *Store) SetOfflineMode() error {
	if err := s.put(offlineModeKey, []byte("true")); err != nil {
		return err
	}
	return s.put(offlineTimeKey, []byte(time.Now().Format(time.RFC3339)))
}

// WasOffline reports whether the app went offline and has not reconciled
// since.
func (s *Store) WasOffline() bool {
	raw, ok := s.get(offlineModeKey)
	return ok && string(raw) == "true"
}

// ClearOfflineMode removes the offline marker after a successful
// reconciliation pass.
func (s *Store) ClearOfflineMode() error {
	if err := s.delete(offlineModeKey); err != nil {
		return err
	}
	return s.delete(offlineTimeKey)
}
