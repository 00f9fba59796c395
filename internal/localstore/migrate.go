package localstore

import (
	"github.com/google/uuid"

	"github.com/trackline/trackline/internal/model"
)

// MigrateRecords upgrades records persisted by older shapes to the current
// one: entries lacking a dateKey get one derived from their timestamps. It
// reports whether anything changed so the caller can re-save.
func MigrateRecords(records []model.Record) ([]model.Record, bool) {
	changed := false
	for i := range records {
		if records[i].DateKey == "" && (!records[i].EndTime.IsZero() || !records[i].StartTime.IsZero()) {
			records[i].DateKey = model.RecordDateKey(records[i])
			changed = true
		}
	}
	return records, changed
}

// MigrateComments back-fills the always-present localId on comments saved
// before it existed. A pulled comment that only has a remote id reuses it as
// localId to stay addressable by one stable key.
func MigrateComments(comments []model.Comment) ([]model.Comment, bool) {
	changed := false
	for i := range comments {
		if comments[i].LocalID != "" {
			continue
		}
		if comments[i].ID != "" {
			comments[i].LocalID = comments[i].ID
		} else {
			comments[i].LocalID = "loc_" + uuid.NewString()
		}
		changed = true
	}
	return comments, changed
}
