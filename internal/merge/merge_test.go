package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackline/trackline/internal/model"
)

func rec(id, activity string, start time.Time, d time.Duration) model.Record {
	return model.Record{
		ID:        id,
		UserID:    "u1",
		Activity:  activity,
		StartTime: start,
		EndTime:   start.Add(d),
		Duration:  d.Milliseconds(),
		DateKey:   model.DateKey(start.Add(d)),
	}
}

func TestRecordsRemoteFillsAbsentKeys(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	local := []model.Record{rec("", "work", base, 30*time.Minute)}
	remote := []model.Record{rec("r1", "study", base.Add(time.Hour), time.Hour)}

	out := Records(local, remote)
	require.Len(t, out, 2)
	// Descending by start time.
	assert.Equal(t, "study", out[0].Activity)
	assert.Equal(t, "work", out[1].Activity)
}

func TestRecordsNoKeyLoss(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	local := []model.Record{
		rec("", "work", base, 30*time.Minute),
		rec("r1", "work", base, 30*time.Minute), // same span, synced copy
		rec("", "rest", base.Add(time.Hour), 10*time.Minute),
	}
	remote := []model.Record{
		rec("r1", "work", base, 30*time.Minute),
		rec("r2", "study", base.Add(2*time.Hour), time.Hour),
	}

	distinct := map[string]bool{}
	for _, r := range append(append([]model.Record{}, local...), remote...) {
		distinct[r.MergeKey()] = true
	}

	out := Records(local, remote)
	assert.Len(t, out, len(distinct))
}

func TestRecordsIdempotent(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	local := []model.Record{
		rec("", "work", base, 30*time.Minute),
		rec("", "rest", base.Add(time.Hour), 10*time.Minute),
	}
	remote := []model.Record{
		rec("r1", "work", base, 30*time.Minute),
		rec("r2", "study", base.Add(2*time.Hour), time.Hour),
	}

	once := Records(local, remote)
	twice := Records(local, once)
	assert.Equal(t, once, twice)
}

func TestRecordsTieBreakGreaterDuration(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	// Two un-synced copies of the same span whose stored durations drifted.
	a := rec("", "work", base, 30*time.Minute)
	b := rec("", "work", base, 30*time.Minute)
	b.Duration = a.Duration + 5000

	out := Records([]model.Record{a}, []model.Record{b})
	require.Len(t, out, 1)
	assert.Equal(t, b.Duration, out[0].Duration, "greater duration wins the tie")
}

func TestRecordsTieBreakLaterEndTimeBeatsDuration(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	shorterButNewer := model.Record{ID: "r1", Activity: "work", StartTime: base, EndTime: base.Add(45 * time.Minute), Duration: 100}
	longerButOlder := model.Record{ID: "r1", Activity: "work", StartTime: base, EndTime: base.Add(30 * time.Minute), Duration: 1800000}

	out := Records([]model.Record{shorterButNewer}, []model.Record{longerButOlder})
	require.Len(t, out, 1)
	assert.True(t, out[0].EndTime.Equal(base.Add(45*time.Minute)))
}

func TestCommentsMergeAndOrder(t *testing.T) {
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)
	local := []model.Comment{
		{LocalID: "loc_1", UserID: "u1", Content: "first", CreatedAt: at},
		{LocalID: "loc_2", UserID: "u1", Content: "second", CreatedAt: at.Add(time.Minute)},
	}
	remote := []model.Comment{
		{ID: "c9", LocalID: "c9", UserID: "u1", Content: "third", CreatedAt: at.Add(2 * time.Minute)},
	}

	out := Comments(local, remote)
	require.Len(t, out, 3)
	assert.Equal(t, "third", out[0].Content)
	assert.Equal(t, "second", out[1].Content)
	assert.Equal(t, "first", out[2].Content)
}

func TestCommentsReportedFlagSurvivesMerge(t *testing.T) {
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)
	local := []model.Comment{{ID: "c1", LocalID: "c1", UserID: "u1", Content: "x", CreatedAt: at, Reported: true}}
	remote := []model.Comment{{ID: "c1", LocalID: "c1", UserID: "u1", Content: "x", CreatedAt: at, Reported: false}}

	out := Comments(local, remote)
	require.Len(t, out, 1)
	assert.True(t, out[0].Reported)
}

func TestCommentsIdempotent(t *testing.T) {
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)
	local := []model.Comment{{LocalID: "loc_1", UserID: "u1", Content: "offline note", CreatedAt: at}}
	remote := []model.Comment{{ID: "c1", LocalID: "c1", UserID: "u1", Content: "cloud note", CreatedAt: at.Add(time.Second)}}

	once := Comments(local, remote)
	twice := Comments(local, once)
	assert.Equal(t, once, twice)
}

func TestDedupeDayCollapsesSyncedCopy(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	unsynced := rec("", "work", base, 30*time.Minute)
	synced := rec("r1", "work", base.Add(10*time.Second), 30*time.Minute) // same minute

	out := DedupeDay([]model.Record{unsynced, synced})
	require.Len(t, out, 1)
	assert.Equal(t, "r1", out[0].ID, "cloud copy preferred")
}

func TestDedupeDaySkipsRecordsWithoutTimestamps(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	out := DedupeDay([]model.Record{
		{Activity: "broken"},
		rec("", "work", base, time.Hour),
	})
	require.Len(t, out, 1)
	assert.Equal(t, "work", out[0].Activity)
}

func TestDedupeDayAscendingOrder(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	out := DedupeDay([]model.Record{
		rec("", "later", base.Add(3*time.Hour), time.Hour),
		rec("", "earlier", base, time.Hour),
	})
	require.Len(t, out, 2)
	assert.Equal(t, "earlier", out[0].Activity)
}
