package integrity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackline/trackline/internal/model"
)

func TestCheckRepairsDurationOutsideTolerance(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	records := []model.Record{{
		Activity:  "work",
		StartTime: start,
		EndTime:   start.Add(time.Minute),
		Duration:  100, // clearly wrong: should be 60000
	}}

	violations := Check(records)
	require.Len(t, violations, 1)
	assert.Equal(t, RuleDurationMismatch, violations[0].Rule)
	assert.True(t, violations[0].Repaired)
	assert.Equal(t, int64(60000), records[0].Duration)
}

func TestCheckToleratesSmallDurationDrift(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	records := []model.Record{{
		Activity:  "work",
		StartTime: start,
		EndTime:   start.Add(time.Minute),
		Duration:  60000 - 800, // within the 1s tolerance
	}}

	assert.Empty(t, Check(records))
	assert.Equal(t, int64(59200), records[0].Duration)
}

func TestCheckReportsMissingFieldsWithoutRepair(t *testing.T) {
	records := []model.Record{{}}
	violations := Check(records)

	rules := map[string]bool{}
	for _, v := range violations {
		rules[v.Detail] = true
		assert.False(t, v.Repaired)
	}
	assert.True(t, rules["activity"])
	assert.True(t, rules["startTime"])
	assert.True(t, rules["endTime"])
	assert.True(t, rules["duration"])
	// Record is retained untouched.
	assert.Equal(t, model.Record{}, records[0])
}

func TestCheckReportsTimeOrderViolation(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	records := []model.Record{{
		Activity:  "rest",
		StartTime: at,
		EndTime:   at.Add(-time.Minute),
		Duration:  42,
	}}

	violations := Check(records)
	require.Len(t, violations, 1)
	assert.Equal(t, RuleTimeOrder, violations[0].Rule)
	// No duration repair when the timestamps are unusable.
	assert.Equal(t, int64(42), records[0].Duration)
}

func TestCheckMultipleRecordsKeepsIndexes(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	good := model.Record{Activity: "work", StartTime: start, EndTime: start.Add(time.Hour), Duration: 3600000}
	bad := model.Record{Activity: "rest", StartTime: start, EndTime: start.Add(time.Minute), Duration: 999999}

	violations := Check([]model.Record{good, bad})
	require.Len(t, violations, 1)
	assert.Equal(t, 1, violations[0].Index)
}
