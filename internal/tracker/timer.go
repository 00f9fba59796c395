package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trackline/trackline/internal/model"
)

// timerSession is the runtime timer state. start is the effective session
// start: resume rewinds it so now-start equals the true running time.
type timerSession struct {
	running       bool
	paused        bool
	activity      string
	start         time.Time
	pausedElapsed time.Duration
}

// TimerStatus is the externally visible timer snapshot.
type TimerStatus struct {
	Running       bool      `json:"isRunning"`
	Paused        bool      `json:"isPaused"`
	Activity      string    `json:"currentActivity,omitempty"`
	StartTime     time.Time `json:"startTime,omitzero"`
	ElapsedMillis int64     `json:"elapsedMillis"`
}

// StartTimer begins a new session for the given activity.
func (t *Tracker) StartTimer(activity string) error {
	activity = strings.TrimSpace(activity)
	if activity == "" {
		return fmt.Errorf("%w: activity required", model.ErrValidation)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.user.IsZero() {
		return fmt.Errorf("%w: no active session", model.ErrValidation)
	}
	if t.timer.running {
		return fmt.Errorf("%w: timer already running", model.ErrValidation)
	}
	t.timer = timerSession{running: true, activity: activity, start: t.now()}
	t.persistTimerLocked()
	return nil
}

// PauseTimer freezes the elapsed clock without ending the session.
func (t *Tracker) PauseTimer() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.timer.running || t.timer.paused {
		return fmt.Errorf("%w: no running timer to pause", model.ErrValidation)
	}
	t.timer.pausedElapsed = t.now().Sub(t.timer.start)
	t.timer.paused = true
	t.persistTimerLocked()
	return nil
}

// ResumeTimer continues a paused session. The start time is rewound by the
// frozen elapsed so paused intervals never count as tracked time.
func (t *Tracker) ResumeTimer() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.timer.running || !t.timer.paused {
		return fmt.Errorf("%w: no paused timer to resume", model.ErrValidation)
	}
	t.timer.start = t.now().Add(-t.timer.pausedElapsed)
	t.timer.paused = false
	t.timer.pausedElapsed = 0
	t.persistTimerLocked()
	return nil
}

// StopTimer ends the session and emits the resulting record through the
// local-first save path. The persisted timer snapshot is cleared so a later
// restart begins fresh.
func (t *Tracker) StopTimer(ctx context.Context) (model.Record, error) {
	t.mu.Lock()
	if !t.timer.running {
		t.mu.Unlock()
		return model.Record{}, fmt.Errorf("%w: no running timer to stop", model.ErrValidation)
	}
	now := t.now()
	var end time.Time
	var dur time.Duration
	if t.timer.paused {
		dur = t.timer.pausedElapsed
		end = t.timer.start.Add(dur)
	} else {
		end = now
		dur = end.Sub(t.timer.start)
	}
	rec := model.Record{
		UserID:    t.user.UID,
		Activity:  t.timer.activity,
		StartTime: t.timer.start,
		EndTime:   end,
		Duration:  dur.Milliseconds(),
		DateKey:   model.DateKey(end),
		CreatedAt: now,
	}
	uid := t.user.UID
	t.timer = timerSession{}
	if err := t.local.ClearTimerState(uid); err != nil {
		t.log.Error().Err(err).Msg("clear timer state failed")
	}
	t.mu.Unlock()

	return t.saveNewRecord(ctx, rec), nil
}

// TimerStatus reports the current session state; elapsed is live for a
// running timer and frozen for a paused one.
func (t *Tracker) TimerStatus() TimerStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := TimerStatus{
		Running:  t.timer.running,
		Paused:   t.timer.paused,
		Activity: t.timer.activity,
	}
	if !t.timer.running {
		return st
	}
	st.StartTime = t.timer.start
	if t.timer.paused {
		st.ElapsedMillis = t.timer.pausedElapsed.Milliseconds()
	} else {
		st.ElapsedMillis = t.now().Sub(t.timer.start).Milliseconds()
	}
	return st
}

func (t *Tracker) persistTimerLocked() {
	if t.user.IsZero() {
		return
	}
	ts := model.TimerState{
		Running:       t.timer.running,
		Paused:        t.timer.paused,
		Activity:      t.timer.activity,
		StartTime:     t.timer.start,
		PausedElapsed: t.timer.pausedElapsed.Milliseconds(),
		UserID:        t.user.UID,
	}
	if err := t.local.SaveTimerState(t.user.UID, ts); err != nil {
		t.log.Error().Err(err).Msg("persist timer state failed")
	}
}

// restoreTimerLocked adopts a persisted in-flight session, so a process
// restart resumes the same timer.
func (t *Tracker) restoreTimerLocked() {
	ts, ok := t.local.LoadTimerState(t.user.UID)
	if !ok || !ts.Running {
		t.timer = timerSession{}
		return
	}
	t.timer = timerSession{
		running:       true,
		paused:        ts.Paused,
		activity:      ts.Activity,
		start:         ts.StartTime,
		pausedElapsed: time.Duration(ts.PausedElapsed) * time.Millisecond,
	}
	t.log.Info().Str("activity", ts.Activity).Bool("paused", ts.Paused).Msg("restored in-flight timer session")
}
