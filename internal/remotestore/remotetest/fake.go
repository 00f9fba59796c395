// Package remotetest provides an in-memory remotestore.API fake for tests.
package remotetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/trackline/trackline/internal/model"
)

// Fake is an in-memory remote store. Zero value is usable. Set FailInsert,
// FailQuery or FailAll to simulate outages; errors default to
// model.ErrDisconnected wrapped per operation.
type Fake struct {
	mu       sync.Mutex
	nextID   int
	Records  []model.Record
	Comments []model.Comment

	FailAll    bool
	FailQuery  bool
	FailInsert bool
	// FailInsertAt makes the Nth insert (1-based, counted across the Fake's
	// lifetime) fail while others succeed. Zero disables it.
	FailInsertAt int
	inserts      int

	QueryCalls  int
	InsertCalls int
	UpdateCalls int
	DeleteCalls int
}

// ResetCalls zeroes the call counters, so assertions can start counting
// after fixture setup traffic.
func (f *Fake) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.QueryCalls, f.InsertCalls, f.UpdateCalls, f.DeleteCalls = 0, 0, 0, 0
}

// SetFailAll toggles full-outage mode; safe to call while the fake is in
// use by another goroutine.
func (f *Fake) SetFailAll(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailAll = v
}

func (f *Fake) err(op string) error {
	return fmt.Errorf("%s: %w", op, model.ErrDisconnected)
}

func (f *Fake) allocID() string {
	f.nextID++
	return fmt.Sprintf("remote-%d", f.nextID)
}

func (f *Fake) insertGate(op string) error {
	f.inserts++
	if f.FailAll || f.FailInsert {
		return f.err(op)
	}
	if f.FailInsertAt != 0 && f.inserts == f.FailInsertAt {
		return f.err(op)
	}
	return nil
}

func (f *Fake) QueryRecords(_ context.Context, userID string) ([]model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.QueryCalls++
	if f.FailAll || f.FailQuery {
		return nil, f.err("query records")
	}
	var out []model.Record
	for _, r := range f.Records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *Fake) InsertRecord(_ context.Context, rec model.Record) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InsertCalls++
	if err := f.insertGate("insert record"); err != nil {
		return "", err
	}
	rec.ID = f.allocID()
	f.Records = append(f.Records, rec)
	return rec.ID, nil
}

func (f *Fake) QueryComments(_ context.Context, userID string) ([]model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.QueryCalls++
	if f.FailAll || f.FailQuery {
		return nil, f.err("query comments")
	}
	var out []model.Comment
	for _, c := range f.Comments {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *Fake) InsertComment(_ context.Context, c model.Comment) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InsertCalls++
	if err := f.insertGate("insert comment"); err != nil {
		return "", err
	}
	c.ID = f.allocID()
	c.LocalID = c.ID
	f.Comments = append(f.Comments, c)
	return c.ID, nil
}

func (f *Fake) UpdateComment(_ context.Context, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdateCalls++
	if f.FailAll {
		return f.err("update comment")
	}
	for i, c := range f.Comments {
		if c.ID != id {
			continue
		}
		if v, ok := fields["content"].(string); ok {
			c.Content = v
		}
		if v, ok := fields["reported"].(bool); ok {
			c.Reported = v
		}
		f.Comments[i] = c
		return nil
	}
	return fmt.Errorf("update comment: %w", model.ErrNotFound)
}

func (f *Fake) DeleteComment(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls++
	if f.FailAll {
		return f.err("delete comment")
	}
	for i, c := range f.Comments {
		if c.ID == id {
			f.Comments = append(f.Comments[:i], f.Comments[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete comment: %w", model.ErrNotFound)
}

func (f *Fake) Ping(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll {
		return f.err("ping")
	}
	return nil
}
