package remotestore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackline/trackline/internal/model"
)

func TestQueryRecords(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/collections/timeRecords/documents", r.URL.Path)
		require.Equal(t, "u1", r.URL.Query().Get("userId"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"documents": []map[string]any{{
				"id":        "r1",
				"userId":    "u1",
				"activity":  "work",
				"startTime": start.Format(time.RFC3339),
				"endTime":   start.Add(30 * time.Minute).Format(time.RFC3339),
				"duration":  1800000,
				"dateKey":   "2026-03-14",
				"createdAt": start.Format(time.RFC3339),
			}},
		})
	}))
	defer srv.Close()

	s := New(srv.URL, "", zerolog.Nop())
	records, err := s.QueryRecords(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "r1", records[0].ID)
	assert.True(t, records[0].StartTime.Equal(start))
}

func TestInsertRecordReturnsAssignedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var doc map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		assert.Equal(t, "u1", doc["userId"])
		assert.NotContains(t, doc, "localId")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "assigned-1"})
	}))
	defer srv.Close()

	s := New(srv.URL, "", zerolog.Nop())
	start := time.Now()
	id, err := s.InsertRecord(context.Background(), model.Record{
		UserID: "u1", Activity: "work",
		StartTime: start, EndTime: start.Add(time.Hour), Duration: 3600000,
	})
	require.NoError(t, err)
	assert.Equal(t, "assigned-1", id)
}

func TestInsertRejectsGuestIdentity(t *testing.T) {
	s := New("http://unreachable.invalid", "", zerolog.Nop())

	_, err := s.InsertRecord(context.Background(), model.Record{UserID: model.GuestUID})
	assert.ErrorIs(t, err, model.ErrPermissionDenied)

	_, err = s.InsertComment(context.Background(), model.Comment{UserID: ""})
	assert.ErrorIs(t, err, model.ErrPermissionDenied)
}

func TestTransportFailureIsDisconnected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	s := New(srv.URL, "", zerolog.Nop())
	_, err := s.QueryRecords(context.Background(), "u1")
	assert.ErrorIs(t, err, model.ErrDisconnected)
}

func TestServerErrorIsDisconnected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := New(srv.URL, "", zerolog.Nop())
	err := s.Ping(context.Background())
	assert.ErrorIs(t, err, model.ErrDisconnected)
}

func TestPermissionDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := New(srv.URL, "bad-key", zerolog.Nop())
	_, err := s.QueryComments(context.Background(), "u1")
	assert.ErrorIs(t, err, model.ErrPermissionDenied)
}

func TestUpdateAndDeleteComment(t *testing.T) {
	var gotPatch, gotDelete bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			gotPatch = true
			require.Equal(t, "/v1/collections/comments/documents/c1", r.URL.Path)
			var fields map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
			assert.Equal(t, true, fields["reported"])
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			gotDelete = true
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	s := New(srv.URL, "", zerolog.Nop())
	require.NoError(t, s.UpdateComment(context.Background(), "c1", map[string]any{"reported": true}))
	require.NoError(t, s.DeleteComment(context.Background(), "c1"))
	assert.True(t, gotPatch)
	assert.True(t, gotDelete)
}

func TestQueryCommentsUsesDocIDAsLocalID(t *testing.T) {
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"documents": []map[string]any{{
				"id": "c1", "userId": "u1", "author": "a@b.c",
				"content": "hi", "createdAt": at.Format(time.RFC3339), "reported": false,
			}},
		})
	}))
	defer srv.Close()

	s := New(srv.URL, "", zerolog.Nop())
	comments, err := s.QueryComments(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "c1", comments[0].LocalID)
}
