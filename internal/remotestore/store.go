// Package remotestore talks to the remote document store: a schemaless
// collection-of-documents API queried by field equality, with no
// transactions. Every operation can fail with a Disconnected or
// PermissionDenied condition; callers must not assume success.
package remotestore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/trackline/trackline/internal/model"
)

const (
	recordsCollection  = "timeRecords"
	commentsCollection = "comments"
)

// API is the document-store surface the rest of the core depends on. The
// tracker and sync orchestrator hold this capability, resolved once at
// startup, instead of re-resolving a client per call.
type API interface {
	QueryRecords(ctx context.Context, userID string) ([]model.Record, error)
	InsertRecord(ctx context.Context, rec model.Record) (string, error)
	QueryComments(ctx context.Context, userID string) ([]model.Comment, error)
	InsertComment(ctx context.Context, c model.Comment) (string, error)
	UpdateComment(ctx context.Context, id string, fields map[string]any) error
	DeleteComment(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Store implements API over HTTP.
type Store struct {
	rc  *resty.Client
	log zerolog.Logger
}

var _ API = (*Store)(nil)

// New constructs a Store for the given base URL. The core imposes no
// timeout of its own on document calls; a hang stalls one sync pass and the
// next periodic trigger fires independently.
func New(baseURL, apiKey string, log zerolog.Logger) *Store {
	rc := resty.New().SetBaseURL(baseURL)
	if apiKey != "" {
		rc.SetAuthToken(apiKey)
	}
	return &Store{rc: rc, log: log}
}

// Wire shapes. Timestamps travel as RFC3339; localId never leaves the
// client.

type recordDoc struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"userId"`
	Activity  string    `json:"activity"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Duration  int64     `json:"duration"`
	Date      string    `json:"date,omitempty"`
	DateKey   string    `json:"dateKey"`
	CreatedAt time.Time `json:"createdAt"`
}

type commentDoc struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"userId"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Reported  bool      `json:"reported"`
}

type documentsResponse[T any] struct {
	Documents []T `json:"documents"`
}

type insertResponse struct {
	ID string `json:"id"`
}

// QueryRecords pulls the full record set for userID.
func (s *Store) QueryRecords(ctx context.Context, userID string) ([]model.Record, error) {
	var out documentsResponse[recordDoc]
	resp, err := s.rc.R().
		SetContext(ctx).
		SetQueryParam("userId", userID).
		SetResult(&out).
		Get("/v1/collections/" + recordsCollection + "/documents")
	if err := classify("query records", resp, err); err != nil {
		return nil, err
	}

	records := make([]model.Record, 0, len(out.Documents))
	for _, d := range out.Documents {
		records = append(records, model.Record{
			ID:        d.ID,
			UserID:    d.UserID,
			Activity:  d.Activity,
			StartTime: d.StartTime,
			EndTime:   d.EndTime,
			Duration:  d.Duration,
			Date:      d.Date,
			DateKey:   d.DateKey,
			CreatedAt: d.CreatedAt,
		})
	}
	return records, nil
}

// InsertRecord writes a record document and returns the assigned id.
func (s *Store) InsertRecord(ctx context.Context, rec model.Record) (string, error) {
	if err := requireNonGuest(rec.UserID); err != nil {
		return "", err
	}
	doc := recordDoc{
		UserID:    rec.UserID,
		Activity:  rec.Activity,
		StartTime: rec.StartTime,
		EndTime:   rec.EndTime,
		Duration:  rec.Duration,
		Date:      rec.Date,
		DateKey:   rec.DateKey,
		CreatedAt: time.Now(),
	}
	var out insertResponse
	resp, err := s.rc.R().
		SetContext(ctx).
		SetBody(doc).
		SetResult(&out).
		Post("/v1/collections/" + recordsCollection + "/documents")
	if err := classify("insert record", resp, err); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("insert record: store returned no id")
	}
	return out.ID, nil
}

// QueryComments pulls the full comment set for userID.
func (s *Store) QueryComments(ctx context.Context, userID string) ([]model.Comment, error) {
	var out documentsResponse[commentDoc]
	resp, err := s.rc.R().
		SetContext(ctx).
		SetQueryParam("userId", userID).
		SetResult(&out).
		Get("/v1/collections/" + commentsCollection + "/documents")
	if err := classify("query comments", resp, err); err != nil {
		return nil, err
	}

	comments := make([]model.Comment, 0, len(out.Documents))
	for _, d := range out.Documents {
		comments = append(comments, model.Comment{
			ID: d.ID,
			// The remote never stores localId; the document id doubles as
			// the stable client address for pulled comments.
			LocalID:   d.ID,
			UserID:    d.UserID,
			Author:    d.Author,
			Content:   d.Content,
			CreatedAt: d.CreatedAt,
			Reported:  d.Reported,
		})
	}
	return comments, nil
}

// InsertComment writes a comment document and returns the assigned id.
func (s *Store) InsertComment(ctx context.Context, c model.Comment) (string, error) {
	if err := requireNonGuest(c.UserID); err != nil {
		return "", err
	}
	doc := commentDoc{
		UserID:    c.UserID,
		Author:    c.Author,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		Reported:  c.Reported,
	}
	var out insertResponse
	resp, err := s.rc.R().
		SetContext(ctx).
		SetBody(doc).
		SetResult(&out).
		Post("/v1/collections/" + commentsCollection + "/documents")
	if err := classify("insert comment", resp, err); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("insert comment: store returned no id")
	}
	return out.ID, nil
}

// UpdateComment patches a subset of fields on an existing document.
func (s *Store) UpdateComment(ctx context.Context, id string, fields map[string]any) error {
	resp, err := s.rc.R().
		SetContext(ctx).
		SetBody(fields).
		Patch("/v1/collections/" + commentsCollection + "/documents/" + id)
	return classify("update comment", resp, err)
}

// DeleteComment removes a document. Deletion is best-effort by policy:
// callers log failures and do not queue a retry.
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	resp, err := s.rc.R().
		SetContext(ctx).
		Delete("/v1/collections/" + commentsCollection + "/documents/" + id)
	return classify("delete comment", resp, err)
}

// Ping checks reachability; used by the connectivity watcher.
func (s *Store) Ping(ctx context.Context) error {
	resp, err := s.rc.R().SetContext(ctx).Get("/v1/health")
	return classify("ping", resp, err)
}

// requireNonGuest rejects writes from the guest pseudo-identity. Guest mode
// bypasses the remote store entirely by design; reaching this path is a
// programming error in the orchestration layer.
func requireNonGuest(userID string) error {
	if userID == "" || userID == model.GuestUID {
		return fmt.Errorf("%w: remote writes require an authenticated identity", model.ErrPermissionDenied)
	}
	return nil
}
