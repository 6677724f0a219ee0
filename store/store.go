package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/kuzowebsite/ider-surver/log"
	"github.com/kuzowebsite/ider-surver/model"
	"github.com/pkg/errors"
)

var (
	ErrNotFound    = errors.New("store: document not found")
	ErrUnavailable = errors.New("store: unavailable")
)

type SnapshotFunc func(submissions []model.Submission)
type ErrorFunc func(err error)

// Unsubscribe stops a live subscription. It is safe to call more than once.
type Unsubscribe func()

// Store is the document store behind the survey: a single catalog
// document, an append-only submission collection with store-assigned push
// keys, and a scratch document for health checks.
type Store interface {
	// LoadCatalog returns ErrNotFound when no catalog was ever saved.
	LoadCatalog(ctx context.Context) ([]model.Question, error)
	// SaveCatalog overwrites the whole catalog.
	SaveCatalog(ctx context.Context, questions []model.Question) error
	// PushSubmission appends a submission and returns its push key.
	PushSubmission(ctx context.Context, s model.Submission) (string, error)
	// ListSubmissions returns every submission ordered by timestamp ascending.
	ListSubmissions(ctx context.Context) ([]model.Submission, error)
	// Subscribe delivers the full submission list right away and again
	// after every change until the subscription is cancelled.
	Subscribe(ctx context.Context, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error)
	// ConnectionTest writes the connection_test document and reads it back.
	ConnectionTest(ctx context.Context) error
	Close() error
}

// Open picks a backend from the database URL:
//
//	redis://... or rediss://...  Redis
//	sqlite:                      tables in the service database
//	memory:                      in-process maps
//
// A missing URL or project id, or an unknown scheme, gives a store on
// which every call fails.
func Open(databaseURL, projectID string, db *sql.DB) (Store, error) {
	if databaseURL == "" || projectID == "" {
		log.Warn("store.open: database URL or project id missing, persistence disabled")
		return Unavailable{Reason: "database URL or project id missing"}, nil
	}

	switch {
	case strings.HasPrefix(databaseURL, "redis://"), strings.HasPrefix(databaseURL, "rediss://"):
		return OpenRedis(databaseURL, projectID)
	case strings.HasPrefix(databaseURL, "sqlite:"):
		if db == nil {
			return nil, errors.New("store.open: sqlite backend needs a database handle")
		}
		return NewSQLite(db), nil
	case strings.HasPrefix(databaseURL, "memory:"):
		return NewMemory(), nil
	}

	log.Warnf("store.open: unsupported database URL %q, persistence disabled", databaseURL)
	return Unavailable{Reason: "unsupported database URL"}, nil
}

// SortByTimestamp orders submissions oldest first, keeping insertion order
// for equal timestamps.
func SortByTimestamp(submissions []model.Submission) {
	sort.SliceStable(submissions, func(i, j int) bool {
		return submissions[i].Timestamp.Before(submissions[j].Timestamp)
	})
}

// NewestFirst returns a reversed copy of an oldest-first list.
func NewestFirst(submissions []model.Submission) []model.Submission {
	out := make([]model.Submission, len(submissions))
	for i, s := range submissions {
		out[len(submissions)-1-i] = s
	}
	return out
}

func encodeSubmission(s model.Submission) ([]byte, error) {
	s.ID = ""
	return json.Marshal(s)
}

func decodeSubmission(id string, doc []byte) (model.Submission, error) {
	var s model.Submission
	if err := json.Unmarshal(doc, &s); err != nil {
		return s, err
	}
	s.ID = id
	return s, nil
}

type connectionProbe struct {
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

func newProbe() connectionProbe {
	return connectionProbe{
		Timestamp: time.Now().UnixMilli(),
		Message:   "connection test",
	}
}

func checkProbe(sent connectionProbe, doc []byte) error {
	var got connectionProbe
	if err := json.Unmarshal(doc, &got); err != nil {
		return errors.Wrap(err, "store.connection_test.decode")
	}
	if got != sent {
		return errors.New("store.connection_test: read back a different document")
	}
	return nil
}
