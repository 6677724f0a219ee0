package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/kuzowebsite/ider-surver/model"
	"github.com/pkg/errors"
)

// Fixed width, so that text ordering in SQL is chronological.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite stores documents in the service database. The tables are created
// by the database package migrations.
type SQLite struct {
	notifier
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) LoadCatalog(ctx context.Context) ([]model.Question, error) {
	var doc []byte
	err := s.db.
		QueryRowContext(ctx, "SELECT document FROM catalog WHERE id = 1").
		Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "store.sqlite.load_catalog")
	}

	var questions []model.Question
	if err := json.Unmarshal(doc, &questions); err != nil {
		return nil, errors.Wrap(err, "store.sqlite.load_catalog.decode")
	}
	return questions, nil
}

func (s *SQLite) SaveCatalog(ctx context.Context, questions []model.Question) error {
	doc, err := json.Marshal(questions)
	if err != nil {
		return errors.Wrap(err, "store.sqlite.save_catalog.encode")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO catalog (id, document, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at`,
		string(doc),
		time.Now().UTC().Format(timestampLayout),
	)
	return errors.Wrap(err, "store.sqlite.save_catalog")
}

func (s *SQLite) PushSubmission(ctx context.Context, sub model.Submission) (string, error) {
	doc, err := encodeSubmission(sub)
	if err != nil {
		return "", errors.Wrap(err, "store.sqlite.push.encode")
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO survey (timestamp, document) VALUES (?, ?)
		RETURNING id`,
		sub.Timestamp.UTC().Format(timestampLayout),
		string(doc),
	).Scan(&id)
	if err != nil {
		return "", errors.Wrap(err, "store.sqlite.push")
	}

	s.notify()
	return strconv.FormatInt(id, 10), nil
}

func (s *SQLite) ListSubmissions(ctx context.Context) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document
		FROM survey
		ORDER BY timestamp, id`)
	if err != nil {
		return nil, errors.Wrap(err, "store.sqlite.list")
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		var id int64
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, errors.Wrap(err, "store.sqlite.list.scan")
		}

		sub, err := decodeSubmission(strconv.FormatInt(id, 10), doc)
		if err != nil {
			return nil, errors.Wrap(err, "store.sqlite.list.decode")
		}
		submissions = append(submissions, sub)
	}
	return submissions, errors.Wrap(rows.Err(), "store.sqlite.list.rows")
}

func (s *SQLite) Subscribe(ctx context.Context, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error) {
	return s.watch(ctx, s.ListSubmissions, onSnapshot, onError), nil
}

func (s *SQLite) ConnectionTest(ctx context.Context) error {
	sent := newProbe()
	doc, err := json.Marshal(sent)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO connection_test (id, document) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET document = excluded.document`,
		string(doc),
	)
	if err != nil {
		return errors.Wrap(err, "store.sqlite.connection_test.write")
	}

	var back []byte
	err = s.db.
		QueryRowContext(ctx, "SELECT document FROM connection_test WHERE id = 1").
		Scan(&back)
	if err != nil {
		return errors.Wrap(err, "store.sqlite.connection_test.read")
	}
	return checkProbe(sent, back)
}

// Close is a no-op: the database handle belongs to the caller.
func (s *SQLite) Close() error {
	return nil
}
