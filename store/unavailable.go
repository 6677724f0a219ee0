package store

import (
	"context"

	"github.com/kuzowebsite/ider-surver/model"
	"github.com/pkg/errors"
)

// Unavailable is the store used when no backend is configured. Every call
// fails with ErrUnavailable.
type Unavailable struct {
	Reason string
}

func (u Unavailable) err() error {
	return errors.Wrap(ErrUnavailable, u.Reason)
}

func (u Unavailable) LoadCatalog(context.Context) ([]model.Question, error) {
	return nil, u.err()
}

func (u Unavailable) SaveCatalog(context.Context, []model.Question) error {
	return u.err()
}

func (u Unavailable) PushSubmission(context.Context, model.Submission) (string, error) {
	return "", u.err()
}

func (u Unavailable) ListSubmissions(context.Context) ([]model.Submission, error) {
	return nil, u.err()
}

func (u Unavailable) Subscribe(context.Context, SnapshotFunc, ErrorFunc) (Unsubscribe, error) {
	return nil, u.err()
}

func (u Unavailable) ConnectionTest(context.Context) error {
	return u.err()
}

func (u Unavailable) Close() error {
	return nil
}
