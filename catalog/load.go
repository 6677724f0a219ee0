package catalog

import (
	"context"

	"github.com/kuzowebsite/ider-surver/log"
	"github.com/kuzowebsite/ider-surver/model"
	"github.com/kuzowebsite/ider-surver/store"
	"github.com/pkg/errors"
)

type Source string

const (
	SourceStore    Source = "store"
	SourceDefault  Source = "default"  // no catalog saved yet
	SourceFallback Source = "fallback" // the store could not be read
)

type Reader interface {
	LoadCatalog(ctx context.Context) ([]model.Question, error)
}

type Writer interface {
	SaveCatalog(ctx context.Context, questions []model.Question) error
}

// Load reads the catalog document, falling back to Default when it is
// missing, empty or unreadable. It never fails.
func Load(ctx context.Context, r Reader) ([]model.Question, Source) {
	questions, err := r.LoadCatalog(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return Default(), SourceDefault
	case err != nil:
		log.Warnf("catalog.load: %s, using the built-in catalog", err)
		return Default(), SourceFallback
	case len(questions) == 0:
		return Default(), SourceDefault
	}
	return questions, SourceStore
}
