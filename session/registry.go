package session

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/kuzowebsite/ider-surver/log"
	"github.com/kuzowebsite/ider-surver/model"
	"github.com/pkg/errors"
)

// Registry holds the open sessions by id. A session not touched for ttl
// is dropped.
type Registry struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*entry
	now      func() time.Time
}

type entry struct {
	session *Session
	seen    time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl:      ttl,
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

func (r *Registry) Create(questions []model.Question) (string, *Session, error) {
	s, err := New(questions)
	if err != nil {
		return "", nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return "", nil, errors.Wrap(err, "session.id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id.String()] = &entry{session: s, seen: r.now()}
	return id.String(), s, nil
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	now := r.now()
	if r.expired(e, now) {
		delete(r.sessions, id)
		return nil, false
	}
	e.seen = now
	return e.session, true
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops expired sessions and returns how many were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for id, e := range r.sessions {
		if r.expired(e, now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func (r *Registry) expired(e *entry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(e.seen) > r.ttl
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	if r.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(r.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				log.Debugf("session.sweep: dropped %d idle sessions", n)
			}
		}
	}
}
