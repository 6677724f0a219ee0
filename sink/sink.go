package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kuzowebsite/ider-surver/log"
	"github.com/kuzowebsite/ider-surver/model"
	"github.com/pkg/errors"
)

type Path string

const (
	Remote Path = "remote"
	Local  Path = "local"
)

// Ack tells which path recorded a submission and under which key.
type Ack struct {
	Path Path   `json:"path"`
	Key  string `json:"key"`
}

func (a Ack) SavedLocally() bool {
	return a.Path == Local
}

var ErrLocalBufferFull = errors.New("sink: local buffer is full")

type Appender interface {
	PushSubmission(ctx context.Context, s model.Submission) (string, error)
}

// Sink appends submissions to the store, keeping them in a process-local
// list when the store write fails. Nothing is retried or synced later.
type Sink struct {
	remote   Appender
	timeout  time.Duration
	capacity int

	mu    sync.Mutex
	local []model.Submission
	seq   int
}

// New returns a sink writing to remote. A zero timeout leaves the
// deadline to ctx; a capacity of zero or less means no limit.
func New(remote Appender, timeout time.Duration, capacity int) *Sink {
	return &Sink{
		remote:   remote,
		timeout:  timeout,
		capacity: capacity,
	}
}

// Submit records s remotely or, failing that, locally. An error means
// neither write happened.
func (s *Sink) Submit(ctx context.Context, sub model.Submission) (Ack, error) {
	key, err := s.push(ctx, sub)
	if err == nil {
		return Ack{Path: Remote, Key: key}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capacity > 0 && len(s.local) >= s.capacity {
		return Ack{}, errors.Wrapf(ErrLocalBufferFull, "after remote failure (%s)", err)
	}

	s.seq++
	sub.ID = fmt.Sprintf("local-%d", s.seq)
	s.local = append(s.local, sub)
	log.WithFields(log.Fields{
		"key":      sub.ID,
		"buffered": len(s.local),
	}).Warnf("sink.remote: %s, kept the submission locally", err)
	return Ack{Path: Local, Key: sub.ID}, nil
}

// push writes to the remote store under the sink timeout. The appender
// must honour ctx; the sink waits for its answer so a late remote write is
// never also kept locally.
func (s *Sink) push(ctx context.Context, sub model.Submission) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	key, err := s.remote.PushSubmission(ctx, sub)
	if err != nil {
		return "", errors.Wrap(err, "sink.push")
	}
	return key, nil
}

// Local returns a copy of the submissions kept locally, oldest first.
func (s *Sink) Local() []model.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Submission(nil), s.local...)
}
