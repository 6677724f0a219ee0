package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kuzowebsite/ider-surver/model"
)

// Memory keeps everything in process. Documents are stored encoded so
// callers never share memory with the store.
type Memory struct {
	notifier

	mu       sync.RWMutex
	catalog  []byte
	surveys  []memoryDoc
	seq      int
	connTest []byte
	err      error
}

type memoryDoc struct {
	id  string
	doc []byte
}

func NewMemory() *Memory {
	return &Memory{}
}

// SetError makes every following call fail with err, or succeed again
// when err is nil.
func (m *Memory) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Memory) LoadCatalog(ctx context.Context) ([]model.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.catalog == nil {
		return nil, ErrNotFound
	}

	var questions []model.Question
	err := json.Unmarshal(m.catalog, &questions)
	return questions, err
}

func (m *Memory) SaveCatalog(ctx context.Context, questions []model.Question) error {
	doc, err := json.Marshal(questions)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.catalog = doc
	return nil
}

func (m *Memory) PushSubmission(ctx context.Context, s model.Submission) (string, error) {
	doc, err := encodeSubmission(s)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return "", m.err
	}
	m.seq++
	id := fmt.Sprintf("mem-%08d", m.seq)
	m.surveys = append(m.surveys, memoryDoc{id, doc})
	m.mu.Unlock()

	m.notify()
	return id, nil
}

func (m *Memory) ListSubmissions(ctx context.Context) ([]model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}

	submissions := make([]model.Submission, 0, len(m.surveys))
	for _, d := range m.surveys {
		s, err := decodeSubmission(d.id, d.doc)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}
	SortByTimestamp(submissions)
	return submissions, nil
}

func (m *Memory) Subscribe(ctx context.Context, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error) {
	m.mu.RLock()
	err := m.err
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return m.watch(ctx, m.ListSubmissions, onSnapshot, onError), nil
}

func (m *Memory) ConnectionTest(ctx context.Context) error {
	sent := newProbe()
	doc, err := json.Marshal(sent)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.connTest = doc
	return checkProbe(sent, m.connTest)
}

func (m *Memory) Close() error {
	return nil
}
