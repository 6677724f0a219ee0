package session

import (
	"context"
	"sync"
	"time"

	"github.com/kuzowebsite/ider-surver/model"
	"github.com/kuzowebsite/ider-surver/sink"
	"github.com/pkg/errors"
)

type State string

const (
	Answering  State = "answering"
	Submitting State = "submitting"
	Submitted  State = "submitted"
)

var (
	ErrEmptyCatalog       = errors.New("session: the catalog has no questions")
	ErrUnknownOption      = errors.New("session: unknown option")
	ErrNotAnswered        = errors.New("session: the current question is not answered")
	ErrNotCurrentQuestion = errors.New("session: not the current question")
	ErrWrongMode          = errors.New("session: wrong response mode for this question")
	ErrAtFirstQuestion    = errors.New("session: already at the first question")
	ErrAtLastQuestion     = errors.New("session: already at the last question")
	ErrInvalidState       = errors.New("session: not allowed in the current state")
)

// Sink records a finished submission.
type Sink interface {
	Submit(ctx context.Context, s model.Submission) (sink.Ack, error)
}

// Meta describes the respondent at submit time.
type Meta struct {
	Device    model.Device
	UserAgent string
}

// Session walks one respondent through the questions it was started with,
// one at a time. A question can only be left forward once it is answered,
// so every question before the last is answered when Submit runs.
type Session struct {
	mu sync.Mutex

	questions []model.Question
	state     State
	current   int
	answers   map[int][]int
	custom    map[int]string
	ack       *sink.Ack
}

func New(questions []model.Question) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyCatalog
	}
	s := &Session{questions: model.CloneQuestions(questions)}
	s.clear()
	return s, nil
}

func (s *Session) clear() {
	s.state = Answering
	s.current = 0
	s.answers = make(map[int][]int)
	s.custom = make(map[int]string)
	s.ack = nil
}

// question returns the current question when questionID names it.
func (s *Session) question(questionID int, mode model.ResponseMode) (model.Question, error) {
	if s.state != Answering {
		return model.Question{}, ErrInvalidState
	}
	q := s.questions[s.current]
	if q.ID != questionID {
		return model.Question{}, ErrNotCurrentQuestion
	}
	if q.Type != mode {
		return model.Question{}, ErrWrongMode
	}
	return q, nil
}

// SelectSingle replaces the selection of the current single-answer
// question.
func (s *Session) SelectSingle(questionID, optionID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.question(questionID, model.Single)
	if err != nil {
		return err
	}
	if !q.Accepts(optionID) {
		return ErrUnknownOption
	}
	s.answers[questionID] = []int{optionID}
	return nil
}

// ToggleMultiple adds or removes an option of the current multiple-answer
// question, keeping selection order.
func (s *Session) ToggleMultiple(questionID, optionID int, checked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.question(questionID, model.Multiple)
	if err != nil {
		return err
	}
	if !q.Accepts(optionID) {
		return ErrUnknownOption
	}

	selected := s.answers[questionID]
	at := -1
	for i, id := range selected {
		if id == optionID {
			at = i
			break
		}
	}
	switch {
	case checked && at < 0:
		s.answers[questionID] = append(selected, optionID)
	case !checked && at >= 0:
		s.answers[questionID] = append(selected[:at:at], selected[at+1:]...)
	}
	return nil
}

// SetCustomText stores free text for a question. It is kept even when
// the custom option is not selected, and only used if it is at submit.
func (s *Session) SetCustomText(questionID int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.custom[questionID] = text
}

func (s *Session) IsAnswered(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAnswered(i)
}

func (s *Session) isAnswered(i int) bool {
	if i < 0 || i >= len(s.questions) {
		return false
	}
	return len(s.answers[s.questions[i].ID]) > 0
}

func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Answering {
		return ErrInvalidState
	}
	if !s.isAnswered(s.current) {
		return ErrNotAnswered
	}
	if s.current >= len(s.questions)-1 {
		return ErrAtLastQuestion
	}
	s.current++
	return nil
}

// Previous goes back one question. Answers are kept.
func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Answering {
		return ErrInvalidState
	}
	if s.current == 0 {
		return ErrAtFirstQuestion
	}
	s.current--
	return nil
}

// Submit builds the submission from the answers, labelled against the
// given catalog, and hands it to the sink. It is legal on the answered
// last question only; earlier questions are not checked again. When the
// sink fails the session is back on the last question.
func (s *Session) Submit(ctx context.Context, catalog []model.Question, meta Meta, snk Sink) (model.Submission, sink.Ack, error) {
	s.mu.Lock()
	if s.state != Answering {
		s.mu.Unlock()
		return model.Submission{}, sink.Ack{}, ErrInvalidState
	}
	if s.current != len(s.questions)-1 {
		s.mu.Unlock()
		return model.Submission{}, sink.Ack{}, ErrNotCurrentQuestion
	}
	if !s.isAnswered(s.current) {
		s.mu.Unlock()
		return model.Submission{}, sink.Ack{}, ErrNotAnswered
	}

	sub := model.Submission{
		Answers:   Expand(catalog, s.answers, s.custom),
		Timestamp: time.Now().UTC(),
		Device:    meta.Device,
		UserAgent: meta.UserAgent,
	}
	s.state = Submitting
	s.mu.Unlock()

	ack, err := snk.Submit(ctx, sub)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Answering
		return model.Submission{}, sink.Ack{}, err
	}
	s.state = Submitted
	s.ack = &ack
	sub.ID = ack.Key
	return sub, ack, nil
}

// Reset starts over after a submission.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Submitted {
		return ErrInvalidState
	}
	s.clear()
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
