package catalog

import (
	"context"
	"sync"

	"github.com/kuzowebsite/ider-surver/model"
	"github.com/pkg/errors"
)

// CopySuffix is appended to the text of a duplicated question.
const CopySuffix = " (copy)"

var (
	ErrQuestionNotFound = errors.New("catalog: question not found")
	ErrOptionNotFound   = errors.New("catalog: option not found")
	ErrLastOption       = errors.New("catalog: a question needs at least one option")
)

// Editor holds a working copy of the catalog. Changes stay local until
// Persist overwrites the stored catalog in one write.
type Editor struct {
	mu        sync.Mutex
	questions []model.Question
	source    Source
}

func NewEditor(questions []model.Question, source Source) *Editor {
	e := &Editor{}
	e.replace(questions, source)
	return e
}

func (e *Editor) replace(questions []model.Question, source Source) {
	e.questions = model.CloneQuestions(questions)
	for i := range e.questions {
		assignCustomID(&e.questions[i])
	}
	e.source = source
}

// Questions returns a copy of the working catalog.
func (e *Editor) Questions() []model.Question {
	e.mu.Lock()
	defer e.mu.Unlock()
	return model.CloneQuestions(e.questions)
}

func (e *Editor) Source() Source {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source
}

// Add appends a new question with id max+1. Options without an id get
// the next free one.
func (e *Editor) Add(q model.Question) (model.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q = q.Clone()
	q.ID = e.nextID()
	q.CustomOptionID = 0
	numberOptions(&q)
	assignCustomID(&q)
	if err := Validate(q); err != nil {
		return model.Question{}, err
	}

	e.questions = append(e.questions, q)
	return q.Clone(), nil
}

// Update replaces the question with the same id. The custom slot keeps
// its id unless the caller sets one.
func (e *Editor) Update(q model.Question) (model.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.index(q.ID)
	if i < 0 {
		return model.Question{}, ErrQuestionNotFound
	}

	q = q.Clone()
	if q.CustomOptionID == 0 {
		q.CustomOptionID = e.questions[i].CustomOptionID
	}
	numberOptions(&q)
	assignCustomID(&q)
	if err := Validate(q); err != nil {
		return model.Question{}, err
	}

	e.questions[i] = q
	return q.Clone(), nil
}

func (e *Editor) Delete(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.index(id)
	if i < 0 {
		return ErrQuestionNotFound
	}
	e.questions = append(e.questions[:i], e.questions[i+1:]...)
	return nil
}

// Duplicate appends a copy of the question under a fresh id.
func (e *Editor) Duplicate(id int) (model.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.index(id)
	if i < 0 {
		return model.Question{}, ErrQuestionNotFound
	}

	c := e.questions[i].Clone()
	c.ID = e.nextID()
	c.Text += CopySuffix
	e.questions = append(e.questions, c)
	return c.Clone(), nil
}

func (e *Editor) MoveUp(id int) error {
	return e.move(id, -1)
}

func (e *Editor) MoveDown(id int) error {
	return e.move(id, 1)
}

func (e *Editor) move(id, delta int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.index(id)
	if i < 0 {
		return ErrQuestionNotFound
	}
	j := i + delta
	if j < 0 || j >= len(e.questions) {
		return nil
	}
	e.questions[i], e.questions[j] = e.questions[j], e.questions[i]
	return nil
}

// AddOption appends an option with id max+1, stepping over the custom
// slot. Empty text is accepted here and rejected by Persist.
func (e *Editor) AddOption(questionID int, text string) (model.Option, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.index(questionID)
	if i < 0 {
		return model.Option{}, ErrQuestionNotFound
	}

	q := &e.questions[i]
	o := model.Option{ID: nextOptionID(q), Text: text}
	q.Options = append(q.Options, o)
	assignCustomID(q)
	return o, nil
}

func (e *Editor) RemoveOption(questionID, optionID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.index(questionID)
	if i < 0 {
		return ErrQuestionNotFound
	}

	q := &e.questions[i]
	for k, o := range q.Options {
		if o.ID != optionID {
			continue
		}
		if len(q.Options) == 1 {
			return ErrLastOption
		}
		q.Options = append(q.Options[:k], q.Options[k+1:]...)
		return nil
	}
	return ErrOptionNotFound
}

// Persist validates the whole working copy and overwrites the stored
// catalog with it.
func (e *Editor) Persist(ctx context.Context, w Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ValidateCatalog(e.questions); err != nil {
		return err
	}
	if err := w.SaveCatalog(ctx, model.CloneQuestions(e.questions)); err != nil {
		return errors.Wrap(err, "catalog.persist")
	}
	e.source = SourceStore
	return nil
}

// Reload discards the working copy and reads the catalog again.
func (e *Editor) Reload(ctx context.Context, r Reader) Source {
	questions, source := Load(ctx, r)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.replace(questions, source)
	return source
}

func (e *Editor) index(id int) int {
	for i, q := range e.questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

func (e *Editor) nextID() int {
	next := 0
	for _, q := range e.questions {
		if q.ID > next {
			next = q.ID
		}
	}
	return next + 1
}

func nextOptionID(q *model.Question) int {
	id := model.NextOptionID(q.Options)
	if q.AllowCustom && id == q.CustomOptionID {
		id++
	}
	return id
}

func numberOptions(q *model.Question) {
	for i := range q.Options {
		if q.Options[i].ID == 0 {
			q.Options[i].ID = nextOptionID(q)
		}
	}
}

// assignCustomID pins the custom slot of a question that allows custom
// answers, moving it only when a real option has taken its id.
func assignCustomID(q *model.Question) {
	if !q.AllowCustom {
		return
	}
	if q.CustomOptionID > 0 {
		if _, taken := q.Option(q.CustomOptionID); !taken {
			return
		}
		q.CustomOptionID = 0
	}
	q.CustomOptionID = model.NextCustomID(q.Options)
}
