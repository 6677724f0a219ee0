package model

import (
	"bytes"
	"encoding/json"
	"time"
)

type ResponseMode string

const (
	Single   ResponseMode = "single"
	Multiple ResponseMode = "multiple"
)

const (
	DefaultCustomLabel = "Other"

	// Viewports narrower than this are reported as mobile.
	MobileBreakpoint = 768
)

type Option struct {
	ID   int    `json:"id" validate:"gt=0"`
	Text string `json:"text" validate:"required"`
}

type Question struct {
	ID          int          `json:"id" validate:"gt=0"`
	Text        string       `json:"text" validate:"required"`
	Type        ResponseMode `json:"type" validate:"oneof=single multiple"`
	Options     []Option     `json:"options" validate:"required,min=1,unique=ID,dive"`
	AllowCustom bool         `json:"allowCustom"`

	// CustomOptionID is the stable id of the free-text slot. Zero means
	// "not assigned yet", see CustomID.
	CustomOptionID int    `json:"customOptionId,omitempty"`
	CustomLabel    string `json:"customLabel,omitempty"`
}

// NextCustomID returns the id a freshly created question gives its custom
// slot: one past the highest option id, and never below len(options)+1.
func NextCustomID(options []Option) int {
	next := len(options)
	for _, o := range options {
		if o.ID > next {
			next = o.ID
		}
	}
	return next + 1
}

// NextOptionID returns max(option ids, 0) + 1.
func NextOptionID(options []Option) int {
	next := 0
	for _, o := range options {
		if o.ID > next {
			next = o.ID
		}
	}
	return next + 1
}

func (q Question) CustomID() int {
	if q.CustomOptionID > 0 {
		return q.CustomOptionID
	}
	return NextCustomID(q.Options)
}

func (q Question) IsCustom(optionID int) bool {
	return q.AllowCustom && optionID == q.CustomID()
}

func (q Question) Option(id int) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Accepts reports whether optionID can be selected for this question.
func (q Question) Accepts(optionID int) bool {
	if q.IsCustom(optionID) {
		return true
	}
	_, ok := q.Option(optionID)
	return ok
}

// Label returns the display text of an option, or the custom label for the
// custom slot. Unknown ids give an empty string.
func (q Question) Label(optionID int) string {
	if o, ok := q.Option(optionID); ok {
		return o.Text
	}
	if q.IsCustom(optionID) {
		if q.CustomLabel != "" {
			return q.CustomLabel
		}
		return DefaultCustomLabel
	}
	return ""
}

func (q Question) Clone() Question {
	c := q
	c.Options = append([]Option(nil), q.Options...)
	return c
}

func CloneQuestions(questions []Question) []Question {
	if questions == nil {
		return nil
	}
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[i] = q.Clone()
	}
	return out
}

func FindQuestion(questions []Question, id int) (Question, bool) {
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

type AnswerRecord struct {
	OptionID   int    `json:"optionId"`
	Text       string `json:"text"`
	CustomText string `json:"customText,omitempty"`
}

// Answer is one question's entry in a Submission. Single answers are
// encoded as an object and multiple answers as an array, under "answer".
type Answer struct {
	QuestionText string
	Type         ResponseMode
	Records      []AnswerRecord
}

type answerJSON struct {
	QuestionText string          `json:"questionText"`
	Type         ResponseMode    `json:"type,omitempty"`
	Answer       json.RawMessage `json:"answer"`
}

func (a Answer) MarshalJSON() ([]byte, error) {
	var raw []byte
	var err error
	if a.Type == Single && len(a.Records) == 1 {
		raw, err = json.Marshal(a.Records[0])
	} else {
		records := a.Records
		if records == nil {
			records = []AnswerRecord{}
		}
		raw, err = json.Marshal(records)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(answerJSON{
		QuestionText: a.QuestionText,
		Type:         a.Type,
		Answer:       raw,
	})
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var aux answerJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.QuestionText = aux.QuestionText
	a.Type = aux.Type
	a.Records = nil

	raw := bytes.TrimSpace(aux.Answer)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return nil
	case raw[0] == '[':
		if a.Type == "" {
			a.Type = Multiple
		}
		return json.Unmarshal(raw, &a.Records)
	default:
		if a.Type == "" {
			a.Type = Single
		}
		var rec AnswerRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		a.Records = []AnswerRecord{rec}
		return nil
	}
}

type Device struct {
	Width    int  `json:"width"`
	Height   int  `json:"height"`
	IsMobile bool `json:"isMobile"`
}

func NewDevice(width, height int) Device {
	return Device{
		Width:    width,
		Height:   height,
		IsMobile: width > 0 && width < MobileBreakpoint,
	}
}

type Submission struct {
	ID        string         `json:"id,omitempty"`
	Answers   map[int]Answer `json:"answers"`
	Timestamp time.Time      `json:"timestamp"`
	Device    Device         `json:"device"`
	UserAgent string         `json:"userAgent"`
}

// Answered returns the entry for a question when it holds at least one
// record.
func (s Submission) Answered(questionID int) (Answer, bool) {
	a, ok := s.Answers[questionID]
	if !ok || len(a.Records) == 0 {
		return Answer{}, false
	}
	return a, true
}
