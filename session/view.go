package session

import (
	"github.com/kuzowebsite/ider-surver/model"
	"github.com/kuzowebsite/ider-surver/sink"
)

// View is what a client needs to render the session.
type View struct {
	ID          string          `json:"id,omitempty"`
	State       State           `json:"state"`
	Index       int             `json:"index"`
	Total       int             `json:"total"`
	Question    *model.Question `json:"question,omitempty"`
	Selected    []int           `json:"selected"`
	CustomText  string          `json:"customText"`
	Progress    float64         `json:"progress"`
	CanNext     bool            `json:"canNext"`
	CanPrevious bool            `json:"canPrevious"`
	CanSubmit   bool            `json:"canSubmit"`
	Ack         *sink.Ack       `json:"ack,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.questions)
	v := View{
		State:    s.state,
		Index:    s.current,
		Total:    n,
		Selected: []int{},
		Progress: float64(s.current+1) / float64(n) * 100,
	}
	if s.ack != nil {
		ack := *s.ack
		v.Ack = &ack
	}
	if s.state != Answering {
		return v
	}

	q := s.questions[s.current].Clone()
	v.Question = &q
	v.Selected = append(v.Selected, s.answers[q.ID]...)
	v.CustomText = s.custom[q.ID]

	answered := s.isAnswered(s.current)
	last := s.current == n-1
	v.CanNext = answered && !last
	v.CanPrevious = s.current > 0
	v.CanSubmit = answered && last
	return v
}
