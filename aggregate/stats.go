package aggregate

import (
	"strconv"
	"time"

	"github.com/kuzowebsite/ider-surver/model"
)

type Stats struct {
	TotalSubmissions   int        `json:"totalSubmissions"`
	TotalQuestions     int        `json:"totalQuestions"`
	MobileSubmissions  int        `json:"mobileSubmissions"`
	DesktopSubmissions int        `json:"desktopSubmissions"`
	MobileShare        string     `json:"mobileShare"`
	CompletionRate     string     `json:"completionRate"`
	Newest             *time.Time `json:"newest,omitempty"`
}

// Summarize computes the figures shown above the results: counts by
// device and the share of catalog questions answered across submissions.
func Summarize(submissions []model.Submission, catalog []model.Question) Stats {
	st := Stats{
		TotalSubmissions: len(submissions),
		TotalQuestions:   len(catalog),
	}

	answered := 0
	for _, s := range submissions {
		if s.Device.IsMobile {
			st.MobileSubmissions++
		} else {
			st.DesktopSubmissions++
		}
		for _, q := range catalog {
			if _, ok := s.Answered(q.ID); ok {
				answered++
			}
		}
		if st.Newest == nil || s.Timestamp.After(*st.Newest) {
			ts := s.Timestamp
			st.Newest = &ts
		}
	}

	st.MobileShare = Percentage(st.MobileSubmissions, len(submissions))
	st.CompletionRate = "0%"
	if cells := len(submissions) * len(catalog); cells > 0 {
		st.CompletionRate = strconv.FormatFloat(float64(answered)/float64(cells)*100, 'f', 1, 64) + "%"
	}
	return st
}
