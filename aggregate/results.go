package aggregate

import (
	"math"
	"sort"
	"strconv"

	"github.com/kuzowebsite/ider-surver/model"
	"github.com/pkg/errors"
)

// ShortNameLength is the number of runes kept by ShortName.
const ShortNameLength = 20

var ErrQuestionNotFound = errors.New("aggregate: question not found")

type Order string

const (
	ByCount      Order = "count"
	CatalogOrder Order = "catalog"
)

type Row struct {
	OptionID   int    `json:"optionId"`
	Label      string `json:"label"`
	ShortName  string `json:"shortName"`
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

type Results struct {
	QuestionID     int                `json:"questionId"`
	QuestionText   string             `json:"questionText"`
	Type           model.ResponseMode `json:"type"`
	TotalResponses int                `json:"totalResponses"`
	Participation  int                `json:"participation"`
	Rows           []Row              `json:"rows"`

	// CustomCount is how many responses picked the free-text slot. It has
	// no row and does not change the percentages.
	CustomCount int `json:"customCount"`
}

// QuestionResults counts how often each option of a question was chosen.
// Every option of the catalog gets a row, zero or not. Any other recorded
// id, the custom slot included, is left out of the rows. Rows come by count descending unless order is
// CatalogOrder; ties keep catalog order.
func QuestionResults(submissions []model.Submission, catalog []model.Question, questionID int, order Order) (Results, error) {
	q, ok := model.FindQuestion(catalog, questionID)
	if !ok {
		return Results{}, ErrQuestionNotFound
	}

	rows := make([]Row, 0, len(q.Options))
	index := make(map[int]int, len(q.Options))
	for _, o := range q.Options {
		index[o.ID] = len(rows)
		rows = append(rows, Row{OptionID: o.ID, Label: o.Text})
	}

	total, custom := 0, 0
	for _, s := range submissions {
		a, ok := s.Answered(questionID)
		if !ok {
			continue
		}
		total++
		for _, r := range a.Records {
			if i, ok := index[r.OptionID]; ok {
				rows[i].Count++
			} else if q.IsCustom(r.OptionID) {
				custom++
			}
		}
	}

	for i := range rows {
		rows[i].ShortName = ShortName(rows[i].Label)
		rows[i].Percentage = Percentage(rows[i].Count, total)
	}
	if order != CatalogOrder {
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Count > rows[j].Count
		})
	}

	participation := 0
	if len(submissions) > 0 {
		participation = int(math.Round(float64(total) / float64(len(submissions)) * 100))
	}

	return Results{
		QuestionID:     q.ID,
		QuestionText:   q.Text,
		Type:           q.Type,
		TotalResponses: total,
		Participation:  participation,
		Rows:           rows,
		CustomCount:    custom,
	}, nil
}

// Percentage formats count/total with one decimal, or "0%" when total is
// zero. Exact halves round to even.
func Percentage(count, total int) string {
	if total == 0 {
		return "0%"
	}
	return strconv.FormatFloat(float64(count)/float64(total)*100, 'f', 1, 64) + "%"
}

func ShortName(label string) string {
	runes := []rune(label)
	if len(runes) <= ShortNameLength {
		return label
	}
	return string(runes[:ShortNameLength]) + "..."
}
