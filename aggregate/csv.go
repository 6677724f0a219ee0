package aggregate

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/kuzowebsite/ider-surver/model"
)

const (
	NoAnswer        = "No answer"
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// WriteCSV writes one row per submission, in the order given, with a
// column per catalog question. Every cell is quoted.
func WriteCSV(w io.Writer, submissions []model.Submission, catalog []model.Question) error {
	bw := bufio.NewWriter(w)

	header := make([]string, 0, len(catalog)+2)
	header = append(header, "ID", "Timestamp")
	for _, q := range catalog {
		header = append(header, q.Text)
	}
	writeRow(bw, header)

	for _, s := range submissions {
		row := make([]string, 0, len(catalog)+2)
		row = append(row, s.ID, s.Timestamp.UTC().Format(TimestampLayout))
		for _, q := range catalog {
			row = append(row, Cell(s, q.ID))
		}
		writeRow(bw, row)
	}
	return bw.Flush()
}

// Cell renders one answer: option texts with " - custom text" when
// present, joined with "; ".
func Cell(s model.Submission, questionID int) string {
	a, ok := s.Answered(questionID)
	if !ok {
		return NoAnswer
	}
	parts := make([]string, len(a.Records))
	for i, r := range a.Records {
		parts[i] = r.Text
		if r.CustomText != "" {
			parts[i] += " - " + r.CustomText
		}
	}
	return strings.Join(parts, "; ")
}

func writeRow(w *bufio.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(c, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}

func ExportFilename(now time.Time) string {
	return "survey_results_" + now.Format("2006-01-02") + ".csv"
}
