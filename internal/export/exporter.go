package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/interview"
)

const filenamePrefix = "excel_interview_transcript"

// Record is the tabular form of a finished interview: one row per transcript
// entry plus a trailing summary row.
type Record struct {
	Header  []string
	Rows    [][]string
	Summary []string
}

// Export renders a completed session. It is the only reader of a session's
// final state.
func Export(s *interview.Session) (*Record, error) {
	if s.Phase() != interview.PhaseCompleted {
		return nil, fmt.Errorf("cannot export session in phase %s", s.Phase())
	}

	record := &Record{
		Header: []string{
			"position", "question", "difficulty", "question_kind",
			"answer", "score", "feedback", "tip",
		},
	}

	for _, entry := range s.Transcript() {
		record.Rows = append(record.Rows, []string{
			strconv.Itoa(entry.Position),
			entry.Question.Text,
			strconv.Itoa(entry.Question.Difficulty),
			string(entry.Question.Kind),
			entry.Answer.Text,
			strconv.Itoa(entry.Evaluation.Score),
			entry.Evaluation.Feedback,
			entry.Evaluation.Tip,
		})
	}

	if summary := s.Summary(); summary != nil {
		record.Summary = []string{
			"summary",
			summary.Narrative,
			"",
			"",
			fmt.Sprintf("Performance level: %s", summary.Level),
			fmt.Sprintf("%.1f", summary.OverallScore),
			fmt.Sprintf("Strengths: %s", strings.Join(summary.Strengths, "; ")),
			fmt.Sprintf("Recommendations: %s", strings.Join(summary.Recommendations, "; ")),
		}
	}

	return record, nil
}

// WriteCSV streams the record to w in header, entry rows, summary row order.
func (r *Record) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(r.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range r.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	if r.Summary != nil {
		if err := writer.Write(r.Summary); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Filename stamps the suggested download name with the completion time.
func Filename(completedAt time.Time) string {
	return fmt.Sprintf("%s_%s.csv", filenamePrefix, completedAt.Format("20060102_150405"))
}
