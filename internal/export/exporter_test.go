package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/interview"
)

type fixedScorer struct{ score int }

func (f fixedScorer) Evaluate(ctx context.Context, q interview.Question, answerText string) interview.Evaluation {
	return interview.Evaluation{Score: f.score, Feedback: "ok", Tip: "tip"}
}

type fixedSummarizer struct{}

func (fixedSummarizer) Summarize(ctx context.Context, entries []interview.TranscriptEntry) (*interview.Summary, error) {
	return &interview.Summary{
		OverallScore:    3.0,
		Level:           "Intermediate",
		Strengths:       []string{"Formulas"},
		Recommendations: []string{"Practice pivot tables"},
		Narrative:       "Steady performance across the board.",
	}, nil
}

func completedSession(t *testing.T, n int) *interview.Session {
	t.Helper()

	questions := make([]interview.Question, n)
	for i := range questions {
		questions[i] = interview.Question{
			ID:         i + 1,
			Text:       fmt.Sprintf("question %d", i+1),
			Difficulty: i + 1,
			Kind:       interview.KindConceptual,
		}
	}

	s := interview.NewSession("export-test", fixedScorer{score: 3}, fixedSummarizer{})
	if err := s.Start(questions); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		if _, err := s.SubmitAnswer(context.Background(), fmt.Sprintf("answer %d", i+1)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Finish(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestExportRequiresCompletedSession(t *testing.T) {
	s := interview.NewSession("s", fixedScorer{}, fixedSummarizer{})
	if _, err := Export(s); err == nil {
		t.Error("exporting an unstarted session should fail")
	}

	if err := s.Start([]interview.Question{{ID: 1, Text: "q", Difficulty: 1}}); err != nil {
		t.Fatal(err)
	}
	if _, err := Export(s); err == nil {
		t.Error("exporting an in-progress session should fail")
	}
}

func TestExportRecordShape(t *testing.T) {
	s := completedSession(t, 6)

	record, err := Export(s)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if len(record.Rows) != 6 {
		t.Fatalf("got %d rows, want 6", len(record.Rows))
	}
	if record.Summary == nil {
		t.Fatal("record missing summary row")
	}
	if len(record.Header) != 8 {
		t.Fatalf("header has %d columns, want 8", len(record.Header))
	}
	for i, row := range record.Rows {
		if len(row) != len(record.Header) {
			t.Errorf("row %d has %d columns, want %d", i, len(row), len(record.Header))
		}
	}
	if record.Rows[0][0] != "1" || record.Rows[5][0] != "6" {
		t.Error("rows are not in transcript order")
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	s := completedSession(t, 3)

	record, err := Export(s)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var buf bytes.Buffer
	if err := record.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back CSV: %v", err)
	}

	// header + 3 entries + summary
	if len(rows) != 5 {
		t.Fatalf("got %d CSV rows, want 5", len(rows))
	}
	if rows[0][0] != "position" {
		t.Errorf("first header column = %q, want %q", rows[0][0], "position")
	}
	last := rows[len(rows)-1]
	if last[0] != "summary" {
		t.Errorf("last row is %q, want summary row", last[0])
	}
	if !strings.Contains(last[4], "Intermediate") {
		t.Errorf("summary row missing performance level: %q", last[4])
	}
}

func TestFilename(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	got := Filename(at)
	want := "excel_interview_transcript_20250314_092653.csv"
	if got != want {
		t.Errorf("Filename() = %q, want %q", got, want)
	}
}
