package question

import (
	"context"
	"errors"
	"testing"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/dataset"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/interview"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/llm"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/storage/models"
)

type stubGenerator struct {
	payloads []llm.QuestionPayload
	err      error
	gotSpec  llm.GenerationSpec
}

func (s *stubGenerator) GenerateQuestions(ctx context.Context, spec llm.GenerationSpec) ([]llm.QuestionPayload, error) {
	s.gotSpec = spec
	if s.err != nil {
		return nil, s.err
	}
	return s.payloads, nil
}

type stubBank struct {
	questions []models.BankQuestion
	err       error
	gotKind   string
}

func (s *stubBank) BankQuestions(kind string, limit int) ([]models.BankQuestion, error) {
	s.gotKind = kind
	if s.err != nil {
		return nil, s.err
	}
	return s.questions, nil
}

type stubInspector struct {
	files   []string
	excerpt *dataset.Excerpt
	err     error
}

func (s *stubInspector) ListFiles() ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.files, nil
}

func (s *stubInspector) Inspect(filename string) (*dataset.Excerpt, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.excerpt, nil
}

func bankSix() []models.BankQuestion {
	return []models.BankQuestion{
		{ID: 1, Text: "bank question 1", ModelAnswer: "a", Difficulty: 1, Kind: "conceptual"},
		{ID: 2, Text: "bank question 2", ModelAnswer: "a", Difficulty: 2, Kind: "conceptual"},
		{ID: 3, Text: "bank question 3", ModelAnswer: "a", Difficulty: 3, Kind: "conceptual"},
		{ID: 4, Text: "bank question 4", ModelAnswer: "a", Difficulty: 4, Kind: "conceptual"},
		{ID: 5, Text: "bank question 5", ModelAnswer: "a", Difficulty: 5, Kind: "conceptual"},
		{ID: 6, Text: "bank question 6", ModelAnswer: "a", Difficulty: 6, Kind: "conceptual"},
	}
}

func TestLoadFromGenerator(t *testing.T) {
	gen := &stubGenerator{payloads: []llm.QuestionPayload{
		{ID: 1, QuestionText: "generated hard", ModelAnswer: "a", Difficulty: 5},
		{ID: 2, QuestionText: "generated easy", ModelAnswer: "a", Difficulty: 1},
		{ID: 3, QuestionText: "generated medium", ModelAnswer: "a", Difficulty: 3},
	}}
	src := NewSource(gen, &stubBank{}, nil, 1, 6)

	questions, err := src.Load(context.Background(), 3, llm.ModeConceptual)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(questions))
	}

	for i := 1; i < len(questions); i++ {
		if questions[i].Difficulty < questions[i-1].Difficulty {
			t.Errorf("difficulty decreases at position %d: %d after %d",
				i, questions[i].Difficulty, questions[i-1].Difficulty)
		}
	}
	for i, q := range questions {
		if q.ID != i+1 {
			t.Errorf("question %d has ID %d, want %d", i, q.ID, i+1)
		}
	}
	if gen.gotSpec.Count != 3 || gen.gotSpec.MinDifficulty != 1 || gen.gotSpec.MaxDifficulty != 6 {
		t.Errorf("unexpected generation spec: %+v", gen.gotSpec)
	}
}

func TestLoadFallsBackToBank(t *testing.T) {
	gen := &stubGenerator{err: llm.ErrProviderUnavailable}
	bank := &stubBank{questions: bankSix()}
	src := NewSource(gen, bank, nil, 1, 6)

	questions, err := src.Load(context.Background(), 6, llm.ModeMixed)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(questions) != 6 {
		t.Fatalf("got %d questions, want 6", len(questions))
	}
	for i, q := range questions {
		if q.Difficulty != i+1 {
			t.Errorf("question %d difficulty = %d, want %d", i, q.Difficulty, i+1)
		}
	}
}

func TestLoadMalformedQuestionsDropped(t *testing.T) {
	gen := &stubGenerator{payloads: []llm.QuestionPayload{
		{ID: 1, QuestionText: "", Difficulty: 2},             // blank text
		{ID: 2, QuestionText: "out of range", Difficulty: 9}, // above max
		{ID: 3, QuestionText: "valid question", ModelAnswer: "a", Difficulty: 2},
	}}
	bank := &stubBank{questions: bankSix()}
	src := NewSource(gen, bank, nil, 1, 6)

	questions, err := src.Load(context.Background(), 3, llm.ModeConceptual)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(questions))
	}

	found := false
	for _, q := range questions {
		if q.Text == "valid question" {
			found = true
		}
		if q.Text == "out of range" {
			t.Error("out-of-range question should have been dropped")
		}
	}
	if !found {
		t.Error("valid generated question missing from the padded set")
	}
}

func TestLoadConceptualModeFiltersBank(t *testing.T) {
	gen := &stubGenerator{err: llm.ErrProviderUnavailable}
	bank := &stubBank{questions: bankSix()}
	src := NewSource(gen, bank, nil, 1, 6)

	if _, err := src.Load(context.Background(), 3, llm.ModeConceptual); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if bank.gotKind != "conceptual" {
		t.Errorf("bank kind filter = %q, want %q", bank.gotKind, "conceptual")
	}

	if _, err := src.Load(context.Background(), 3, llm.ModeMixed); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if bank.gotKind != "" {
		t.Errorf("mixed mode bank kind filter = %q, want empty", bank.gotKind)
	}
}

func TestLoadExhausted(t *testing.T) {
	gen := &stubGenerator{err: llm.ErrProviderUnavailable}
	bank := &stubBank{err: errors.New("db locked")}
	src := NewSource(gen, bank, nil, 1, 6)

	_, err := src.Load(context.Background(), 6, llm.ModeMixed)
	if !errors.Is(err, ErrFallbackExhausted) {
		t.Errorf("error = %v, want ErrFallbackExhausted", err)
	}
}

func TestLoadAttachesExcerpt(t *testing.T) {
	excerpt := &dataset.Excerpt{
		Filename: "sales.csv",
		Columns:  []string{"region", "amount"},
		RowCount: 40,
	}
	gen := &stubGenerator{payloads: []llm.QuestionPayload{
		{ID: 1, QuestionText: "data question", ModelAnswer: "a", Difficulty: 2, QuestionKind: "data_grounded"},
		{ID: 2, QuestionText: "concept question", ModelAnswer: "a", Difficulty: 3},
	}}
	src := NewSource(gen, &stubBank{}, &stubInspector{files: []string{"sales.csv"}, excerpt: excerpt}, 1, 6)

	questions, err := src.Load(context.Background(), 2, llm.ModeDataGrounded)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for _, q := range questions {
		switch q.Kind {
		case interview.KindDataGrounded:
			if q.Excerpt == nil || q.Excerpt.Filename != "sales.csv" {
				t.Error("data-grounded question missing its excerpt")
			}
		case interview.KindConceptual:
			if q.Excerpt != nil {
				t.Error("conceptual question should not carry an excerpt")
			}
		}
	}
	if gen.gotSpec.DataContext == "" {
		t.Error("generation spec should carry dataset context")
	}
}

func TestLoadRejectsNonPositiveCount(t *testing.T) {
	src := NewSource(&stubGenerator{}, &stubBank{}, nil, 1, 6)
	if _, err := src.Load(context.Background(), 0, llm.ModeMixed); err == nil {
		t.Error("Load(0) should fail")
	}
}
