package question

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/dataset"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/interview"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/llm"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/metrics"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/storage/models"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/logger"
)

// ErrFallbackExhausted means neither AI generation nor the static bank could
// produce a single usable question.
var ErrFallbackExhausted = errors.New("question generation and bank fallback both failed")

// generator is the slice of the LLM gateway the source needs.
type generator interface {
	GenerateQuestions(ctx context.Context, spec llm.GenerationSpec) ([]llm.QuestionPayload, error)
}

// bank is the static fallback store.
type bank interface {
	BankQuestions(kind string, limit int) ([]models.BankQuestion, error)
}

// inspector supplies bounded data excerpts for data-grounded questions.
type inspector interface {
	ListFiles() ([]string, error)
	Inspect(filename string) (*dataset.Excerpt, error)
}

type Source struct {
	gateway       generator
	bank          bank
	inspector     inspector
	minDifficulty int
	maxDifficulty int
}

func NewSource(gateway generator, bank bank, inspector inspector, minDifficulty, maxDifficulty int) *Source {
	if minDifficulty <= 0 {
		minDifficulty = 1
	}
	if maxDifficulty < minDifficulty {
		maxDifficulty = minDifficulty + 5
	}
	return &Source{
		gateway:       gateway,
		bank:          bank,
		inspector:     inspector,
		minDifficulty: minDifficulty,
		maxDifficulty: maxDifficulty,
	}
}

// Load returns exactly count questions, AI-generated when possible and padded
// from the static bank otherwise. The result is ordered by non-decreasing
// difficulty and renumbered 1..count.
func (s *Source) Load(ctx context.Context, count int, mode llm.Mode) ([]interview.Question, error) {
	if count <= 0 {
		return nil, fmt.Errorf("question count must be positive, got %d", count)
	}

	excerpt := s.dataExcerpt(mode)

	questions := s.generate(ctx, count, mode, excerpt)

	if len(questions) < count {
		questions = s.padFromBank(questions, count, mode)
	}
	if len(questions) == 0 {
		return nil, ErrFallbackExhausted
	}
	if len(questions) > count {
		questions = questions[:count]
	}

	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Difficulty < questions[j].Difficulty
	})
	for i := range questions {
		questions[i].ID = i + 1
		if questions[i].Kind == interview.KindDataGrounded && questions[i].Excerpt == nil {
			questions[i].Excerpt = excerpt
		}
	}

	logger.Info("Question set loaded",
		zap.Int("count", len(questions)),
		zap.String("mode", string(mode)),
	)
	return questions, nil
}

func (s *Source) generate(ctx context.Context, count int, mode llm.Mode, excerpt *dataset.Excerpt) []interview.Question {
	spec := llm.GenerationSpec{
		Count:         count,
		Mode:          mode,
		MinDifficulty: s.minDifficulty,
		MaxDifficulty: s.maxDifficulty,
	}
	if excerpt != nil {
		spec.DataContext = excerpt.PromptContext()
	}

	payloads, err := s.gateway.GenerateQuestions(ctx, spec)
	if err != nil {
		logger.Warn("AI question generation unavailable, falling back to bank", zap.Error(err))
		metrics.FallbackActivations.WithLabelValues("questions").Inc()
		return nil
	}

	var questions []interview.Question
	for _, p := range payloads {
		q, ok := s.validate(p)
		if !ok {
			logger.Warn("Dropping malformed generated question",
				zap.Int("id", p.ID),
				zap.Int("difficulty", p.Difficulty),
			)
			continue
		}
		questions = append(questions, q)
		if len(questions) == count {
			break
		}
	}
	return questions
}

func (s *Source) validate(p llm.QuestionPayload) (interview.Question, bool) {
	if p.QuestionText == "" {
		return interview.Question{}, false
	}
	if p.Difficulty < s.minDifficulty || p.Difficulty > s.maxDifficulty {
		return interview.Question{}, false
	}

	kind := interview.KindConceptual
	if p.QuestionKind == string(interview.KindDataGrounded) {
		kind = interview.KindDataGrounded
	}

	return interview.Question{
		ID:          p.ID,
		Text:        p.QuestionText,
		ModelAnswer: p.ModelAnswer,
		Difficulty:  p.Difficulty,
		Kind:        kind,
	}, true
}

// padFromBank tops the list up to count with bank questions, preserving the
// bank's difficulty ordering and skipping texts already present.
func (s *Source) padFromBank(questions []interview.Question, count int, mode llm.Mode) []interview.Question {
	kind := ""
	if mode == llm.ModeConceptual {
		kind = string(interview.KindConceptual)
	}

	bankQuestions, err := s.bank.BankQuestions(kind, count*2)
	if err != nil {
		logger.Error("Question bank read failed", zap.Error(err))
		return questions
	}

	seen := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		seen[q.Text] = struct{}{}
	}

	for _, bq := range bankQuestions {
		if len(questions) >= count {
			break
		}
		if _, dup := seen[bq.Text]; dup || bq.Text == "" {
			continue
		}
		seen[bq.Text] = struct{}{}

		kind := interview.QuestionKind(bq.Kind)
		if kind != interview.KindDataGrounded {
			kind = interview.KindConceptual
		}
		questions = append(questions, interview.Question{
			ID:          bq.ID,
			Text:        bq.Text,
			ModelAnswer: bq.ModelAnswer,
			Difficulty:  bq.Difficulty,
			Kind:        kind,
		})
	}
	return questions
}

// dataExcerpt picks the first available dataset file. Data-grounded modes
// degrade to conceptual questions when no dataset is present.
func (s *Source) dataExcerpt(mode llm.Mode) *dataset.Excerpt {
	if mode == llm.ModeConceptual || s.inspector == nil {
		return nil
	}

	files, err := s.inspector.ListFiles()
	if err != nil || len(files) == 0 {
		if err != nil {
			logger.Warn("Dataset listing failed", zap.Error(err))
		}
		return nil
	}

	excerpt, err := s.inspector.Inspect(files[0])
	if err != nil {
		logger.Warn("Dataset inspection failed", zap.String("file", files[0]), zap.Error(err))
		return nil
	}
	return excerpt
}
