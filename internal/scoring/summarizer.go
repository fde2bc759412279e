package scoring

import (
	"context"
	"fmt"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/interview"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/llm"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/metrics"
)

type transcriptSummarizer interface {
	Summarize(ctx context.Context, lines []llm.TranscriptLine) (*llm.SummaryPayload, error)
}

// Summarizer asks the gateway for the overall interview summary. Errors
// propagate so the session can fall back to aggregate statistics.
type Summarizer struct {
	gateway transcriptSummarizer
}

func NewSummarizer(gateway transcriptSummarizer) *Summarizer {
	return &Summarizer{gateway: gateway}
}

func (s *Summarizer) Summarize(ctx context.Context, entries []interview.TranscriptEntry) (*interview.Summary, error) {
	lines := make([]llm.TranscriptLine, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, llm.TranscriptLine{
			QuestionID: entry.Question.ID,
			Question:   entry.Question.Text,
			Answer:     entry.Answer.Text,
			Score:      entry.Evaluation.Score,
		})
	}

	payload, err := s.gateway.Summarize(ctx, lines)
	if err != nil {
		metrics.FallbackActivations.WithLabelValues("summary").Inc()
		return nil, fmt.Errorf("summary generation failed: %w", err)
	}

	overall := payload.OverallScore
	if overall < 0 {
		overall = 0
	} else if overall > 5 {
		overall = 5
	}

	level := payload.PerformanceLevel
	if level == "" {
		level = interview.PerformanceLevel(overall)
	}

	return &interview.Summary{
		OverallScore:    overall,
		Level:           level,
		Strengths:       payload.Strengths,
		Weaknesses:      payload.ImprovementAreas,
		Recommendations: payload.Recommendations,
		Narrative:       payload.Summary,
	}, nil
}
