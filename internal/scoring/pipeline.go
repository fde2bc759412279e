package scoring

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/interview"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/llm"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/metrics"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/logger"
)

// answerEvaluator is the slice of the LLM gateway the pipeline needs.
type answerEvaluator interface {
	EvaluateAnswer(ctx context.Context, question, modelAnswer, answer string) (*llm.EvaluationPayload, error)
}

// Pipeline turns one answer into one Evaluation. Evaluate is total: every
// failure path degrades to the deterministic heuristic instead of erroring.
type Pipeline struct {
	gateway answerEvaluator
}

func NewPipeline(gateway answerEvaluator) *Pipeline {
	return &Pipeline{gateway: gateway}
}

const (
	placeholderFeedback    = "Good attempt. Your answer shows some understanding of the concept."
	placeholderTip         = "Continue practicing to improve your Excel skills."
	placeholderStrengths   = "Shows familiarity with Excel concepts"
	placeholderImprovement = "Practice providing more complete answers with examples"
)

func (p *Pipeline) Evaluate(ctx context.Context, q interview.Question, answerText string) interview.Evaluation {
	start := time.Now()
	defer func() {
		metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	}()

	payload, err := p.gateway.EvaluateAnswer(ctx, q.Text, q.ModelAnswer, answerText)
	if err != nil {
		logger.Warn("AI evaluation unavailable, applying heuristic",
			zap.Int("question_id", q.ID),
			zap.Error(err),
		)
		metrics.FallbackActivations.WithLabelValues("scoring").Inc()
		eval := heuristicEvaluation(q, answerText)
		metrics.EvaluationScores.Observe(float64(eval.Score))
		return eval
	}

	eval := interview.Evaluation{
		Score:       clampScore(payload.Score),
		Feedback:    orPlaceholder(payload.Feedback, placeholderFeedback),
		Tip:         orPlaceholder(payload.Tip, placeholderTip),
		Strengths:   orPlaceholder(payload.Strengths, placeholderStrengths),
		Improvement: orPlaceholder(payload.AreasForImprovement, placeholderImprovement),
	}

	metrics.EvaluationScores.Observe(float64(eval.Score))
	return eval
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 5 {
		return 5
	}
	return score
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
