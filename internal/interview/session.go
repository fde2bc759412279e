package interview

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/logger"
)

var ErrInvalidTransition = errors.New("invalid session transition")

type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInProgress Phase = "in_progress"
	PhaseCompleted  Phase = "completed"
	PhaseAbandoned  Phase = "abandoned"
)

// SkippedAnswer is recorded in place of an empty submission; the question
// slot is consumed without an AI round trip.
const SkippedAnswer = "[SKIPPED]"

// Scorer evaluates one answer. Implementations must be total: they return a
// usable Evaluation even when the AI provider is down.
type Scorer interface {
	Evaluate(ctx context.Context, q Question, answerText string) Evaluation
}

// Summarizer produces the overall summary from a finished transcript. An
// error triggers the session's aggregate fallback.
type Summarizer interface {
	Summarize(ctx context.Context, entries []TranscriptEntry) (*Summary, error)
}

// Session owns the full state of one interview. It is exclusively owned by
// one interaction flow; serialization of access is the caller's concern.
type Session struct {
	ID         string
	phase      Phase
	questions  []Question
	index      int
	transcript []TranscriptEntry
	summary    *Summary
	startedAt  time.Time

	scorer     Scorer
	summarizer Summarizer
}

func NewSession(id string, scorer Scorer, summarizer Summarizer) *Session {
	return &Session{
		ID:         id,
		phase:      PhaseNotStarted,
		scorer:     scorer,
		summarizer: summarizer,
	}
}

func (s *Session) Phase() Phase { return s.phase }

// Start moves the session into progress with the given question list.
func (s *Session) Start(questions []Question) error {
	if s.phase != PhaseNotStarted {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.phase)
	}
	if len(questions) == 0 {
		return fmt.Errorf("cannot start session with no questions")
	}

	s.questions = questions
	s.index = 0
	s.transcript = nil
	s.phase = PhaseInProgress
	s.startedAt = time.Now()

	logger.Info("Interview session started",
		zap.String("session_id", s.ID),
		zap.Int("questions", len(questions)),
	)
	return nil
}

// SubmitAnswer scores the answer for the current question, appends the
// transcript entry and advances the index.
func (s *Session) SubmitAnswer(ctx context.Context, answerText string) (*TranscriptEntry, error) {
	if s.phase != PhaseInProgress {
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, s.phase)
	}
	if s.index >= len(s.questions) {
		return nil, fmt.Errorf("%w: all questions already answered", ErrInvalidTransition)
	}

	q := s.questions[s.index]

	var eval Evaluation
	text := answerText
	if strings.TrimSpace(answerText) == "" {
		text = SkippedAnswer
		eval = Evaluation{
			Score:       0,
			Feedback:    "Question was skipped.",
			Tip:         "Attempt every question, even with a partial answer.",
			Strengths:   "Not applicable",
			Improvement: "Provide an answer next time",
			Fallback:    true,
		}
	} else {
		eval = s.scorer.Evaluate(ctx, q, answerText)
	}

	// Abandoning a session cancels its context; a late evaluation result
	// must be discarded, not recorded.
	if ctx.Err() != nil {
		return nil, fmt.Errorf("session retired during evaluation: %w", ctx.Err())
	}

	entry := TranscriptEntry{
		Position: s.index + 1,
		Question: q,
		Answer: Answer{
			QuestionID:  q.ID,
			Text:        text,
			SubmittedAt: time.Now(),
		},
		Evaluation: eval,
	}

	s.transcript = append(s.transcript, entry)
	s.index++

	logger.Info("Answer recorded",
		zap.String("session_id", s.ID),
		zap.Int("question_id", q.ID),
		zap.Int("score", eval.Score),
		zap.Bool("fallback", eval.Fallback),
	)
	return &entry, nil
}

func (s *Session) IsComplete() bool {
	return len(s.questions) > 0 && s.index == len(s.questions)
}

// Finish computes the summary and moves the session to completed. Calling it
// again returns the cached summary.
func (s *Session) Finish(ctx context.Context) (*Summary, error) {
	if s.phase == PhaseCompleted {
		return s.summary, nil
	}
	if s.phase != PhaseInProgress || !s.IsComplete() {
		return nil, fmt.Errorf("%w: finish from %s with %d/%d answered",
			ErrInvalidTransition, s.phase, s.index, len(s.questions))
	}

	summary, err := s.summarizer.Summarize(ctx, s.transcript)
	if err != nil {
		logger.Warn("Summary generation unavailable, using aggregates",
			zap.String("session_id", s.ID),
			zap.Error(err),
		)
		summary = s.aggregateSummary()
	}

	s.summary = summary
	s.phase = PhaseCompleted

	logger.Info("Interview session completed",
		zap.String("session_id", s.ID),
		zap.Float64("overall_score", summary.OverallScore),
		zap.String("level", summary.Level),
	)
	return s.summary, nil
}

// Abandon retires an in-progress session. No evaluation work happens after
// this; any in-flight result is discarded by the caller.
func (s *Session) Abandon() error {
	if s.phase != PhaseInProgress {
		return fmt.Errorf("%w: abandon from %s", ErrInvalidTransition, s.phase)
	}
	s.phase = PhaseAbandoned

	logger.Info("Interview session abandoned",
		zap.String("session_id", s.ID),
		zap.Int("answered", s.index),
	)
	return nil
}

func (s *Session) CurrentQuestion() (Question, bool) {
	if s.phase != PhaseInProgress || s.index >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[s.index], true
}

// Progress reports answered questions as a percentage.
func (s *Session) Progress() float64 {
	if len(s.questions) == 0 {
		return 0
	}
	return float64(s.index) / float64(len(s.questions)) * 100
}

func (s *Session) Questions() []Question         { return s.questions }
func (s *Session) Transcript() []TranscriptEntry { return s.transcript }
func (s *Session) Summary() *Summary             { return s.summary }
func (s *Session) StartedAt() time.Time          { return s.startedAt }

const (
	weakScoreThreshold   = 1
	strongScoreThreshold = 4
)

// aggregateSummary synthesizes a summary from transcript statistics when the
// AI provider cannot produce one.
func (s *Session) aggregateSummary() *Summary {
	var total int
	var strengths, weaknesses []string

	for _, entry := range s.transcript {
		total += entry.Evaluation.Score
		label := fmt.Sprintf("Q%d: %s", entry.Position, truncate(entry.Question.Text, 60))
		if entry.Evaluation.Score >= strongScoreThreshold {
			strengths = append(strengths, label)
		} else if entry.Evaluation.Score <= weakScoreThreshold {
			weaknesses = append(weaknesses, label)
		}
	}

	avg := 0.0
	if len(s.transcript) > 0 {
		avg = math.Round(float64(total)/float64(len(s.transcript))*10) / 10
	}

	return &Summary{
		OverallScore: avg,
		Level:        PerformanceLevel(avg),
		Strengths:    strengths,
		Weaknesses:   weaknesses,
		Recommendations: []string{
			"Review the questions with low scores and practice similar scenarios.",
			"Retake the interview once the weak areas have been studied.",
		},
		Narrative: fmt.Sprintf(
			"Answered %d questions with an average score of %.1f/5. Detailed AI analysis was unavailable for this session.",
			len(s.transcript), avg),
		Fallback: true,
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
