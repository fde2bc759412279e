package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/metrics"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/circuitbreaker"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/logger"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/retry"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/utils"
)

var (
	// ErrProviderUnavailable means the provider could not be reached after
	// exhausting retries, or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	// ErrMalformedResponse means the provider answered but its payload failed
	// schema validation after every repair attempt.
	ErrMalformedResponse = errors.New("malformed ai response")
)

// PayloadCache is an optional read-through cache for generated question
// payloads. Implementations must treat failures as misses.
type PayloadCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

type Mode string

const (
	ModeConceptual   Mode = "conceptual"
	ModeDataGrounded Mode = "data_grounded"
	ModeMixed        Mode = "mixed"
)

type GenerationSpec struct {
	Count         int    `json:"count"`
	Mode          Mode   `json:"mode"`
	MinDifficulty int    `json:"min_difficulty"`
	MaxDifficulty int    `json:"max_difficulty"`
	DataContext   string `json:"data_context,omitempty"`
}

type QuestionPayload struct {
	ID           int    `json:"id"`
	QuestionText string `json:"question_text"`
	ModelAnswer  string `json:"model_answer"`
	Difficulty   int    `json:"difficulty"`
	QuestionKind string `json:"question_kind,omitempty"`
}

type EvaluationPayload struct {
	Score               int    `json:"score"`
	Feedback            string `json:"feedback"`
	Tip                 string `json:"tip"`
	Strengths           string `json:"strengths"`
	AreasForImprovement string `json:"areas_for_improvement"`
}

type SummaryPayload struct {
	OverallScore     float64  `json:"overall_score"`
	PerformanceLevel string   `json:"performance_level"`
	Strengths        []string `json:"strengths"`
	ImprovementAreas []string `json:"improvement_areas"`
	Recommendations  []string `json:"recommendations"`
	Summary          string   `json:"summary"`
}

// TranscriptLine is the minimal view of one answered question that the
// summary prompt needs.
type TranscriptLine struct {
	QuestionID int
	Question   string
	Answer     string
	Score      int
}

// Gateway wraps the OpenAI chat API for question generation, answer
// evaluation and interview summarization. It never fabricates payloads: an
// exhausted retry budget surfaces ErrProviderUnavailable so callers apply
// their own fallback.
type Gateway struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
	cache       PayloadCache
}

func NewGateway(apiKey, model string, temperature float32, maxTokens, timeoutSec, maxRetries int, cache PayloadCache) *Gateway {
	client := openai.NewClient(apiKey)

	cb := circuitbreaker.NewCircuitBreaker("llm", circuitbreaker.Config{
		MaxRequests:      2,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if timeoutSec <= 0 {
		timeoutSec = 30
	}

	retryConfig := retry.Config{
		MaxAttempts:    maxRetries,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		RetryIf:        retryableProviderError,
		Logger:         logger.GetLogger(),
	}

	logger.Info("LLM gateway initialized",
		zap.String("model", model),
		zap.Int("max_retries", maxRetries),
	)

	return &Gateway{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     time.Duration(timeoutSec) * time.Second,
		cb:          cb,
		retryConfig: retryConfig,
		cache:       cache,
	}
}

// retryableProviderError decides whether a failed request is worth another
// attempt. A bad API key or a rejected request fails the same way every time,
// so those stop immediately; rate limits, server errors and malformed payloads
// are transient.
func retryableProviderError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return false
		}
	}
	return true
}

// completeOnce issues a single chat request and returns the raw completion
// text. Retry and breaker policy live in requestParsed.
func (g *Gateway) completeOnce(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if temperature == 0 {
		temperature = g.temperature
	}
	if maxTokens == 0 {
		maxTokens = g.maxTokens
	}

	resp, err := g.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			Temperature: temperature,
			MaxTokens:   maxTokens,
		},
	)

	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion from provider")
	}

	metrics.LLMTokensUsed.WithLabelValues(g.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(g.model, "completion").Add(float64(resp.Usage.CompletionTokens))

	logger.Debug("LLM completion generated",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

// requestParsed runs one operation end to end: request, extract, validate.
// A malformed payload counts as a transient failure and is retried along
// with transport errors; whatever survives the retry budget is surfaced as
// a typed error.
func requestParsed[T any](g *Gateway, ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int, parse func(string) (T, error)) (T, error) {
	var result T

	err := g.cb.Execute(ctx, func() error {
		return retry.Do(ctx, g.retryConfig, func() error {
			content, err := g.completeOnce(ctx, systemPrompt, userPrompt, temperature, maxTokens)
			if err != nil {
				return err
			}
			result, err = parse(content)
			return err
		})
	})

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, ErrMalformedResponse) {
			return result, err
		}
		return result, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	metrics.LLMRequestsTotal.WithLabelValues("ok").Inc()
	return result, nil
}

// GenerateQuestions asks the provider for count questions with non-decreasing
// difficulty. Generated payloads are cached by spec hash so repeated starts
// with identical settings do not burn provider quota.
func (g *Gateway) GenerateQuestions(ctx context.Context, spec GenerationSpec) ([]QuestionPayload, error) {
	cacheKey := generationCacheKey(spec)

	if g.cache != nil {
		var cached []QuestionPayload
		hit, err := g.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			logger.Debug("Question cache lookup failed", zap.Error(err))
		} else if hit && len(cached) > 0 {
			metrics.CacheHits.WithLabelValues("questions").Inc()
			return cached, nil
		} else {
			metrics.CacheMisses.WithLabelValues("questions").Inc()
		}
	}

	questions, err := requestParsed(g, ctx, interviewerPersona, questionGenerationPrompt(spec), 0.7, 0, parseQuestionPayloads)
	if err != nil {
		return nil, err
	}

	if g.cache != nil {
		if err := g.cache.Set(ctx, cacheKey, questions); err != nil {
			logger.Debug("Question cache store failed", zap.Error(err))
		}
	}

	logger.Info("Questions generated", zap.Int("count", len(questions)))
	return questions, nil
}

// EvaluateAnswer scores one answer against the question and its model answer.
func (g *Gateway) EvaluateAnswer(ctx context.Context, question, modelAnswer, answer string) (*EvaluationPayload, error) {
	return requestParsed(g, ctx, interviewerPersona, evaluationPrompt(question, modelAnswer, answer), 0.2, 600, parseEvaluationPayload)
}

// Summarize produces the overall interview summary from the transcript.
func (g *Gateway) Summarize(ctx context.Context, lines []TranscriptLine) (*SummaryPayload, error) {
	return requestParsed(g, ctx, interviewerPersona, summaryPrompt(lines), 0.3, 1024, parseSummaryPayload)
}

func generationCacheKey(spec GenerationSpec) string {
	raw, _ := json.Marshal(spec)
	return utils.HashString(string(raw))
}
