package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interviewer_sessions_started_total",
			Help: "Total interview sessions started",
		},
	)

	SessionsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewer_sessions_finished_total",
			Help: "Total interview sessions that reached a terminal phase",
		},
		[]string{"outcome"},
	)

	EvaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interviewer_evaluation_duration_seconds",
			Help:    "Answer evaluation duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	EvaluationScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interviewer_evaluation_scores",
			Help:    "Distribution of answer scores",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	FallbackActivations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewer_fallback_activations_total",
			Help: "Times a deterministic fallback replaced an AI result",
		},
		[]string{"component"},
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewer_llm_requests_total",
			Help: "Total LLM operations by final status",
		},
		[]string{"status"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewer_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewer_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewer_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(SessionsStarted)
	prometheus.MustRegister(SessionsFinished)
	prometheus.MustRegister(EvaluationDuration)
	prometheus.MustRegister(EvaluationScores)
	prometheus.MustRegister(FallbackActivations)
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
