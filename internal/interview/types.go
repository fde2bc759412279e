package interview

import (
	"time"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/dataset"
)

type QuestionKind string

const (
	KindConceptual   QuestionKind = "conceptual"
	KindDataGrounded QuestionKind = "data_grounded"
)

// Question is immutable once loaded into a session.
type Question struct {
	ID          int              `json:"id"`
	Text        string           `json:"question_text"`
	ModelAnswer string           `json:"model_answer"`
	Difficulty  int              `json:"difficulty"`
	Kind        QuestionKind     `json:"question_kind,omitempty"`
	Excerpt     *dataset.Excerpt `json:"excerpt,omitempty"`
}

type Answer struct {
	QuestionID  int       `json:"question_id"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Evaluation scores exactly one answer. Score is always in [0,5].
type Evaluation struct {
	Score       int    `json:"score"`
	Feedback    string `json:"feedback"`
	Tip         string `json:"tip"`
	Strengths   string `json:"strengths"`
	Improvement string `json:"areas_for_improvement"`
	// Fallback marks evaluations produced by the heuristic scorer when the
	// AI provider was unavailable.
	Fallback bool `json:"fallback"`
}

type TranscriptEntry struct {
	Position   int        `json:"position"`
	Question   Question   `json:"question"`
	Answer     Answer     `json:"answer"`
	Evaluation Evaluation `json:"evaluation"`
}

type Summary struct {
	OverallScore    float64  `json:"overall_score"`
	Level           string   `json:"performance_level"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"improvement_areas"`
	Recommendations []string `json:"recommendations"`
	Narrative       string   `json:"summary"`
	Fallback        bool     `json:"fallback"`
}

// PerformanceLevel maps an average score onto the band names used in
// summaries and exports.
func PerformanceLevel(avg float64) string {
	switch {
	case avg < 1.5:
		return "Beginner"
	case avg < 2.5:
		return "Novice"
	case avg < 3.5:
		return "Intermediate"
	case avg < 4.5:
		return "Advanced"
	default:
		return "Expert"
	}
}
