package scoring

import (
	"strings"

	prose "github.com/jdkato/prose/v2"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/interview"
)

// Heuristic bands, used only when the AI provider is unavailable:
// empty answer 0, under minAnswerTokens tokens 1, otherwise 2, plus one
// point when keyword overlap with the model answer reaches overlapBonus.
// The heuristic never awards more than maxHeuristicScore.
const (
	minAnswerTokens   = 8
	overlapBonus      = 0.25
	maxHeuristicScore = 3
)

const fallbackFeedback = "Automated detailed evaluation was unavailable. This score is a rough estimate based on answer length and keyword coverage."

func heuristicEvaluation(q interview.Question, answerText string) interview.Evaluation {
	eval := interview.Evaluation{
		Feedback:    fallbackFeedback,
		Tip:         "Retry later for detailed AI feedback on this answer.",
		Strengths:   "Not assessed",
		Improvement: "Not assessed",
		Fallback:    true,
	}

	tokens := keywords(answerText)
	switch {
	case len(tokens) == 0:
		eval.Score = 0
		return eval
	case len(tokens) < minAnswerTokens:
		eval.Score = 1
		return eval
	}

	eval.Score = 2
	if q.ModelAnswer != "" && keywordOverlap(tokens, keywords(q.ModelAnswer)) >= overlapBonus {
		eval.Score++
	}
	if eval.Score > maxHeuristicScore {
		eval.Score = maxHeuristicScore
	}
	return eval
}

// keywords tokenizes with prose and keeps lowercased word tokens longer than
// two runes. Tokenizer failure degrades to whitespace splitting.
func keywords(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var raw []string
	doc, err := prose.NewDocument(text, prose.WithTagging(false), prose.WithExtraction(false), prose.WithSegmentation(false))
	if err != nil {
		raw = strings.Fields(text)
	} else {
		for _, tok := range doc.Tokens() {
			raw = append(raw, tok.Text)
		}
	}

	var words []string
	for _, t := range raw {
		t = strings.ToLower(strings.Trim(t, ".,;:!?()\"'"))
		if len(t) > 2 {
			words = append(words, t)
		}
	}
	return words
}

// keywordOverlap is the fraction of distinct reference keywords present in
// the answer.
func keywordOverlap(answer, reference []string) float64 {
	if len(reference) == 0 {
		return 0
	}

	refSet := make(map[string]struct{}, len(reference))
	for _, w := range reference {
		refSet[w] = struct{}{}
	}

	ansSet := make(map[string]struct{}, len(answer))
	for _, w := range answer {
		ansSet[w] = struct{}{}
	}

	matched := 0
	for w := range refSet {
		if _, ok := ansSet[w]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(refSet))
}
