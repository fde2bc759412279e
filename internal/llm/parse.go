package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// extractJSON pulls the JSON document out of a completion that may be wrapped
// in markdown fences or surrounded by prose.
func extractJSON(content string) string {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "[{")
	if start == -1 {
		return ""
	}
	// A document truncated before its closing bracket is kept whole so
	// completeJSON can repair it.
	if end := strings.LastIndexAny(s, "]}"); end > start {
		s = s[start : end+1]
	} else {
		s = s[start:]
	}

	return controlChars.ReplaceAllString(s, " ")
}

// completeJSON appends closing brackets to a document the provider truncated
// mid-object.
func completeJSON(s string) string {
	opensBraces := strings.Count(s, "{") - strings.Count(s, "}")
	opensBrackets := strings.Count(s, "[") - strings.Count(s, "]")

	if opensBraces > 0 {
		s += strings.Repeat("}", opensBraces)
	}
	if opensBrackets > 0 {
		s += strings.Repeat("]", opensBrackets)
	}
	return s
}

func parseQuestionPayloads(content string) ([]QuestionPayload, error) {
	doc := extractJSON(content)
	if doc == "" {
		return nil, fmt.Errorf("%w: no JSON found in completion", ErrMalformedResponse)
	}

	var questions []QuestionPayload
	if err := json.Unmarshal([]byte(doc), &questions); err != nil {
		if err2 := json.Unmarshal([]byte(completeJSON(doc)), &questions); err2 != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	valid := questions[:0]
	for _, q := range questions {
		if strings.TrimSpace(q.QuestionText) == "" {
			continue
		}
		valid = append(valid, q)
	}

	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: question list empty after validation", ErrMalformedResponse)
	}
	return valid, nil
}

var (
	scoreField = regexp.MustCompile(`"score"\s*:\s*(-?\d+)`)
	textFields = map[string]*regexp.Regexp{
		"feedback":              regexp.MustCompile(`"feedback"\s*:\s*"([^"]*)`),
		"tip":                   regexp.MustCompile(`"tip"\s*:\s*"([^"]*)`),
		"strengths":             regexp.MustCompile(`"strengths"\s*:\s*"([^"]*)`),
		"areas_for_improvement": regexp.MustCompile(`"areas_for_improvement"\s*:\s*"([^"]*)`),
	}
)

func parseEvaluationPayload(content string) (*EvaluationPayload, error) {
	doc := extractJSON(content)
	if doc == "" {
		return nil, fmt.Errorf("%w: no JSON found in completion", ErrMalformedResponse)
	}

	var eval EvaluationPayload
	if err := json.Unmarshal([]byte(doc), &eval); err == nil {
		return &eval, nil
	}
	if err := json.Unmarshal([]byte(completeJSON(doc)), &eval); err == nil {
		return &eval, nil
	}

	// Last resort: field-by-field extraction from the broken document. The
	// score must be present; text fields may be repaired downstream.
	m := scoreField.FindStringSubmatch(doc)
	if m == nil {
		return nil, fmt.Errorf("%w: evaluation has no score field", ErrMalformedResponse)
	}
	score, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable score %q", ErrMalformedResponse, m[1])
	}

	eval = EvaluationPayload{Score: score}
	if m := textFields["feedback"].FindStringSubmatch(doc); m != nil {
		eval.Feedback = m[1]
	}
	if m := textFields["tip"].FindStringSubmatch(doc); m != nil {
		eval.Tip = m[1]
	}
	if m := textFields["strengths"].FindStringSubmatch(doc); m != nil {
		eval.Strengths = m[1]
	}
	if m := textFields["areas_for_improvement"].FindStringSubmatch(doc); m != nil {
		eval.AreasForImprovement = m[1]
	}
	return &eval, nil
}

func parseSummaryPayload(content string) (*SummaryPayload, error) {
	doc := extractJSON(content)
	if doc == "" {
		return nil, fmt.Errorf("%w: no JSON found in completion", ErrMalformedResponse)
	}

	var summary SummaryPayload
	if err := json.Unmarshal([]byte(doc), &summary); err != nil {
		if err2 := json.Unmarshal([]byte(completeJSON(doc)), &summary); err2 != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	if summary.Summary == "" && len(summary.Strengths) == 0 && len(summary.Recommendations) == 0 {
		return nil, fmt.Errorf("%w: summary payload empty", ErrMalformedResponse)
	}
	return &summary, nil
}
