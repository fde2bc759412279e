package llm

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "plain object",
			content: `{"score": 4}`,
			want:    `{"score": 4}`,
		},
		{
			name:    "markdown fenced",
			content: "```json\n{\"score\": 4}\n```",
			want:    `{"score": 4}`,
		},
		{
			name:    "bare fence",
			content: "```\n[{\"id\": 1}]\n```",
			want:    `[{"id": 1}]`,
		},
		{
			name:    "surrounded by prose",
			content: "Here is the evaluation you asked for:\n{\"score\": 3}\nLet me know if you need more.",
			want:    `{"score": 3}`,
		},
		{
			name:    "control characters scrubbed",
			content: "{\"feedback\": \"line one\x00line two\"}",
			want:    `{"feedback": "line one line two"}`,
		},
		{
			name:    "no JSON at all",
			content: "I cannot answer that question.",
			want:    "",
		},
		{
			name:    "empty input",
			content: "",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.content); got != tt.want {
				t.Errorf("extractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompleteJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"balanced untouched", `{"a": 1}`, `{"a": 1}`},
		{"missing brace", `{"a": 1`, `{"a": 1}`},
		{"missing brace and bracket", `[{"a": 1`, `[{"a": 1}]`},
		{"two missing braces", `{"a": {"b": 1`, `{"a": {"b": 1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := completeJSON(tt.in); got != tt.want {
				t.Errorf("completeJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseQuestionPayloads(t *testing.T) {
	t.Run("well formed list", func(t *testing.T) {
		content := "```json\n" + `[
			{"id": 1, "question_text": "What does VLOOKUP do?", "model_answer": "Looks up values.", "difficulty": 1},
			{"id": 2, "question_text": "Explain pivot tables.", "model_answer": "Aggregates data.", "difficulty": 2}
		]` + "\n```"

		questions, err := parseQuestionPayloads(content)
		if err != nil {
			t.Fatalf("parseQuestionPayloads() error = %v", err)
		}
		if len(questions) != 2 {
			t.Fatalf("got %d questions, want 2", len(questions))
		}
		if questions[0].QuestionText != "What does VLOOKUP do?" {
			t.Errorf("unexpected first question: %q", questions[0].QuestionText)
		}
	})

	t.Run("blank questions dropped", func(t *testing.T) {
		content := `[{"id": 1, "question_text": "  "}, {"id": 2, "question_text": "Real question"}]`

		questions, err := parseQuestionPayloads(content)
		if err != nil {
			t.Fatalf("parseQuestionPayloads() error = %v", err)
		}
		if len(questions) != 1 {
			t.Fatalf("got %d questions, want 1", len(questions))
		}
	})

	t.Run("all blank is malformed", func(t *testing.T) {
		_, err := parseQuestionPayloads(`[{"id": 1, "question_text": ""}]`)
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("error = %v, want ErrMalformedResponse", err)
		}
	})

	t.Run("no JSON is malformed", func(t *testing.T) {
		_, err := parseQuestionPayloads("Sorry, I was unable to comply.")
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("error = %v, want ErrMalformedResponse", err)
		}
	})
}

func TestParseEvaluationPayload(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		eval, err := parseEvaluationPayload(`{"score": 4, "feedback": "Solid answer.", "tip": "Mention XLOOKUP too."}`)
		if err != nil {
			t.Fatalf("parseEvaluationPayload() error = %v", err)
		}
		if eval.Score != 4 || eval.Feedback != "Solid answer." {
			t.Errorf("unexpected payload: %+v", eval)
		}
	})

	t.Run("truncated object completed", func(t *testing.T) {
		eval, err := parseEvaluationPayload(`{"score": 3, "feedback": "Partially correct."`)
		if err != nil {
			t.Fatalf("parseEvaluationPayload() error = %v", err)
		}
		if eval.Score != 3 {
			t.Errorf("score = %d, want 3", eval.Score)
		}
	})

	t.Run("broken document falls back to field extraction", func(t *testing.T) {
		// Unterminated string value: completion cannot fix it, regex can.
		eval, err := parseEvaluationPayload(`{"score": 2, "feedback": "The answer misses`)
		if err != nil {
			t.Fatalf("parseEvaluationPayload() error = %v", err)
		}
		if eval.Score != 2 {
			t.Errorf("score = %d, want 2", eval.Score)
		}
		if eval.Feedback != "The answer misses" {
			t.Errorf("feedback = %q", eval.Feedback)
		}
	})

	t.Run("missing score is malformed", func(t *testing.T) {
		_, err := parseEvaluationPayload(`{"feedback": "No score here`)
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("error = %v, want ErrMalformedResponse", err)
		}
	})
}

func TestParseSummaryPayload(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		content := `{
			"overall_score": 3.5,
			"performance_level": "Advanced",
			"strengths": ["Formulas"],
			"improvement_areas": ["VBA"],
			"recommendations": ["Practice macros"],
			"summary": "A capable candidate."
		}`

		summary, err := parseSummaryPayload(content)
		if err != nil {
			t.Fatalf("parseSummaryPayload() error = %v", err)
		}
		if summary.OverallScore != 3.5 || summary.PerformanceLevel != "Advanced" {
			t.Errorf("unexpected payload: %+v", summary)
		}
	})

	t.Run("empty payload is malformed", func(t *testing.T) {
		_, err := parseSummaryPayload(`{}`)
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("error = %v, want ErrMalformedResponse", err)
		}
	})
}
