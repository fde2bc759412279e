package llm

import (
	"fmt"
	"strings"
)

const interviewerPersona = `You are an expert Excel interviewer conducting a professional skills assessment.
You are thorough, encouraging, and provide constructive feedback.
Your responses must always be valid JSON matching the requested schema, with no surrounding prose.`

func questionGenerationPrompt(spec GenerationSpec) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate exactly %d Excel interview questions as a JSON array.\n\n", spec.Count)

	b.WriteString("Rules:\n")
	b.WriteString("- Return ONLY the JSON array, no markdown fences, no commentary\n")
	b.WriteString("- Avoid double quotes inside text fields\n")
	fmt.Fprintf(&b, "- difficulty is an integer from %d (easiest) to %d (hardest)\n", spec.MinDifficulty, spec.MaxDifficulty)
	b.WriteString("- order questions by non-decreasing difficulty\n")

	switch spec.Mode {
	case ModeConceptual:
		b.WriteString("- every question is conceptual: formulas, pivot tables, data cleaning, automation\n")
	case ModeDataGrounded:
		b.WriteString("- every question must reference the dataset shown below and require a concrete formula\n")
	default:
		b.WriteString("- mix conceptual questions with questions grounded in the dataset shown below\n")
	}

	if spec.DataContext != "" {
		fmt.Fprintf(&b, "\nDataset:\n%s\n", spec.DataContext)
		b.WriteString("Reference the actual column names and values when writing data-grounded questions.\n")
	}

	b.WriteString(`
Format for each element:
{
  "id": 1,
  "question_text": "the question",
  "model_answer": "a concise reference answer",
  "difficulty": 1,
  "question_kind": "conceptual" or "data_grounded"
}`)

	return b.String()
}

func evaluationPrompt(question, modelAnswer, answer string) string {
	return fmt.Sprintf(`Evaluate this Excel interview answer. Respond with ONLY a complete JSON object.

Question: %s
User Answer: %s
Model Answer: %s

Respond with exactly this format (keep it concise):
{
  "score": 4,
  "feedback": "brief assessment of answer quality and accuracy",
  "tip": "one specific tip for improvement",
  "strengths": "what the user did well",
  "areas_for_improvement": "one key area to work on"
}

Rules:
- score: integer 0-5 (0=wrong, 3=partial, 5=excellent)
- keep all text fields under 100 characters
- be encouraging but honest
- return ONLY the JSON, nothing else`, question, answer, modelAnswer)
}

func summaryPrompt(lines []TranscriptLine) string {
	var b strings.Builder

	b.WriteString("Generate a comprehensive interview summary based on these Q&A pairs and scores:\n")
	for _, line := range lines {
		fmt.Fprintf(&b, "\nQuestion %d: %s\nAnswer: %s\nScore: %d/5\n", line.QuestionID, line.Question, line.Answer, line.Score)
	}

	b.WriteString(`
Provide a JSON response with:
{
  "overall_score": average score rounded to 1 decimal,
  "performance_level": "Beginner/Novice/Intermediate/Advanced/Expert",
  "strengths": ["key strengths demonstrated"],
  "improvement_areas": ["specific areas needing development"],
  "recommendations": ["actionable next steps for skill development"],
  "summary": "overall performance narrative"
}`)

	return b.String()
}
