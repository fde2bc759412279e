package models

import "time"

// BankQuestion is one row of the static fallback question bank.
type BankQuestion struct {
	ID          int
	Text        string
	ModelAnswer string
	Difficulty  int
	Kind        string
}

// TranscriptRecord is the archived form of one completed interview.
type TranscriptRecord struct {
	ID           string
	StartedAt    time.Time
	CompletedAt  time.Time
	OverallScore float64
	Level        string
	Narrative    string
	Entries      []TranscriptEntryRow
}

type TranscriptEntryRow struct {
	Position     int
	QuestionText string
	Difficulty   int
	Kind         string
	AnswerText   string
	Score        int
	Feedback     string
	Tip          string
}
