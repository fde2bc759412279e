package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/storage/models"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS question_bank (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question_text TEXT NOT NULL UNIQUE,
		model_answer TEXT,
		difficulty INTEGER NOT NULL,
		kind TEXT NOT NULL DEFAULT 'conceptual'
	);
	CREATE INDEX IF NOT EXISTS idx_bank_difficulty ON question_bank(difficulty);
	CREATE INDEX IF NOT EXISTS idx_bank_kind ON question_bank(kind);

	CREATE TABLE IF NOT EXISTS transcripts (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		completed_at INTEGER NOT NULL,
		overall_score REAL NOT NULL,
		performance_level TEXT,
		narrative TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_transcripts_completed ON transcripts(completed_at);

	CREATE TABLE IF NOT EXISTS transcript_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transcript_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		question_text TEXT NOT NULL,
		difficulty INTEGER,
		kind TEXT,
		answer_text TEXT,
		score INTEGER NOT NULL,
		feedback TEXT,
		tip TEXT,
		FOREIGN KEY (transcript_id) REFERENCES transcripts(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_entries_transcript ON transcript_entries(transcript_id);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// InsertBankQuestion upserts one fallback question keyed by its text.
func (c *Client) InsertBankQuestion(q *models.BankQuestion) error {
	query := `
		INSERT INTO question_bank (question_text, model_answer, difficulty, kind)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(question_text) DO UPDATE SET
			model_answer = excluded.model_answer,
			difficulty = excluded.difficulty,
			kind = excluded.kind
	`

	if _, err := c.db.Exec(query, q.Text, q.ModelAnswer, q.Difficulty, q.Kind); err != nil {
		return fmt.Errorf("failed to insert bank question: %w", err)
	}
	return nil
}

// BankQuestions returns fallback questions ordered by difficulty. An empty
// kind matches every kind.
func (c *Client) BankQuestions(kind string, limit int) ([]models.BankQuestion, error) {
	query := `
		SELECT id, question_text, model_answer, difficulty, kind
		FROM question_bank
		WHERE (? = '' OR kind = ?)
		ORDER BY difficulty ASC, id ASC
		LIMIT ?
	`

	rows, err := c.db.Query(query, kind, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query question bank: %w", err)
	}
	defer rows.Close()

	var questions []models.BankQuestion
	for rows.Next() {
		var q models.BankQuestion
		if err := rows.Scan(&q.ID, &q.Text, &q.ModelAnswer, &q.Difficulty, &q.Kind); err != nil {
			return nil, fmt.Errorf("failed to scan bank question: %w", err)
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

func (c *Client) CountBankQuestions() (int, error) {
	var count int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM question_bank`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bank questions: %w", err)
	}
	return count, nil
}

// ArchiveTranscript stores a completed interview and its entries atomically.
func (c *Client) ArchiveTranscript(record *models.TranscriptRecord) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO transcripts (id, started_at, completed_at, overall_score, performance_level, narrative)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.StartedAt.Unix(),
		record.CompletedAt.Unix(),
		record.OverallScore,
		record.Level,
		record.Narrative,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transcript: %w", err)
	}

	for _, entry := range record.Entries {
		_, err = tx.Exec(
			`INSERT INTO transcript_entries
				(transcript_id, position, question_text, difficulty, kind, answer_text, score, feedback, tip)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ID,
			entry.Position,
			entry.QuestionText,
			entry.Difficulty,
			entry.Kind,
			entry.AnswerText,
			entry.Score,
			entry.Feedback,
			entry.Tip,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transcript entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transcript: %w", err)
	}

	logger.Info("Transcript archived",
		zap.String("transcript_id", record.ID),
		zap.Int("entries", len(record.Entries)),
	)
	return nil
}
