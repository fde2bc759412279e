package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/export"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/interview"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/question"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/session"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/logger"
)

type SessionHandler struct {
	registry *session.Registry
}

func NewSessionHandler(registry *session.Registry) *SessionHandler {
	return &SessionHandler{
		registry: registry,
	}
}

// questionView hides the model answer from the candidate.
type questionView struct {
	ID         int    `json:"id"`
	Text       string `json:"text"`
	Difficulty int    `json:"difficulty"`
	Kind       string `json:"kind"`
	Dataset    string `json:"dataset,omitempty"`
}

func toQuestionView(q interview.Question) questionView {
	view := questionView{
		ID:         q.ID,
		Text:       q.Text,
		Difficulty: q.Difficulty,
		Kind:       string(q.Kind),
	}
	if q.Excerpt != nil {
		view.Dataset = q.Excerpt.PromptContext()
	}
	return view
}

func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	view, err := h.registry.Create(c.Context())
	if err != nil {
		logger.Error("Failed to create session", zap.Error(err))
		if errors.Is(err, question.ErrFallbackExhausted) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "No questions available. Please try again later.",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start interview",
		})
	}

	resp := fiber.Map{
		"session_id":     view.ID,
		"phase":          string(view.Phase),
		"question_count": view.QuestionCount,
		"progress":       view.Progress,
	}
	if view.Current != nil {
		resp["question"] = toQuestionView(*view.Current)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	view, err := h.registry.Get(c.Params("id"))
	if err != nil {
		return notFound(c)
	}

	resp := fiber.Map{
		"session_id":     view.ID,
		"phase":          string(view.Phase),
		"question_count": view.QuestionCount,
		"progress":       view.Progress,
		"started_at":     view.StartedAt.Format(time.RFC3339),
	}

	if view.Current != nil {
		resp["question"] = toQuestionView(*view.Current)
	}
	if view.Summary != nil {
		resp["summary"] = view.Summary
	}

	return c.JSON(resp)
}

func (h *SessionHandler) SubmitAnswer(c *fiber.Ctx) error {
	answerText := ""
	if body, ok := c.Locals("sanitized_body").(map[string]interface{}); ok {
		answerText, _ = body["answer"].(string)
	} else {
		var req struct {
			Answer string `json:"answer"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
		answerText = req.Answer
	}

	id := c.Params("id")
	entry, view, err := h.registry.SubmitAnswer(id, answerText)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			return notFound(c)
		case errors.Is(err, interview.ErrInvalidTransition):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Session is not accepting answers",
			})
		case errors.Is(err, context.Canceled):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Session was abandoned",
			})
		default:
			logger.Error("Failed to submit answer",
				zap.String("session_id", id),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to evaluate answer",
			})
		}
	}

	resp := fiber.Map{
		"position":   entry.Position,
		"evaluation": entry.Evaluation,
		"progress":   view.Progress,
		"complete":   view.Complete,
	}
	if view.Current != nil {
		resp["question"] = toQuestionView(*view.Current)
	}

	return c.JSON(resp)
}

func (h *SessionHandler) FinishSession(c *fiber.Ctx) error {
	id := c.Params("id")

	summary, err := h.registry.Finish(id)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			return notFound(c)
		case errors.Is(err, interview.ErrInvalidTransition):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Session cannot be finished in its current phase",
			})
		default:
			logger.Error("Failed to finish session",
				zap.String("session_id", id),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to finish interview",
			})
		}
	}

	return c.JSON(fiber.Map{
		"session_id": id,
		"summary":    summary,
	})
}

func (h *SessionHandler) AbandonSession(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.registry.Abandon(id); err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			return notFound(c)
		case errors.Is(err, interview.ErrInvalidTransition):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Session is not in progress",
			})
		default:
			logger.Error("Failed to abandon session",
				zap.String("session_id", id),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to abandon session",
			})
		}
	}

	return c.JSON(fiber.Map{
		"session_id": id,
		"phase":      string(interview.PhaseAbandoned),
	})
}

func (h *SessionHandler) DownloadTranscript(c *fiber.Ctx) error {
	id := c.Params("id")

	record, err := h.registry.ExportTranscript(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return notFound(c)
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Transcript is only available for completed sessions",
		})
	}

	filename := export.Filename(time.Now())
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

	if err := record.WriteCSV(c.Response().BodyWriter()); err != nil {
		logger.Error("Failed to write transcript",
			zap.String("session_id", id),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export transcript",
		})
	}

	return nil
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "Session not found",
	})
}
