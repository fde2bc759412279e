package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/interview"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/session"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/logger"
)

// WebSocketHandler drives a full interview over one connection: start,
// answer each question, finish. Dropping the connection mid-interview
// abandons the session.
type WebSocketHandler struct {
	registry *session.Registry
}

func NewWebSocketHandler(registry *session.Registry) *WebSocketHandler {
	return &WebSocketHandler{
		registry: registry,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("Interview connection established")

	var sessionID string

	defer func() {
		h.abandonActive(sessionID, "disconnect")
		c.Close()
		logger.Info("Interview connection closed")
	}()

	for {
		var msg struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Failed to read interview message", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "start":
			// A restart orphans the previous interview; abandon it so it
			// does not linger in progress until the sweeper evicts it.
			h.abandonActive(sessionID, "restart")
			sessionID = ""

			id, err := h.handleStart(c)
			if err != nil {
				h.sendError(c, "Failed to start interview")
				continue
			}
			sessionID = id
		case "answer":
			h.handleAnswer(c, sessionID, msg.Content)
		case "finish":
			h.handleFinish(c, sessionID)
		case "abandon":
			if sessionID != "" {
				if err := h.registry.Abandon(sessionID); err == nil {
					h.send(c, map[string]interface{}{"type": "abandoned", "session_id": sessionID})
				}
				sessionID = ""
			}
			return
		default:
			h.sendError(c, "Unknown message type")
		}
	}
}

// abandonActive abandons sessionID if it is still in progress. Safe to
// call with an empty or already-finished session id.
func (h *WebSocketHandler) abandonActive(sessionID, reason string) {
	if sessionID == "" {
		return
	}
	view, err := h.registry.Get(sessionID)
	if err != nil || view.Phase != interview.PhaseInProgress {
		return
	}
	if err := h.registry.Abandon(sessionID); err == nil {
		logger.Info("Session abandoned",
			zap.String("session_id", sessionID),
			zap.String("reason", reason),
		)
	}
}

func (h *WebSocketHandler) handleStart(c *websocket.Conn) (string, error) {
	view, err := h.registry.Create(context.Background())
	if err != nil {
		logger.Error("Failed to create interview session", zap.Error(err))
		return "", err
	}

	resp := map[string]interface{}{
		"type":           "started",
		"session_id":     view.ID,
		"question_count": view.QuestionCount,
	}
	if view.Current != nil {
		resp["question"] = toQuestionView(*view.Current)
	}
	h.send(c, resp)

	return view.ID, nil
}

func (h *WebSocketHandler) handleAnswer(c *websocket.Conn, sessionID, answerText string) {
	if sessionID == "" {
		h.sendError(c, "No active interview. Send a start message first.")
		return
	}

	entry, view, err := h.registry.SubmitAnswer(sessionID, answerText)
	if err != nil {
		logger.Error("Failed to evaluate answer",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		if errors.Is(err, interview.ErrInvalidTransition) {
			h.sendError(c, "Interview is not accepting answers")
		} else {
			h.sendError(c, "Failed to evaluate answer")
		}
		return
	}

	resp := map[string]interface{}{
		"type":       "evaluation",
		"position":   entry.Position,
		"evaluation": entry.Evaluation,
		"progress":   view.Progress,
		"complete":   view.Complete,
	}
	if view.Current != nil {
		resp["question"] = toQuestionView(*view.Current)
	}

	h.send(c, resp)
}

func (h *WebSocketHandler) handleFinish(c *websocket.Conn, sessionID string) {
	if sessionID == "" {
		h.sendError(c, "No active interview to finish")
		return
	}

	summary, err := h.registry.Finish(sessionID)
	if err != nil {
		logger.Error("Failed to finish interview",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		if errors.Is(err, interview.ErrInvalidTransition) {
			h.sendError(c, "Interview cannot be finished yet")
		} else {
			h.sendError(c, "Failed to finish interview")
		}
		return
	}

	h.send(c, map[string]interface{}{
		"type":       "summary",
		"session_id": sessionID,
		"summary":    summary,
	})
}

func (h *WebSocketHandler) send(c *websocket.Conn, msg map[string]interface{}) {
	if err := c.WriteJSON(msg); err != nil {
		logger.Warn("Failed to write interview message", zap.Error(err))
	}
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	h.send(c, map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
