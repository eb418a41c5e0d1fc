package handler

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/physai/textbook-rag/internal/domain"
	"github.com/physai/textbook-rag/internal/port"
	"github.com/physai/textbook-rag/internal/service"
)

// historyContextLimit is how many stored messages are loaded as
// conversation context for a new chat turn.
const historyContextLimit = 10

// ChatHandler handles RAG-powered chat endpoints.
type ChatHandler struct {
	rag   *service.RAGService
	store port.SessionStore
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(rag *service.RAGService, store port.SessionStore) *ChatHandler {
	return &ChatHandler{rag: rag, store: store}
}

// Register sets up chat routes.
func (h *ChatHandler) Register(router fiber.Router) {
	chat := router.Group("/chat")
	chat.Post("", h.Chat)
	chat.Get("/history/:sessionId", h.History)
	chat.Delete("/history/:sessionId", h.ClearHistory)
}

// Chat handles a chat message: it loads recent history, saves the user
// message, runs the RAG pipeline, and saves the assistant response with
// its source citations.
func (h *ChatHandler) Chat(c fiber.Ctx) error {
	var body struct {
		Message      string `json:"message"`
		SessionID    string `json:"session_id"`
		SelectedText string `json:"selected_text"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Message == "" || body.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message and session_id are required"})
	}

	stored, err := h.store.ListMessages(c.Context(), body.SessionID, historyContextLimit)
	if err != nil {
		slog.Error("load history failed", "session_id", body.SessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "chat failed"})
	}
	history := make([]domain.ConversationTurn, len(stored))
	for i, msg := range stored {
		history[i] = domain.ConversationTurn{Role: msg.Role, Content: msg.Content}
	}

	if _, err := h.store.SaveMessage(c.Context(), &domain.Message{
		SessionID:    body.SessionID,
		Role:         domain.RoleUser,
		Content:      body.Message,
		SelectedText: body.SelectedText,
	}); err != nil {
		slog.Error("save user message failed", "session_id", body.SessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "chat failed"})
	}

	chatCtx, cancel := context.WithTimeout(c.Context(), 2*time.Minute)
	defer cancel()

	answer, sources, err := h.rag.Chat(chatCtx, body.Message, body.SelectedText, history)
	if err != nil {
		slog.Error("chat failed", "session_id", body.SessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "chat failed"})
	}

	if _, err := h.store.SaveMessage(c.Context(), &domain.Message{
		SessionID: body.SessionID,
		Role:      domain.RoleAssistant,
		Content:   answer,
		Sources:   sources,
	}); err != nil {
		slog.Error("save assistant message failed", "session_id", body.SessionID, "error", err)
	}

	return c.JSON(fiber.Map{
		"response":   answer,
		"sources":    sources,
		"session_id": body.SessionID,
	})
}

// History returns the conversation history for a session in
// chronological order.
func (h *ChatHandler) History(c fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	messages, err := h.store.ListMessages(c.Context(), sessionID, limit)
	if err != nil {
		slog.Error("get history failed", "session_id", sessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get history"})
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"messages":   messages,
	})
}

// ClearHistory removes all messages for a session. The session itself
// is kept.
func (h *ChatHandler) ClearHistory(c fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	if err := h.store.DeleteMessages(c.Context(), sessionID); err != nil {
		slog.Error("clear history failed", "session_id", sessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to clear history"})
	}

	return c.JSON(fiber.Map{"status": "success", "message": "history cleared"})
}
