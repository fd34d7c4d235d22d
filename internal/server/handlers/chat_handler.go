package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bebeku/farm/internal/service/assistant"
	"github.com/bebeku/farm/pkg/llm"
)

// Assistant answers a chat history.
type Assistant interface {
	Run(ctx context.Context, history []llm.Message) (*assistant.Result, error)
}

// ChatMessage is one turn of the chat request.
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content"`
}

// ChatRequest carries the conversation so far, oldest first.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" binding:"required,min=1,dive"`
}

// ChatResponse is the assistant's answer.
type ChatResponse struct {
	Reply     string   `json:"reply"`
	ToolsUsed []string `json:"tools_used"`
	Steps     int      `json:"steps"`
}

// ChatHandler serves POST /api/chat.
type ChatHandler struct {
	assistant Assistant
	logger    *zap.Logger
}

// NewChatHandler constructs the chat adapter. A nil assistant answers 503.
func NewChatHandler(a Assistant, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{assistant: a, logger: logger}
}

// Chat runs the assistant over the posted history.
func (h *ChatHandler) Chat(c *gin.Context) {
	if h.assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant is not configured"})
		return
	}

	var req ChatRequest
	if !bind(c, &req) {
		return
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != string(llm.RoleUser) || strings.TrimSpace(last.Content) == "" {
		badRequest(c, "last message must be a non-empty user message")
		return
	}

	history := make([]llm.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == string(llm.RoleAssistant) {
			history = append(history, llm.AssistantText(m.Content))
			continue
		}
		history = append(history, llm.UserText(m.Content))
	}

	res, err := h.assistant.Run(c.Request.Context(), history)
	if err != nil {
		if errors.Is(err, assistant.ErrStepLimit) {
			h.logger.Warn("assistant step limit reached", zap.Error(err))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "assistant could not finish within the step limit"})
			return
		}
		h.logger.Error("assistant failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant unavailable"})
		return
	}

	tools := res.ToolsUsed
	if tools == nil {
		tools = []string{}
	}
	c.JSON(http.StatusOK, ChatResponse{Reply: res.Reply, ToolsUsed: tools, Steps: res.Steps})
}
