package whatsapp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bebeku/farm/pkg/llm"
)

func TestSessionExpiry(t *testing.T) {
	now := time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC)
	sm := NewSessionManager(10*time.Minute, 20)
	sm.now = func() time.Time { return now }

	sm.UpdateSession("a", []llm.Message{llm.UserText("halo")})
	assert.Len(t, sm.GetSession("a"), 1)

	now = now.Add(11 * time.Minute)
	assert.Empty(t, sm.GetSession("a"))
	assert.Equal(t, 1, sm.Sweep())
	assert.Equal(t, 0, sm.Sweep())
}

func TestTrimHistoryStartsAtUserText(t *testing.T) {
	history := []llm.Message{
		llm.UserText("satu"),
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "c1", Name: "getAlerts"}}},
		{Role: llm.RoleUser, ToolResults: []llm.ToolResult{{CallID: "c1", Content: "{}"}}},
		llm.AssistantText("jawab satu"),
		llm.UserText("dua"),
		llm.AssistantText("jawab dua"),
	}

	trimmed := trimHistory(history, 4)
	require.Len(t, trimmed, 2)
	assert.Equal(t, "dua", trimmed[0].Text)

	assert.Len(t, trimHistory(history, 10), 6)
}
