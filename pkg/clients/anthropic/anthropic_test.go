package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bebeku/farm/pkg/llm"
)

func TestCompleteSendsToolsAndParsesToolUse(t *testing.T) {
	var got messageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"stop_reason": "tool_use",
			"content": [
				{"type": "text", "text": "Sebentar, saya cek."},
				{"type": "tool_use", "id": "tu_1", "name": "getAlerts", "input": {}}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: srv.URL, Model: "claude-test"})
	resp, err := client.Complete(context.Background(), llm.Request{
		System: "sys",
		Messages: []llm.Message{
			llm.UserText("ada peringatan?"),
			{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "tu_0", Name: "getDashboardSummary"}}},
			{Role: llm.RoleUser, ToolResults: []llm.ToolResult{{CallID: "tu_0", Content: `{"active_batches":1}`}}},
		},
		Tools: []llm.ToolSpec{{Name: "getAlerts", Description: "alerts", InputSchema: map[string]any{"type": "object"}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	assert.Equal(t, "sys", got.System)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "tool_use", got.Messages[1].Content[0].Type)
	assert.JSONEq(t, `{}`, string(got.Messages[1].Content[0].Input))
	assert.Equal(t, "tool_result", got.Messages[2].Content[0].Type)
	assert.Equal(t, "tu_0", got.Messages[2].Content[0].ToolUseID)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "getAlerts", got.Tools[0].Name)

	assert.Equal(t, "Sebentar, saya cek.", resp.Text)
	assert.Equal(t, "tool_use", resp.StopReason)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "tu_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "getAlerts", resp.ToolCalls[0].Name)
}

func TestCompleteSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), llm.Request{Messages: []llm.Message{llm.UserText("halo")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid x-api-key")
}
