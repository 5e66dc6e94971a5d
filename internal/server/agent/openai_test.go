package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/gophtodo/internal/server/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIModel_RequiresKey(t *testing.T) {
	_, err := NewOpenAIModel("", "gpt-4o", "")
	assert.ErrorIs(t, err, ErrNoAPIKey)

	m, err := NewModel("", "gpt-4o", "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
	_, err = m.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestOpenAIModel_Complete(t *testing.T) {
	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "count_tasks", "arguments": "{\"target_date\":\"2025-03-10\"}"}
					}]
				}
			}]
		}`))
	}))
	defer srv.Close()

	m, err := NewOpenAIModel("sk-test", "gpt-4o", srv.URL+"/v1")
	require.NoError(t, err)

	resp, err := m.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "sys"},
			{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "prev", Name: "get_task", Arguments: "{}"}}},
			{Role: RoleTool, Content: "{}", ToolCallID: "prev"},
			{Role: RoleUser, Content: "how many?"},
		},
		Tools: []tools.Spec{{Name: tools.CountTasks, Description: "count", Parameters: json.RawMessage(`{"type":"object"}`)}},
	})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, ToolCall{ID: "call_1", Name: "count_tasks", Arguments: `{"target_date":"2025-03-10"}`}, resp.ToolCalls[0])

	assert.Equal(t, "gpt-4o", got["model"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 4)
	assert.Equal(t, "prev", msgs[2].(map[string]any)["tool_call_id"])
	wireTools := got["tools"].([]any)
	require.Len(t, wireTools, 1)
	fn := wireTools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "count_tasks", fn["name"])
}

func TestOpenAIModel_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"down","type":"server_error"}}`))
	}))
	defer srv.Close()

	m, err := NewOpenAIModel("sk-test", "gpt-4o", srv.URL+"/v1")
	require.NoError(t, err)

	_, err = m.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.Error(t, err)
}
