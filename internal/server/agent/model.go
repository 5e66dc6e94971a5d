// Package agent runs chat turns: it assembles the conversation, drives a
// bounded reason/act loop against a chat model with the caller's bound
// toolset, and records both sides of the exchange in the transcript.
package agent

import (
	"context"

	"github.com/dmitrijs2005/gophtodo/internal/server/tools"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model's request to run one tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one entry of the model conversation. Assistant messages may
// carry ToolCalls; tool messages answer the call named by ToolCallID.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

type Request struct {
	Messages []Message
	Tools    []tools.Spec
}

// Response is either final Content (no ToolCalls) or a set of tool calls.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Model is a chat-completion backend.
type Model interface {
	Complete(ctx context.Context, request Request) (*Response, error)
}
