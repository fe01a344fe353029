package ai

import (
	"context"
)

// Provider is the interface for AI chat providers
type Provider interface {
	// Chat handles a conversation and returns the assistant's reply along
	// with any task drafts the assistant proposed
	Chat(ctx context.Context, messages []ChatMessage) (*ChatResult, error)
}

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// TaskDraft is a task proposal extracted from an assistant reply. Fields are
// raw strings as produced by the model; PrepareDraft normalizes them.
type TaskDraft struct {
	Title    string `json:"title"`
	DueDate  string `json:"dueDate,omitempty"`
	Hashtags string `json:"hashtags,omitempty"`
}

// ChatResult represents a response from the AI chat
type ChatResult struct {
	Message string      `json:"message"`
	Drafts  []TaskDraft `json:"tasks,omitempty"`
}
