package model

// ChatRole identifies the author of a chat turn.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn in the support chat transcript.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ChatRequest is the body sent to the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}
