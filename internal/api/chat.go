package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nhle/taskdesk/internal/apperr"
	"github.com/nhle/taskdesk/internal/model"
)

// ChatReply is the assistant's answer.
type ChatReply struct {
	Message string
}

// SendChat posts one user message to the chat endpoint. Non-2xx answers
// carry an APIError with the status; bodies without a string "message"
// carry a FormatError.
func (c *Client) SendChat(ctx context.Context, message string) Result[ChatReply] {
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		rawURL: c.chatURL,
		body:   model.ChatRequest{Message: message},
	})
	if err != nil {
		return failureFromErr[ChatReply](err)
	}

	if resp.status < 200 || resp.status >= 300 {
		detail := fmt.Sprintf("API returned %d: %s", resp.status, http.StatusText(resp.status))
		return Failure[ChatReply](detail, &apperr.APIError{Status: resp.status, Detail: detail})
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(resp.body, &raw); err != nil {
		return formatFailure()
	}
	field, ok := raw["message"]
	if !ok || string(field) == "null" {
		return formatFailure()
	}
	var text string
	if err := json.Unmarshal(field, &text); err != nil {
		return formatFailure()
	}

	return Success(&ChatReply{Message: text})
}

func formatFailure() Result[ChatReply] {
	msg := "Invalid response format from API"
	return Failure[ChatReply](msg, &apperr.FormatError{Message: msg})
}
