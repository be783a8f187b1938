// Package chat relays support-chat messages to the chat endpoint and keeps
// the transcript for the lifetime of one panel.
package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/nhle/taskdesk/internal/api"
	"github.com/nhle/taskdesk/internal/apperr"
	"github.com/nhle/taskdesk/internal/model"
)

// Greeting opens every transcript.
const Greeting = "Hello! I am your task assistant. How can I help you today?"

// User-facing failure texts.
const (
	ConnectivityMessage = "🔌 Unable to connect to the chatbot service. Please check your internet connection."
	FormatMessage       = "⚠️ Received an unexpected response from the chatbot. Please try again."
	GenericMessage      = "Sorry, something went wrong. Please try again."
)

// Sender delivers one message to the chat endpoint.
type Sender interface {
	SendChat(ctx context.Context, message string) api.Result[api.ChatReply]
}

// Relay holds one transcript. Only one send may be outstanding.
type Relay struct {
	sender Sender

	mu         sync.Mutex
	transcript []model.ChatMessage
	busy       bool
}

// NewRelay returns a Relay whose transcript starts with the greeting.
func NewRelay(sender Sender) *Relay {
	return &Relay{
		sender: sender,
		transcript: []model.ChatMessage{
			{Role: model.ChatRoleAssistant, Content: Greeting},
		},
	}
}

// Transcript returns a copy of the conversation so far.
func (r *Relay) Transcript() []model.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ChatMessage(nil), r.transcript...)
}

// Busy reports whether a send is outstanding.
func (r *Relay) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// Begin appends the user's turn and marks the relay busy. It returns the
// trimmed text to send, or false when text is blank or a send is already
// outstanding.
func (r *Relay) Begin(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy {
		return "", false
	}
	r.busy = true
	r.transcript = append(r.transcript, model.ChatMessage{Role: model.ChatRoleUser, Content: text})
	log.Printf("chat: user: %s", text)
	return text, true
}

// Complete appends the assistant's reply, or the classified failure, and
// clears busy.
func (r *Relay) Complete(res api.Result[api.ChatReply]) model.ChatMessage {
	msg := model.ChatMessage{Role: model.ChatRoleAssistant}
	if res.Success && res.Data != nil {
		msg.Content = res.Data.Message
	} else {
		msg.Content = Classify(res.Err())
		log.Printf("chat: send failed: %v", res.Err())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy = false
	r.transcript = append(r.transcript, msg)
	log.Printf("chat: assistant: %s", msg.Content)
	return msg
}

// Send runs Begin, the request and Complete in one call.
func (r *Relay) Send(ctx context.Context, text string) (model.ChatMessage, bool) {
	text, ok := r.Begin(text)
	if !ok {
		return model.ChatMessage{}, false
	}
	return r.Complete(r.sender.SendChat(ctx, text)), true
}

// Do returns a function that performs the request for text. The UI runs
// it off the update loop and feeds the result to Complete.
func (r *Relay) Do(text string) func(context.Context) api.Result[api.ChatReply] {
	return func(ctx context.Context) api.Result[api.ChatReply] {
		return r.sender.SendChat(ctx, text)
	}
}

// Classify turns a send failure into the message shown in the transcript.
func Classify(err error) string {
	if apiErr, ok := apperr.AsAPIError(err); ok {
		return fmt.Sprintf(
			"⚠️ Chatbot service error: %s. The service might be temporarily unavailable.",
			apiErr.Detail,
		)
	}
	switch {
	case apperr.IsNetworkError(err):
		return ConnectivityMessage
	case apperr.IsFormatError(err):
		return FormatMessage
	default:
		return GenericMessage
	}
}
