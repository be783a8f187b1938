package chat

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskdesk/internal/api"
	"github.com/nhle/taskdesk/internal/keys"
	"github.com/nhle/taskdesk/internal/model"
)

type echoSender struct{}

func (echoSender) SendChat(_ context.Context, message string) api.Result[api.ChatReply] {
	return api.Success(&api.ChatReply{Message: "reply to " + message})
}

// send types text, presses enter and returns the reply the panel is
// waiting for without delivering it.
func send(t *testing.T, m Model, text string) (Model, ReplyMsg) {
	t.Helper()
	m.input.SetValue(text)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter produced no command")
	}
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case ReplyMsg:
			return m, msg
		}
	}
	t.Fatal("no reply produced")
	return m, ReplyMsg{}
}

func TestReply_Delivered(t *testing.T) {
	m := New(echoSender{}, keys.DefaultKeyMap(), 80, 24)

	m, reply := send(t, m, "how do I add a task?")
	if !m.Busy() {
		t.Fatal("panel not waiting after send")
	}
	m, _ = m.Update(reply)

	got := m.relay.Transcript()
	if len(got) != 3 || got[2].Role != model.ChatRoleAssistant || got[2].Content != "reply to how do I add a task?" {
		t.Errorf("transcript = %+v", got)
	}
	if m.Busy() {
		t.Error("still busy after the reply")
	}
}

func TestReply_ForResetTranscriptDropped(t *testing.T) {
	m := New(echoSender{}, keys.DefaultKeyMap(), 80, 24)

	m, old := send(t, m, "old question")
	m.Reset()
	m, current := send(t, m, "new question")

	m, _ = m.Update(old)
	if !m.Busy() {
		t.Fatal("old reply answered the new question")
	}

	m, _ = m.Update(current)
	got := m.relay.Transcript()
	want := []model.ChatMessage{
		{Role: model.ChatRoleAssistant},
		{Role: model.ChatRoleUser, Content: "new question"},
		{Role: model.ChatRoleAssistant, Content: "reply to new question"},
	}
	if len(got) != len(want) {
		t.Fatalf("transcript = %+v", got)
	}
	for i := 1; i < len(want); i++ {
		if got[i].Role != want[i].Role || got[i].Content != want[i].Content {
			t.Errorf("transcript[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}
