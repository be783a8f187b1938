package help

import (
	"strings"
	"testing"

	"github.com/nhle/taskdesk/internal/keys"
)

func TestView_AccountFooter(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 40)

	m.SetAccount("", "http://localhost:8000")
	if v := m.View(); !strings.Contains(v, "Not signed in") {
		t.Errorf("signed-out footer missing:\n%s", v)
	}

	m.SetAccount("ann@example.com", "http://localhost:8000")
	v := m.View()
	if !strings.Contains(v, "Signed in as ann@example.com") {
		t.Errorf("account footer missing:\n%s", v)
	}
	for _, want := range []string{"Tasks", "toggle done", ":refresh"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
