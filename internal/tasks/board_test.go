package tasks

import (
	"net/http"
	"testing"

	"github.com/nhle/taskdesk/internal/api"
	"github.com/nhle/taskdesk/internal/apperr"
	"github.com/nhle/taskdesk/internal/model"
)

func listOf(tasks ...model.Task) api.Result[model.TaskList] {
	return api.Success(&model.TaskList{Tasks: tasks, Total: len(tasks)})
}

func patchFailed(msg string) api.Result[model.Task] {
	return api.Failure[model.Task](msg, &apperr.APIError{Status: http.StatusInternalServerError, Detail: msg})
}

func readyBoard(tasks ...model.Task) *Board {
	b := NewBoard()
	b.Loaded(listOf(tasks...))
	return b
}

func TestBoard_LoadedStatuses(t *testing.T) {
	tests := []struct {
		name string
		res  api.Result[model.TaskList]
		want Status
	}{
		{"empty", listOf(), Empty},
		{"ready", listOf(model.Task{ID: 1, Title: "a"}), Ready},
		{"failed", api.Failure[model.TaskList]("Failed to load tasks", nil), Failed},
		{"unauthenticated", api.Failure[model.TaskList]("Not authenticated", apperr.NotAuthenticated("Not authenticated")), Unauthenticated},
		{"expired token", api.Failure[model.TaskList]("bad", &apperr.APIError{Status: 401, Detail: "bad"}), Unauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBoard()
			if b.Status() != Loading {
				t.Fatalf("initial status = %v", b.Status())
			}
			b.Loaded(tt.res)
			if b.Status() != tt.want {
				t.Errorf("status = %v, want %v", b.Status(), tt.want)
			}
		})
	}
}

func TestBoard_FailedKeepsMessage(t *testing.T) {
	b := NewBoard()
	b.Loaded(api.Failure[model.TaskList]("Failed to load tasks", nil))
	if b.LoadError() != "Failed to load tasks" {
		t.Errorf("LoadError = %q", b.LoadError())
	}
}

func TestBoard_PreservesServerOrder(t *testing.T) {
	b := readyBoard(model.Task{ID: 3}, model.Task{ID: 1}, model.Task{ID: 2})
	got := b.Tasks()
	for i, want := range []int64{3, 1, 2} {
		if got[i].ID != want {
			t.Fatalf("order = %v", got)
		}
	}
}

func TestBoard_ToggleRollback(t *testing.T) {
	for _, start := range []bool{false, true} {
		b := readyBoard(model.Task{ID: 1, Completed: start})

		patch, ok := b.BeginToggle(1)
		if !ok || patch.Completed == nil || *patch.Completed != !start {
			t.Fatalf("BeginToggle = %+v, %v", patch, ok)
		}
		if task, _ := b.Find(1); task.Completed != !start {
			t.Fatal("optimistic flip not applied")
		}

		b.ResolveToggle(1, patchFailed("Failed to update task"))

		task, _ := b.Find(1)
		if task.Completed != start {
			t.Errorf("start=%v: completed = %v after rollback", start, task.Completed)
		}
		if b.LastError() != "Failed to update task" {
			t.Errorf("LastError = %q", b.LastError())
		}
		if b.Busy(1) {
			t.Error("still busy after resolve")
		}
	}
}

func TestBoard_ToggleSuccessWithoutDataRollsBack(t *testing.T) {
	b := readyBoard(model.Task{ID: 1})
	b.BeginToggle(1)

	b.ResolveToggle(1, api.Success[model.Task](nil))

	if task, _ := b.Find(1); task.Completed {
		t.Error("empty success should roll back")
	}
	if b.LastError() == "" {
		t.Error("expected an error to be recorded")
	}
}

func TestBoard_SecondToggleIgnoredWhileInFlight(t *testing.T) {
	b := readyBoard(model.Task{ID: 1})

	if _, ok := b.BeginToggle(1); !ok {
		t.Fatal("first toggle refused")
	}
	if _, ok := b.BeginToggle(1); ok {
		t.Fatal("second toggle accepted while in flight")
	}
	if task, _ := b.Find(1); !task.Completed {
		t.Fatal("ignored toggle changed the flag")
	}

	server := model.Task{ID: 1, Completed: true, Title: "from server"}
	b.ResolveToggle(1, api.Success(&server))

	task, _ := b.Find(1)
	if !task.Completed || task.Title != "from server" {
		t.Errorf("task = %+v, want the server copy", task)
	}
	if _, ok := b.BeginToggle(1); !ok {
		t.Error("toggle refused after the first resolved")
	}
}

func TestBoard_DeleteRequiresConfirmation(t *testing.T) {
	b := readyBoard(model.Task{ID: 1}, model.Task{ID: 2})

	// A result for a delete that was never confirmed is ignored.
	b.ResolveDelete(1, api.Success[struct{}](nil))
	if len(b.Tasks()) != 2 {
		t.Fatal("unconfirmed delete removed an item")
	}

	if !b.RequestDelete(1) {
		t.Fatal("RequestDelete refused")
	}
	if task, ok := b.Confirming(); !ok || task.ID != 1 {
		t.Fatalf("Confirming = %+v, %v", task, ok)
	}
	b.CancelDelete()
	if _, ok := b.ConfirmDelete(); ok {
		t.Fatal("ConfirmDelete succeeded after cancel")
	}

	b.RequestDelete(1)
	id, ok := b.ConfirmDelete()
	if !ok || id != 1 {
		t.Fatalf("ConfirmDelete = %d, %v", id, ok)
	}
	if len(b.Tasks()) != 2 {
		t.Fatal("item removed before the server confirmed")
	}
	if _, ok := b.BeginToggle(1); ok {
		t.Error("toggle accepted while deleting")
	}

	b.ResolveDelete(1, api.Success[struct{}](nil))
	if _, found := b.Find(1); found {
		t.Error("item kept after confirmed delete")
	}
	if b.Status() != Ready {
		t.Errorf("status = %v", b.Status())
	}
}

func TestBoard_DeleteFailureKeepsItem(t *testing.T) {
	b := readyBoard(model.Task{ID: 1})
	b.RequestDelete(1)
	b.ConfirmDelete()

	b.ResolveDelete(1, api.Failure[struct{}]("Failed to delete task", nil))

	if _, found := b.Find(1); !found {
		t.Error("item removed despite failure")
	}
	if b.LastError() != "Failed to delete task" {
		t.Errorf("LastError = %q", b.LastError())
	}
	b.ClearError()
	if b.LastError() != "" {
		t.Error("ClearError did not clear")
	}
}

func TestBoard_DeleteLastItemIsEmpty(t *testing.T) {
	b := readyBoard(model.Task{ID: 1})
	b.RequestDelete(1)
	b.ConfirmDelete()
	b.ResolveDelete(1, api.Success[struct{}](nil))

	if b.Status() != Empty {
		t.Errorf("status = %v, want empty", b.Status())
	}
}

func TestBoard_AddLeavesEmpty(t *testing.T) {
	b := readyBoard()
	b.Add(model.Task{ID: 5, Title: "new"})
	if b.Status() != Ready || len(b.Tasks()) != 1 {
		t.Errorf("status = %v, tasks = %v", b.Status(), b.Tasks())
	}
}

func TestBoard_RefreshDuringToggle(t *testing.T) {
	b := readyBoard(model.Task{ID: 1}, model.Task{ID: 2})
	if _, ok := b.BeginToggle(1); !ok {
		t.Fatal("BeginToggle refused")
	}

	b.SetLoading()
	b.Loaded(listOf(model.Task{ID: 1}, model.Task{ID: 2}))

	if _, ok := b.BeginToggle(1); ok {
		t.Fatal("second toggle accepted while the first patch is in flight")
	}
	if task, _ := b.Find(1); !task.Completed {
		t.Error("refetch dropped the optimistic value")
	}
	if !b.Busy(1) {
		t.Error("task not busy after refetch")
	}

	b.ResolveToggle(1, patchFailed("Failed to update task"))
	if task, _ := b.Find(1); task.Completed {
		t.Error("rollback after refetch did not restore the value")
	}
	if _, ok := b.BeginToggle(1); !ok {
		t.Error("toggle refused after the patch resolved")
	}
}

func TestBoard_RefreshDropsToggleForVanishedTask(t *testing.T) {
	b := readyBoard(model.Task{ID: 1}, model.Task{ID: 2})
	b.BeginToggle(1)

	b.Loaded(listOf(model.Task{ID: 2}))
	if b.Busy(1) {
		t.Error("vanished task still busy")
	}
	b.ResolveToggle(1, patchFailed("Failed to update task"))
	if len(b.Tasks()) != 1 {
		t.Errorf("tasks = %v", b.Tasks())
	}
}

func TestBoard_RefreshDuringDelete(t *testing.T) {
	t.Run("failure still reported", func(t *testing.T) {
		b := readyBoard(model.Task{ID: 1})
		b.RequestDelete(1)
		b.ConfirmDelete()

		b.Loaded(listOf(model.Task{ID: 1}))
		if !b.Busy(1) {
			t.Error("delete no longer tracked after refetch")
		}
		b.ResolveDelete(1, api.Failure[struct{}]("Failed to delete task", nil))

		if b.LastError() != "Failed to delete task" {
			t.Errorf("LastError = %q", b.LastError())
		}
		if _, found := b.Find(1); !found {
			t.Error("item removed despite failure")
		}
	})

	t.Run("success removes refetched row", func(t *testing.T) {
		b := readyBoard(model.Task{ID: 1}, model.Task{ID: 2})
		b.RequestDelete(1)
		b.ConfirmDelete()

		b.Loaded(listOf(model.Task{ID: 1}, model.Task{ID: 2}))
		b.ResolveDelete(1, api.Success[struct{}](nil))

		if _, found := b.Find(1); found {
			t.Error("deleted task still visible")
		}
		if len(b.Tasks()) != 1 {
			t.Errorf("tasks = %v", b.Tasks())
		}
	})
}
