package tasks

import (
	"log"

	"github.com/nhle/taskdesk/internal/api"
	"github.com/nhle/taskdesk/internal/apperr"
	"github.com/nhle/taskdesk/internal/model"
	"github.com/nhle/taskdesk/internal/optimistic"
)

// Status is the load state of a Board.
type Status int

const (
	Loading Status = iota
	Ready
	Empty
	Failed
	// Unauthenticated means the view should send the user to sign in.
	Unauthenticated
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "loading"
	}
}

const toggleFailedMessage = "Failed to update task"

// Board is the in-memory task list of one view. It is not safe for
// concurrent use; the UI update loop owns it.
type Board struct {
	tasks   []model.Task
	status  Status
	loadErr string
	lastErr string

	toggles  *optimistic.Tracker[int64, bool]
	deleting map[int64]bool

	confirmID   int64
	confirmOpen bool
}

// NewBoard returns a Board in the Loading state.
func NewBoard() *Board {
	return &Board{
		status:   Loading,
		toggles:  optimistic.New[int64, bool](),
		deleting: make(map[int64]bool),
	}
}

// Status returns the load state.
func (b *Board) Status() Status { return b.status }

// Tasks returns the visible tasks in server order.
func (b *Board) Tasks() []model.Task {
	return append([]model.Task(nil), b.tasks...)
}

// LoadError is the message shown instead of the list when Status is Failed.
func (b *Board) LoadError() string { return b.loadErr }

// LastError is the most recent item-level failure, or "".
func (b *Board) LastError() string { return b.lastErr }

// ClearError dismisses LastError.
func (b *Board) ClearError() { b.lastErr = "" }

// SetLoading marks a refetch in progress. Visible tasks are kept.
func (b *Board) SetLoading() { b.status = Loading }

// Loaded applies a list result. Requests still in flight keep their
// state, and a pending toggle keeps its optimistic value until the patch
// resolves.
func (b *Board) Loaded(res api.Result[model.TaskList]) {
	switch {
	case apperr.IsAuthError(res.Err()):
		b.status = Unauthenticated
		b.tasks = nil
		b.toggles.Reset()
		b.deleting = make(map[int64]bool)
		b.confirmOpen = false
	case !res.Success:
		b.status = Failed
		b.loadErr = res.Error
	default:
		b.loadErr = ""
		b.replaceTasks(res.Data)
		b.refreshStatus()
		if b.index(b.confirmID) < 0 {
			b.confirmOpen = false
		}
	}
}

func (b *Board) replaceTasks(list *model.TaskList) {
	pending := make(map[int64]bool)
	for _, t := range b.tasks {
		if b.toggles.InFlight(t.ID) {
			pending[t.ID] = t.Completed
		}
	}

	b.tasks = nil
	if list != nil {
		b.tasks = append(b.tasks, list.Tasks...)
	}

	present := make(map[int64]bool, len(b.tasks))
	for i := range b.tasks {
		id := b.tasks[i].ID
		present[id] = true
		if completed, ok := pending[id]; ok {
			b.tasks[i].Completed = completed
		}
	}
	for id := range pending {
		if !present[id] {
			b.toggles.Forget(id)
		}
	}
}

func (b *Board) refreshStatus() {
	if len(b.tasks) == 0 {
		b.status = Empty
	} else {
		b.status = Ready
	}
}

func (b *Board) index(id int64) int {
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the visible task with id.
func (b *Board) Find(id int64) (model.Task, bool) {
	if i := b.index(id); i >= 0 {
		return b.tasks[i], true
	}
	return model.Task{}, false
}

// Busy reports whether a toggle or delete for id is in flight.
func (b *Board) Busy(id int64) bool {
	return b.toggles.InFlight(id) || b.deleting[id]
}

// Add appends a task created by this view.
func (b *Board) Add(task model.Task) {
	b.tasks = append(b.tasks, task)
	b.refreshStatus()
}

// Replace swaps in the server's copy of a task.
func (b *Board) Replace(task model.Task) {
	if i := b.index(task.ID); i >= 0 {
		b.tasks[i] = task
	}
}

// BeginToggle flips the completed flag locally and returns the patch to
// send. ok is false when the task is unknown or already busy; the toggle
// is then ignored.
func (b *Board) BeginToggle(id int64) (patch model.TaskPatch, ok bool) {
	i := b.index(id)
	if i < 0 || b.deleting[id] {
		return patch, false
	}
	prev := b.tasks[i].Completed
	if !b.toggles.Begin(id, prev) {
		return patch, false
	}
	b.tasks[i].Completed = !prev
	return model.NewCompletedPatch(!prev), true
}

// ResolveToggle applies the patch result. A failure, or a success without
// data, restores the pre-toggle value.
func (b *Board) ResolveToggle(id int64, res api.Result[model.Task]) {
	if res.Success && res.Data != nil {
		b.toggles.Commit(id)
		b.Replace(*res.Data)
		return
	}

	prev, ok := b.toggles.Rollback(id)
	if !ok {
		return
	}
	if i := b.index(id); i >= 0 {
		b.tasks[i].Completed = prev
	}
	b.lastErr = res.Error
	if b.lastErr == "" {
		b.lastErr = toggleFailedMessage
	}
	log.Printf("tasks: toggle %d rolled back: %s", id, b.lastErr)
}

// RequestDelete opens the delete confirmation for id.
func (b *Board) RequestDelete(id int64) bool {
	if b.index(id) < 0 || b.Busy(id) {
		return false
	}
	b.confirmID = id
	b.confirmOpen = true
	return true
}

// Confirming returns the task awaiting delete confirmation.
func (b *Board) Confirming() (model.Task, bool) {
	if !b.confirmOpen {
		return model.Task{}, false
	}
	return b.Find(b.confirmID)
}

// ConfirmDelete closes the confirmation and returns the id to delete.
func (b *Board) ConfirmDelete() (int64, bool) {
	if !b.confirmOpen {
		return 0, false
	}
	b.confirmOpen = false
	if b.index(b.confirmID) < 0 {
		return 0, false
	}
	b.deleting[b.confirmID] = true
	return b.confirmID, true
}

// CancelDelete closes the confirmation without deleting.
func (b *Board) CancelDelete() {
	b.confirmOpen = false
}

// ResolveDelete applies a delete result. The task is removed only for a
// confirmed delete that succeeded. Confirmed deletes stay marked across a
// refetch, so their outcome is never lost.
func (b *Board) ResolveDelete(id int64, res api.Result[struct{}]) {
	if !b.deleting[id] {
		return
	}
	delete(b.deleting, id)

	if !res.Success {
		b.lastErr = res.Error
		log.Printf("tasks: delete %d failed: %s", id, res.Error)
		return
	}

	if i := b.index(id); i >= 0 {
		b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
	}
	b.toggles.Forget(id)
	b.refreshStatus()
}
