package model

import "time"

// Field limits enforced by the task API.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// Task is a single work item owned by one user. Its identity is assigned
// by the server.
type Task struct {
	// ID is the server-assigned identifier.
	ID int64 `json:"id"`

	// UserID is the owner of the task.
	UserID string `json:"user_id"`

	// Title is the required, human-readable summary.
	Title string `json:"title"`

	// Description holds optional details. Nil means no description.
	Description *string `json:"description"`

	// Completed reports whether the task is done.
	Completed bool `json:"completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DescriptionText returns the description or an empty string.
func (t Task) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// TaskList is the response of the list endpoint. Order is server-defined.
type TaskList struct {
	Tasks []Task `json:"tasks"`
	Total int    `json:"total"`
}

// TaskCreate is the request body for creating a task.
type TaskCreate struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

// TaskUpdate is the request body for a full replace.
type TaskUpdate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// TaskPatch is the request body for a partial update.
type TaskPatch struct {
	Completed *bool `json:"completed,omitempty"`
}

// NewCompletedPatch returns a patch that sets only the completed flag.
func NewCompletedPatch(completed bool) TaskPatch {
	return TaskPatch{Completed: &completed}
}
