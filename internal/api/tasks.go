package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nhle/taskdesk/internal/apperr"
	"github.com/nhle/taskdesk/internal/model"
)

func tasksPath(userID string) string {
	return "/api/" + url.PathEscape(userID) + "/tasks"
}

func taskPath(userID string, taskID int64) string {
	return fmt.Sprintf("%s/%d", tasksPath(userID), taskID)
}

// ListTasks returns the user's tasks in server order.
func (c *Client) ListTasks(ctx context.Context, userID string) Result[model.TaskList] {
	if userID == "" {
		msg := "User ID is required to list tasks"
		return Failure[model.TaskList](msg, apperr.Invalid("user_id", msg))
	}
	return call[model.TaskList](ctx, c, request{
		method: http.MethodGet,
		path:   tasksPath(userID),
		auth:   true,
	}, "Failed to load tasks")
}

// GetTask returns a single task. The API has no dedicated endpoint, so
// the list is fetched and searched.
func (c *Client) GetTask(ctx context.Context, userID string, taskID int64) Result[model.Task] {
	list := c.ListTasks(ctx, userID)
	if !list.Success {
		return Failure[model.Task](list.Error, list.Err())
	}
	for i := range list.Data.Tasks {
		if list.Data.Tasks[i].ID == taskID {
			t := list.Data.Tasks[i]
			return Success(&t)
		}
	}
	msg := "Task not found"
	return Failure[model.Task](msg, &apperr.APIError{Status: http.StatusNotFound, Detail: msg})
}

// CreateTask creates a task owned by userID.
func (c *Client) CreateTask(ctx context.Context, userID string, in model.TaskCreate) Result[model.Task] {
	return call[model.Task](ctx, c, request{
		method: http.MethodPost,
		path:   tasksPath(userID),
		body:   in,
		auth:   true,
	}, "Failed to create task")
}

// UpdateTask replaces title, description and completed.
func (c *Client) UpdateTask(ctx context.Context, userID string, taskID int64, in model.TaskUpdate) Result[model.Task] {
	return call[model.Task](ctx, c, request{
		method: http.MethodPut,
		path:   taskPath(userID, taskID),
		body:   in,
		auth:   true,
	}, "Failed to update task")
}

// PatchTask applies a partial update.
func (c *Client) PatchTask(ctx context.Context, userID string, taskID int64, in model.TaskPatch) Result[model.Task] {
	return call[model.Task](ctx, c, request{
		method: http.MethodPatch,
		path:   taskPath(userID, taskID),
		body:   in,
		auth:   true,
	}, "Failed to update task")
}

// DeleteTask removes a task. Only 204 No Content counts as success.
func (c *Client) DeleteTask(ctx context.Context, userID string, taskID int64) Result[struct{}] {
	resp, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   taskPath(userID, taskID),
		auth:   true,
	})
	if err != nil {
		return failureFromErr[struct{}](err)
	}
	if resp.status == http.StatusNoContent {
		return Success[struct{}](nil)
	}
	return apiFailure[struct{}](resp, "Failed to delete task")
}
