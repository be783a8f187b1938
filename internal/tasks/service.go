// Package tasks is the view model behind the task screens: a Service that
// runs each protected operation for the signed-in user, and a Board that
// holds the visible list with optimistic completion toggles.
package tasks

import (
	"context"
	"strings"

	"github.com/nhle/taskdesk/internal/api"
	"github.com/nhle/taskdesk/internal/model"
	"github.com/nhle/taskdesk/internal/session"
	"github.com/nhle/taskdesk/internal/validate"
)

// Service resolves the session before every call. Without a validated
// user it fails with an AuthenticationError and sends nothing.
type Service struct {
	client   *api.Client
	sessions *session.Manager
}

// NewService returns a Service.
func NewService(client *api.Client, sessions *session.Manager) *Service {
	return &Service{client: client, sessions: sessions}
}

func authFailure[T any](err error) api.Result[T] {
	return api.Failure[T](err.Error(), err)
}

// Load fetches the user's tasks.
func (s *Service) Load(ctx context.Context) api.Result[model.TaskList] {
	user, err := s.sessions.RequireUser(ctx)
	if err != nil {
		return authFailure[model.TaskList](err)
	}
	return s.client.ListTasks(ctx, user.ID)
}

// Get returns one task.
func (s *Service) Get(ctx context.Context, id int64) api.Result[model.Task] {
	user, err := s.sessions.RequireUser(ctx)
	if err != nil {
		return authFailure[model.Task](err)
	}
	return s.client.GetTask(ctx, user.ID, id)
}

// Create validates and creates a task. An empty description is omitted.
func (s *Service) Create(ctx context.Context, title, description string) api.Result[model.Task] {
	title, description = strings.TrimSpace(title), strings.TrimSpace(description)
	if err := validate.Task(title, description); err != nil {
		return api.Failure[model.Task](err.Error(), err)
	}

	user, err := s.sessions.RequireUser(ctx)
	if err != nil {
		return authFailure[model.Task](err)
	}

	in := model.TaskCreate{Title: title}
	if description != "" {
		in.Description = &description
	}
	return s.client.CreateTask(ctx, user.ID, in)
}

// Update replaces title and description of task, keeping its current
// completed flag. An empty description is sent as "".
func (s *Service) Update(ctx context.Context, task model.Task, title, description string) api.Result[model.Task] {
	title, description = strings.TrimSpace(title), strings.TrimSpace(description)
	if err := validate.Task(title, description); err != nil {
		return api.Failure[model.Task](err.Error(), err)
	}

	user, err := s.sessions.RequireUser(ctx)
	if err != nil {
		return authFailure[model.Task](err)
	}

	return s.client.UpdateTask(ctx, user.ID, task.ID, model.TaskUpdate{
		Title:       title,
		Description: description,
		Completed:   task.Completed,
	})
}

// SetCompleted patches only the completed flag.
func (s *Service) SetCompleted(ctx context.Context, id int64, completed bool) api.Result[model.Task] {
	user, err := s.sessions.RequireUser(ctx)
	if err != nil {
		return authFailure[model.Task](err)
	}
	return s.client.PatchTask(ctx, user.ID, id, model.NewCompletedPatch(completed))
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id int64) api.Result[struct{}] {
	user, err := s.sessions.RequireUser(ctx)
	if err != nil {
		return authFailure[struct{}](err)
	}
	return s.client.DeleteTask(ctx, user.ID, id)
}
