package tasks_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/nhle/taskdesk/internal/apperr"
	"github.com/nhle/taskdesk/internal/credential"
	"github.com/nhle/taskdesk/internal/session"
	"github.com/nhle/taskdesk/internal/tasks"
	"github.com/nhle/taskdesk/internal/testutil"
)

type fixture struct {
	fake    *testutil.FakeAPI
	service *tasks.Service
	userID  string
}

func newFixture(t *testing.T, signedIn bool) fixture {
	t.Helper()

	fake := testutil.NewFakeAPI(t)
	userID := fake.AddUser("ada@example.com", "Abcdefgh1!")
	store := credential.NewMemoryStore()
	if signedIn {
		_ = store.Set(credential.AccessTokenKey, fake.IssueToken(userID))
	}
	client := testutil.NewClient(t, fake, store)
	return fixture{
		fake:    fake,
		service: tasks.NewService(client, session.NewManager(client, store)),
		userID:  userID,
	}
}

func TestService_NoSessionSendsNothing(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	checks := map[string]error{
		"load":   f.service.Load(ctx).Err(),
		"create": f.service.Create(ctx, "Buy milk", "").Err(),
		"toggle": f.service.SetCompleted(ctx, 1, true).Err(),
		"delete": f.service.Delete(ctx, 1).Err(),
	}
	for name, err := range checks {
		if !apperr.IsAuthError(err) {
			t.Errorf("%s: err = %v, want AuthenticationError", name, err)
		}
	}
	for _, route := range []string{testutil.RouteList, testutil.RouteCreate, testutil.RoutePatch, testutil.RouteDelete} {
		if n := f.fake.Count(route); n != 0 {
			t.Errorf("%s reached the server %d times", route, n)
		}
	}
}

func TestService_CreateValidatesFirst(t *testing.T) {
	f := newFixture(t, true)

	res := f.service.Create(context.Background(), "  ", "")
	if !apperr.IsValidationError(res.Err()) {
		t.Fatalf("err = %v", res.Err())
	}
	res = f.service.Create(context.Background(), strings.Repeat("x", 201), "")
	if !apperr.IsValidationError(res.Err()) {
		t.Fatalf("err = %v", res.Err())
	}
	if f.fake.Count(testutil.RouteCreate) != 0 {
		t.Error("invalid task was sent")
	}
}

func TestService_CreateOmitsEmptyDescription(t *testing.T) {
	f := newFixture(t, true)

	res := f.service.Create(context.Background(), "Buy milk", "  ")
	if !res.Success {
		t.Fatalf("Create: %s", res.Error)
	}
	if res.Data.Description != nil {
		t.Errorf("description = %q, want nil", *res.Data.Description)
	}
}

func TestService_UpdateKeepsCompleted(t *testing.T) {
	f := newFixture(t, true)
	task := f.fake.SeedTask(f.userID, "Buy milk", true)

	res := f.service.Update(context.Background(), task, "Buy oat milk", "")
	if !res.Success {
		t.Fatalf("Update: %s", res.Error)
	}
	if !res.Data.Completed || res.Data.Title != "Buy oat milk" {
		t.Errorf("updated = %+v", res.Data)
	}
	if res.Data.DescriptionText() != "" {
		t.Errorf("description = %q", res.Data.DescriptionText())
	}
}

func TestBuyMilkScenario(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	board := tasks.NewBoard()

	board.Loaded(f.service.Load(ctx))
	if board.Status() != tasks.Empty {
		t.Fatalf("status = %v, want empty", board.Status())
	}

	created := f.service.Create(ctx, "Buy milk", "")
	if !created.Success {
		t.Fatalf("Create: %s", created.Error)
	}
	board.Loaded(f.service.Load(ctx))
	list := board.Tasks()
	if len(list) != 1 || list[0].Title != "Buy milk" || list[0].Completed {
		t.Fatalf("tasks = %+v", list)
	}

	id := list[0].ID
	patch, ok := board.BeginToggle(id)
	if !ok {
		t.Fatal("toggle refused")
	}
	if task, _ := board.Find(id); !task.Completed {
		t.Fatal("optimistic value not shown")
	}

	board.ResolveToggle(id, f.service.SetCompleted(ctx, id, *patch.Completed))

	task, _ := board.Find(id)
	if !task.Completed || !task.UpdatedAt.After(task.CreatedAt) {
		t.Errorf("task = %+v, want the confirmed server copy", task)
	}
	if f.fake.Tasks(f.userID)[0].Completed != true {
		t.Error("server state not updated")
	}
}

func TestToggleRollbackAgainstServer(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.fake.SeedTask(f.userID, "Buy milk", false)
	board := tasks.NewBoard()
	board.Loaded(f.service.Load(ctx))

	id := board.Tasks()[0].ID
	patch, _ := board.BeginToggle(id)
	f.fake.Fail(testutil.RoutePatch, http.StatusInternalServerError, "database unavailable")
	board.ResolveToggle(id, f.service.SetCompleted(ctx, id, *patch.Completed))

	if task, _ := board.Find(id); task.Completed {
		t.Error("toggle not rolled back")
	}
	if board.LastError() != "database unavailable" {
		t.Errorf("LastError = %q", board.LastError())
	}
}

func TestDeleteAgainstServer(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.fake.SeedTask(f.userID, "one", false)
	board := tasks.NewBoard()
	board.Loaded(f.service.Load(ctx))
	id := board.Tasks()[0].ID

	board.RequestDelete(id)
	confirmed, _ := board.ConfirmDelete()
	f.fake.Fail(testutil.RouteDelete, http.StatusInternalServerError, "try later")
	board.ResolveDelete(confirmed, f.service.Delete(ctx, confirmed))
	if _, ok := board.Find(id); !ok {
		t.Fatal("failed delete removed the item")
	}

	f.fake.Clear(testutil.RouteDelete)
	board.RequestDelete(id)
	confirmed, _ = board.ConfirmDelete()
	board.ResolveDelete(confirmed, f.service.Delete(ctx, confirmed))
	if board.Status() != tasks.Empty {
		t.Errorf("status = %v, want empty", board.Status())
	}
}
