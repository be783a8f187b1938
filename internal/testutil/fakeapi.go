// Package testutil provides an in-memory fake of the task API and helpers
// for wiring clients against it.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nhle/taskdesk/internal/api"
	"github.com/nhle/taskdesk/internal/credential"
	"github.com/nhle/taskdesk/internal/model"
)

// Route names used for error injection and request counting.
const (
	RouteRegister = "register"
	RouteLogin    = "login"
	RouteMe       = "me"
	RouteList     = "list"
	RouteCreate   = "create"
	RouteUpdate   = "update"
	RoutePatch    = "patch"
	RouteDelete   = "delete"
	RouteChat     = "chat"
)

type fakeUser struct {
	id       string
	email    string
	password string
}

type injected struct {
	status int
	body   string
}

// FakeAPI is an httptest server implementing the task API contract.
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	users    map[string]fakeUser // email -> user
	tokens   map[string]string   // token -> user id
	tasks    map[string][]model.Task
	nextUser int
	nextTask int64
	failures map[string]injected
	counts   map[string]int

	chatReply  interface{}
	lastAuth   string
	lastCookie string
}

// NewFakeAPI starts a fake API server that is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		users:     make(map[string]fakeUser),
		tokens:    make(map[string]string),
		tasks:     make(map[string][]model.Task),
		failures:  make(map[string]injected),
		counts:    make(map[string]int),
		chatReply: map[string]string{"message": "Hello there!"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", f.handleRegister)
	mux.HandleFunc("POST /api/login", f.handleLogin)
	mux.HandleFunc("GET /api/me", f.handleMe)
	mux.HandleFunc("POST /api/chat", f.handleChat)
	mux.HandleFunc("GET /api/{userID}/tasks", f.handleList)
	mux.HandleFunc("POST /api/{userID}/tasks", f.handleCreate)
	mux.HandleFunc("PUT /api/{userID}/tasks/{taskID}", f.handleUpdate)
	mux.HandleFunc("PATCH /api/{userID}/tasks/{taskID}", f.handlePatch)
	mux.HandleFunc("DELETE /api/{userID}/tasks/{taskID}", f.handleDelete)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake server.
func (f *FakeAPI) URL() string { return f.Server.URL }

// Fail makes every subsequent request to route answer with status and a
// {"detail": detail} body, until Clear is called.
func (f *FakeAPI) Fail(route string, status int, detail string) {
	body, _ := json.Marshal(map[string]string{"detail": detail})
	f.FailRaw(route, status, string(body))
}

// FailRaw is like Fail with an arbitrary body.
func (f *FakeAPI) FailRaw(route string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[route] = injected{status: status, body: body}
}

// Clear removes an injected failure.
func (f *FakeAPI) Clear(route string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, route)
}

// SetChatReply sets the JSON body the chat endpoint answers with. The
// default is {"message": "Hello there!"}.
func (f *FakeAPI) SetChatReply(v interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatReply = v
}

// LastCredentials returns the Authorization header and auth cookie of the
// most recent authenticated request.
func (f *FakeAPI) LastCredentials() (header, cookie string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth, f.lastCookie
}

// Count returns how many requests reached route.
func (f *FakeAPI) Count(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[route]
}

// AddUser registers an account directly and returns its id.
func (f *FakeAPI) AddUser(email, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addUserLocked(email, password).id
}

// IssueToken returns a valid token for userID.
func (f *FakeAPI) IssueToken(userID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueLocked(userID)
}

// AcceptToken makes the server accept tok for userID, for tokens minted
// outside the fake (signed JWTs).
func (f *FakeAPI) AcceptToken(tok, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[tok] = userID
}

// RevokeAll invalidates every issued token.
func (f *FakeAPI) RevokeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]string)
}

// SeedTask stores a task for userID and returns it.
func (f *FakeAPI) SeedTask(userID, title string, completed bool) model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTask++
	now := time.Now().UTC().Truncate(time.Second)
	task := model.Task{
		ID:        f.nextTask,
		UserID:    userID,
		Title:     title,
		Completed: completed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.tasks[userID] = append(f.tasks[userID], task)
	return task
}

// Tasks returns a copy of the stored tasks for userID.
func (f *FakeAPI) Tasks(userID string) []model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Task(nil), f.tasks[userID]...)
}

func (f *FakeAPI) addUserLocked(email, password string) fakeUser {
	f.nextUser++
	u := fakeUser{
		id:       fmt.Sprintf("user-%d", f.nextUser),
		email:    email,
		password: password,
	}
	f.users[email] = u
	return u
}

func (f *FakeAPI) issueLocked(userID string) string {
	tok := fmt.Sprintf("tok-%s-%d", userID, len(f.tokens)+1)
	f.tokens[tok] = userID
	return tok
}

// enter counts the request and writes an injected failure if one is set.
// It reports whether the handler should continue.
func (f *FakeAPI) enter(w http.ResponseWriter, route string) bool {
	f.mu.Lock()
	f.counts[route]++
	inj, failing := f.failures[route]
	f.mu.Unlock()

	if failing {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(inj.status)
		_, _ = w.Write([]byte(inj.body))
		return false
	}
	return true
}

// authorize resolves the caller from the Bearer header or the cookie.
func (f *FakeAPI) authorize(r *http.Request) (string, bool) {
	tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	cookie := ""
	if c, err := r.Cookie(api.AuthCookieName); err == nil {
		cookie = c.Value
		if tok == "" {
			tok = c.Value
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAuth = r.Header.Get("Authorization")
	f.lastCookie = cookie
	userID, ok := f.tokens[tok]
	return userID, ok
}

// owner authorizes the request and checks the path user matches.
func (f *FakeAPI) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := f.authorize(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
		return "", false
	}
	if r.PathValue("userID") != userID {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Not authorized to access this user's tasks"})
		return "", false
	}
	return userID, true
}

func (f *FakeAPI) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !f.enter(w, RouteRegister) {
		return
	}
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "Invalid body"})
		return
	}

	f.mu.Lock()
	if _, exists := f.users[creds.Email]; exists {
		f.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Email already registered"})
		return
	}
	u := f.addUserLocked(creds.Email, creds.Password)
	tok := f.issueLocked(u.id)
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, model.AuthResponse{
		User:        model.User{ID: u.id, Email: u.email},
		AccessToken: tok,
	})
}

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !f.enter(w, RouteLogin) {
		return
	}
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "Invalid body"})
		return
	}

	f.mu.Lock()
	u, ok := f.users[creds.Email]
	if !ok || u.password != creds.Password {
		f.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
		return
	}
	tok := f.issueLocked(u.id)
	f.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: api.AuthCookieName, Value: tok, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, model.AuthResponse{
		User:        model.User{ID: u.id, Email: u.email},
		AccessToken: tok,
	})
}

func (f *FakeAPI) handleMe(w http.ResponseWriter, r *http.Request) {
	if !f.enter(w, RouteMe) {
		return
	}
	userID, ok := f.authorize(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
		return
	}

	f.mu.Lock()
	email := ""
	for _, u := range f.users {
		if u.id == userID {
			email = u.email
		}
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, model.CurrentUser{UserID: userID, Email: email})
}

func (f *FakeAPI) handleList(w http.ResponseWriter, r *http.Request) {
	if !f.enter(w, RouteList) {
		return
	}
	userID, ok := f.owner(w, r)
	if !ok {
		return
	}
	tasks := f.Tasks(userID)
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, model.TaskList{Tasks: tasks, Total: len(tasks)})
}

func (f *FakeAPI) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !f.enter(w, RouteCreate) {
		return
	}
	userID, ok := f.owner(w, r)
	if !ok {
		return
	}
	var in model.TaskCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Title == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "Title is required"})
		return
	}

	task := f.SeedTask(userID, in.Title, false)
	if in.Description != nil {
		task = f.mutate(userID, task.ID, func(t *model.Task) { t.Description = in.Description })
	}
	writeJSON(w, http.StatusCreated, task)
}

func (f *FakeAPI) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !f.enter(w, RouteUpdate) {
		return
	}
	userID, ok := f.owner(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(r.PathValue("taskID"), 10, 64)
	var in model.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "Invalid body"})
		return
	}
	if !f.exists(userID, id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Task not found"})
		return
	}
	task := f.mutate(userID, id, func(t *model.Task) {
		t.Title = in.Title
		desc := in.Description
		t.Description = &desc
		t.Completed = in.Completed
	})
	writeJSON(w, http.StatusOK, task)
}

func (f *FakeAPI) handlePatch(w http.ResponseWriter, r *http.Request) {
	if !f.enter(w, RoutePatch) {
		return
	}
	userID, ok := f.owner(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(r.PathValue("taskID"), 10, 64)
	var in model.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "Invalid body"})
		return
	}
	if !f.exists(userID, id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Task not found"})
		return
	}
	task := f.mutate(userID, id, func(t *model.Task) {
		if in.Completed != nil {
			t.Completed = *in.Completed
		}
	})
	writeJSON(w, http.StatusOK, task)
}

func (f *FakeAPI) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !f.enter(w, RouteDelete) {
		return
	}
	userID, ok := f.owner(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(r.PathValue("taskID"), 10, 64)

	f.mu.Lock()
	tasks := f.tasks[userID]
	found := false
	for i := range tasks {
		if tasks[i].ID == id {
			f.tasks[userID] = append(tasks[:i:i], tasks[i+1:]...)
			found = true
			break
		}
	}
	f.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Task not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) handleChat(w http.ResponseWriter, r *http.Request) {
	if !f.enter(w, RouteChat) {
		return
	}
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "Invalid body"})
		return
	}
	f.mu.Lock()
	reply := f.chatReply
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, reply)
}

func (f *FakeAPI) exists(userID string, id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks[userID] {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (f *FakeAPI) mutate(userID string, id int64, fn func(*model.Task)) model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := f.tasks[userID]
	for i := range tasks {
		if tasks[i].ID == id {
			fn(&tasks[i])
			tasks[i].UpdatedAt = tasks[i].UpdatedAt.Add(time.Second)
			return tasks[i]
		}
	}
	return model.Task{}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewClient returns an api.Client pointed at f, reading tokens from store.
func NewClient(t *testing.T, f *FakeAPI, store credential.TokenStore) *api.Client {
	t.Helper()

	c, err := api.New(api.Options{BaseURL: f.URL(), Timeout: 5 * time.Second}, store)
	if err != nil {
		t.Fatalf("creating api client: %v", err)
	}
	return c
}

// ClosedURL returns a base URL on which nothing listens, for simulating
// network failures.
func ClosedURL(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()
	return u
}
