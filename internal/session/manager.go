// Package session owns the single client-side session slot: it signs in,
// validates the stored token against the API and signs out.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/nhle/taskdesk/internal/api"
	"github.com/nhle/taskdesk/internal/apperr"
	"github.com/nhle/taskdesk/internal/credential"
	"github.com/nhle/taskdesk/internal/model"
	"github.com/nhle/taskdesk/internal/validate"
)

// State is the lifecycle position of the session.
type State int

const (
	// Unauthenticated means no token is stored.
	Unauthenticated State = iota
	// Pending means a token is stored but not yet validated.
	Pending
	// Authenticated means the API confirmed the token.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Manager coordinates the token store and the API client.
type Manager struct {
	client   *api.Client
	tokens   credential.TokenStore
	verifier *Verifier

	mu      sync.Mutex
	state   State
	current *model.Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithJWTSecret enables local signature and expiry checks before the
// network lookup.
func WithJWTSecret(secret string) Option {
	return func(m *Manager) {
		m.verifier = NewVerifier(secret)
	}
}

// NewManager returns a Manager. The initial state is Pending when a token
// is already stored, otherwise Unauthenticated.
func NewManager(client *api.Client, tokens credential.TokenStore, opts ...Option) *Manager {
	m := &Manager{client: client, tokens: tokens}
	for _, opt := range opts {
		opt(m)
	}
	if tok, err := credential.Token(tokens); err == nil && tok != "" {
		m.state = Pending
	}
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns the last validated session, or nil.
func (m *Manager) Current() *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) set(state State, s *model.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.current = s
}

// SignIn validates the form locally, logs in and stores the token.
func (m *Manager) SignIn(ctx context.Context, email, password string) api.Result[model.User] {
	if err := validate.Login(email, password); err != nil {
		return api.Failure[model.User](err.Error(), err)
	}
	res := m.client.Login(ctx, model.Credentials{Email: email, Password: password})
	return m.accept(res)
}

// SignUp validates the register form locally, registers and stores the
// token. A mismatched confirmation never reaches the API.
func (m *Manager) SignUp(ctx context.Context, email, password, confirm string) api.Result[model.User] {
	if err := validate.Credentials(email, password, confirm); err != nil {
		return api.Failure[model.User](err.Error(), err)
	}
	res := m.client.Register(ctx, model.Credentials{Email: email, Password: password})
	return m.accept(res)
}

func (m *Manager) accept(res api.Result[model.AuthResponse]) api.Result[model.User] {
	if !res.Success {
		return api.Failure[model.User](res.Error, res.Err())
	}
	if res.Data == nil || res.Data.AccessToken == "" {
		msg := "Server did not return an access token"
		return api.Failure[model.User](msg, &apperr.FormatError{Message: msg})
	}

	if err := m.tokens.Set(credential.AccessTokenKey, res.Data.AccessToken); err != nil {
		log.Printf("session: storing token: %v", err)
		return api.Failure[model.User]("Could not store session", fmt.Errorf("storing token: %w", err))
	}
	m.client.SetAuthCookie(res.Data.AccessToken)
	m.set(Pending, nil)

	user := res.Data.User
	return api.Success(&user)
}

// GetSession validates the stored token and returns the session, or nil
// when there is none. Any validation failure clears the stored token.
func (m *Manager) GetSession(ctx context.Context) *model.Session {
	tok, err := credential.Token(m.tokens)
	if err != nil {
		log.Printf("session: reading token: %v", err)
		m.set(Unauthenticated, nil)
		return nil
	}
	if tok == "" {
		m.set(Unauthenticated, nil)
		return nil
	}

	if m.verifier != nil {
		if _, err := m.verifier.Verify(tok); err != nil {
			log.Printf("session: discarding token: %v", err)
			m.clear()
			return nil
		}
	}

	res := m.client.CurrentUser(ctx)
	if res == nil {
		m.clear()
		return nil
	}
	if !res.Success {
		log.Printf("session: validating token: %s", res.Error)
		m.clear()
		return nil
	}

	s := &model.Session{
		User:        model.User{ID: res.Data.UserID, Email: res.Data.Email},
		AccessToken: tok,
	}
	m.set(Authenticated, s)
	return s
}

// RequireUser returns the validated user for a protected action. A
// session carried by ctx is used as is. Otherwise the stored token is
// validated.
func (m *Manager) RequireUser(ctx context.Context) (model.User, error) {
	s, ok := FromContext(ctx)
	if !ok {
		s = m.GetSession(ctx)
	}
	if s == nil || s.User.ID == "" {
		return model.User{}, apperr.NotAuthenticated("Not authenticated")
	}
	return s.User, nil
}

// SignOut forgets the token. It never fails; storage errors are logged.
func (m *Manager) SignOut(_ context.Context) {
	m.clear()
}

func (m *Manager) clear() {
	if err := m.tokens.Delete(credential.AccessTokenKey); err != nil {
		log.Printf("session: deleting token: %v", err)
	}
	m.client.ClearAuthCookie()
	m.set(Unauthenticated, nil)
}

// Claims decodes the stored token. With a configured secret the claims
// are verified, otherwise they are marked unverified.
func (m *Manager) Claims() (Claims, error) {
	tok, err := credential.Token(m.tokens)
	if err != nil {
		return Claims{}, fmt.Errorf("reading token: %w", err)
	}
	if tok == "" {
		return Claims{}, apperr.NotAuthenticated("Not authenticated")
	}
	if m.verifier != nil {
		return m.verifier.Verify(tok)
	}
	return ParseUnverified(tok)
}
