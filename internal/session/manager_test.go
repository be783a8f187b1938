package session_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nhle/taskdesk/internal/apperr"
	"github.com/nhle/taskdesk/internal/credential"
	"github.com/nhle/taskdesk/internal/model"
	"github.com/nhle/taskdesk/internal/session"
	"github.com/nhle/taskdesk/internal/testutil"
)

func newManager(t *testing.T, opts ...session.Option) (*testutil.FakeAPI, *session.Manager, *credential.MemoryStore) {
	t.Helper()

	fake := testutil.NewFakeAPI(t)
	store := credential.NewMemoryStore()
	client := testutil.NewClient(t, fake, store)
	return fake, session.NewManager(client, store, opts...), store
}

func storedToken(t *testing.T, store credential.TokenStore) string {
	t.Helper()
	tok, err := credential.Token(store)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestGetSession_NoToken(t *testing.T) {
	fake, m, _ := newManager(t)

	if s := m.GetSession(context.Background()); s != nil {
		t.Fatalf("GetSession = %+v, want nil", s)
	}
	if m.State() != session.Unauthenticated {
		t.Errorf("state = %v", m.State())
	}
	if fake.Count(testutil.RouteMe) != 0 {
		t.Error("validation request sent without a token")
	}
}

func TestSignInThenGetSession(t *testing.T) {
	fake, m, store := newManager(t)
	userID := fake.AddUser("ada@example.com", "Abcdefgh1!")
	ctx := context.Background()

	res := m.SignIn(ctx, "ada@example.com", "Abcdefgh1!")
	if !res.Success {
		t.Fatalf("SignIn: %s", res.Error)
	}
	if m.State() != session.Pending {
		t.Errorf("state after sign-in = %v, want pending", m.State())
	}
	if storedToken(t, store) == "" {
		t.Fatal("token not stored")
	}

	s := m.GetSession(ctx)
	if s == nil || s.User.ID != userID || s.User.Email != "ada@example.com" {
		t.Fatalf("GetSession = %+v", s)
	}
	if m.State() != session.Authenticated {
		t.Errorf("state = %v, want authenticated", m.State())
	}
	if m.Current() != s {
		t.Error("Current does not return the validated session")
	}
}

func TestSignIn_Rejected(t *testing.T) {
	fake, m, store := newManager(t)
	fake.AddUser("ada@example.com", "Abcdefgh1!")

	res := m.SignIn(context.Background(), "ada@example.com", "wrong")
	if res.Success || res.Error != "Incorrect email or password" {
		t.Fatalf("SignIn = %+v", res)
	}
	if storedToken(t, store) != "" {
		t.Error("token stored after failed sign-in")
	}
	if m.State() != session.Unauthenticated {
		t.Errorf("state = %v", m.State())
	}
}

func TestSignUp_MismatchNeverCallsAPI(t *testing.T) {
	fake, m, _ := newManager(t)

	res := m.SignUp(context.Background(), "ada@example.com", "Secret123!", "Secret124!")
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "Passwords do not match" || !apperr.IsValidationError(res.Err()) {
		t.Errorf("SignUp = %q (%v)", res.Error, res.Err())
	}
	if fake.Count(testutil.RouteRegister) != 0 {
		t.Error("register request sent despite mismatch")
	}
}

func TestSignUp_StoresToken(t *testing.T) {
	fake, m, store := newManager(t)

	res := m.SignUp(context.Background(), "new@example.com", "Secret123!", "Secret123!")
	if !res.Success || res.Data.Email != "new@example.com" {
		t.Fatalf("SignUp = %+v", res)
	}
	if storedToken(t, store) == "" || m.State() != session.Pending {
		t.Error("sign-up did not move to pending with a stored token")
	}
	if fake.Count(testutil.RouteRegister) != 1 {
		t.Errorf("register calls = %d", fake.Count(testutil.RouteRegister))
	}
}

func TestGetSession_RejectedTokenIsCleared(t *testing.T) {
	fake, m, store := newManager(t)
	fake.AddUser("ada@example.com", "Abcdefgh1!")
	ctx := context.Background()
	m.SignIn(ctx, "ada@example.com", "Abcdefgh1!")

	fake.RevokeAll()

	if s := m.GetSession(ctx); s != nil {
		t.Fatalf("GetSession = %+v, want nil", s)
	}
	if storedToken(t, store) != "" {
		t.Error("rejected token not cleared")
	}
	if m.State() != session.Unauthenticated {
		t.Errorf("state = %v", m.State())
	}
}

func TestGetSession_ServerErrorClearsToken(t *testing.T) {
	fake, m, store := newManager(t)
	fake.AddUser("ada@example.com", "Abcdefgh1!")
	ctx := context.Background()
	m.SignIn(ctx, "ada@example.com", "Abcdefgh1!")

	fake.Fail(testutil.RouteMe, http.StatusInternalServerError, "down")

	if s := m.GetSession(ctx); s != nil {
		t.Fatalf("GetSession = %+v, want nil", s)
	}
	if storedToken(t, store) != "" {
		t.Error("token kept after failed validation")
	}
}

func TestSignOut(t *testing.T) {
	fake, m, store := newManager(t)
	fake.AddUser("ada@example.com", "Abcdefgh1!")
	ctx := context.Background()
	m.SignIn(ctx, "ada@example.com", "Abcdefgh1!")
	m.GetSession(ctx)

	m.SignOut(ctx)

	if storedToken(t, store) != "" {
		t.Error("token survived sign-out")
	}
	if m.State() != session.Unauthenticated || m.Current() != nil {
		t.Errorf("state = %v, current = %+v", m.State(), m.Current())
	}

	// Signing out twice is harmless.
	m.SignOut(ctx)
}

func TestRequireUser(t *testing.T) {
	fake, m, _ := newManager(t)
	ctx := context.Background()

	if _, err := m.RequireUser(ctx); !apperr.IsAuthError(err) {
		t.Fatalf("RequireUser without session: %v", err)
	}

	carried := &model.Session{User: model.User{ID: "user-9", Email: "x@example.com"}}
	u, err := m.RequireUser(session.NewContext(ctx, carried))
	if err != nil || u.ID != "user-9" {
		t.Fatalf("RequireUser with context session = %+v, %v", u, err)
	}
	if fake.Count(testutil.RouteMe) != 0 {
		t.Error("context session should not be revalidated")
	}

	empty := &model.Session{}
	if _, err := m.RequireUser(session.NewContext(ctx, empty)); !apperr.IsAuthError(err) {
		t.Errorf("empty user id accepted: %v", err)
	}
}

func mint(t *testing.T, secret, sub string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
		"exp":   exp.Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestGetSession_VerifiesSignatureLocally(t *testing.T) {
	const secret = "s3cret"
	fake, m, store := newManager(t, session.WithJWTSecret(secret))
	ctx := context.Background()

	good := mint(t, secret, "user-1", time.Now().Add(time.Hour))
	fake.AcceptToken(good, "user-1")
	_ = store.Set(credential.AccessTokenKey, good)
	if s := m.GetSession(ctx); s == nil || s.User.ID != "user-1" {
		t.Fatalf("valid signed token rejected: %+v", s)
	}

	tests := map[string]string{
		"forged":  mint(t, "other", "user-1", time.Now().Add(time.Hour)),
		"expired": mint(t, secret, "user-1", time.Now().Add(-time.Hour)),
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			fake.AcceptToken(tok, "user-1")
			_ = store.Set(credential.AccessTokenKey, tok)
			before := fake.Count(testutil.RouteMe)

			if s := m.GetSession(ctx); s != nil {
				t.Fatalf("GetSession = %+v, want nil", s)
			}
			if fake.Count(testutil.RouteMe) != before {
				t.Error("invalid token reached the API")
			}
			if storedToken(t, store) != "" {
				t.Error("invalid token not purged")
			}
		})
	}
}

func TestClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := mint(t, "s3cret", "user-1", exp)

	_, unverified, store := newManager(t)
	_ = store.Set(credential.AccessTokenKey, tok)
	c, err := unverified.Claims()
	if err != nil {
		t.Fatal(err)
	}
	if c.Verified || c.Subject != "user-1" || c.Email != "user-1@example.com" || !c.ExpiresAt.Equal(exp) {
		t.Errorf("unverified claims = %+v", c)
	}

	_, verified, store2 := newManager(t, session.WithJWTSecret("s3cret"))
	_ = store2.Set(credential.AccessTokenKey, tok)
	c, err = verified.Claims()
	if err != nil || !c.Verified {
		t.Errorf("verified claims = %+v, %v", c, err)
	}

	_, none, _ := newManager(t)
	if _, err := none.Claims(); !apperr.IsAuthError(err) {
		t.Errorf("Claims without token: %v", err)
	}
}

func TestParseUnverified_Garbage(t *testing.T) {
	if _, err := session.ParseUnverified("not-a-jwt"); err == nil {
		t.Error("expected error")
	}
}
