package api

import (
	"context"
	"log"
	"net/http"

	"github.com/nhle/taskdesk/internal/apperr"
	"github.com/nhle/taskdesk/internal/credential"
	"github.com/nhle/taskdesk/internal/model"
)

// Register creates an account. The caller decides whether to persist the
// returned token.
func (c *Client) Register(ctx context.Context, creds model.Credentials) Result[model.AuthResponse] {
	return call[model.AuthResponse](ctx, c, request{
		method: http.MethodPost,
		path:   "/api/register",
		body:   creds,
	}, "Registration failed")
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, creds model.Credentials) Result[model.AuthResponse] {
	return call[model.AuthResponse](ctx, c, request{
		method: http.MethodPost,
		path:   "/api/login",
		body:   creds,
	}, "Login failed")
}

// CurrentUser asks the API who the stored token belongs to. It returns
// nil when the caller is not authenticated: either no token is stored, or
// the API answered 401, in which case the stored token is deleted.
func (c *Client) CurrentUser(ctx context.Context) *Result[model.CurrentUser] {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/me",
		auth:   true,
	})
	if err != nil {
		if apperr.IsAuthError(err) {
			return nil
		}
		res := failureFromErr[model.CurrentUser](err)
		return &res
	}

	if resp.status == http.StatusUnauthorized {
		if err := c.tokens.Delete(credential.AccessTokenKey); err != nil {
			log.Printf("api: clearing rejected token: %v", err)
		}
		c.ClearAuthCookie()
		return nil
	}

	var res Result[model.CurrentUser]
	if resp.status < 200 || resp.status >= 300 {
		res = apiFailure[model.CurrentUser](resp, "Failed to get user info")
	} else {
		res = decode[model.CurrentUser](resp, "Failed to get user info")
	}
	return &res
}
