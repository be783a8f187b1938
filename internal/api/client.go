// Package api is a typed client for the remote task API. Every operation
// returns a Result instead of a Go error for expected HTTP failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/nhle/taskdesk/internal/apperr"
	"github.com/nhle/taskdesk/internal/credential"
)

// NetworkErrorMessage is the user-facing text for transport failures.
const NetworkErrorMessage = "Network error occurred"

// AuthCookieName is the cookie the API accepts as a fallback credential.
const AuthCookieName = "access_token"

const requestIDHeader = "X-Request-ID"

// Options configures a Client.
type Options struct {
	// BaseURL is the root URL of the task API.
	BaseURL string

	// ChatURL is the full chat endpoint. Empty means BaseURL + /api/chat.
	ChatURL string

	// Timeout bounds each request. Zero means 30 seconds.
	Timeout time.Duration

	// Transport overrides the base round tripper (tests).
	Transport http.RoundTripper
}

// Client is a thin HTTP client for the task API. Authenticated calls
// carry the stored token as a Bearer header and the auth cookie as a
// fallback.
type Client struct {
	baseURL *url.URL
	chatURL string
	tokens  credential.TokenStore
	jar     *cookiejar.Jar
	anon    *http.Client
	authed  *http.Client
}

// New creates a Client that reads the bearer token from tokens on every
// authenticated request.
func New(opts Options, tokens credential.TokenStore) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", opts.BaseURL)
	}

	chatURL := opts.ChatURL
	if chatURL == "" {
		chatURL = base.String() + "/api/chat"
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &Client{
		baseURL: base,
		chatURL: chatURL,
		tokens:  tokens,
		jar:     jar,
		anon: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			Jar:       jar,
		},
		authed: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: storeTokenSource{store: tokens},
				Base:   transport,
			},
			Jar: jar,
		},
	}, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetAuthCookie records the token as the fallback auth cookie.
func (c *Client) SetAuthCookie(token string) {
	c.jar.SetCookies(c.baseURL, []*http.Cookie{{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	}})
}

// ClearAuthCookie expires the fallback auth cookie.
func (c *Client) ClearAuthCookie() {
	c.jar.SetCookies(c.baseURL, []*http.Cookie{{
		Name:   AuthCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	}})
}

// HasAuthCookie reports whether the jar currently holds the auth cookie.
func (c *Client) HasAuthCookie() bool {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == AuthCookieName && ck.Value != "" {
			return true
		}
	}
	return false
}

// storeTokenSource adapts the credential store to oauth2.TokenSource so
// that oauth2.Transport attaches the current token to each request.
type storeTokenSource struct {
	store credential.TokenStore
}

func (s storeTokenSource) Token() (*oauth2.Token, error) {
	tok, err := credential.Token(s.store)
	if err != nil {
		return nil, fmt.Errorf("reading access token: %w", err)
	}
	if tok == "" {
		return nil, apperr.NotAuthenticated("Not authenticated")
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

// request describes one API call.
type request struct {
	method string
	// path is appended to the base URL; rawURL, when set, is used as is.
	path   string
	rawURL string
	body   interface{}
	auth   bool
}

// response is the raw outcome of a call that reached the server.
type response struct {
	status    int
	body      []byte
	requestID string
}

// do is the core HTTP method that builds the request, attaches the
// request id and JSON headers, and reads the full body. A returned error
// is always a transport-level or authentication failure.
func (c *Client) do(ctx context.Context, r request) (*response, error) {
	target := r.rawURL
	if target == "" {
		target = c.baseURL.String() + r.path
	}

	var bodyReader io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.anon
	if r.auth {
		httpClient = c.authed
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		var authErr *apperr.AuthenticationError
		if errors.As(err, &authErr) {
			return nil, authErr
		}
		log.Printf("api: %s %s (request %s) failed: %v", r.method, target, reqID, err)
		return nil, &apperr.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("api: reading %s %s (request %s): %v", r.method, target, reqID, err)
		return nil, &apperr.NetworkError{Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf(
			"api: %s %s (request %s) -> %d",
			r.method, target, reqID, resp.StatusCode,
		)
	}

	return &response{
		status:    resp.StatusCode,
		body:      respBody,
		requestID: reqID,
	}, nil
}

// errorBody is the error payload shape of the task API.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// detailMessage extracts the "detail" string from an error body. FastAPI
// validation errors carry a list of objects with a "msg" field instead.
func detailMessage(body []byte) string {
	var eb errorBody
	if json.Unmarshal(body, &eb) != nil || len(eb.Detail) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(eb.Detail, &s) == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(eb.Detail, &items) == nil {
		var msgs []string
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}

// call performs r and decodes a 2xx JSON body into T. Non-2xx responses
// become failures carrying the "detail" message, or fallback when the
// body has none.
func call[T any](ctx context.Context, c *Client, r request, fallback string) Result[T] {
	resp, err := c.do(ctx, r)
	if err != nil {
		return failureFromErr[T](err)
	}

	if resp.status < 200 || resp.status >= 300 {
		return apiFailure[T](resp, fallback)
	}
	return decode[T](resp, fallback)
}

// decode unmarshals a 2xx body into T.
func decode[T any](resp *response, fallback string) Result[T] {
	var out T
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return Failure[T](
			fallback,
			&apperr.FormatError{Message: fmt.Sprintf("decoding response: %v", err)},
		)
	}
	return Success(&out)
}

func apiFailure[T any](resp *response, fallback string) Result[T] {
	detail := detailMessage(resp.body)
	if detail == "" {
		detail = fallback
	}
	return Failure[T](detail, &apperr.APIError{Status: resp.status, Detail: detail})
}

func failureFromErr[T any](err error) Result[T] {
	var authErr *apperr.AuthenticationError
	if errors.As(err, &authErr) {
		return Failure[T](authErr.Error(), authErr)
	}
	if apperr.IsNetworkError(err) {
		return Failure[T](NetworkErrorMessage, err)
	}
	return Failure[T](NetworkErrorMessage, &apperr.NetworkError{Err: err})
}
