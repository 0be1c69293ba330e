// Package authsvc is a session.AuthProvider backed by the portal HTTP API.
package authsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/session"
)

const (
	loginPath         = "/v1/users/login"
	passwordResetPath = "/v1/users/password-reset"
	tokenRefreshPath  = "/v1/users/token-refresh"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotLoggedIn        = errors.New("not logged in")
)

// APIError is a non-2xx answer of the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return "api: " + http.StatusText(e.StatusCode) + ": " + e.Message
}

type (
	loginResponse struct {
		Token string `json:"token"`
	}

	errorResponse struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
)

// Client keeps the JWT returned by the API in memory. It is safe for concurrent use.
type Client struct {
	baseURL string
	rc      *rest.Client
	logger  core.Logger
	nowFunc func() time.Time

	mu    sync.RWMutex
	token string
}

var _ session.AuthProvider = (*Client)(nil)

func NewClient(baseURL string, httpClient *http.Client, logger core.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = core.NopLogger
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		rc:      &rest.Client{HTTPClient: httpClient},
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Token returns the current JWT, if any.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Logout forgets the JWT.
func (c *Client) Logout() { c.SetToken("") }

// IsLoggedIn reports whether a JWT is held and has not expired.
// The signature is not checked: only the API can do that.
func (c *Client) IsLoggedIn() bool {
	token := c.Token()
	if token == "" {
		return false
	}

	claims := new(jwt.StandardClaims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		c.logger.Debug("authsvc: parsing token", err)
		return false
	}
	if claims.ExpiresAt == 0 {
		return true
	}
	return c.nowFunc().Unix() < claims.ExpiresAt
}

func (c *Client) Login(ctx context.Context, creds session.Credentials) error {
	var res loginResponse
	if err := c.post(ctx, loginPath, "", creds, &res); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			return errors.Wrap(ErrInvalidCredentials, apiErr.Message)
		}
		return errors.Wrap(err, "logging in")
	}
	if res.Token == "" {
		return errors.New("logging in: empty token")
	}
	c.SetToken(res.Token)
	return nil
}

func (c *Client) ForgetPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return errors.Wrap(c.post(ctx, passwordResetPath, "", body, nil), "requesting password reset")
}

// RefreshToken exchanges the current JWT for a new one.
func (c *Client) RefreshToken(ctx context.Context) error {
	token := c.Token()
	if token == "" {
		return ErrNotLoggedIn
	}
	var res loginResponse
	if err := c.post(ctx, tokenRefreshPath, token, nil, &res); err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	c.SetToken(res.Token)
	return nil
}

// Get fetches path and decodes the JSON answer into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, rest.Get, path, c.Token(), nil, out)
}

func (c *Client) post(ctx context.Context, path, token string, in, out interface{}) error {
	return c.do(ctx, rest.Post, path, token, in, out)
}

func (c *Client) do(ctx context.Context, method rest.Method, path, token string, in, out interface{}) error {
	req := rest.Request{
		Method:  method,
		BaseURL: c.baseURL + path,
		Headers: map[string]string{"Accept": "application/json"},
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}
	if token != "" {
		req.Headers["Authorization"] = "Bearer " + token
	}

	hreq, err := rest.BuildRequestObject(req)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	hres, err := c.rc.MakeRequest(hreq.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, string(method)+" "+path)
	}
	res, err := rest.BuildResponse(hres)
	if err != nil {
		return errors.Wrap(err, "reading response")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return newAPIError(res)
	}
	if out != nil {
		if err = json.Unmarshal([]byte(res.Body), out); err != nil {
			return errors.Wrap(err, "decoding response")
		}
	}
	return nil
}

func newAPIError(res *rest.Response) *APIError {
	apiErr := &APIError{StatusCode: res.StatusCode, Message: strings.TrimSpace(res.Body)}
	var body errorResponse
	if err := json.Unmarshal([]byte(res.Body), &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	}
	return apiErr
}
