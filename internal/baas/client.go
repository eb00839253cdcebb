// Package baas is a client for the hosted backend the site runs on: its REST
// query interface, its auth endpoints and its websocket change feed.
//
// The client is protocol only. It knows nothing about teams or scrims; the store
// package builds typed repositories on top of it.
package baas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Options configures a Client.
type Options struct {
	URL        string // Project URL without trailing slash
	AnonKey    string
	ServiceKey string // Optional
	JWTSecret  string // Optional; enables local token verification
	Timeout    time.Duration
	Retries    int
}

// Client talks to one hosted backend project. It is safe for concurrent use.
type Client struct {
	http *resty.Client
	opts Options
	log  *logrus.Logger

	// heartbeat and backoff pace the realtime connection.
	heartbeat time.Duration
	backoff   time.Duration
}

// New builds a Client over a resty client configured from opts.
func New(opts Options, log *logrus.Logger) *Client {
	rc := resty.New().
		SetBaseURL(opts.URL).
		SetHeader("apikey", opts.AnonKey).
		SetHeader("Accept", "application/json").
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetLogger(log)

	return &Client{
		http:      rc,
		opts:      opts,
		log:       log,
		heartbeat: 25 * time.Second,
		backoff:   3 * time.Second,
	}
}

type accessTokenKey struct{}

// WithAccessToken attaches a user's access token to ctx. Requests made with the
// returned context run as that user, so the backend's row-level policies apply.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessToken returns the token attached by WithAccessToken, if any.
func AccessToken(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey{}).(string)
	return token
}

// bearer picks the credential for a request: the caller's token, then the
// service key, then the anon key.
func (c *Client) bearer(ctx context.Context) string {
	if token := AccessToken(ctx); token != "" {
		return token
	}
	if c.opts.ServiceKey != "" {
		return c.opts.ServiceKey
	}
	return c.opts.AnonKey
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.bearer(ctx))
}

// do executes req and turns transport failures and non-2xx answers into errors.
func (c *Client) do(req *resty.Request, method, path string) (*resty.Response, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("baas %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := parseError(resp.StatusCode(), resp.Body())
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": apiErr.Status,
			"code":   apiErr.Code,
		}).Debug("baas request failed")
		return resp, apiErr
	}
	return resp, nil
}

// Error is a non-2xx answer from the backend. Code carries the database error
// code for REST calls (e.g. "23505") or the auth error code for auth calls.
type Error struct {
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("baas: %s (status %d, code %s)", msg, e.Status, e.Code)
	}
	return fmt.Sprintf("baas: %s (status %d)", msg, e.Status)
}

// Unauthorized reports whether the backend rejected the credentials.
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden || e.Code == "42501"
}

// errorBody covers both error shapes the backend uses: the REST shape
// {code, message, details, hint} and the auth shape {error, error_description,
// msg, error_code}. The REST code is a string, the auth code a number.
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	Message          string          `json:"message"`
	Details          string          `json:"details"`
	Hint             string          `json:"hint"`
	Msg              string          `json:"msg"`
	ErrorCode        string          `json:"error_code"`
	ErrorName        string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func parseError(status int, body []byte) *Error {
	e := &Error{Status: status}
	var b errorBody
	if err := json.Unmarshal(body, &b); err != nil {
		e.Message = strings.TrimSpace(string(body))
		return e
	}

	var code string
	if len(b.Code) > 0 && b.Code[0] == '"' {
		_ = json.Unmarshal(b.Code, &code)
	}
	e.Code = firstNonEmpty(code, b.ErrorCode, b.ErrorName)
	e.Message = firstNonEmpty(b.Message, b.Msg, b.ErrorDescription)
	e.Details = b.Details
	e.Hint = b.Hint
	return e
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
