// Package httpclient is the single path every backend call takes. Requests
// flow through a middleware chain whose innermost stage handles authorization
// failures for the whole application.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Doer sends one request.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc adapts a function to Doer.
type DoerFunc func(req *http.Request) (*http.Response, error)

func (f DoerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware wraps a Doer with one cross-cutting stage.
type Middleware func(next Doer) Doer

const maxErrorBody = 4 << 10

var validate = validator.New()

type sessionKey struct{}

// WithSession marks the request made with ctx as authorized by id. The id must
// also be present in the request parameters; this mark only tells the
// authorization stage which session a rejection refers to.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFrom returns the session id attached by WithSession.
func SessionFrom(ctx context.Context) (id string, authorized bool) {
	id, authorized = ctx.Value(sessionKey{}).(string)
	return id, authorized
}

// Client talks JSON to the backend.
type Client struct {
	baseURL *url.URL
	doer    Doer
}

// New builds a Client for baseURL. The first middleware is the outermost.
// A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client, middlewares ...Middleware) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host required", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	var doer Doer = httpClient
	for i := len(middlewares) - 1; i >= 0; i-- {
		doer = middlewares[i](doer)
	}

	return &Client{baseURL: u, doer: doer}, nil
}

// GetJSON sends GET path?query and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// PostJSON sends body as JSON to path and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if id, authorized := SessionFrom(ctx); authorized && id == "" {
		return fmt.Errorf("%s %s: %w", method, path, ErrMissingSession)
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var payload io.Reader
	if body != nil {
		payloadBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), payload)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(raw),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	if err := validate.Struct(out); err != nil {
		var invalid *validator.InvalidValidationError
		if !errors.As(err, &invalid) {
			return &DecodeError{Path: path, Err: err}
		}
	}
	return nil
}

// errorDetail pulls a readable message out of an error body. The backend
// answers {"detail": "..."}; anything else is returned trimmed.
func errorDetail(raw []byte) string {
	var body struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		switch d := body.Detail.(type) {
		case string:
			return d
		case nil:
		default:
			if b, err := json.Marshal(d); err == nil {
				return string(b)
			}
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
