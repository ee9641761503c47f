// Package crud is the client half of the newsdesk admin API: a thin HTTP
// client, an explicit list cache and a generic controller that owns the
// create/edit/delete state of one entity screen.
package crud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// Pagination mirrors the server's list metadata.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Page is one list response.
type Page[T any] struct {
	Data       []T
	Pagination *Pagination
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
	Error      string          `json:"error"`
	Code       string          `json:"code"`
	Message    string          `json:"message"`
}

// Client issues requests against an API root such as
// http://localhost:8080/api. Endpoints are paths relative to that root.
// Every request carries the cookies collected by the client's jar.
type Client struct {
	base *url.URL
	http *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its jar is used as is.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	c := &Client{
		base: base,
		http: &http.Client{Jar: jar, Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List issues GET {endpoint}?params.
func List[T any](ctx context.Context, c *Client, endpoint string, params url.Values) (Page[T], error) {
	env, err := c.do(ctx, http.MethodGet, endpoint, params, nil)
	if err != nil {
		return Page[T]{}, err
	}
	var items []T
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return Page[T]{}, fmt.Errorf("decode %s list: %w", endpoint, err)
		}
	}
	return Page[T]{Data: items, Pagination: env.Pagination}, nil
}

// Create issues POST {endpoint} and returns the stored record.
func Create[T any](ctx context.Context, c *Client, endpoint string, payload any) (T, error) {
	return decodeOne[T](c.do(ctx, http.MethodPost, endpoint, nil, payload))
}

// Update issues PUT {endpoint}/{id} and returns the stored record.
func Update[T any](ctx context.Context, c *Client, endpoint, id string, payload any) (T, error) {
	return decodeOne[T](c.do(ctx, http.MethodPut, recordPath(endpoint, id), nil, payload))
}

// Get issues GET {endpoint}/{id}.
func Get[T any](ctx context.Context, c *Client, endpoint, id string) (T, error) {
	return decodeOne[T](c.do(ctx, http.MethodGet, recordPath(endpoint, id), nil, nil))
}

// Remove issues DELETE {endpoint}/{id}.
func (c *Client) Remove(ctx context.Context, endpoint, id string) error {
	_, err := c.do(ctx, http.MethodDelete, recordPath(endpoint, id), nil, nil)
	return err
}

// Login posts credentials to auth/login so the jar holds a session cookie.
func (c *Client) Login(ctx context.Context, email, password string) error {
	_, err := c.do(ctx, http.MethodPost, "auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
	return err
}

func decodeOne[T any](env *envelope, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if len(env.Data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, fmt.Errorf("decode record: %w", err)
	}
	return out, nil
}

func recordPath(endpoint, id string) string {
	return strings.TrimRight(endpoint, "/") + "/" + url.PathEscape(id)
}

func (c *Client) resolve(endpoint string, params url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: strings.TrimLeft(endpoint, "/")})
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, payload any) (*envelope, error) {
	target := c.resolve(endpoint, params)

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkFailure{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkFailure{Method: method, URL: target, Err: err}
	}

	env := &envelope{}
	decodeErr := json.Unmarshal(raw, env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		failure := &RequestFailure{Method: method, URL: target, Status: resp.StatusCode, Body: raw}
		if decodeErr == nil {
			failure.Code = env.Code
			failure.Message = env.Error
		}
		return nil, failure
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode %s %s: %w", method, target, decodeErr)
	}
	if !env.Success {
		return nil, &RequestFailure{
			Method: method, URL: target, Status: resp.StatusCode,
			Code: env.Code, Message: env.Error, Body: raw,
		}
	}
	return env, nil
}
