// Package client is a typed binding to the HTTP API for Go programs. Reads
// are cached within a staleness window; writes notify their outcome and
// invalidate the affected cache keys after they settle.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"stackapi/internal/model"
)

// DefaultStaleness is how long a cached read stays fresh unless configured
// otherwise.
const DefaultStaleness = 30 * time.Second

// Client talks to one API server. It is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	token    string
	notifier Notifier
	cache    *Cache
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithNotifier routes write outcome messages to n.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithStaleness sets the cache staleness window.
func WithStaleness(d time.Duration) Option {
	return func(c *Client) { c.cache = NewCache(d) }
}

// WithToken preloads a bearer token, e.g. one restored from disk.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New builds a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		notifier: NopNotifier{},
		cache:    NewCache(DefaultStaleness),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

// Cache exposes the response cache, mainly for bindings and tests.
func (c *Client) Cache() *Cache { return c.cache }

// FieldMessage is one entry of an array-shaped validation failure.
type FieldMessage struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is the decoded server error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  []FieldMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// DisplayMessage normalizes the failure into the single string shown to the
// user. Array-shaped validation errors surface only their first entry; the
// rest are dropped on purpose.
func (e *APIError) DisplayMessage() string {
	if len(e.Fields) > 0 {
		return e.Fields[0].Message
	}
	return e.Message
}

type errorBody struct {
	RequestID string `json:"request_id"`
	Error     struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Fields  []FieldMessage `json:"fields"`
	} `json:"error"`
}

// do performs one request. A non-2xx response decodes into *APIError; out,
// when non-nil, receives the decoded success body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		var eb errorBody
		if decodeErr := json.NewDecoder(resp.Body).Decode(&eb); decodeErr == nil {
			apiErr.Code = eb.Error.Code
			apiErr.Message = eb.Error.Message
			apiErr.Fields = eb.Error.Fields
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Token is the login response.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token and installs it on the
// client.
func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	var tok Token
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &tok); err != nil {
		return nil, err
	}
	c.token = tok.AccessToken
	return &tok, nil
}

// Signup registers a new account. No token is issued; call Login after.
func (c *Client) Signup(ctx context.Context, in model.UserRegister) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodPost, "/users/signup", in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Me returns the authenticated caller's own record.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UploadItemAttachment stores an attachment for the item and invalidates the
// items key family.
func (c *Client) UploadItemAttachment(ctx context.Context, itemID uuid.UUID, filename string, r io.Reader) (*model.Item, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/items/"+itemID.String()+"/attachment", buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		var eb errorBody
		if decodeErr := json.NewDecoder(resp.Body).Decode(&eb); decodeErr == nil {
			apiErr.Code = eb.Error.Code
			apiErr.Message = eb.Error.Message
			apiErr.Fields = eb.Error.Fields
		}
		return nil, apiErr
	}

	var it model.Item
	if err := json.NewDecoder(resp.Body).Decode(&it); err != nil {
		return nil, err
	}
	c.cache.InvalidateFamily("/items")
	return &it, nil
}

// ItemAttachmentURL returns a time-limited download URL for the item's
// attachment.
func (c *Client) ItemAttachmentURL(ctx context.Context, itemID uuid.UUID) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/items/"+itemID.String()+"/attachment", nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
