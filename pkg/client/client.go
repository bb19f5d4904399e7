package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrBusy rejects an operation while another of the same kind is in flight.
	ErrBusy = errors.New("another request is already in flight")
	// ErrEmptyInput rejects a blank message before any network call.
	ErrEmptyInput = errors.New("message must not be empty")
	// ErrFileTooLarge covers both the local size check and a server 413.
	ErrFileTooLarge = errors.New("file size must be less than 10MB")
	// ErrInvalidFileType rejects files outside the accepted set.
	ErrInvalidFileType = errors.New("file must be CSV, Excel, PDF, or JSON")
	// ErrNoFile means a transition needing a selected file was triggered without one.
	ErrNoFile = errors.New("no file selected")
	// ErrNoPreview means confirm was invoked without a preview identifier.
	ErrNoPreview = errors.New("no preview to confirm")
)

// APIError is a non-2xx response with the server's message extracted from
// a conventional {message|detail} body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// DefaultTimeout bounds every request unless WithTimeout overrides it.
const DefaultTimeout = 60 * time.Second

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client talks to the Fiscal Sentinel API. The bearer token lives in the
// Store, so a restarted process keeps its session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      Store
	logger     *zap.Logger
}

func New(baseURL string, store Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		store:      store,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store exposes the client's state store to cooperating components.
func (c *Client) Store() Store {
	return c.store
}

// Login authenticates and persists the bearer token and user.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp AuthResponse
	if err := c.postJSON(ctx, "/login", body, &resp); err != nil {
		return nil, err
	}
	c.storeAuth(&resp)
	return &resp, nil
}

// Register creates an account and persists the bearer token and user.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.postJSON(ctx, "/register", req, &resp); err != nil {
		return nil, err
	}
	c.storeAuth(&resp)
	return &resp, nil
}

// Logout clears the persisted token and user. Local only, no network call.
func (c *Client) Logout() {
	_ = c.store.Delete(KeyToken)
	_ = c.store.Delete(KeyUser)
}

// CurrentUser returns the persisted user, if any.
func (c *Client) CurrentUser() (*User, bool) {
	raw, ok := c.store.Get(KeyUser)
	if !ok {
		return nil, false
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false
	}
	return &user, true
}

// Transactions fetches the full transaction list. Pagination, when needed,
// is the caller's job.
func (c *Client) Transactions(ctx context.Context) ([]Transaction, error) {
	var transactions []Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions", nil, "", &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// Analyze runs one analysis turn. Continuation handling belongs to the
// Session; this is plain transport.
func (c *Client) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	var resp AnalyzeResponse
	if err := c.postJSON(ctx, "/analyze", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PreviewTransactions submits a file for parsing without committing it.
func (c *Client) PreviewTransactions(ctx context.Context, fileName string, data []byte) (*PreviewResult, error) {
	var resp PreviewResult
	if err := c.postFile(ctx, "/transactions/preview", fileName, data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmTransactions commits a previewed import. Retries resubmit the same
// pair verbatim; deduplication is the server's problem.
func (c *Client) ConfirmTransactions(ctx context.Context, previewID string, mapping map[string]string) (*ImportResult, error) {
	body := map[string]interface{}{
		"preview_id": previewID,
		"mapping":    mapping,
	}
	var resp ImportResult
	if err := c.postJSON(ctx, "/transactions/confirm", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadTransactions is the direct import path, bypassing preview.
func (c *Client) UploadTransactions(ctx context.Context, fileName string, data []byte) (*ImportResult, error) {
	var resp ImportResult
	if err := c.postFile(ctx, "/transactions/upload", fileName, data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) storeAuth(resp *AuthResponse) {
	if resp.Token != "" {
		_ = c.store.Set(KeyToken, resp.Token)
	}
	if user, err := json.Marshal(resp.Data); err == nil {
		_ = c.store.Set(KeyUser, string(user))
	}
}

func (c *Client) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(encoded), "application/json", out)
}

func (c *Client) postFile(ctx context.Context, path, fileName string, data []byte, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	return c.do(ctx, http.MethodPost, path, &buf, writer.FormDataContentType(), out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token, ok := c.store.Get(KeyToken); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: extractMessage(resp.Body)}
		c.logger.Debug("Request rejected",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// extractMessage pulls a human-readable error out of a {message|detail}
// body, falling back to a generic string.
func extractMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	return "Request failed"
}
