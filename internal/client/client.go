// Package client - HTTP-клиент task API: /projects/{projectId}/tasks.
package client

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
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-board/internal/model"
)

const maxErrorBody = 64 << 10

// TokenSource отдаёт bearer-токен для запроса. Пустая строка - запрос без авторизации.
type TokenSource interface {
	Token() (string, error)
}

// Forgetter реализуют источники, которые умеют сбросить токен после 401.
type Forgetter interface {
	Forget() error
}

// StaticToken - токен, заданный один раз (флаг или переменная окружения).
type StaticToken string

func (s StaticToken) Token() (string, error) { return string(s), nil }

// APIError - ответ сервера со статусом вне 2xx.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}

// UserMessage - текст ошибки из тела ответа, пригодный для показа пользователю.
func (e *APIError) UserMessage() string { return e.Message }

// IsUnauthorized сообщает, что сервер отверг токен.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	if tokens == nil {
		tokens = StaticToken("")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) List(ctx context.Context, projectID string) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, tasksPath(projectID), nil, nil, &tasks); err != nil {
		return nil, err
	}
	for i := range tasks {
		if err := checkTask(&tasks[i]); err != nil {
			return nil, err
		}
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// Create отправляет черновик с ключом идемпотентности, чтобы повтор запроса не создал дубль.
func (c *Client) Create(ctx context.Context, projectID string, draft model.TaskPatch) (model.Task, error) {
	header := http.Header{}
	header.Set("Idempotency-Key", uuid.NewString())
	return c.task(ctx, http.MethodPost, tasksPath(projectID), draft, header)
}

func (c *Client) Update(ctx context.Context, projectID, taskID string, patch model.TaskPatch) (model.Task, error) {
	return c.task(ctx, http.MethodPut, taskPath(projectID, taskID), patch, nil)
}

func (c *Client) UpdateStatus(ctx context.Context, projectID, taskID string, status model.Status) (model.Task, error) {
	body := struct {
		Status model.Status `json:"status"`
	}{status}
	return c.task(ctx, http.MethodPatch, taskPath(projectID, taskID)+"/status", body, nil)
}

func (c *Client) Delete(ctx context.Context, projectID, taskID string) error {
	return c.do(ctx, http.MethodDelete, taskPath(projectID, taskID), nil, nil, nil)
}

func (c *Client) task(ctx context.Context, method, path string, body any, header http.Header) (model.Task, error) {
	var task model.Task
	if err := c.do(ctx, method, path, body, header, &task); err != nil {
		return model.Task{}, err
	}
	if err := checkTask(&task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// checkTask проверяет задачу из ответа сервера и подставляет значения по умолчанию.
func checkTask(t *model.Task) error {
	if t.ID == "" {
		return fmt.Errorf("decode task: %w: missing id", model.ErrInvalid)
	}
	if err := t.Normalize(); err != nil {
		return fmt.Errorf("decode task %q: %w", t.ID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token()
	if err != nil {
		c.logger.Warn("token source failed", zap.Error(err))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
		if resp.StatusCode == http.StatusUnauthorized {
			c.forgetToken()
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// forgetToken сбрасывает сохранённый токен, если источник это умеет.
func (c *Client) forgetToken() {
	f, ok := c.tokens.(Forgetter)
	if !ok {
		return
	}
	if err := f.Forget(); err != nil {
		c.logger.Warn("failed to forget token", zap.Error(err))
		return
	}
	c.logger.Info("token rejected by server, forgotten")
}

// errorMessage достаёт текст из {"message": ...} или {"error": ...}.
func errorMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, maxErrorBody)).Decode(&body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func tasksPath(projectID string) string {
	return "/projects/" + url.PathEscape(projectID) + "/tasks"
}

func taskPath(projectID, taskID string) string {
	return tasksPath(projectID) + "/" + url.PathEscape(taskID)
}
