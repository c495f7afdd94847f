package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/kanban-board/internal/model"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   string
}

// fakeAPI отвечает заранее заданным статусом и телом и запоминает запросы.
func fakeAPI(t *testing.T, status int, body string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		reqs = append(reqs, recordedRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Header: r.Header.Clone(),
			Body:   string(raw),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

type memTokens struct {
	token     string
	forgotten bool
}

func (m *memTokens) Token() (string, error) { return m.token, nil }
func (m *memTokens) Forget() error {
	m.token = ""
	m.forgotten = true
	return nil
}

const taskJSON = `{"id":"t1","projectId":"p1","title":"Write docs","status":"done","priority":"high","assignees":["ann"],"tags":["docs"],"version":2}`

func TestClient_List(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusOK, `[`+taskJSON+`,{"id":"t2","title":"No priority","status":"todo"}]`)
	c := New(srv.URL+"/", StaticToken("secret"))

	tasks, err := c.List(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, model.StatusDone, tasks[0].Status)
	assert.Equal(t, model.PriorityMedium, tasks[1].Priority, "missing priority defaults to medium")
	assert.Equal(t, []string{}, tasks[1].Assignees)

	require.Len(t, *reqs, 1)
	got := (*reqs)[0]
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/projects/p1/tasks", got.Path)
	assert.Equal(t, "Bearer secret", got.Header.Get("Authorization"))
}

func TestClient_ListRejectsUnknownStatus(t *testing.T) {
	srv, _ := fakeAPI(t, http.StatusOK, `[{"id":"t1","title":"Odd","status":"blocked"}]`)
	c := New(srv.URL, nil)

	_, err := c.List(context.Background(), "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestClient_RejectsTaskWithoutID(t *testing.T) {
	srv, _ := fakeAPI(t, http.StatusOK, `{"title":"Orphan","status":"todo"}`)
	c := New(srv.URL, nil)

	_, err := c.UpdateStatus(context.Background(), "p1", "t1", model.StatusTodo)
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusOK, `[]`)
	c := New(srv.URL, nil)

	tasks, err := c.List(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Empty(t, (*reqs)[0].Header.Get("Authorization"))
}

func TestClient_UpdateStatus(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusOK, taskJSON)
	c := New(srv.URL, nil)

	task, err := c.UpdateStatus(context.Background(), "p1", "t1", model.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, task.Status)

	got := (*reqs)[0]
	assert.Equal(t, http.MethodPatch, got.Method)
	assert.Equal(t, "/projects/p1/tasks/t1/status", got.Path)
	assert.JSONEq(t, `{"status":"done"}`, got.Body)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
}

func TestClient_Create(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusCreated, `{"id":"t9","title":"New","status":"todo","priority":"low"}`)
	c := New(srv.URL, nil)

	title := "New"
	status := model.StatusTodo
	task, err := c.Create(context.Background(), "p1", model.TaskPatch{Title: &title, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "t9", task.ID)

	got := (*reqs)[0]
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/projects/p1/tasks", got.Path)
	assert.NotEmpty(t, got.Header.Get("Idempotency-Key"))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(got.Body), &body))
	assert.Equal(t, "New", body["title"])
	assert.Equal(t, "todo", body["status"])
}

func TestClient_UpdateAndDelete(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusOK, taskJSON)
	c := New(srv.URL, nil)

	title := "Write docs"
	_, err := c.Update(context.Background(), "p1", "t1", model.TaskPatch{Title: &title})
	require.NoError(t, err)
	require.NoError(t, c.Delete(context.Background(), "p1", "t1"))

	require.Len(t, *reqs, 2)
	assert.Equal(t, http.MethodPut, (*reqs)[0].Method)
	assert.Equal(t, "/projects/p1/tasks/t1", (*reqs)[0].Path)
	assert.Equal(t, http.MethodDelete, (*reqs)[1].Method)
	assert.Equal(t, "/projects/p1/tasks/t1", (*reqs)[1].Path)
}

func TestClient_EscapesPath(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusNoContent, ``)
	c := New(srv.URL, nil)

	require.NoError(t, c.Delete(context.Background(), "team a", "t/1"))
	assert.Equal(t, "/projects/team%20a/tasks/t%2F1", (*reqs)[0].Path)
}

func TestClient_ErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "message field", status: http.StatusBadRequest, body: `{"message":"Title is required"}`, message: "Title is required"},
		{name: "error field", status: http.StatusNotFound, body: `{"error":"task not found"}`, message: "task not found"},
		{name: "no body", status: http.StatusBadGateway, body: ``, message: ""},
		{name: "html", status: http.StatusInternalServerError, body: `<h1>oops</h1>`, message: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeAPI(t, tt.status, tt.body)
			c := New(srv.URL, nil)

			_, err := c.UpdateStatus(context.Background(), "p1", "t1", model.StatusDone)
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.UserMessage())
		})
	}
}

func TestClient_UnauthorizedForgetsToken(t *testing.T) {
	srv, _ := fakeAPI(t, http.StatusUnauthorized, `{"error":"unauthorized"}`)
	tokens := &memTokens{token: "expired"}
	c := New(srv.URL, tokens)

	_, err := c.List(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.True(t, tokens.forgotten)
	assert.Empty(t, tokens.token)
}
