package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chepyr/tareas/internal/models"
	"github.com/chepyr/tareas/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

// newTestAPI serves every endpoint with the same handler and records the last request.
func newTestAPI(t *testing.T, status int, body string) (*Client, *session.MemoryStore, *recorded, *int32) {
	t.Helper()
	last := &recorded{}
	var unauthorized int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last.method = r.Method
		last.path = r.URL.Path
		last.auth = r.Header.Get("Authorization")
		last.body = nil
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &last.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	httpClient := NewHTTPClient(store, time.Second, func() { atomic.AddInt32(&unauthorized, 1) })
	return New(EndpointsFromBase(srv.URL), httpClient, zerolog.Nop()), store, last, &unauthorized
}

func TestClient_RequestShapes(t *testing.T) {
	client, store, last, _ := newTestAPI(t, http.StatusOK, `{"exito":true,"mensaje":"ok"}`)
	ctx := context.Background()
	in := models.TaskInput{Title: "Buy milk", Description: "2% milk, 1 gal", Status: models.StatusPending}

	tests := []struct {
		name       string
		run        func() error
		wantMethod string
		wantPath   string
		wantBody   map[string]any
	}{
		{"create user", func() error { return client.CreateUser(ctx, "a@b.com").Err() },
			http.MethodPost, PathCreateUser, map[string]any{"correo": "a@b.com"}},
		{"login", func() error { return client.Login(ctx, "a@b.com").Err() },
			http.MethodPost, PathLogin, map[string]any{"correo": "a@b.com"}},
		{"create task", func() error { return client.CreateTask(ctx, in).Err() },
			http.MethodPost, PathCreateTask, map[string]any{"titulo": "Buy milk", "descripcion": "2% milk, 1 gal", "estado": "P"}},
		{"list tasks", func() error { return client.ListTasks(ctx).Err() },
			http.MethodGet, PathListTasks, nil},
		{"update task", func() error { return client.UpdateTask(ctx, "srv-1", in).Err() },
			http.MethodPut, PathUpdateTask, map[string]any{"tareaId": "srv-1", "titulo": "Buy milk", "descripcion": "2% milk, 1 gal", "estado": "P"}},
		{"delete task", func() error { return client.DeleteTask(ctx, "srv-1").Err() },
			http.MethodDelete, PathDeleteTask, map[string]any{"tareaId": "srv-1"}},
	}

	store.Save("T1")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.run())
			assert.Equal(t, tt.wantMethod, last.method)
			assert.Equal(t, tt.wantPath, last.path)
			assert.Equal(t, "Bearer T1", last.auth)
			assert.Equal(t, tt.wantBody, last.body)
		})
	}
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	client, _, last, _ := newTestAPI(t, http.StatusOK, `{"exito":true,"mensaje":"ok"}`)
	require.NoError(t, client.CreateUser(context.Background(), "a@b.com").Err())
	assert.Empty(t, last.auth)
}

func TestClient_ErrorTranslation(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"structured message is verbatim", http.StatusBadRequest, `{"exito":false,"mensaje":"title too short"}`, "title too short"},
		{"401 without message", http.StatusUnauthorized, `unauthorized`, MsgInvalidToken},
		{"401 with message", http.StatusUnauthorized, `{"exito":false,"mensaje":"token expired"}`, "token expired"},
		{"500 without body", http.StatusInternalServerError, ``, MsgUnknownError},
		{"404 with empty message", http.StatusNotFound, `{"exito":false,"mensaje":""}`, MsgUnknownError},
		{"business rejection on 200", http.StatusOK, `{"exito":false,"mensaje":"quota exceeded"}`, "quota exceeded"},
		{"garbage on 200", http.StatusOK, `<html>`, MsgUnknownError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _, _, _ := newTestAPI(t, tt.status, tt.body)
			resp := client.CreateTask(context.Background(), models.TaskInput{})
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantMessage, resp.Message)
			assert.Equal(t, tt.status, resp.Status)

			var apiErr *Error
			require.ErrorAs(t, resp.Err(), &apiErr)
			assert.Equal(t, tt.wantMessage, apiErr.Error())
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(EndpointsFromBase(url), NewHTTPClient(session.NewMemoryStore(), time.Second, nil), zerolog.Nop())
	resp := client.ListTasks(context.Background())
	assert.False(t, resp.Success)
	assert.Equal(t, 0, resp.Status)
	assert.Equal(t, MsgNetworkError, resp.Message)
}

func TestClient_TimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	client := New(EndpointsFromBase(srv.URL), NewHTTPClient(session.NewMemoryStore(), 50*time.Millisecond, nil), zerolog.Nop())
	resp := client.ListTasks(context.Background())
	assert.Equal(t, MsgNetworkError, resp.Message)
}

func TestClient_ListTasksDecodes(t *testing.T) {
	client, _, _, _ := newTestAPI(t, http.StatusOK, `{"exito":true,"mensaje":"ok","datos":[
		{"id":"srv-1","titulo":"Buy milk","descripcion":"2% milk, 1 gal","estado":"P","fecha_de_creacion":{"_seconds":5,"_nanoseconds":0}}]}`)
	resp := client.ListTasks(context.Background())
	require.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "srv-1", resp.Data[0].ID)
	assert.Equal(t, int64(5), resp.Data[0].CreatedAt.Seconds)
}

func TestClient_ListTasksEmpty(t *testing.T) {
	client, _, _, _ := newTestAPI(t, http.StatusOK, `{"exito":true,"mensaje":"ok","datos":[]}`)
	resp := client.ListTasks(context.Background())
	require.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
}

func TestClient_LoginDecodes(t *testing.T) {
	client, _, _, _ := newTestAPI(t, http.StatusOK,
		`{"exito":true,"mensaje":"welcome","token":"T1","usuario":{"id":"u1","correo":"a@b.com"}}`)
	resp := client.Login(context.Background(), "a@b.com")
	require.True(t, resp.Success)
	assert.Equal(t, "T1", resp.Data.Token)
	require.NotNil(t, resp.Data.User)
	assert.Equal(t, "a@b.com", resp.Data.User.Email)
}

func TestClient_UnauthorizedClearsSessionForEveryOperation(t *testing.T) {
	ctx := context.Background()
	ops := map[string]func(*Client) error{
		"create user": func(c *Client) error { return c.CreateUser(ctx, "a@b.com").Err() },
		"login":       func(c *Client) error { return c.Login(ctx, "a@b.com").Err() },
		"create task": func(c *Client) error { return c.CreateTask(ctx, models.TaskInput{}).Err() },
		"list tasks":  func(c *Client) error { return c.ListTasks(ctx).Err() },
		"update task": func(c *Client) error { return c.UpdateTask(ctx, "x", models.TaskInput{}).Err() },
		"delete task": func(c *Client) error { return c.DeleteTask(ctx, "x").Err() },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			client, store, _, unauthorized := newTestAPI(t, http.StatusUnauthorized, `{"exito":false,"mensaje":"invalid token"}`)
			store.Save("T1")
			store.SaveUser(models.User{ID: "u1", Email: "a@b.com"})

			err := op(client)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.True(t, apiErr.Unauthorized())
			assert.False(t, session.IsAuthenticated(store))
			_, hasUser := store.User()
			assert.False(t, hasUser)
			assert.Equal(t, int32(1), atomic.LoadInt32(unauthorized))
		})
	}
}

func TestEndpointsMerge(t *testing.T) {
	custom := Endpoints{Login: "https://login.example"}
	merged := custom.Merge(EndpointsFromBase("http://localhost:8080/"))
	assert.Equal(t, "https://login.example", merged.Login)
	assert.Equal(t, "http://localhost:8080/crearTarea", merged.CreateTask)
}
