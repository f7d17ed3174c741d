package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/chepyr/tareas/internal/models"
	"github.com/rs/zerolog"
)

const maxResponseBytes = 4 << 20

type Client struct {
	endpoints Endpoints
	http      *http.Client
	logger    zerolog.Logger
}

// New returns a client that sends requests through httpClient. Bearer tokens
// and 401 handling belong to httpClient's transport (see NewAuthTransport).
func New(endpoints Endpoints, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoints: endpoints,
		http:      httpClient,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// envelope is the body shape shared by every endpoint.
type envelope struct {
	Success bool            `json:"exito"`
	Message *string         `json:"mensaje"`
	Data    json.RawMessage `json:"datos,omitempty"`
	Token   string          `json:"token,omitempty"`
	User    *models.User    `json:"usuario,omitempty"`
}

type emailRequest struct {
	Email string `json:"correo"`
}

type updateTaskRequest struct {
	TaskID string `json:"tareaId"`
	models.TaskInput
}

type deleteTaskRequest struct {
	TaskID string `json:"tareaId"`
}

func (c *Client) CreateUser(ctx context.Context, email string) Response[Unit] {
	return call(ctx, c, http.MethodPost, c.endpoints.CreateUser, emailRequest{Email: email}, noData)
}

func (c *Client) Login(ctx context.Context, email string) Response[LoginData] {
	return call(ctx, c, http.MethodPost, c.endpoints.Login, emailRequest{Email: email},
		func(env *envelope) (LoginData, error) {
			return LoginData{Token: env.Token, User: env.User}, nil
		})
}

func (c *Client) CreateTask(ctx context.Context, in models.TaskInput) Response[Unit] {
	return call(ctx, c, http.MethodPost, c.endpoints.CreateTask, in, noData)
}

func (c *Client) ListTasks(ctx context.Context) Response[[]models.Task] {
	return call(ctx, c, http.MethodGet, c.endpoints.ListTasks, nil,
		func(env *envelope) ([]models.Task, error) {
			tasks := []models.Task{}
			if len(env.Data) == 0 || string(env.Data) == "null" {
				return tasks, nil
			}
			err := json.Unmarshal(env.Data, &tasks)
			return tasks, err
		})
}

func (c *Client) UpdateTask(ctx context.Context, id string, in models.TaskInput) Response[Unit] {
	body := updateTaskRequest{TaskID: id, TaskInput: in}
	return call(ctx, c, http.MethodPut, c.endpoints.UpdateTask, body, noData)
}

func (c *Client) DeleteTask(ctx context.Context, id string) Response[Unit] {
	return call(ctx, c, http.MethodDelete, c.endpoints.DeleteTask, deleteTaskRequest{TaskID: id}, noData)
}

func noData(*envelope) (Unit, error) {
	return Unit{}, nil
}

func failure[T any](status int, message string) Response[T] {
	if message == "" {
		message = MessageForStatus(status)
	}
	return Response[T]{Success: false, Message: message, Status: status}
}

// call performs one request and maps every outcome onto a Response.
func call[T any](ctx context.Context, c *Client, method, url string, body any,
	decode func(*envelope) (T, error)) Response[T] {

	logger := c.logger.With().Str("method", method).Str("url", url).Logger()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			logger.Error().Err(err).Msg("encode request")
			return failure[T](0, MsgUnknownError)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		logger.Error().Err(err).Msg("build request")
		return failure[T](0, MsgUnknownError)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debug().Err(err).Msg("request failed")
		return failure[T](0, MsgNetworkError)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		logger.Debug().Err(err).Int("status", resp.StatusCode).Msg("read response")
		return failure[T](0, MsgNetworkError)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debug().Int("status", resp.StatusCode).Msg("request rejected")
		if decodeErr == nil && env.Message != nil && *env.Message != "" {
			return failure[T](resp.StatusCode, *env.Message)
		}
		return failure[T](resp.StatusCode, "")
	}

	if decodeErr != nil {
		logger.Warn().Err(decodeErr).Int("status", resp.StatusCode).Msg("decode response")
		return failure[T](resp.StatusCode, MsgUnknownError)
	}

	message := ""
	if env.Message != nil {
		message = *env.Message
	}
	if !env.Success {
		// business rejection with HTTP-level success
		return failure[T](resp.StatusCode, message)
	}

	data, err := decode(&env)
	if err != nil {
		logger.Warn().Err(err).Msg("decode response data")
		return failure[T](resp.StatusCode, MsgUnknownError)
	}
	return Response[T]{Success: true, Message: message, Data: data, Status: resp.StatusCode}
}
