// Package api is the client for the six task-manager endpoints. Every
// operation returns a Response; transport and HTTP failures are translated
// into a failed Response, never returned as Go errors.
package api

import (
	"net/http"
	"strings"

	"github.com/chepyr/tareas/internal/models"
)

// Standard user-facing messages.
const (
	MsgNoToken        = "no authentication token"
	MsgInvalidToken   = "invalid or expired authentication token"
	MsgNetworkError   = "connection error, check your internet connection"
	MsgUnknownError   = "an unexpected error occurred"
	MsgSessionExpired = "your session has expired, please log in again"
)

// Unit is the payload of operations that return no data.
type Unit = struct{}

type Response[T any] struct {
	Success bool
	Message string
	Data    T
	// Status is the HTTP status code, 0 when no response was received.
	Status int
}

// Err returns nil for a successful response and an *Error otherwise.
func (r Response[T]) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Status: r.Status, Message: r.Message}
}

type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// LoginData is what a successful login carries.
type LoginData struct {
	Token string
	User  *models.User
}

// Endpoints holds one absolute URL per operation.
type Endpoints struct {
	CreateUser string `yaml:"create_user" mapstructure:"create_user"`
	Login      string `yaml:"login" mapstructure:"login"`
	CreateTask string `yaml:"create_task" mapstructure:"create_task"`
	ListTasks  string `yaml:"list_tasks" mapstructure:"list_tasks"`
	UpdateTask string `yaml:"update_task" mapstructure:"update_task"`
	DeleteTask string `yaml:"delete_task" mapstructure:"delete_task"`
}

// Paths served by the reference backend.
const (
	PathCreateUser = "/crearUsuario"
	PathLogin      = "/loginUsuario"
	PathCreateTask = "/crearTarea"
	PathListTasks  = "/obtenerTareasPorUsuario"
	PathUpdateTask = "/actualizarTarea"
	PathDeleteTask = "/eliminarTarea"
)

// EndpointsFromBase derives every endpoint from one base URL.
func EndpointsFromBase(base string) Endpoints {
	base = strings.TrimRight(base, "/")
	return Endpoints{
		CreateUser: base + PathCreateUser,
		Login:      base + PathLogin,
		CreateTask: base + PathCreateTask,
		ListTasks:  base + PathListTasks,
		UpdateTask: base + PathUpdateTask,
		DeleteTask: base + PathDeleteTask,
	}
}

// Merge fills the empty fields of e from other.
func (e Endpoints) Merge(other Endpoints) Endpoints {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return Endpoints{
		CreateUser: pick(e.CreateUser, other.CreateUser),
		Login:      pick(e.Login, other.Login),
		CreateTask: pick(e.CreateTask, other.CreateTask),
		ListTasks:  pick(e.ListTasks, other.ListTasks),
		UpdateTask: pick(e.UpdateTask, other.UpdateTask),
		DeleteTask: pick(e.DeleteTask, other.DeleteTask),
	}
}

// MessageForStatus is used when a failed response carries no message of its own.
func MessageForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return MsgInvalidToken
	case 0:
		return MsgNetworkError
	default:
		return MsgUnknownError
	}
}
