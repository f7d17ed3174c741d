// Package auth drives the email login: login, prompt-and-create when the
// user does not exist, and logout.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/chepyr/tareas/internal/api"
	"github.com/chepyr/tareas/internal/models"
	"github.com/chepyr/tareas/internal/session"
	"github.com/rs/zerolog"
)

type State int

const (
	Anonymous State = iota
	Authenticating
	AwaitingConfirmation
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Outcome tells the caller where to go after a successful step.
type Outcome int

const (
	// OutcomeAuthenticated: navigate to the task list.
	OutcomeAuthenticated Outcome = iota + 1
	// OutcomeNeedsConfirmation: ask the user whether to create the account.
	OutcomeNeedsConfirmation
)

var ErrInvalidState = errors.New("operation not allowed in the current login state")

// Error is a login failure surfaced to the user.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Authenticator is the part of the API client the flow needs.
type Authenticator interface {
	CreateUser(ctx context.Context, email string) api.Response[api.Unit]
	Login(ctx context.Context, email string) api.Response[api.LoginData]
}

// notFoundMarkers are matched case-insensitively against login failures.
// The backend has no structured error code for a missing user.
var notFoundMarkers = []string{"not found", "no encontrado"}

func IsUserNotFound(message string) bool {
	msg := strings.ToLower(message)
	for _, marker := range notFoundMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

type Flow struct {
	api       Authenticator
	exchanger api.Exchanger
	store     session.Store
	logger    zerolog.Logger

	mu    sync.Mutex
	state State
	email string
}

type Option func(*Flow)

// WithExchanger makes the flow trade the login token for an ID token before persisting it.
func WithExchanger(ex api.Exchanger) Option {
	return func(f *Flow) { f.exchanger = ex }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(f *Flow) { f.logger = logger }
}

// NewFlow starts Authenticated when the store already holds a token.
func NewFlow(authenticator Authenticator, store session.Store, opts ...Option) *Flow {
	f := &Flow{api: authenticator, store: store, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With().Str("component", "auth").Logger()
	if session.IsAuthenticated(store) {
		f.state = Authenticated
	}
	return f
}

// State reports Anonymous once the session has been cleared elsewhere,
// for example by a 401 seen in the transport.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Authenticated && !session.IsAuthenticated(f.store) {
		f.transition(Anonymous)
	}
	return f.state
}

// PendingEmail is the address awaiting account-creation confirmation.
func (f *Flow) PendingEmail() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != AwaitingConfirmation {
		return ""
	}
	return f.email
}

func (f *Flow) transition(to State) {
	f.logger.Debug().Stringer("from", f.state).Stringer("to", to).Msg("login state")
	f.state = to
}

// begin moves to Authenticating if the current state is one of from.
func (f *Flow) begin(from ...State) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range from {
		if f.state == s {
			f.transition(Authenticating)
			return f.email, nil
		}
	}
	return "", ErrInvalidState
}

func (f *Flow) finish(to State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transition(to)
}

// Submit attempts a login. A "user not found" answer is not an error: it
// returns OutcomeNeedsConfirmation and waits for Confirm or Cancel.
func (f *Flow) Submit(ctx context.Context, email string) (Outcome, error) {
	email = strings.TrimSpace(email)
	if err := models.ValidateEmail(email); err != nil {
		return 0, err
	}

	f.mu.Lock()
	if f.state == Authenticated && !session.IsAuthenticated(f.store) {
		f.transition(Anonymous)
	}
	if f.state != Anonymous && f.state != AwaitingConfirmation {
		f.mu.Unlock()
		return 0, ErrInvalidState
	}
	f.email = email
	f.transition(Authenticating)
	f.mu.Unlock()

	return f.login(ctx, email, true)
}

// Confirm creates the pending account and logs in once more.
func (f *Flow) Confirm(ctx context.Context) (Outcome, error) {
	email, err := f.begin(AwaitingConfirmation)
	if err != nil {
		return 0, err
	}

	resp := f.api.CreateUser(ctx, email)
	if !resp.Success {
		f.logger.Info().Str("email", email).Str("reason", resp.Message).Msg("create user failed")
		f.finish(Anonymous)
		return 0, &Error{Message: resp.Message, Err: resp.Err()}
	}
	f.logger.Info().Str("email", email).Msg("user created")

	// exactly one retry: a second "not found" is terminal
	return f.login(ctx, email, false)
}

// Cancel abandons the pending account creation without calling the backend.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != AwaitingConfirmation {
		return ErrInvalidState
	}
	f.email = ""
	f.transition(Anonymous)
	return nil
}

// Logout clears the session before returning.
func (f *Flow) Logout() {
	f.store.Clear()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.email = ""
	f.transition(Anonymous)
}

func (f *Flow) login(ctx context.Context, email string, allowConfirmation bool) (Outcome, error) {
	resp := f.api.Login(ctx, email)
	if !resp.Success {
		if allowConfirmation && IsUserNotFound(resp.Message) {
			f.finish(AwaitingConfirmation)
			return OutcomeNeedsConfirmation, nil
		}
		f.logger.Info().Str("email", email).Str("reason", resp.Message).Msg("login failed")
		f.finish(Anonymous)
		return 0, &Error{Message: resp.Message, Err: resp.Err()}
	}

	token := resp.Data.Token
	if token == "" {
		f.finish(Anonymous)
		return 0, &Error{Message: api.MsgNoToken}
	}
	if f.exchanger != nil {
		idToken, err := f.exchanger.Exchange(ctx, token)
		if err != nil {
			f.logger.Info().Err(err).Str("email", email).Msg("token exchange failed")
			f.finish(Anonymous)
			return 0, &Error{Message: err.Error(), Err: err}
		}
		token = idToken
	}

	// persist only after every step has succeeded
	f.store.Save(token)
	if resp.Data.User != nil {
		f.store.SaveUser(*resp.Data.User)
	}
	if !session.IsAuthenticated(f.store) {
		f.finish(Anonymous)
		return 0, &Error{Message: api.MsgNoToken}
	}

	f.mu.Lock()
	f.email = ""
	f.transition(Authenticated)
	f.mu.Unlock()
	f.logger.Info().Str("email", email).Msg("logged in")
	return OutcomeAuthenticated, nil
}
