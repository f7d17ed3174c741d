// Package tasklist owns the client-side task list and applies every mutation
// optimistically: apply locally, call the backend, then keep or revert.
package tasklist

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/chepyr/tareas/internal/api"
	"github.com/chepyr/tareas/internal/models"
	nanoid "github.com/jaevor/go-nanoid"
	"github.com/rs/zerolog"
)

// API is the part of the API client the controller needs.
type API interface {
	CreateTask(ctx context.Context, in models.TaskInput) api.Response[api.Unit]
	ListTasks(ctx context.Context) api.Response[[]models.Task]
	UpdateTask(ctx context.Context, id string, in models.TaskInput) api.Response[api.Unit]
	DeleteTask(ctx context.Context, id string) api.Response[api.Unit]
}

type Controller struct {
	api    API
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string

	// view lifetime: once done, completions must not touch the list
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	tasks      []models.Task
	loading    int // outstanding Reload calls
	lastErr    string
	inFlight   map[string]struct{}
	fetchSeq   uint64
	appliedSeq uint64
}

type Option func(*Controller)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDGenerator replaces the placeholder id source. The generator is called
// with the controller lock held.
func WithIDGenerator(gen func() string) Option {
	return func(c *Controller) { c.newID = gen }
}

// New returns a controller whose lifetime ends with ctx or with Close.
func New(ctx context.Context, taskAPI API, opts ...Option) *Controller {
	viewCtx, cancel := context.WithCancel(ctx)
	c := &Controller{
		api:      taskAPI,
		logger:   zerolog.Nop(),
		now:      time.Now,
		ctx:      viewCtx,
		cancel:   cancel,
		inFlight: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.newID == nil {
		c.newID = defaultIDGenerator()
	}
	c.logger = c.logger.With().Str("component", "tasklist").Logger()
	return c
}

func defaultIDGenerator() func() string {
	gen, err := nanoid.Standard(12)
	if err != nil {
		panic(err)
	}
	return gen
}

// Close ends the view. Outstanding requests are cancelled and their
// completions ignored.
func (c *Controller) Close() {
	c.cancel()
}

// Tasks returns a copy of the list, newest first.
func (c *Controller) Tasks() []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.tasks)
}

func (c *Controller) Find(id string) (models.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		return c.tasks[i], true
	}
	return models.Task{}, false
}

// Loading is true only while a Reload is outstanding.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading > 0
}

// LastError is the message of the last failed Reload, "" after a success.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) Counts() (pending, completed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.Count(c.tasks)
}

// Reload replaces the list with the server's listing.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	if c.closedLocked() {
		c.mu.Unlock()
		return ErrClosed
	}
	c.loading++
	c.mu.Unlock()

	err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading--
	if err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) {
			c.lastErr = remote.Message
		}
		return err
	}
	c.lastErr = ""
	return nil
}

// reconcile refreshes server-assigned fields after a confirmed mutation.
// Failures are logged only: the optimistic state is already on screen.
func (c *Controller) reconcile(ctx context.Context) {
	if err := c.fetch(ctx); err != nil {
		c.logger.Debug().Err(err).Msg("background reload failed")
	}
}

func (c *Controller) fetch(ctx context.Context) error {
	c.mu.Lock()
	c.fetchSeq++
	seq := c.fetchSeq
	c.mu.Unlock()

	reqCtx, done := c.requestContext(ctx)
	resp := c.api.ListTasks(reqCtx)
	done()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closedLocked() {
		return ErrClosed
	}
	if !resp.Success {
		return &RemoteError{Op: "list", Message: resp.Message, Err: resp.Err()}
	}
	if seq < c.appliedSeq {
		// a newer listing already landed
		return nil
	}
	c.appliedSeq = seq
	c.tasks = c.mergeLocked(resp.Data)
	return nil
}

// mergeLocked adopts the server listing while keeping the optimistic state
// of tasks that still have a request outstanding.
func (c *Controller) mergeLocked(server []models.Task) []models.Task {
	local := make(map[string]models.Task, len(c.inFlight))
	merged := make([]models.Task, 0, len(server)+len(c.inFlight))
	for _, t := range c.tasks {
		if _, busy := c.inFlight[t.ID]; !busy {
			continue
		}
		local[t.ID] = t
		if t.IsPlaceholder() {
			merged = append(merged, t)
		}
	}
	for _, t := range server {
		if _, busy := c.inFlight[t.ID]; busy {
			// absent locally means a delete is outstanding
			if lt, ok := local[t.ID]; ok {
				merged = append(merged, lt)
			}
			continue
		}
		merged = append(merged, t)
	}
	models.SortNewestFirst(merged)
	return merged
}

// Create prepends a placeholder, submits the task and, once confirmed,
// reloads to replace the placeholder with the server's copy.
func (c *Controller) Create(ctx context.Context, title, description string, status models.Status) error {
	if status == "" {
		status = models.StatusPending
	}
	in := models.TaskInput{Title: title, Description: description, Status: status}.Normalized()
	if err := models.ValidateTask(in); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closedLocked() {
		c.mu.Unlock()
		return ErrClosed
	}
	placeholder := models.Task{
		ID:          models.PlaceholderPrefix + c.newID(),
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		CreatedAt:   models.NewTimestamp(c.now()),
	}
	c.tasks = slices.Insert(c.tasks, 0, placeholder)
	c.inFlight[placeholder.ID] = struct{}{}
	c.mu.Unlock()

	reqCtx, done := c.requestContext(ctx)
	resp := c.api.CreateTask(reqCtx, in)
	done()

	c.mu.Lock()
	delete(c.inFlight, placeholder.ID)
	if c.closedLocked() {
		c.mu.Unlock()
		return ErrClosed
	}
	if !resp.Success {
		c.removeLocked(placeholder.ID)
		c.mu.Unlock()
		c.logger.Info().Str("reason", resp.Message).Msg("create rejected")
		return &RemoteError{Op: "create", Message: resp.Message, Err: resp.Err()}
	}
	c.mu.Unlock()

	c.reconcile(ctx)
	return nil
}

// Update replaces title, description and status of a task.
func (c *Controller) Update(ctx context.Context, id, title, description string, status models.Status) error {
	in := models.TaskInput{Title: title, Description: description, Status: status}.Normalized()
	if err := models.ValidateTask(in); err != nil {
		return err
	}

	c.mu.Lock()
	index, err := c.acquireLocked(id)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	snapshot := c.tasks[index]
	c.tasks[index].Title = in.Title
	c.tasks[index].Description = in.Description
	c.tasks[index].Status = in.Status
	c.mu.Unlock()

	reqCtx, done := c.requestContext(ctx)
	resp := c.api.UpdateTask(reqCtx, id, in)
	done()

	c.mu.Lock()
	delete(c.inFlight, id)
	if c.closedLocked() {
		c.mu.Unlock()
		return ErrClosed
	}
	if !resp.Success {
		c.restoreLocked(index, snapshot)
		c.mu.Unlock()
		c.logger.Info().Str("task", id).Str("reason", resp.Message).Msg("update rejected")
		return &RemoteError{Op: "update", Message: resp.Message, Err: resp.Err()}
	}
	c.mu.Unlock()

	c.reconcile(ctx)
	return nil
}

// ToggleStatus flips Pending and Completed and returns the new status.
func (c *Controller) ToggleStatus(ctx context.Context, id string) (models.Status, error) {
	if id == "" || (models.Task{ID: id}).IsPlaceholder() {
		return "", ErrPlaceholder
	}

	c.mu.Lock()
	index, err := c.acquireLocked(id)
	if err != nil {
		c.mu.Unlock()
		return "", err
	}
	previous := c.tasks[index].Status
	next := previous.Toggle()
	c.tasks[index].Status = next
	in := c.tasks[index].Input()
	c.mu.Unlock()

	reqCtx, done := c.requestContext(ctx)
	resp := c.api.UpdateTask(reqCtx, id, in)
	done()

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, id)
	if c.closedLocked() {
		return "", ErrClosed
	}
	if !resp.Success {
		// only the status is reverted
		if i := c.indexOf(id); i >= 0 {
			c.tasks[i].Status = previous
		}
		c.logger.Info().Str("task", id).Str("reason", resp.Message).Msg("toggle rejected")
		return "", &RemoteError{Op: "toggle", Message: resp.Message, Err: resp.Err()}
	}
	return next, nil
}

// Delete removes a task immediately and puts it back if the backend refuses.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	index, err := c.acquireLocked(id)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	removed := c.tasks[index]
	c.tasks = slices.Delete(c.tasks, index, index+1)
	c.mu.Unlock()

	reqCtx, done := c.requestContext(ctx)
	resp := c.api.DeleteTask(reqCtx, id)
	done()

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, id)
	if c.closedLocked() {
		return ErrClosed
	}
	if !resp.Success {
		c.tasks = append(c.tasks, removed)
		models.SortNewestFirst(c.tasks)
		c.logger.Info().Str("task", id).Str("reason", resp.Message).Msg("delete rejected")
		return &RemoteError{Op: "delete", Message: resp.Message, Err: resp.Err()}
	}
	return nil
}

// acquireLocked finds id and marks it in flight.
func (c *Controller) acquireLocked(id string) (int, error) {
	if c.closedLocked() {
		return -1, ErrClosed
	}
	if _, busy := c.inFlight[id]; busy {
		return -1, ErrInProgress
	}
	index := c.indexOf(id)
	if index < 0 {
		return -1, ErrNotFound
	}
	c.inFlight[id] = struct{}{}
	return index, nil
}

func (c *Controller) indexOf(id string) int {
	return slices.IndexFunc(c.tasks, func(t models.Task) bool { return t.ID == id })
}

func (c *Controller) removeLocked(id string) {
	c.tasks = slices.DeleteFunc(c.tasks, func(t models.Task) bool { return t.ID == id })
}

// restoreLocked puts snapshot back where it is, or where it was.
func (c *Controller) restoreLocked(index int, snapshot models.Task) {
	if i := c.indexOf(snapshot.ID); i >= 0 {
		c.tasks[i] = snapshot
		return
	}
	index = min(index, len(c.tasks))
	c.tasks = slices.Insert(c.tasks, index, snapshot)
}

func (c *Controller) closedLocked() bool {
	return c.ctx.Err() != nil
}

// requestContext is cancelled by the caller's ctx or the end of the view.
func (c *Controller) requestContext(ctx context.Context) (context.Context, func()) {
	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return reqCtx, func() {
		stop()
		cancel()
	}
}
