package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/chepyr/tareas/internal/models"
	"github.com/chepyr/tareas/internal/server/db"
	"github.com/google/uuid"
)

type taskInput struct {
	TaskID      string `json:"tareaId"`
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
	Status      string `json:"estado"`
}

func (in taskInput) model() models.TaskInput {
	status := models.Status(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.StatusPending
	}
	return models.TaskInput{
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
	}.Normalized()
}

// owner returns the authenticated user id or answers 401.
func owner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, _ := UserIDFromContext(r.Context())
	id, err := uuid.Parse(userID)
	if err != nil {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return id, true
}

func validate(w http.ResponseWriter, in models.TaskInput) bool {
	if err := models.ValidateTask(in); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// taskID reads tareaId; ids that cannot exist are reported as not found.
func taskID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	if strings.TrimSpace(raw) == "" {
		sendError(w, "tareaId is required", http.StatusBadRequest)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		sendError(w, "task not found", http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var input taskInput
	if !decodeBody(w, r, &input) {
		return
	}
	in := input.model()
	if !validate(w, in) {
		return
	}

	now := h.now().UTC()
	task := &db.Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.TaskRepo.Create(ctx, task); err != nil {
		h.Logger.Error().Err(err).Msg("cannot create task")
		sendError(w, "Failed to create task", http.StatusInternalServerError)
		return
	}

	h.Logger.Info().Str("task", task.ID.String()).Str("owner", ownerID.String()).Msg("task created")
	writeJSON(w, http.StatusCreated, response{Success: true, Message: "task created", Data: task.Model()})
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	tasks, err := h.TaskRepo.ListByOwner(ctx, ownerID.String())
	if err != nil {
		h.Logger.Error().Err(err).Msg("cannot list tasks")
		sendError(w, "Failed to list tasks", http.StatusInternalServerError)
		return
	}

	out := make([]models.Task, len(tasks))
	for i, task := range tasks {
		out[i] = task.Model()
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: out})
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var input taskInput
	if !decodeBody(w, r, &input) {
		return
	}
	id, ok := taskID(w, input.TaskID)
	if !ok {
		return
	}
	in := input.model()
	if !validate(w, in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	existing, err := h.TaskRepo.GetByID(ctx, ownerID.String(), id.String())
	if errors.Is(err, db.ErrNotFound) {
		sendError(w, "task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error().Err(err).Msg("cannot load task")
		sendError(w, "Failed to update task", http.StatusInternalServerError)
		return
	}

	existing.Title = in.Title
	existing.Description = in.Description
	existing.Status = in.Status
	existing.UpdatedAt = h.now().UTC()
	if err := h.TaskRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			sendError(w, "task not found", http.StatusNotFound)
			return
		}
		h.Logger.Error().Err(err).Msg("cannot update task")
		sendError(w, "Failed to update task", http.StatusInternalServerError)
		return
	}

	h.Logger.Info().Str("task", id.String()).Str("status", string(in.Status)).Msg("task updated")
	writeJSON(w, http.StatusOK, response{Success: true, Message: "task updated", Data: existing.Model()})
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var input taskInput
	if !decodeBody(w, r, &input) {
		return
	}
	id, ok := taskID(w, input.TaskID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.TaskRepo.Delete(ctx, ownerID.String(), id.String()); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			sendError(w, "task not found", http.StatusNotFound)
			return
		}
		h.Logger.Error().Err(err).Msg("cannot delete task")
		sendError(w, "Failed to delete task", http.StatusInternalServerError)
		return
	}

	h.Logger.Info().Str("task", id.String()).Msg("task deleted")
	writeJSON(w, http.StatusOK, response{Success: true, Message: "task deleted"})
}
