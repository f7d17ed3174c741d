package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/chepyr/tareas/internal/models"
	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Title       string
	Description string
	Status      models.Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Model is the task as the API serves it.
func (t *Task) Model() models.Task {
	return models.Task{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Owner:       t.OwnerID.String(),
		CreatedAt:   models.NewTimestamp(t.CreatedAt),
	}
}

// defines methods for task db operations, always scoped to an owner
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, ownerID, id string) (*Task, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, ownerID, id string) error
}

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, owner_id, title, description, status, created_at, updated_at`

func (r *TaskRepository) Create(ctx context.Context, task *Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
	 VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		task.ID.String(), task.OwnerID.String(), task.Title, task.Description, string(task.Status),
		task.CreatedAt.UnixNano(), task.UpdatedAt.UnixNano())
	return err
}

// GetByID returns ErrNotFound for a task that does not exist or belongs to
// someone else.
func (r *TaskRepository) GetByID(ctx context.Context, ownerID, id string) (*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND owner_id = $2`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		return nil, notFound(err)
	}
	return task, nil
}

// ListByOwner returns the owner's tasks, newest first.
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Update(ctx context.Context, task *Task) error {
	query := `UPDATE tasks SET title = $1, description = $2, status = $3, updated_at = $4
	 WHERE id = $5 AND owner_id = $6`

	res, err := r.db.ExecContext(ctx, query,
		task.Title, task.Description, string(task.Status), task.UpdatedAt.UnixNano(),
		task.ID.String(), task.OwnerID.String())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*Task, error) {
	task := &Task{}
	var status string
	var createdAt, updatedAt int64
	err := row.Scan(&task.ID, &task.OwnerID, &task.Title, &task.Description, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	task.Status = models.Status(status)
	task.CreatedAt = time.Unix(0, createdAt).UTC()
	task.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return task, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
