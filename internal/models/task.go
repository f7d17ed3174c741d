package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "P"
	StatusCompleted Status = "C"
)

// PlaceholderPrefix marks ids generated locally for tasks the server has not confirmed yet.
const PlaceholderPrefix = "temp-"

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Toggle flips Pending and Completed. Any other value toggles to Completed.
func (s Status) Toggle() Status {
	if s == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ParseStatus accepts the wire codes and their long names.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "p", "pending", "pendiente":
		return StatusPending, true
	case "c", "completed", "done", "completada":
		return StatusCompleted, true
	default:
		return "", false
	}
}

// Timestamp is the server epoch representation of a creation time.
type Timestamp struct {
	Seconds     int64
	Nanoseconds int64
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanoseconds: int64(t.Nanosecond())}
}

func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, ts.Nanoseconds)
}

func (ts Timestamp) IsZero() bool {
	return ts.Seconds == 0 && ts.Nanoseconds == 0
}

func (ts Timestamp) Before(other Timestamp) bool {
	if ts.Seconds != other.Seconds {
		return ts.Seconds < other.Seconds
	}
	return ts.Nanoseconds < other.Nanoseconds
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Seconds     int64 `json:"_seconds"`
		Nanoseconds int64 `json:"_nanoseconds"`
	}{ts.Seconds, ts.Nanoseconds})
}

// MarshalYAML renders the timestamp as RFC 3339 text.
func (ts Timestamp) MarshalYAML() (any, error) {
	return ts.Time().UTC().Format(time.RFC3339), nil
}

// UnmarshalJSON accepts both the underscored and the plain field names.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var raw struct {
		Seconds      *int64 `json:"_seconds"`
		Nanoseconds  *int64 `json:"_nanoseconds"`
		PlainSeconds *int64 `json:"seconds"`
		PlainNanos   *int64 `json:"nanoseconds"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*ts = Timestamp{}
	switch {
	case raw.Seconds != nil:
		ts.Seconds = *raw.Seconds
	case raw.PlainSeconds != nil:
		ts.Seconds = *raw.PlainSeconds
	}
	switch {
	case raw.Nanoseconds != nil:
		ts.Nanoseconds = *raw.Nanoseconds
	case raw.PlainNanos != nil:
		ts.Nanoseconds = *raw.PlainNanos
	}
	return nil
}

type Task struct {
	ID          string    `json:"id,omitempty" yaml:"id"`
	Title       string    `json:"titulo" yaml:"title"`
	Description string    `json:"descripcion" yaml:"description"`
	Status      Status    `json:"estado" yaml:"status"`
	Owner       string    `json:"usuario,omitempty" yaml:"owner,omitempty"`
	CreatedAt   Timestamp `json:"fecha_de_creacion" yaml:"created_at"`
}

// TaskInput is the client-editable part of a task.
type TaskInput struct {
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
	Status      Status `json:"estado"`
}

// Normalized trims surrounding whitespace from the text fields. Validation
// and storage both see the normalized form.
func (in TaskInput) Normalized() TaskInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

func (t Task) IsPlaceholder() bool {
	return strings.HasPrefix(t.ID, PlaceholderPrefix)
}

func (t Task) Input() TaskInput {
	return TaskInput{Title: t.Title, Description: t.Description, Status: t.Status}
}

// SortNewestFirst orders tasks by creation time, newest first. Ties keep their order.
func SortNewestFirst(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[j].CreatedAt.Before(tasks[i].CreatedAt)
	})
}

// Count returns the number of pending and completed tasks.
func Count(tasks []Task) (pending, completed int) {
	for _, t := range tasks {
		if t.Status == StatusCompleted {
			completed++
		} else {
			pending++
		}
	}
	return pending, completed
}
