package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chepyr/tareas/internal/server/db"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const testSecret = "test-secret-32-bytes-long-1234567890"

type MockUserRepository struct {
	users     map[string]*db.User
	createErr error
	getErr    error
	mutex     sync.Mutex
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*db.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *db.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.users[user.Email]; exists {
		return db.ErrDuplicate
	}
	m.users[user.Email] = user
	return nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	user, exists := m.users[email]
	if !exists {
		return nil, db.ErrNotFound
	}
	return user, nil
}

func setupMockUser(email string) *MockUserRepository {
	repo := NewMockUserRepository()
	repo.users[email] = &db.User{ID: uuid.New(), Email: email, CreatedAt: time.Now()}
	return repo
}

// setupTestDB returns a migrated in-memory database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Connect(db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestHandler wires real repositories over sqlite.
func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	conn := setupTestDB(t)
	return &Handler{
		UserRepo:  db.NewUserRepository(conn),
		TaskRepo:  db.NewTaskRepository(conn),
		JWTSecret: []byte(testSecret),
		Logger:    zerolog.Nop(),
	}
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

// createUser stores a user and returns a bearer token for it.
func createUser(t *testing.T, h *Handler, email string) (uuid.UUID, string) {
	t.Helper()
	user := &db.User{ID: uuid.New(), Email: email, CreatedAt: time.Now()}
	if err := h.UserRepo.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	token := signToken(t, jwt.MapClaims{
		"sub": user.ID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	return user.ID, token
}

func jsonRequest(method, path, body, token string) *http.Request {
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "192.168.1.1:5555"
	return req
}
