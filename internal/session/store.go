// Package session keeps the bearer token and the cached user identity for as
// long as the client process (or the session file) lives.
package session

import (
	"sync"

	"github.com/chepyr/tareas/internal/models"
)

// Fixed storage keys.
const (
	KeyAuthToken = "auth_token"
	KeyUserData  = "user_data"
)

// Store never fails loudly: operations that cannot reach the backing storage
// are dropped, and a Read that cannot find a token reports absent.
type Store interface {
	Save(token string)
	Read() (string, bool)
	Clear()
	SaveUser(user models.User)
	User() (models.User, bool)
}

func IsAuthenticated(store Store) bool {
	_, ok := store.Read()
	return ok
}

type MemoryStore struct {
	mu    sync.RWMutex
	token string
	user  *models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(token string) {
	if token == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *MemoryStore) Read() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
}

// SaveUser is ignored while no token is stored.
func (s *MemoryStore) SaveUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return
	}
	s.user = &user
}

func (s *MemoryStore) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}
