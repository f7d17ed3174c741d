package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/chepyr/tareas/internal/models"
	"github.com/rs/zerolog"
)

// FileStore persists the session as a small JSON document so that separate
// CLI invocations share one login.
type FileStore struct {
	path   string
	logger zerolog.Logger
	mu     sync.Mutex
}

func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger.With().Str("component", "session").Logger()}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Save(token string) {
	if token == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// a new token never inherits the identity of a previous session
	if !s.write(map[string]string{KeyAuthToken: token}) {
		// a stale token must not survive a failed save
		_ = os.Remove(s.path)
	}
}

func (s *FileStore) Read() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.read()
	token := doc[KeyAuthToken]
	return token, token != ""
}

func (s *FileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if err == nil || os.IsNotExist(err) {
		return
	}
	s.logger.Warn().Err(err).Msg("remove session file")
	// no token may be readable after a clear
	if s.write(map[string]string{}) {
		return
	}
	if err := os.WriteFile(s.path, nil, 0o600); err != nil {
		s.logger.Warn().Err(err).Msg("truncate session file")
	}
}

func (s *FileStore) SaveUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.read()
	if doc[KeyAuthToken] == "" {
		return
	}
	data, err := json.Marshal(user)
	if err != nil {
		s.logger.Debug().Err(err).Msg("encode user")
		return
	}
	doc[KeyUserData] = string(data)
	s.write(doc)
}

func (s *FileStore) User() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.read()
	if doc[KeyAuthToken] == "" || doc[KeyUserData] == "" {
		return models.User{}, false
	}
	var user models.User
	if err := json.Unmarshal([]byte(doc[KeyUserData]), &user); err != nil {
		s.logger.Debug().Err(err).Msg("decode user")
		return models.User{}, false
	}
	return user, true
}

func (s *FileStore) read() map[string]string {
	doc := map[string]string{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug().Err(err).Msg("read session file")
		}
		return doc
	}
	if len(data) == 0 {
		return doc
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Debug().Err(err).Msg("decode session file")
		return map[string]string{}
	}
	return doc
}

// write replaces the file atomically; on any failure the old content stays.
func (s *FileStore) write(doc map[string]string) bool {
	data, err := json.Marshal(doc)
	if err != nil {
		s.logger.Debug().Err(err).Msg("encode session")
		return false
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		s.logger.Debug().Err(err).Msg("create session dir")
		return false
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		s.logger.Debug().Err(err).Msg("create session temp file")
		return false
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.logger.Debug().Err(err).Msg("write session")
		return false
	}
	if err := tmp.Chmod(0o600); err != nil {
		s.logger.Debug().Err(err).Msg("chmod session")
	}
	if err := tmp.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("close session")
		return false
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		s.logger.Debug().Err(err).Msg("replace session file")
		return false
	}
	return true
}
