// Package handlers serves the task-manager endpoints over net/http. Every
// response body is the {exito, mensaje, ...} envelope the client expects.
package handlers

import (
	"encoding/json"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/chepyr/tareas/internal/models"
	"github.com/chepyr/tareas/internal/server/db"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20 // 1MB

type Handler struct {
	UserRepo    db.UserRepositoryInterface
	TaskRepo    db.TaskRepositoryInterface
	RateLimiter *RateLimiter
	JWTSecret   []byte
	TokenTTL    time.Duration
	Logger      zerolog.Logger
	Now         func() time.Time
}

type response struct {
	Success bool         `json:"exito"`
	Message string       `json:"mensaje,omitempty"`
	Data    any          `json:"datos,omitempty"`
	Token   string       `json:"token,omitempty"`
	User    *models.User `json:"usuario,omitempty"`
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func sendError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, response{Success: false, Message: message})
}

func isJSONContentType(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// decodeBody reads a JSON request body of at most maxBodyBytes.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// allow applies the rate limiter when one is configured.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request) bool {
	ip := clientIP(r)
	if h.RateLimiter != nil && !h.RateLimiter.Allow(ip) {
		h.Logger.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("rate limit exceeded")
		sendError(w, "Too many attempts. Please try again later.", http.StatusTooManyRequests)
		return false
	}
	return true
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response{Success: true, Message: "ok"})
}
