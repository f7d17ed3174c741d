package handlers

import (
	"net/http"
	"slices"
	"time"

	"github.com/chepyr/tareas/internal/api"
	"github.com/gorilla/mux"
)

// NewRouter registers every endpoint with its method. allowedOrigins lists
// the browser origins that may call the API; "*" allows any.
func NewRouter(h *Handler, allowedOrigins []string) *mux.Router {
	r := mux.NewRouter()
	r.Use(h.logRequests, cors(allowedOrigins))

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc(api.PathCreateUser, h.CreateUser).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc(api.PathLogin, h.Login).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc(api.PathCreateTask, h.AuthMiddleware(h.CreateTask)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc(api.PathListTasks, h.AuthMiddleware(h.ListTasks)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc(api.PathUpdateTask, h.AuthMiddleware(h.UpdateTask)).Methods(http.MethodPut, http.MethodOptions)
	r.HandleFunc(api.PathDeleteTask, h.AuthMiddleware(h.DeleteTask)).Methods(http.MethodDelete, http.MethodOptions)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}

func cors(allowedOrigins []string) mux.MiddlewareFunc {
	anyOrigin := slices.Contains(allowedOrigins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (anyOrigin || slices.Contains(allowedOrigins, origin)) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.Logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
