package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chepyr/tareas/internal/models"
	"github.com/chepyr/tareas/internal/server/db"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 24 * time.Hour

type emailInput struct {
	Email string `json:"correo"`
}

func (h *Handler) readEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	var input emailInput
	if !decodeBody(w, r, &input) {
		return "", false
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := models.ValidateEmail(email); err != nil {
		var verrs models.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			sendError(w, verrs[0].Message, http.StatusBadRequest)
		} else {
			sendError(w, "Invalid email", http.StatusBadRequest)
		}
		return "", false
	}
	return email, true
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r) {
		return
	}
	email, ok := h.readEmail(w, r)
	if !ok {
		return
	}

	user := &db.User{ID: uuid.New(), Email: email, CreatedAt: h.now().UTC()}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.UserRepo.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			sendError(w, "user already exists", http.StatusConflict)
			return
		}
		h.Logger.Error().Err(err).Str("email", email).Msg("cannot save user")
		sendError(w, "Cannot save user", http.StatusInternalServerError)
		return
	}

	h.Logger.Info().Str("email", email).Msg("user registered")
	writeJSON(w, http.StatusCreated, response{
		Success: true,
		Message: "user created",
		User:    &models.User{ID: user.ID.String(), Email: user.Email},
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r) {
		return
	}
	email, ok := h.readEmail(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	user, err := h.UserRepo.GetByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		h.Logger.Info().Str("email", email).Msg("login for unknown user")
		sendError(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error().Err(err).Str("email", email).Msg("cannot load user")
		sendError(w, "Cannot load user", http.StatusInternalServerError)
		return
	}

	tokenString, err := h.generateToken(user)
	if err != nil {
		h.Logger.Error().Err(err).Msg("cannot create token")
		sendError(w, "Cannot create token", http.StatusInternalServerError)
		return
	}

	h.Logger.Info().Str("email", email).Msg("user logged in")
	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "login successful",
		Token:   tokenString,
		User:    &models.User{ID: user.ID.String(), Email: user.Email},
	})
}

func (h *Handler) generateToken(user *db.User) (string, error) {
	if len(h.JWTSecret) == 0 {
		return "", errors.New("JWT secret is not configured")
	}
	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	now := h.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	})
	tokenString, err := token.SignedString(h.JWTSecret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return tokenString, nil
}
