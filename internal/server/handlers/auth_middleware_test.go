package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

func TestAuthMiddleware(t *testing.T) {
	valid := jwt.MapClaims{
		"sub": "11111111-1111-1111-1111-111111111111",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, valid).SignedString(jwt.UnsafeAllowNoneSignatureType)
	otherSecret, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, valid).SignedString([]byte("a-completely-different-secret-value"))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantSub    string
	}{
		{name: "Missing Authorization header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "Not a bearer token", header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized},
		{name: "Invalid token", header: "Bearer obviously.invalid.token", wantStatus: http.StatusUnauthorized},
		{name: "Wrong secret", header: "Bearer " + otherSecret, wantStatus: http.StatusUnauthorized},
		{name: "Unsigned token", header: "Bearer " + noneToken, wantStatus: http.StatusUnauthorized},
		{
			name:       "Missing exp",
			header:     "Bearer " + signToken(t, jwt.MapClaims{"sub": "11111111-1111-1111-1111-111111111111"}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "Expired",
			header: "Bearer " + signToken(t, jwt.MapClaims{
				"sub": "11111111-1111-1111-1111-111111111111",
				"exp": time.Now().Add(-time.Minute).Unix(),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Missing sub",
			header:     "Bearer " + signToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Valid token",
			header:     "Bearer " + signToken(t, valid),
			wantStatus: http.StatusOK,
			wantSub:    "11111111-1111-1111-1111-111111111111",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Handler{JWTSecret: []byte(testSecret), Logger: zerolog.Nop()}
			gotSub := ""
			next := func(w http.ResponseWriter, r *http.Request) {
				gotSub, _ = UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}

			req := httptest.NewRequest(http.MethodGet, "/any", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.AuthMiddleware(next)(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("want %d, got %d body=%s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if gotSub != tt.wantSub {
				t.Errorf("want sub %q in context, got %q", tt.wantSub, gotSub)
			}
		})
	}
}
