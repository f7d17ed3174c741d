package api

import (
	"net/http"
	"time"

	"github.com/chepyr/tareas/internal/session"
)

// AuthTransport decorates every request with the stored bearer token and
// invalidates the session when any response is a 401.
type AuthTransport struct {
	Base           http.RoundTripper
	Store          session.Store
	OnUnauthorized func()
}

func NewAuthTransport(base http.RoundTripper, store session.Store, onUnauthorized func()) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &AuthTransport{Base: base, Store: store, OnUnauthorized: onUnauthorized}
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token, ok := t.Store.Read(); ok {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.Base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		t.Store.Clear()
		if t.OnUnauthorized != nil {
			t.OnUnauthorized()
		}
	}
	return resp, nil
}

// NewHTTPClient wires an AuthTransport into an http.Client with the given deadline.
func NewHTTPClient(store session.Store, timeout time.Duration, onUnauthorized func()) *http.Client {
	return &http.Client{
		Transport: NewAuthTransport(nil, store, onUnauthorized),
		Timeout:   timeout,
	}
}
