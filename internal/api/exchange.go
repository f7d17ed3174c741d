package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Exchanger turns the custom token returned by login into the ID token the
// task endpoints accept.
type Exchanger interface {
	Exchange(ctx context.Context, customToken string) (string, error)
}

var ErrNoIDToken = errors.New("identity service returned no ID token")

// IdentityToolkitExchanger calls an accounts:signInWithCustomToken style endpoint.
type IdentityToolkitExchanger struct {
	URL    string
	APIKey string
	HTTP   *http.Client
}

func (e *IdentityToolkitExchanger) Exchange(ctx context.Context, customToken string) (string, error) {
	endpoint, err := url.Parse(e.URL)
	if err != nil {
		return "", fmt.Errorf("parse exchange url: %w", err)
	}
	if e.APIKey != "" {
		q := endpoint.Query()
		q.Set("key", e.APIKey)
		endpoint.RawQuery = q.Encode()
	}

	payload, err := json.Marshal(map[string]any{
		"token":             customToken,
		"returnSecureToken": true,
	})
	if err != nil {
		return "", fmt.Errorf("encode exchange request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := e.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &Error{Message: MsgNetworkError}
	}
	defer resp.Body.Close()

	var body struct {
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    string `json:"expiresIn"`
		Error        *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &Error{Status: resp.StatusCode, Message: MessageForStatus(resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		msg := MessageForStatus(resp.StatusCode)
		if body.Error != nil && body.Error.Message != "" {
			msg = body.Error.Message
		}
		return "", &Error{Status: resp.StatusCode, Message: msg}
	}
	if body.IDToken == "" {
		return "", ErrNoIDToken
	}
	return body.IDToken, nil
}
