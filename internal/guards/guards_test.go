package guards

import (
	"testing"

	"github.com/chepyr/tareas/internal/models"
	"github.com/chepyr/tareas/internal/session"
	"github.com/stretchr/testify/assert"
)

func sessions() map[string]session.Store {
	anon := session.NewMemoryStore()
	authed := session.NewMemoryStore()
	authed.Save("T1")
	authed.SaveUser(models.User{ID: "u1", Email: "a@b.com"})
	return map[string]session.Store{"anonymous": anon, "authenticated": authed}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		path string
		want Route
	}{
		{"/login", RouteLogin},
		{"/login/", RouteLogin},
		{"/login?next=/", RouteLogin},
		{"/", RouteHome},
		{"", RouteHome},
		{"/tasks/42", RouteHome},
		{"/loginx", RouteHome},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Resolve(tt.path), "path %q", tt.path)
	}
}

func TestGuards(t *testing.T) {
	s := sessions()

	assert.Equal(t, Decision{Redirect: RouteLogin}, RequireAuth(s["anonymous"])())
	assert.Equal(t, Decision{Allow: true}, RequireAuth(s["authenticated"])())
	assert.Equal(t, Decision{Allow: true}, RequireGuest(s["anonymous"])())
	assert.Equal(t, Decision{Redirect: RouteHome}, RequireGuest(s["authenticated"])())
}

func TestNavigate_EveryStateLandsOnARoute(t *testing.T) {
	paths := []string{"/", "/login", "/unknown", ""}
	for name, store := range sessions() {
		for _, path := range paths {
			got := Navigate(store, path)
			want := RouteHome
			if !session.IsAuthenticated(store) {
				want = RouteLogin
			}
			assert.Equal(t, want, got, "%s navigating to %q", name, path)
			// the landing route admits the session without another redirect
			assert.True(t, For(got, store)().Allow, "%s on %s", name, got)
		}
	}
}

func TestGuardsDoNotMutateSession(t *testing.T) {
	store := session.NewMemoryStore()
	store.Save("T1")
	store.SaveUser(models.User{ID: "u1", Email: "a@b.com"})

	for i := 0; i < 3; i++ {
		Navigate(store, "/login")
		Navigate(store, "/")
	}
	token, ok := store.Read()
	assert.True(t, ok)
	assert.Equal(t, "T1", token)
	_, ok = store.User()
	assert.True(t, ok)
}

func TestNavigate_FollowsSessionChanges(t *testing.T) {
	store := session.NewMemoryStore()
	guard := RequireAuth(store)

	assert.False(t, guard().Allow)
	store.Save("T1")
	assert.True(t, guard().Allow)
	store.Clear()
	assert.Equal(t, RouteLogin, Navigate(store, "/"))
}
