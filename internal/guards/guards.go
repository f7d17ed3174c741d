// Package guards decides which screen a navigation may land on given the
// current session.
package guards

import (
	"strings"

	"github.com/chepyr/tareas/internal/session"
)

type Route string

const (
	RouteLogin Route = "/login"
	RouteHome  Route = "/"
)

// Decision either allows the navigation or names where to go instead.
type Decision struct {
	Allow    bool
	Redirect Route
}

// Guard reads the session only; it never changes it.
type Guard func() Decision

// RequireAuth admits authenticated sessions and sends the rest to login.
func RequireAuth(store session.Store) Guard {
	return func() Decision {
		if session.IsAuthenticated(store) {
			return Decision{Allow: true}
		}
		return Decision{Redirect: RouteLogin}
	}
}

// RequireGuest admits anonymous sessions and sends the rest home.
func RequireGuest(store session.Store) Guard {
	return func() Decision {
		if session.IsAuthenticated(store) {
			return Decision{Redirect: RouteHome}
		}
		return Decision{Allow: true}
	}
}

// Resolve maps a path to a known route. Unknown paths go home.
func Resolve(path string) Route {
	p := strings.TrimSpace(path)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimRight(p, "/")
	if p == string(RouteLogin) {
		return RouteLogin
	}
	return RouteHome
}

// For returns the guard bound to route.
func For(route Route, store session.Store) Guard {
	if route == RouteLogin {
		return RequireGuest(store)
	}
	return RequireAuth(store)
}

// Navigate resolves path and applies its guard, returning where the user
// ends up. Each route's redirect target admits the session that was
// redirected, so one hop is always enough.
func Navigate(store session.Store, path string) Route {
	route := Resolve(path)
	d := For(route, store)()
	if d.Allow {
		return route
	}
	return d.Redirect
}
