package session

import "strings"

// Routes reachable without a session.
var publicRoutes = map[string]struct{}{
	"/":               {},
	"/login":          {},
	"/register":       {},
	"/password-reset": {},
}

// IsRouteAllowed reports whether route is reachable in the given state. The
// router consumes this; the SDK performs no navigation itself. A route is
// public, or it requires a session — Authenticating counts as having one so
// a background refresh does not bounce the user off an open screen.
func IsRouteAllowed(state State, route string) bool {
	route = normalizeRoute(route)
	if _, ok := publicRoutes[route]; ok {
		return true
	}
	switch state.Status {
	case StatusAuthenticated, StatusAuthenticating:
		return true
	default:
		return false
	}
}

func normalizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	if len(route) > 1 {
		route = strings.TrimSuffix(route, "/")
	}
	return route
}
