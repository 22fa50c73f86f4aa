package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pathpal/pathpal-go/session"
)

func TestIsRouteAllowed(t *testing.T) {
	authenticated := session.State{Status: session.StatusAuthenticated, UserID: "user-1"}
	refreshing := session.State{Status: session.StatusAuthenticating}
	loggedOut := session.State{Status: session.StatusUnauthenticated}
	expired := session.State{Status: session.StatusExpired}

	tests := []struct {
		name    string
		state   session.State
		route   string
		allowed bool
	}{
		{"login page without session", loggedOut, "/login", true},
		{"register page without session", loggedOut, "/register", true},
		{"home without session", loggedOut, "/", true},
		{"trips without session", loggedOut, "/trips", false},
		{"trips with session", authenticated, "/trips", true},
		{"trips while refreshing", refreshing, "/trips", true},
		{"trips after expiry", expired, "/trips", false},
		{"trailing slash normalized", authenticated, "/trips/", true},
		{"missing leading slash normalized", loggedOut, "login", true},
		{"empty route is home", loggedOut, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.allowed, session.IsRouteAllowed(tc.state, tc.route))
		})
	}
}
