package session

import "time"

// Status enumerates the authentication lifecycle.
type Status int

const (
	// StatusUnauthenticated means no session exists.
	StatusUnauthenticated Status = iota
	// StatusAuthenticating means a login or token refresh is in flight.
	StatusAuthenticating
	// StatusAuthenticated means a valid session exists.
	StatusAuthenticated
	// StatusExpired means the session ended because the backend stopped
	// accepting the refresh token. It is immediately followed by
	// StatusUnauthenticated once the credential is cleared.
	StatusExpired
	// StatusError means the last operation failed without destroying the
	// session (e.g. backend unreachable during login).
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusExpired:
		return "expired"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// State is the externally visible session state. It never carries tokens;
// consumers that need to authorize a call go through the manager.
type State struct {
	Status    Status
	UserID    string    // set when authenticated
	ExpiresAt time.Time // access token expiry, when authenticated
	Err       error     // set when Status == StatusError
}
