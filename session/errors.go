package session

import "errors"

var (
	// ErrInvalidCredentials is returned by Login when the backend rejects
	// the email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnreachable is returned when the backend cannot be reached or does
	// not answer in time. The session, if any, is left intact so the caller
	// can retry.
	ErrUnreachable = errors.New("backend unreachable")

	// ErrSessionExpired is returned when the refresh token is no longer
	// accepted. The credential has been cleared; the user must log in again.
	ErrSessionExpired = errors.New("session expired")

	// ErrNotAuthenticated is returned by AuthorizedRequest when no session
	// exists.
	ErrNotAuthenticated = errors.New("not authenticated")
)
