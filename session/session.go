package session

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/pathpal/pathpal-go/credentials"
	"github.com/pathpal/pathpal-go/transport"
)

const (
	loginPath   = "/auth/login"
	refreshPath = "/auth/refresh"
	logoutPath  = "/auth/logout"

	defaultExpiryMargin = 30 * time.Second
)

// Doer is the transport the manager issues requests through.
type Doer interface {
	Do(ctx context.Context, method, path string, body any, header http.Header) (*transport.Response, error)
}

// Manager is the single authority for the authentication lifecycle. All
// credential mutation funnels through it; overlapping Login, Logout and
// AuthorizedRequest calls are serialized with respect to its state.
type Manager struct {
	store     credentials.Store
	transport Doer
	logger    zerolog.Logger
	nowFunc   func() time.Time
	margin    time.Duration
	observer  *Observer

	lock    sync.Mutex
	cred    credentials.Credential // working copy of the stored credential
	gen     uint64                 // bumped on logout and forced expiry
	refresh *refreshFlight         // non-nil while a refresh is in flight
	login   *loginFlight           // non-nil while a login is in flight
}

// refreshFlight is the single in-flight refresh. Callers that need a fresh
// token while it runs wait on done and share its outcome instead of issuing
// their own refresh call.
type refreshFlight struct {
	done   chan struct{}
	cancel context.CancelFunc
	cred   credentials.Credential // valid when err is nil
	err    error
}

type loginFlight struct {
	done chan struct{}
	err  error
}

// ManagerOption modifies a Manager.
type ManagerOption func(*Manager)

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithLogger sets the manager's logger.
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithExpiryMargin sets how long before its expiry an access token stops
// being attached to requests.
func WithExpiryMargin(margin time.Duration) ManagerOption {
	return func(m *Manager) {
		m.margin = margin
	}
}

// NewManager creates a session manager and restores any persisted session. A
// credential that cannot be read is treated as absent: the manager starts
// unauthenticated and logs a warning, it never fails construction over a
// corrupt blob.
func NewManager(store credentials.Store, doer Doer, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[NewManager] store is required")
	}
	if doer == nil {
		return nil, errors.New("[NewManager] transport is required")
	}

	m := &Manager{
		store:     store,
		transport: doer,
		logger:    zerolog.Nop(),
		nowFunc:   time.Now,
		margin:    defaultExpiryMargin,
	}
	for _, opt := range options {
		opt(m)
	}

	initial := State{Status: StatusUnauthenticated}
	cred, ok, err := store.Load()
	switch {
	case err != nil:
		m.logger.Warn().Err(err).Msg("stored credential unreadable, starting unauthenticated")
	case ok && cred.Complete():
		// The access token may already be stale; the first authorized
		// request refreshes it. The refresh token decides whether the
		// session is really still alive.
		m.cred = cred
		userID, _, perr := parseAccessToken(cred.AccessToken)
		if perr != nil {
			m.logger.Warn().Err(perr).Msg("access token claims unreadable")
		}
		initial = State{Status: StatusAuthenticated, UserID: userID, ExpiresAt: cred.ExpiresAt}
	}
	m.observer = NewObserver(initial)
	return m, nil
}

// States exposes the auth state observer. Consumers subscribe for push
// updates or poll Current; neither ever reveals tokens.
func (m *Manager) States() *Observer {
	return m.observer
}

// Login authenticates with the backend and starts a session. Concurrent
// calls do not race: while a login is in flight, further calls wait for it
// and receive its result.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.lock.Lock()
	if fl := m.login; fl != nil {
		m.lock.Unlock()
		select {
		case <-fl.done:
			return fl.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	fl := &loginFlight{done: make(chan struct{})}
	m.login = fl
	gen := m.gen
	// Published before the lock is released so a concurrent logout's
	// Unauthenticated cannot be overtaken by a stale Authenticating.
	m.observer.publish(State{Status: StatusAuthenticating})
	m.lock.Unlock()

	err := m.doLogin(ctx, email, password, gen)

	m.lock.Lock()
	fl.err = err
	m.login = nil
	close(fl.done)
	m.lock.Unlock()
	return err
}

func (m *Manager) doLogin(ctx context.Context, email, password string, gen uint64) error {
	resp, err := m.transport.Do(ctx, http.MethodPost, loginPath, loginRequest{Email: email, Password: password}, nil)
	if err != nil {
		m.observer.publish(State{Status: StatusUnauthenticated})
		var terr *transport.Error
		if errors.As(err, &terr) {
			if terr.IsAuthFailure() {
				return errors.Wrap(ErrInvalidCredentials, "[Login]")
			}
			if terr.Temporary() {
				return errors.Wrap(ErrUnreachable, "[Login]")
			}
		}
		return errors.Wrap(err, "[Login] transport")
	}

	var tr tokenResponse
	if err := resp.Decode(&tr); err != nil {
		m.observer.publish(State{Status: StatusUnauthenticated})
		return errors.Wrap(err, "[Login] token response")
	}

	cred, err := credentialFrom(tr, "", m.nowFunc())
	if err != nil {
		m.observer.publish(State{Status: StatusUnauthenticated})
		return errors.Wrap(err, "[Login]")
	}

	userID, _, perr := parseAccessToken(cred.AccessToken)
	if perr != nil {
		m.logger.Warn().Err(perr).Msg("access token claims unreadable")
	}

	m.lock.Lock()
	if gen != m.gen {
		m.lock.Unlock()
		// A logout raced this login; drop the new session.
		return errors.Wrap(ErrSessionExpired, "[Login] superseded by logout")
	}
	m.cred = cred
	m.lock.Unlock()

	serr := m.store.Save(cred)

	// A logout may have landed while Save was in flight. Its clear of the
	// store raced the save, so undo the write and drop the session rather
	// than publish Authenticated after Unauthenticated.
	m.lock.Lock()
	if gen != m.gen {
		m.lock.Unlock()
		if cerr := m.store.Clear(); cerr != nil {
			m.logger.Warn().Err(cerr).Msg("failed to clear credential store")
		}
		return errors.Wrap(ErrSessionExpired, "[Login] superseded by logout")
	}
	if serr != nil {
		// The session continues in memory; persistence is best effort.
		m.logger.Warn().Err(serr).Msg("failed to persist credential")
	}
	m.observer.publish(State{Status: StatusAuthenticated, UserID: userID, ExpiresAt: cred.ExpiresAt})
	m.lock.Unlock()

	m.logger.Info().Str("user_id", userID).Msg("logged in")
	return nil
}

// AuthorizedRequest issues a request with a bearer token. A token close to
// expiry is refreshed first; a 401 response triggers one refresh and exactly
// one retry. A second 401 means the backend no longer honours the session:
// the credential is cleared and ErrSessionExpired returned.
func (m *Manager) AuthorizedRequest(ctx context.Context, method, path string, body any) (*transport.Response, error) {
	m.lock.Lock()
	cred := m.cred
	m.lock.Unlock()
	if !cred.Complete() {
		return nil, errors.Wrap(ErrNotAuthenticated, "[AuthorizedRequest]")
	}

	// Streamed bodies are materialized once so the post-refresh retry can
	// resend them.
	if r, ok := body.(io.Reader); ok {
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(err, "[AuthorizedRequest] read body")
		}
		body = raw
	}

	refreshed := false
	if !cred.Valid(m.nowFunc(), m.margin) {
		fresh, err := m.refreshCredential(ctx)
		if err != nil {
			return nil, err
		}
		cred = fresh
		refreshed = true
	}

	resp, err := m.transport.Do(ctx, method, path, body, bearerHeader(cred.AccessToken))
	if err == nil {
		return resp, nil
	}
	if !isAuthFailure(err) {
		return nil, m.translate(err, "[AuthorizedRequest]")
	}
	if refreshed {
		// A 401 on a token the backend just issued: the session is gone,
		// refreshing again would loop.
		m.expireSession()
		return nil, errors.Wrap(ErrSessionExpired, "[AuthorizedRequest]")
	}

	// The backend rejected the token before the local clock expired it.
	// Refresh once and retry.
	fresh, rerr := m.refreshCredential(ctx)
	if rerr != nil {
		return nil, rerr
	}
	resp, err = m.transport.Do(ctx, method, path, body, bearerHeader(fresh.AccessToken))
	if err == nil {
		return resp, nil
	}
	if isAuthFailure(err) {
		// Rejected again straight after a successful refresh. Not retried
		// further; the session is gone.
		m.expireSession()
		return nil, errors.Wrap(ErrSessionExpired, "[AuthorizedRequest]")
	}
	return nil, m.translate(err, "[AuthorizedRequest]")
}

// BearerToken returns a currently valid access token for callers that must
// authenticate outside the HTTP transport, such as the realtime websocket
// handshake. The token is refreshed first when no longer valid.
func (m *Manager) BearerToken(ctx context.Context) (string, error) {
	m.lock.Lock()
	cred := m.cred
	m.lock.Unlock()
	if !cred.Complete() {
		return "", errors.Wrap(ErrNotAuthenticated, "[BearerToken]")
	}
	if cred.Valid(m.nowFunc(), m.margin) {
		return cred.AccessToken, nil
	}
	fresh, err := m.refreshCredential(ctx)
	if err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}

// refreshCredential exchanges the refresh token for a new pair. At most one
// refresh call is in flight at any time; concurrent callers wait for it and
// share its outcome, which keeps single-use refresh tokens from racing.
func (m *Manager) refreshCredential(ctx context.Context) (credentials.Credential, error) {
	m.lock.Lock()
	if fl := m.refresh; fl != nil {
		m.lock.Unlock()
		select {
		case <-fl.done:
			return fl.cred, fl.err
		case <-ctx.Done():
			return credentials.Credential{}, ctx.Err()
		}
	}

	cred := m.cred
	if cred.RefreshToken == "" {
		m.lock.Unlock()
		return credentials.Credential{}, errors.Wrap(ErrNotAuthenticated, "[refresh]")
	}

	// The refresh outlives the triggering caller's context: its result is
	// shared with every queued request. Logout cancels it; the transport's
	// timeout bounds it.
	rctx, cancel := context.WithCancel(context.Background())
	fl := &refreshFlight{done: make(chan struct{}), cancel: cancel}
	m.refresh = fl
	prev := m.observer.Current()
	// Published before the lock is released so a logout that settles this
	// flight always publishes Unauthenticated after, never before.
	m.observer.publish(State{Status: StatusAuthenticating})
	m.lock.Unlock()
	defer cancel()

	newCred, userID, err := m.doRefresh(rctx, cred.RefreshToken)

	m.lock.Lock()
	defer m.lock.Unlock()

	if m.refresh != fl {
		// Logout settled this flight already; its verdict stands.
		return credentials.Credential{}, fl.err
	}
	m.refresh = nil

	switch {
	case err == nil:
		m.cred = newCred
		fl.cred = newCred
		if serr := m.store.Save(newCred); serr != nil {
			m.logger.Warn().Err(serr).Msg("failed to persist refreshed credential")
		}
		m.observer.publish(State{Status: StatusAuthenticated, UserID: userID, ExpiresAt: newCred.ExpiresAt})
	case refreshRejected(err):
		// The backend no longer honours the refresh token: end the session.
		m.cred = credentials.Credential{}
		m.gen++
		if cerr := m.store.Clear(); cerr != nil {
			m.logger.Warn().Err(cerr).Msg("failed to clear credential store")
		}
		m.observer.publish(State{Status: StatusExpired})
		m.observer.publish(State{Status: StatusUnauthenticated})
		fl.err = errors.Wrap(ErrSessionExpired, "[refresh]")
		m.logger.Info().Msg("session expired")
	default:
		// Transient failure: keep the session so the caller can retry.
		m.observer.publish(State{Status: StatusError, Err: ErrUnreachable})
		m.observer.publish(prev)
		fl.err = m.translate(err, "[refresh]")
	}

	close(fl.done)
	return fl.cred, fl.err
}

func (m *Manager) doRefresh(ctx context.Context, refreshToken string) (credentials.Credential, string, error) {
	resp, err := m.transport.Do(ctx, http.MethodPost, refreshPath, refreshRequest{RefreshToken: refreshToken}, nil)
	if err != nil {
		return credentials.Credential{}, "", err
	}

	var tr tokenResponse
	if err := resp.Decode(&tr); err != nil {
		return credentials.Credential{}, "", errors.Wrap(err, "token response")
	}

	cred, err := credentialFrom(tr, refreshToken, m.nowFunc())
	if err != nil {
		return credentials.Credential{}, "", err
	}

	userID, _, perr := parseAccessToken(cred.AccessToken)
	if perr != nil {
		m.logger.Warn().Err(perr).Msg("access token claims unreadable")
	}
	return cred, userID, nil
}

// Logout ends the session. It is always safe to call: an in-flight refresh
// is cancelled and every request queued behind it fails with
// ErrSessionExpired, the credential store is cleared, and the backend is
// told, best effort, to drop the refresh token.
func (m *Manager) Logout(ctx context.Context) error {
	m.lock.Lock()
	cred := m.cred
	m.cred = credentials.Credential{}
	m.gen++
	if fl := m.refresh; fl != nil {
		m.refresh = nil
		fl.err = errors.Wrap(ErrSessionExpired, "[Logout] refresh cancelled")
		fl.cancel()
		close(fl.done)
	}
	m.lock.Unlock()

	if err := m.store.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("failed to clear credential store")
	}

	if cred.RefreshToken != "" {
		if _, err := m.transport.Do(ctx, http.MethodPost, logoutPath, logoutRequest{RefreshToken: cred.RefreshToken}, bearerHeader(cred.AccessToken)); err != nil {
			m.logger.Debug().Err(err).Msg("backend logout failed")
		}
	}

	m.observer.publish(State{Status: StatusUnauthenticated})
	m.logger.Info().Msg("logged out")
	return nil
}

// expireSession clears the credential after the backend rejected a freshly
// refreshed token.
func (m *Manager) expireSession() {
	m.lock.Lock()
	m.cred = credentials.Credential{}
	m.gen++
	if fl := m.refresh; fl != nil {
		m.refresh = nil
		fl.err = errors.Wrap(ErrSessionExpired, "[expireSession] refresh cancelled")
		fl.cancel()
		close(fl.done)
	}
	m.lock.Unlock()

	if err := m.store.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("failed to clear credential store")
	}
	m.observer.publish(State{Status: StatusExpired})
	m.observer.publish(State{Status: StatusUnauthenticated})
}

// translate maps transport failures onto the session error taxonomy so raw
// transport errors never leak to callers.
func (m *Manager) translate(err error, context string) error {
	var terr *transport.Error
	if errors.As(err, &terr) && terr.Temporary() {
		return errors.Wrap(ErrUnreachable, context)
	}
	return errors.Wrap(err, context)
}

func isAuthFailure(err error) bool {
	var terr *transport.Error
	return errors.As(err, &terr) && terr.IsAuthFailure()
}

// refreshRejected reports whether the refresh endpoint refused the token
// itself, as opposed to failing transiently. 400 and 403 count alongside
// 401: backends answer an unknown or revoked refresh token with any of them.
func refreshRejected(err error) bool {
	var terr *transport.Error
	if !errors.As(err, &terr) || terr.Kind != transport.KindHTTPStatus {
		return false
	}
	switch terr.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}

func bearerHeader(accessToken string) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+accessToken)
	return h
}
