package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"finboard/internal/api"
	"finboard/internal/core"
	"finboard/internal/log"
)

// State of the session lifecycle.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// GenericAuthFailure is shown when the service gives no reason.
const GenericAuthFailure = "Authentication failed. Please try again."

var (
	ErrAuthInProgress       = errors.New("authentication already in progress")
	ErrAlreadyAuthenticated = errors.New("already authenticated, log out first")
	ErrSuperseded           = errors.New("session changed while authenticating")
)

// AuthError is a login or registration failure, carrying the message to
// show next to the form.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

func newAuthError(err error) *AuthError {
	msg := api.Detail(err)
	if msg == "" && isValidation(err) {
		msg = err.Error()
	}
	if msg == "" {
		msg = GenericAuthFailure
	}
	return &AuthError{Message: msg, Err: err}
}

func isValidation(err error) bool {
	return errors.Is(err, core.ErrEmptyUsername) ||
		errors.Is(err, core.ErrEmptyPassword) ||
		errors.Is(err, core.ErrEmptyEmail)
}

// Session holds credentials and identity and gates everything that talks
// to the service.
type Session struct {
	mu      sync.RWMutex
	state   State
	token   string
	user    *core.User
	lastErr *AuthError
	gen     uint64

	hooksMu sync.Mutex
	hooks   []func(ctx context.Context)

	auth   api.Authenticator
	store  Store
	now    func() time.Time
	logger *log.Logger
}

// New creates an anonymous session. store may be nil.
func New(auth api.Authenticator, store Store, logger *log.Logger) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default(log.ComponentSession)
	}
	return &Session{auth: auth, store: store, now: time.Now, logger: logger}
}

// OnLogout registers fn to run during Logout, after the token is dropped
// and before the session reports Anonymous.
func (s *Session) OnLogout(fn func(ctx context.Context)) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Token is the current bearer token, empty when not authenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == Authenticated && s.token != ""
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns a copy of the signed-in identity.
func (s *Session) User() (core.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return core.User{}, false
	}
	return *s.user, true
}

// LastError is the most recent authentication failure, cleared on success.
func (s *Session) LastError() *AuthError {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Session) Login(ctx context.Context, c core.Credentials) error {
	if err := c.Validate(); err != nil {
		return s.fail(newAuthError(err))
	}
	return s.authenticate(ctx, log.OpLogin, c.Username, func(ctx context.Context) (core.AuthResult, error) {
		return s.auth.Login(ctx, c)
	})
}

func (s *Session) Register(ctx context.Context, r core.Registration) error {
	if err := r.Validate(); err != nil {
		return s.fail(newAuthError(err))
	}
	return s.authenticate(ctx, log.OpRegister, r.Username, func(ctx context.Context) (core.AuthResult, error) {
		return s.auth.Register(ctx, r)
	})
}

func (s *Session) fail(err *AuthError) error {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	return err
}

func (s *Session) authenticate(ctx context.Context, op, username string, call func(context.Context) (core.AuthResult, error)) error {
	s.mu.Lock()
	switch s.state {
	case Authenticating:
		s.mu.Unlock()
		return ErrAuthInProgress
	case Authenticated:
		s.mu.Unlock()
		return ErrAlreadyAuthenticated
	}
	s.state = Authenticating
	s.lastErr = nil
	gen := s.gen
	s.mu.Unlock()

	res, err := call(ctx)
	if err == nil && res.AccessToken == "" {
		err = errors.New("empty access token in response")
	}

	s.mu.Lock()
	if s.gen != gen {
		// A logout raced the request; its outcome no longer applies.
		s.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		authErr := newAuthError(err)
		s.state = Anonymous
		s.lastErr = authErr
		s.mu.Unlock()

		s.logger.WarnContext(ctx, "Authentication failed",
			log.NewFields().WithOperation(op).WithError(err).ToSlice()...)
		return authErr
	}
	user := res.User
	s.token = res.AccessToken
	s.user = &user
	s.state = Authenticated
	s.mu.Unlock()

	if err := s.store.SaveSession(ctx, Saved{Token: res.AccessToken, User: user}); err != nil {
		s.logger.WarnContext(ctx, "Failed to persist session", log.FieldError, err)
	}
	s.logger.InfoContext(ctx, "Authenticated", log.FieldOperation, op, log.FieldUsername, username)
	return nil
}

// Logout drops the token and identity, runs the logout hooks, and only
// then moves to Anonymous.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.lastErr = nil
	s.gen++
	s.mu.Unlock()

	s.hooksMu.Lock()
	hooks := slices.Clone(s.hooks)
	s.hooksMu.Unlock()
	for _, fn := range hooks {
		fn(ctx)
	}

	if err := s.store.ClearSession(ctx); err != nil {
		s.logger.WarnContext(ctx, "Failed to clear persisted session", log.FieldError, err)
	}

	s.mu.Lock()
	s.state = Anonymous
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "Logged out", log.FieldOperation, log.OpLogout)
}

// Restore resumes a persisted session. An expired token is discarded.
// The identity is refreshed from the service; a 401 ends the session,
// other failures keep the stored identity. It reports whether the
// session ended up authenticated.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	saved, ok, err := s.store.LoadSession(ctx)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if !ok || saved.Token == "" {
		return false, nil
	}

	if expired(saved.Token, s.now()) {
		s.logger.InfoContext(ctx, "Stored session expired", log.FieldOperation, log.OpRestore)
		if err := s.store.ClearSession(ctx); err != nil {
			return false, fmt.Errorf("clear expired session: %w", err)
		}
		return false, nil
	}

	s.mu.Lock()
	if s.state != Anonymous {
		s.mu.Unlock()
		return s.Authenticated(), nil
	}
	user := saved.User
	s.token = saved.Token
	s.user = &user
	s.state = Authenticated
	gen := s.gen
	s.mu.Unlock()

	me, err := s.auth.Me(ctx)
	switch {
	case api.IsUnauthorized(err):
		s.logger.InfoContext(ctx, "Stored session rejected by service", log.FieldOperation, log.OpRestore)
		s.Logout(ctx)
		return false, nil
	case err != nil:
		s.logger.WarnContext(ctx, "Could not refresh identity, keeping stored user",
			log.NewFields().WithOperation(log.OpRestore).WithError(err).ToSlice()...)
		return true, nil
	}

	s.mu.Lock()
	if s.gen == gen {
		s.user = &me
	}
	s.mu.Unlock()
	if err := s.store.SaveSession(ctx, Saved{Token: saved.Token, User: me}); err != nil {
		s.logger.WarnContext(ctx, "Failed to persist refreshed identity", log.FieldError, err)
	}
	return true, nil
}

// expired reads the exp claim without verifying the signature; the
// service remains the authority on validity. Tokens that are not JWTs
// or carry no exp never expire locally.
func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
