// Package auth tracks whether a user is signed in and decides which routes
// they may reach.
package auth

import (
	"context"
	"sync"

	"spendly/internal/api"
	"spendly/internal/core"
	"spendly/internal/log"
	"spendly/internal/session"
)

// Status is a snapshot of the controller state.
type Status struct {
	LoggedIn  bool
	Resolving bool
	User      core.Session
}

// Controller owns the LoggedOut/LoggedIn state machine. It is the only writer
// of the session store.
type Controller struct {
	users  api.UserService
	store  *session.Store
	logger *log.Logger

	mu        sync.RWMutex
	resolving bool
	user      *core.Session
}

// New returns a controller that is still resolving. Call Resolve before use.
func New(users api.UserService, store *session.Store, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Discard()
	}
	return &Controller{
		users:     users,
		store:     store,
		logger:    logger.WithComponent(log.ComponentAuth),
		resolving: true,
	}
}

// Resolve reads the persisted session and settles the initial state.
func (c *Controller) Resolve(ctx context.Context) Status {
	sess, ok := c.store.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolving = false
	if ok {
		c.user = &sess
		c.logger.InfoContext(ctx, "Restored session", log.FieldUsername, sess.Username)
	} else {
		c.user = nil
	}
	return c.statusLocked()
}

func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() Status {
	st := Status{Resolving: c.resolving}
	if c.user != nil {
		st.LoggedIn = true
		st.User = *c.user
	}
	return st
}

func (c *Controller) IsLoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user != nil
}

// Current returns the signed-in identity.
func (c *Controller) Current() (core.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return core.Session{}, false
	}
	return *c.user, true
}

// Token returns the bearer token of the signed-in user, or "".
func (c *Controller) Token(context.Context) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return ""
	}
	return c.user.Token
}

// Login authenticates against the backend and persists the returned identity.
// A rejection yields *AuthError; transport failures without a backend message
// are returned unchanged.
func (c *Controller) Login(ctx context.Context, username, password string) (*api.LoginResponse, error) {
	if err := (core.LoginForm{Username: username, Password: password}).Validate(); err != nil {
		return nil, err
	}

	resp, err := c.users.Login(ctx, username, password)
	if err != nil {
		if msg := api.BackendMessage(err); msg != "" {
			c.logger.InfoContext(ctx, "Login rejected", log.FieldUsername, username, log.FieldError, msg)
			return nil, &AuthError{Message: msg}
		}
		c.logger.WarnContext(ctx, "Login request failed", log.FieldUsername, username, log.FieldError, err.Error())
		return nil, err
	}
	if !resp.OK() {
		msg := resp.Problem()
		if msg == "" {
			msg = msgLoginFailed
		}
		c.logger.InfoContext(ctx, "Login rejected", log.FieldUsername, username, log.FieldError, msg)
		return nil, &AuthError{Message: msg}
	}

	sess := resp.User
	if err := c.store.Save(ctx, sess); err != nil {
		// The user is signed in for this process even if persistence failed.
		c.logger.ErrorContext(ctx, "Failed to persist session", log.FieldError, err.Error())
	}

	c.mu.Lock()
	c.user = &sess
	c.resolving = false
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "User logged in", log.FieldUsername, sess.Username, log.FieldUserID, sess.ID.String())
	return resp, nil
}

// Logout clears the stored session. It never contacts the backend and always
// leaves the controller logged out.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.ErrorContext(ctx, "Failed to clear session", log.FieldError, err.Error())
	}

	c.mu.Lock()
	prev := c.user
	c.user = nil
	c.resolving = false
	c.mu.Unlock()

	if prev != nil {
		c.logger.InfoContext(ctx, "User logged out", log.FieldUsername, prev.Username)
	}
}

// Register creates an account. The controller state is left unchanged.
func (c *Controller) Register(ctx context.Context, form core.RegisterForm) (*api.StatusResponse, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	resp, err := c.users.CreateUser(ctx, form)
	if err != nil {
		if msg := api.BackendMessage(err); msg != "" {
			return nil, &AuthError{Message: msg}
		}
		return nil, err
	}
	if !resp.OK() {
		msg := resp.Problem()
		if msg == "" {
			msg = msgRegistrationFailed
		}
		return nil, &AuthError{Message: msg}
	}
	c.logger.InfoContext(ctx, "User registered", log.FieldUsername, form.Username)
	return resp, nil
}
