// Package auth turns signup/login form input into an established identity
// and drives the screen machine through sign-in and sign-out.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/matheus3301/melo/internal/chat"
	"github.com/matheus3301/melo/internal/client"
	"github.com/matheus3301/melo/internal/domain"
	"github.com/matheus3301/melo/internal/screen"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

var (
	ErrAlreadySignedIn  = errors.New("already signed in")
	ErrAuthInProgress   = errors.New("authentication already in progress")
	errMissingFields    = domain.NewValidationError("Username and password required")
	errPasswordMismatch = domain.NewValidationError("Passwords do not match")
	errShortUsername    = domain.NewValidationError("Username must be at least 3 characters")
	errShortPassword    = domain.NewValidationError("Password must be at least 6 characters")
)

// Authenticator is the auth half of the backend client.
type Authenticator interface {
	Signup(ctx context.Context, req *client.SignupRequest) (*domain.Identity, error)
	Login(ctx context.Context, req *client.LoginRequest) (*domain.Identity, error)
}

// IdentityStore persists the signed-in identity.
type IdentityStore interface {
	LoadIdentity(ctx context.Context) (*domain.Identity, error)
	SaveIdentity(ctx context.Context, id domain.Identity) error
	ClearIdentity(ctx context.Context) error
}

// SignupForm is the raw signup input.
type SignupForm struct {
	Username string
	Password string
	Confirm  string
	Email    string
}

// Options tunes the controller.
type Options struct {
	// Strict enforces minimum username and password lengths.
	Strict         bool
	RequestTimeout time.Duration
}

// Controller owns sign-in state. Components it drives are optional so the
// CLI can run it without a list or sweeper.
type Controller struct {
	mu sync.Mutex

	api       Authenticator
	store     IdentityStore
	screen    *screen.Machine
	session   *chat.Session
	list      *chat.ConversationList
	sweeper   *chat.Sweeper
	confirmer chat.Confirmer
	opts      Options
	logger    *zap.Logger
}

// Deps groups the collaborators of a Controller.
type Deps struct {
	API       Authenticator
	Store     IdentityStore
	Screen    *screen.Machine
	Session   *chat.Session
	List      *chat.ConversationList
	Sweeper   *chat.Sweeper
	Confirmer chat.Confirmer
	Logger    *zap.Logger
}

// NewController creates a controller. A nil Confirmer approves logout
// without asking.
func NewController(d Deps, opts Options) *Controller {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Confirmer == nil {
		d.Confirmer = chat.AlwaysConfirm
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = chat.DefaultRequestTimeout
	}
	return &Controller{
		api:       d.API,
		store:     d.Store,
		screen:    d.Screen,
		session:   d.Session,
		list:      d.List,
		sweeper:   d.Sweeper,
		confirmer: d.Confirmer,
		opts:      opts,
		logger:    d.Logger,
	}
}

// ValidateSignup checks the form locally and returns the trimmed username.
func (c *Controller) ValidateSignup(form SignupForm) (string, error) {
	username := strings.TrimSpace(form.Username)
	if username == "" || form.Password == "" {
		return "", errMissingFields
	}
	if form.Password != form.Confirm {
		return "", errPasswordMismatch
	}
	if c.opts.Strict {
		if utf8.RuneCountInString(username) < minUsernameLen {
			return "", errShortUsername
		}
		if utf8.RuneCountInString(form.Password) < minPasswordLen {
			return "", errShortPassword
		}
	}
	return username, nil
}

// Signup registers a new account and signs it in.
func (c *Controller) Signup(ctx context.Context, form SignupForm) (*domain.Identity, error) {
	username, err := c.ValidateSignup(form)
	if err != nil {
		return nil, err
	}
	return c.authenticate(ctx, "signup", func(ctx context.Context) (*domain.Identity, error) {
		return c.api.Signup(ctx, &client.SignupRequest{
			Username: username,
			Password: form.Password,
			Email:    strings.TrimSpace(form.Email),
		})
	})
}

// Login signs in an existing account.
func (c *Controller) Login(ctx context.Context, username, password string) (*domain.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errMissingFields
	}
	return c.authenticate(ctx, "login", func(ctx context.Context) (*domain.Identity, error) {
		return c.api.Login(ctx, &client.LoginRequest{Username: username, Password: password})
	})
}

func (c *Controller) authenticate(ctx context.Context, op string, call func(context.Context) (*domain.Identity, error)) (*domain.Identity, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	id, err := call(reqCtx)
	cancel()
	if err != nil {
		c.logger.Info(op+" rejected", zap.Error(err))
		c.transition(screen.SignedOut)
		return nil, err
	}

	c.adopt(ctx, id, true)
	c.logger.Info(op+" succeeded", zap.String("user_id", id.UserID), zap.String("username", id.Username))
	return id, nil
}

// begin moves the screen to Authenticating. The Authenticating state also
// acts as the gate against a second concurrent attempt.
func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.screen.Current() {
	case screen.SignedIn:
		return ErrAlreadySignedIn
	case screen.Authenticating:
		return ErrAuthInProgress
	case screen.Booting:
		if err := c.screen.Transition(screen.SignedOut); err != nil {
			return err
		}
	}
	return c.screen.Transition(screen.Authenticating)
}

func (c *Controller) transition(to screen.State) {
	if err := c.screen.Transition(to); err != nil {
		c.logger.Warn("screen transition", zap.Error(err))
	}
}

// adopt installs id as the signed-in identity. persist is false when the
// identity came from the store.
func (c *Controller) adopt(ctx context.Context, id *domain.Identity, persist bool) {
	if persist {
		if err := c.store.SaveIdentity(ctx, *id); err != nil {
			c.logger.Error("persist identity failed; session will not survive restart", zap.Error(err))
		}
	}
	c.session.SetIdentity(id)
	c.transition(screen.SignedIn)

	if c.list != nil {
		if _, err := c.list.Refresh(ctx); err != nil {
			c.logger.Warn("initial conversation load failed", zap.Error(err))
		}
	}
	if c.sweeper != nil {
		c.sweeper.Start(id.UserID)
	}
}

// RestoreSession signs in from the persisted identity, if any. A missing or
// corrupt record leaves the client signed out.
func (c *Controller) RestoreSession(ctx context.Context) bool {
	id, err := c.store.LoadIdentity(ctx)
	if err != nil {
		c.logger.Warn("stored identity unusable, starting signed out", zap.Error(err))
	}
	if err != nil || id == nil {
		c.transition(screen.SignedOut)
		return false
	}
	c.adopt(ctx, id, false)
	c.logger.Info("session restored", zap.String("user_id", id.UserID))
	return true
}

// Logout clears the identity everywhere after confirmation. No request is
// made to the backend.
func (c *Controller) Logout(ctx context.Context) error {
	if c.session.Identity() == nil {
		return chat.ErrNotAuthenticated
	}
	ok, err := c.confirmer.Confirm(ctx, "Are you sure you want to logout?")
	if err != nil {
		return err
	}
	if !ok {
		return chat.ErrCancelled
	}

	if err := c.store.ClearIdentity(ctx); err != nil {
		c.logger.Error("clear stored identity failed", zap.Error(err))
	}
	c.session.SetIdentity(nil)
	c.session.Reset()
	c.session.Emotion().Hide()
	if c.list != nil {
		c.list.Clear()
	}
	c.transition(screen.SignedOut)
	c.logger.Info("logged out")
	return nil
}

// Identity returns the signed-in user, or nil.
func (c *Controller) Identity() *domain.Identity {
	return c.session.Identity()
}
