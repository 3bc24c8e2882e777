// Package wallet holds the session controller: login, logout, token
// refresh, registration and profile retrieval, with the session store
// as the single durable mirror of the authenticated state.
package wallet

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nsid/wallet/gateway"
	walleterrors "github.com/nsid/wallet/internal/errors"
	"github.com/nsid/wallet/session"
	"github.com/nsid/wallet/walletmodel"
)

// Controller orchestrates the authenticated session. It exclusively
// owns the session keys of the store.
type Controller struct {
	gw       *gateway.Client
	store    session.Store
	validate *validator.Validate
	log      zerolog.Logger
}

// Option modifies a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// New creates a session controller over the gateway and store.
func New(gw *gateway.Client, store session.Store, options ...Option) (*Controller, error) {
	if gw == nil {
		return nil, errors.New("[wallet.New] gateway is required")
	}
	if store == nil {
		return nil, errors.New("[wallet.New] session store is required")
	}
	c := &Controller{
		gw:       gw,
		store:    store,
		validate: validator.New(),
		log:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type registerInput struct {
	Email     string `validate:"required,email"`
	Password  string `validate:"required"`
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
}

// Login authenticates with the backend and persists the session. The
// store is only written after a successful response, so a failed login
// leaves no partial state behind.
func (c *Controller) Login(ctx context.Context, email, password string) (*session.Session, error) {
	if err := c.validate.Struct(loginInput{Email: email, Password: password}); err != nil {
		return nil, walleterrors.Wrapf(walleterrors.ErrValidation, "login input (%v)", err)
	}

	var resp walletmodel.LoginResponse
	err := c.gw.Post(ctx, gateway.EndpointLogin, walletmodel.LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		if walletmodel.IsStatus(err, http.StatusUnauthorized) {
			return nil, walleterrors.Wrapf(walleterrors.ErrInvalidCredentials, "logging in %s", email)
		}
		return nil, walleterrors.Wrapf(err, "logging in %s", email)
	}

	s := &session.Session{
		AccessToken:  resp.Access,
		RefreshToken: resp.Refresh,
		Email:        email,
		FirstName:    resp.FirstName,
		LastName:     resp.LastName,
	}
	if err := session.Save(c.store, s); err != nil {
		return nil, err
	}
	c.log.Info().Str("email", email).Msg("logged in")
	return s, nil
}

// LoginAndRemember logs in and stores the credentials for QuickLogin.
// This mirrors the app's biometric re-login: the device prompt guards
// access to the saved credentials, which simply replay a normal login.
func (c *Controller) LoginAndRemember(ctx context.Context, email, password string) (*session.Session, error) {
	s, err := c.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(session.KeyLoginEmail, email); err != nil {
		return nil, walleterrors.Wrapf(err, "saving login email")
	}
	if err := c.store.Put(session.KeyLoginPassword, password); err != nil {
		return nil, walleterrors.Wrapf(err, "saving login password")
	}
	return s, nil
}

// QuickLogin re-authenticates with the saved credentials.
func (c *Controller) QuickLogin(ctx context.Context) (*session.Session, error) {
	email, err := c.store.Get(session.KeyLoginEmail)
	if err != nil || email == "" {
		return nil, walleterrors.ErrNoSavedCredentials
	}
	password, err := c.store.Get(session.KeyLoginPassword)
	if err != nil || password == "" {
		return nil, walleterrors.ErrNoSavedCredentials
	}
	return c.Login(ctx, email, password)
}

// Logout clears the persisted session. It is local-only: no network
// call is made and it always succeeds against a healthy store.
func (c *Controller) Logout() error {
	if err := session.Clear(c.store); err != nil {
		return err
	}
	c.log.Info().Msg("logged out")
	return nil
}

// Refresh silently renews the access token, returning the new token.
// Delegates to the gateway so callers racing a 401-triggered refresh
// share the same in-flight attempt.
func (c *Controller) Refresh(ctx context.Context) (string, error) {
	return c.gw.Refresh(ctx)
}

// Register creates a new account. It does not log the user in.
func (c *Controller) Register(ctx context.Context, email, password, firstName, lastName string) error {
	input := registerInput{Email: email, Password: password, FirstName: firstName, LastName: lastName}
	if err := c.validate.Struct(input); err != nil {
		return walleterrors.Wrapf(walleterrors.ErrValidation, "register input (%v)", err)
	}

	req := walletmodel.RegisterRequest{Email: email, Password: password, FirstName: firstName, LastName: lastName}
	var resp walletmodel.RegisterResponse
	if err := c.gw.Post(ctx, gateway.EndpointRegister, req, &resp); err != nil {
		return walleterrors.Wrapf(err, "registering %s", email)
	}
	c.log.Info().Str("email", email).Msg("registered")
	return nil
}

// UserInfo fetches the signed-in user's profile and associated
// credential records, mirroring the profile fields into the store for
// offline display.
func (c *Controller) UserInfo(ctx context.Context) (*walletmodel.UserInfoResponse, error) {
	var resp walletmodel.UserInfoResponse
	if err := c.gw.Post(ctx, gateway.EndpointUserInfo, nil, &resp); err != nil {
		return nil, walleterrors.Wrapf(err, "fetching user info")
	}

	mirror := map[string]string{
		session.KeyEmail:     resp.User.Email,
		session.KeyFirstName: resp.User.FirstName,
		session.KeyLastName:  resp.User.LastName,
	}
	for key, value := range mirror {
		if value == "" {
			continue
		}
		if err := c.store.Put(key, value); err != nil {
			return nil, walleterrors.Wrapf(err, "mirroring profile key %q", key)
		}
	}
	return &resp, nil
}

// Authenticated reports whether the store holds an active session.
func (c *Controller) Authenticated() bool {
	s, err := session.Load(c.store)
	if err != nil {
		return false
	}
	return s.Active()
}

// CurrentSession returns the persisted session, which may be inactive.
func (c *Controller) CurrentSession() (*session.Session, error) {
	return session.Load(c.store)
}

// ForgetSavedCredentials removes credentials stored by LoginAndRemember.
func (c *Controller) ForgetSavedCredentials() error {
	if err := c.store.Delete(session.KeyLoginEmail); err != nil {
		return walleterrors.Wrapf(err, "removing saved login email")
	}
	if err := c.store.Delete(session.KeyLoginPassword); err != nil {
		return walleterrors.Wrapf(err, "removing saved login password")
	}
	return nil
}
