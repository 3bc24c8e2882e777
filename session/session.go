package session

import (
	walleterrors "github.com/nsid/wallet/internal/errors"
)

// Well-known store keys. The session keys are owned by the session
// controller; the login keys hold last-used credentials for quick
// re-login and deliberately survive logout.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyFirstName    = "firstName"
	KeyLastName     = "lastName"
	KeyEmail        = "email"

	KeyLoginEmail    = "loginEmail"
	KeyLoginPassword = "loginPassword"
	KeyDeviceID      = "deviceID"
)

// sessionKeys are the keys written on login and removed on logout.
var sessionKeys = []string{
	KeyAccessToken,
	KeyRefreshToken,
	KeyFirstName,
	KeyLastName,
	KeyEmail,
}

// Session is the locally persisted authenticated session. The Store is
// its only durable mirror; at most one session is persisted at a time.
type Session struct {
	AccessToken  string
	RefreshToken string
	Email        string
	FirstName    string
	LastName     string
}

// Active reports whether the session holds both tokens.
func (s *Session) Active() bool {
	return s != nil && s.AccessToken != "" && s.RefreshToken != ""
}

// Load reads the persisted session from the store. Missing keys read as
// empty fields, so an unauthenticated device yields a zero session.
func Load(store Store) (*Session, error) {
	s := &Session{}
	fields := map[string]*string{
		KeyAccessToken:  &s.AccessToken,
		KeyRefreshToken: &s.RefreshToken,
		KeyEmail:        &s.Email,
		KeyFirstName:    &s.FirstName,
		KeyLastName:     &s.LastName,
	}
	for key, field := range fields {
		value, err := store.Get(key)
		if err != nil {
			if walleterrors.Is(err, walleterrors.ErrKeyNotFound) {
				continue
			}
			return nil, walleterrors.Wrapf(err, "loading session key %q", key)
		}
		*field = value
	}
	return s, nil
}

// Save persists all session fields to the store.
func Save(store Store, s *Session) error {
	values := map[string]string{
		KeyAccessToken:  s.AccessToken,
		KeyRefreshToken: s.RefreshToken,
		KeyEmail:        s.Email,
		KeyFirstName:    s.FirstName,
		KeyLastName:     s.LastName,
	}
	for _, key := range sessionKeys {
		if err := store.Put(key, values[key]); err != nil {
			return walleterrors.Wrapf(err, "saving session key %q", key)
		}
	}
	return nil
}

// Clear removes the session keys from the store. Saved login credentials
// and the device ID are left in place.
func Clear(store Store) error {
	for _, key := range sessionKeys {
		if err := store.Delete(key); err != nil {
			return walleterrors.Wrapf(err, "clearing session key %q", key)
		}
	}
	return nil
}
