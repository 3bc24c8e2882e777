package gateway

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	walleterrors "github.com/nsid/wallet/internal/errors"
	"github.com/nsid/wallet/session"
)

// TokenClaims returns the registered claims of the stored access token
// without verifying its signature. Verification is the backend's job;
// the client only inspects expiry and subject for display.
func (c *Client) TokenClaims() (*jwt.RegisteredClaims, error) {
	raw, err := c.store.Get(session.KeyAccessToken)
	if err != nil || raw == "" {
		return nil, walleterrors.ErrUnauthorized
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, walleterrors.Wrapf(walleterrors.ErrInvalidToken, "parsing access token (%v)", err)
	}
	return claims, nil
}

// SessionExpiresAt reports when the stored access token expires. The
// zero time means the token carries no expiry claim.
func (c *Client) SessionExpiresAt() (time.Time, error) {
	claims, err := c.TokenClaims()
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}
