package gateway

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	walleterrors "github.com/nsid/wallet/internal/errors"
	"github.com/nsid/wallet/session"
	"github.com/nsid/wallet/walletmodel"
)

// refreshOp is a single in-flight refresh. Waiters block on done and
// then read the shared outcome.
type refreshOp struct {
	done  chan struct{}
	token string
	err   error
}

// Refresh obtains a new access token using the stored refresh token and
// overwrites the stored one. Concurrent callers are coalesced onto a
// single in-flight refresh and all observe its outcome. With no stored
// refresh token it returns ErrNoRefreshToken without any network call.
// Any refresh failure clears the session to force re-authentication.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	if op := c.inflight; op != nil {
		c.mu.Unlock()
		select {
		case <-op.done:
			return op.token, op.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	op := &refreshOp{done: make(chan struct{})}
	c.inflight = op
	c.mu.Unlock()

	op.token, op.err = c.refresh(ctx)

	c.mu.Lock()
	c.inflight = nil
	c.mu.Unlock()
	close(op.done)

	return op.token, op.err
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	refreshToken, err := c.store.Get(session.KeyRefreshToken)
	if err != nil || refreshToken == "" {
		// A session without a refresh token cannot be renewed; drop any
		// stale access token so the caller re-authenticates cleanly.
		if clearErr := session.Clear(c.store); clearErr != nil {
			c.log.Error().Err(clearErr).Msg("clearing session with no refresh token")
		}
		return "", walleterrors.ErrNoRefreshToken
	}

	payload, err := json.Marshal(walletmodel.RefreshRequest{Refresh: refreshToken})
	if err != nil {
		return "", errors.Wrap(err, "encoding refresh request")
	}

	var resp walletmodel.RefreshResponse
	if err := c.send(ctx, EndpointTokenRefresh, payload, "", &resp); err != nil {
		c.log.Warn().Err(err).Msg("token refresh failed, clearing session")
		if clearErr := session.Clear(c.store); clearErr != nil {
			c.log.Error().Err(clearErr).Msg("clearing session after failed refresh")
		}
		return "", walleterrors.Wrapf(walleterrors.ErrRefreshFailed, "refreshing access token (%v)", err)
	}
	if resp.Access == "" {
		if clearErr := session.Clear(c.store); clearErr != nil {
			c.log.Error().Err(clearErr).Msg("clearing session after empty refresh response")
		}
		return "", walleterrors.Wrapf(walleterrors.ErrRefreshFailed, "refresh response carried no access token")
	}
	if err := c.store.Put(session.KeyAccessToken, resp.Access); err != nil {
		return "", walleterrors.Wrapf(err, "storing refreshed access token")
	}
	c.log.Debug().Msg("access token refreshed")
	return resp.Access, nil
}
