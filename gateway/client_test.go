package gateway_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nsid/wallet/gateway"
	"github.com/nsid/wallet/internal/config"
	walleterrors "github.com/nsid/wallet/internal/errors"
	"github.com/nsid/wallet/internal/wallettest"
	"github.com/nsid/wallet/session"
	"github.com/nsid/wallet/session/storefakes"
	"github.com/nsid/wallet/walletmodel"
)

const (
	testEmail    = "jo@example.com"
	testPassword = "password123"
)

type testFixture struct {
	backend *wallettest.Server
	store   *storefakes.FakeStore
	client  *gateway.Client
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	backend := wallettest.New(t)
	backend.AddUser(testEmail, testPassword, "Jo", "Do")

	store := storefakes.NewFakeStore()
	client, err := gateway.New(config.Static{
		BaseURL:        backend.BaseURL(),
		RequestTimeout: 5 * time.Second,
	}, store)
	require.NoError(t, err)

	return &testFixture{backend: backend, store: store, client: client}
}

// login authenticates through the gateway and persists the session the
// way the session controller would.
func (f *testFixture) login(t *testing.T) walletmodel.LoginResponse {
	t.Helper()

	var resp walletmodel.LoginResponse
	require.NoError(t, f.client.Post(context.Background(), gateway.EndpointLogin,
		walletmodel.LoginRequest{Email: testEmail, Password: testPassword}, &resp))
	require.NoError(t, session.Save(f.store, &session.Session{
		AccessToken:  resp.Access,
		RefreshToken: resp.Refresh,
		Email:        testEmail,
		FirstName:    resp.FirstName,
		LastName:     resp.LastName,
	}))
	return resp
}

func TestBearerTokenAttached(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	var info walletmodel.UserInfoResponse
	require.NoError(t, f.client.Post(context.Background(), gateway.EndpointUserInfo, nil, &info))
	require.Equal(t, testEmail, info.User.Email)
	require.Equal(t, 0, f.backend.RefreshCalls())
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	f := setupTestFixture(t)

	err := f.client.Post(context.Background(), gateway.EndpointUserInfo, nil, nil)
	require.True(t, walletmodel.IsStatus(err, http.StatusUnauthorized))
	require.Equal(t, 0, f.backend.RefreshCalls())
}

func TestSingle401RetriedOnceWithRefreshedToken(t *testing.T) {
	f := setupTestFixture(t)
	first := f.login(t)
	f.backend.RejectNextAuth(1)

	var info walletmodel.UserInfoResponse
	require.NoError(t, f.client.Post(context.Background(), gateway.EndpointUserInfo, nil, &info))
	require.Equal(t, testEmail, info.User.Email)

	require.Equal(t, 1, f.backend.RefreshCalls())
	require.Equal(t, 2, f.backend.Count(gateway.EndpointUserInfo))

	// The stored access token was rotated by the silent refresh.
	stored, err := f.store.Get(session.KeyAccessToken)
	require.NoError(t, err)
	require.NotEqual(t, first.Access, stored)
}

func TestSecond401ClearsSessionAndSurfacesError(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.backend.RejectNextAuth(2)

	err := f.client.Post(context.Background(), gateway.EndpointUserInfo, nil, nil)
	require.True(t, walletmodel.IsStatus(err, http.StatusUnauthorized))

	// Exactly one retry, never a third attempt.
	require.Equal(t, 2, f.backend.Count(gateway.EndpointUserInfo))
	require.Equal(t, 1, f.backend.RefreshCalls())

	_, err = f.store.Get(session.KeyAccessToken)
	require.ErrorIs(t, err, walleterrors.ErrKeyNotFound)
	_, err = f.store.Get(session.KeyRefreshToken)
	require.ErrorIs(t, err, walleterrors.ErrKeyNotFound)
}

func TestFailedRefreshClearsSessionAndSurfacesOriginal401(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.backend.RejectNextAuth(1)
	f.backend.SetRefreshFail(true)

	err := f.client.Post(context.Background(), gateway.EndpointUserInfo, nil, nil)
	require.True(t, walletmodel.IsStatus(err, http.StatusUnauthorized))

	// No retry without a refreshed token.
	require.Equal(t, 1, f.backend.Count(gateway.EndpointUserInfo))
	require.Equal(t, 1, f.backend.RefreshCalls())

	_, err = f.store.Get(session.KeyAccessToken)
	require.ErrorIs(t, err, walleterrors.ErrKeyNotFound)
}

func TestStaleAccessTokenWithoutRefreshTokenIsCleared(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.store.Put(session.KeyAccessToken, "stale-token"))

	err := f.client.Post(context.Background(), gateway.EndpointUserInfo, nil, nil)
	require.True(t, walletmodel.IsStatus(err, http.StatusUnauthorized))
	require.Equal(t, 0, f.backend.RefreshCalls())

	// With no refresh token the session cannot be renewed; the stale
	// access token must not survive the failed attempt.
	_, err = f.store.Get(session.KeyAccessToken)
	require.ErrorIs(t, err, walleterrors.ErrKeyNotFound)
}

func TestRefreshWithoutStoredTokenMakesNoNetworkCall(t *testing.T) {
	f := setupTestFixture(t)

	token, err := f.client.Refresh(context.Background())
	require.ErrorIs(t, err, walleterrors.ErrNoRefreshToken)
	require.Empty(t, token)
	require.Equal(t, 0, f.backend.RefreshCalls())
}

func TestConcurrentRefreshesCoalesce(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.backend.SetRefreshDelay(100 * time.Millisecond)

	const callers = 8
	tokens := make(chan string, callers)
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			token, err := f.client.Refresh(context.Background())
			tokens <- token
			errs <- err
		}()
	}

	first := <-tokens
	for i := 0; i < callers-1; i++ {
		require.Equal(t, first, <-tokens)
	}
	for i := 0; i < callers; i++ {
		require.NoError(t, <-errs)
	}
	require.Equal(t, 1, f.backend.RefreshCalls())
}

func TestRefreshRotatesOnlyAccessToken(t *testing.T) {
	f := setupTestFixture(t)
	first := f.login(t)

	token, err := f.client.Refresh(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, first.Access, token)

	stored, err := f.store.Get(session.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, token, stored)

	refresh, err := f.store.Get(session.KeyRefreshToken)
	require.NoError(t, err)
	require.Equal(t, first.Refresh, refresh)
}

func TestSessionExpiryReadFromAccessToken(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.client.SessionExpiresAt()
	require.ErrorIs(t, err, walleterrors.ErrUnauthorized)

	f.login(t)
	expiresAt, err := f.client.SessionExpiresAt()
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	claims, err := f.client.TokenClaims()
	require.NoError(t, err)
	require.Equal(t, testEmail, claims.Subject)
}
