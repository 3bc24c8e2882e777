package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	walleterrors "github.com/nsid/wallet/internal/errors"
	"github.com/nsid/wallet/session"
	"github.com/nsid/wallet/session/storefakes"
)

func TestSessionSaveLoadRoundTrip(t *testing.T) {
	store := storefakes.NewFakeStore()

	s := &session.Session{
		AccessToken:  "A1",
		RefreshToken: "R1",
		Email:        "jo@example.com",
		FirstName:    "Jo",
		LastName:     "Do",
	}
	require.NoError(t, session.Save(store, s))

	loaded, err := session.Load(store)
	require.NoError(t, err)
	require.Equal(t, s, loaded)
	require.True(t, loaded.Active())
}

func TestLoadEmptyStoreYieldsInactiveSession(t *testing.T) {
	store := storefakes.NewFakeStore()

	s, err := session.Load(store)
	require.NoError(t, err)
	require.Equal(t, &session.Session{}, s)
	require.False(t, s.Active())
}

func TestClearRemovesOnlySessionKeys(t *testing.T) {
	store := storefakes.NewFakeStore()

	require.NoError(t, session.Save(store, &session.Session{
		AccessToken:  "A1",
		RefreshToken: "R1",
		Email:        "jo@example.com",
		FirstName:    "Jo",
		LastName:     "Do",
	}))
	require.NoError(t, store.Put(session.KeyLoginEmail, "jo@example.com"))
	require.NoError(t, store.Put(session.KeyLoginPassword, "pw"))
	require.NoError(t, store.Put(session.KeyDeviceID, "device-1"))

	require.NoError(t, session.Clear(store))

	for _, key := range []string{
		session.KeyAccessToken,
		session.KeyRefreshToken,
		session.KeyEmail,
		session.KeyFirstName,
		session.KeyLastName,
	} {
		_, err := store.Get(key)
		require.ErrorIs(t, err, walleterrors.ErrKeyNotFound, key)
	}

	// Saved credentials and the device ID survive logout.
	for _, key := range []string{session.KeyLoginEmail, session.KeyLoginPassword, session.KeyDeviceID} {
		_, err := store.Get(key)
		require.NoError(t, err, key)
	}
}

func TestActiveRequiresBothTokens(t *testing.T) {
	require.False(t, (&session.Session{AccessToken: "A1"}).Active())
	require.False(t, (&session.Session{RefreshToken: "R1"}).Active())
	require.True(t, (&session.Session{AccessToken: "A1", RefreshToken: "R1"}).Active())
}
