package credentials_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nsid/wallet/credentials"
	"github.com/nsid/wallet/gateway"
	"github.com/nsid/wallet/internal/config"
	walleterrors "github.com/nsid/wallet/internal/errors"
	"github.com/nsid/wallet/internal/wallettest"
	"github.com/nsid/wallet/session"
	"github.com/nsid/wallet/session/storefakes"
	"github.com/nsid/wallet/wallet"
	"github.com/nsid/wallet/walletmodel"
)

const (
	testEmail    = "a@b.com"
	testPassword = "pw"
)

type testFixture struct {
	backend *wallettest.Server
	store   *storefakes.FakeStore
	service *credentials.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	backend := wallettest.New(t)
	backend.AddUser(testEmail, testPassword, "Jo", "Do")

	store := storefakes.NewFakeStore()
	gw, err := gateway.New(config.Static{
		BaseURL:        backend.BaseURL(),
		RequestTimeout: 5 * time.Second,
	}, store)
	require.NoError(t, err)

	controller, err := wallet.New(gw, store)
	require.NoError(t, err)
	_, err = controller.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	service, err := credentials.NewService(gw, store)
	require.NoError(t, err)

	return &testFixture{backend: backend, store: store, service: service}
}

func TestFetchByEmailSendsOnlyEmailField(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.SeedTransitPass("T-100", "25.50", walletmodel.NewDate(2027, time.March, 15))
	_, err := f.service.AddTransitPass(context.Background(), "T-100")
	require.NoError(t, err)

	pass, err := f.service.FetchTransitPass(context.Background(), credentials.ByEmail(testEmail))
	require.NoError(t, err)
	require.Equal(t, "T-100", pass.CardNumber)
	require.Equal(t, "25.50", pass.Balance)

	payload := f.backend.LastPayload(gateway.EndpointGetTransit)
	require.Equal(t, map[string]any{"email": testEmail}, payload)
}

func TestFetchByNumberSendsOnlyTypeSpecificField(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.SeedHealthCard("H-200", "Nova Scotia", walletmodel.NewDate(2028, time.May, 1))

	card, err := f.service.FetchHealthCard(context.Background(), credentials.ByNumber("H-200"))
	require.NoError(t, err)
	require.Equal(t, "H-200", card.CardNumber)
	require.Equal(t, "Nova Scotia", card.Province)

	payload := f.backend.LastPayload(gateway.EndpointGetHealthCard)
	require.Equal(t, map[string]any{"healthCardNumber": "H-200"}, payload)
}

func TestFetchUnknownRecordNotFound(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.FetchDriversLicense(context.Background(), credentials.ByNumber("DL-NOPE"))
	require.ErrorIs(t, err, walleterrors.ErrRecordNotFound)

	// The signed-in user has not added a license yet.
	_, err = f.service.FetchDriversLicense(context.Background(), credentials.ByEmail(testEmail))
	require.ErrorIs(t, err, walleterrors.ErrRecordNotFound)
}

func TestFetchEmptyLookupFailsBeforeAnyRequest(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.FetchTransitPass(context.Background(), credentials.Lookup{})
	require.ErrorIs(t, err, walleterrors.ErrValidation)
	require.Equal(t, 0, f.backend.Count(gateway.EndpointGetTransit))
}

func TestAddClaimsUnownedRecordOptimistically(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.SeedDriversLicense("DL-300", "Nova Scotia", walletmodel.NewDate(2029, time.October, 12))

	license, err := f.service.AddDriversLicense(context.Background(), "DL-300")
	require.NoError(t, err)
	// The add response carries only the number; the record is displayed
	// optimistically without a re-fetch.
	require.Equal(t, "DL-300", license.LicenseNumber)
	require.Empty(t, license.Province)
	require.Equal(t, testEmail, f.backend.Owner("DL-300"))
	require.Equal(t, 0, f.backend.Count(gateway.EndpointGetDriversLicense))
}

func TestAddEmptyNumberFailsBeforeAnyRequest(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.AddTransitPass(context.Background(), "   ")
	require.ErrorIs(t, err, walleterrors.ErrValidation)
	require.Equal(t, 0, f.backend.Count(gateway.EndpointAddTransit))
}

func TestAddClaimedRecordRejected(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.SeedHealthCard("H-400", "Nova Scotia", walletmodel.NewDate(2028, time.May, 1))

	_, err := f.service.AddHealthCard(context.Background(), "H-400")
	require.NoError(t, err)

	// A second claim of the same card fails.
	_, err = f.service.AddHealthCard(context.Background(), "H-400")
	require.ErrorIs(t, err, walleterrors.ErrAlreadyClaimed)
}

func TestAddUnknownNumberNotFound(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.AddTransitPass(context.Background(), "T-NOPE")
	require.ErrorIs(t, err, walleterrors.ErrRecordNotFound)
}

func TestCachedRecordSurvivesForOfflineDisplay(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.CachedTransitPass()
	require.ErrorIs(t, err, walleterrors.ErrNoCachedRecord)

	f.backend.SeedTransitPass("T-500", "10.00", walletmodel.NewDate(2027, time.March, 15))
	_, err = f.service.AddTransitPass(context.Background(), "T-500")
	require.NoError(t, err)
	fetched, err := f.service.FetchTransitPass(context.Background(), credentials.ByEmail(testEmail))
	require.NoError(t, err)

	cached, err := f.service.CachedTransitPass()
	require.NoError(t, err)
	require.Equal(t, fetched, cached)

	// The mirror also lands in the session store for cold starts.
	_, err = f.store.Get(credentials.StoreKey(credentials.KindTransitPass))
	require.NoError(t, err)

	require.NoError(t, f.service.Invalidate(credentials.KindTransitPass))
	_, err = f.service.CachedTransitPass()
	require.ErrorIs(t, err, walleterrors.ErrNoCachedRecord)
}

func TestLoginThenFetchScenario(t *testing.T) {
	backend := wallettest.New(t)
	backend.AddUser(testEmail, testPassword, "Jo", "Do")
	backend.SeedTransitPass("T-600", "5.25", walletmodel.NewDate(2026, time.December, 1))

	store := storefakes.NewFakeStore()
	gw, err := gateway.New(config.Static{BaseURL: backend.BaseURL(), RequestTimeout: 5 * time.Second}, store)
	require.NoError(t, err)
	controller, err := wallet.New(gw, store)
	require.NoError(t, err)
	service, err := credentials.NewService(gw, store)
	require.NoError(t, err)

	s, err := controller.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	stored, err := store.Get(session.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, s.AccessToken, stored)

	_, err = service.AddTransitPass(context.Background(), "T-600")
	require.NoError(t, err)
	_, err = service.FetchTransitPass(context.Background(), credentials.ByEmail(testEmail))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"email": testEmail}, backend.LastPayload(gateway.EndpointGetTransit))
}
