package walletmodel_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nsid/wallet/walletmodel"
)

func TestDateMarshalsAsBackendFormat(t *testing.T) {
	license := walletmodel.DriversLicense{
		LicenseNumber:  "DL-1000",
		Province:       "Nova Scotia",
		ExpirationDate: walletmodel.NewDate(2027, time.June, 30),
	}
	data, err := json.Marshal(license)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"license_number": "DL-1000",
		"province": "Nova Scotia",
		"expiration_date": "2027-06-30"
	}`, string(data))

	var decoded walletmodel.DriversLicense
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "2027-06-30", decoded.ExpirationDate.String())
}

func TestDateUnmarshalsNullAndEmpty(t *testing.T) {
	var pass walletmodel.TransitPass
	require.NoError(t, json.Unmarshal([]byte(`{"card_number":"T-1","balance":"25.50","expiration_date":null}`), &pass))
	require.True(t, pass.ExpirationDate.IsZero())
	require.Equal(t, "25.50", pass.Balance)
}

func TestAPIErrorStatusMatching(t *testing.T) {
	err := &walletmodel.APIError{StatusCode: http.StatusUnauthorized, ErrorMessage: "Invalid credentials"}
	require.EqualError(t, err, "api error (401): Invalid credentials")
	require.True(t, walletmodel.IsStatus(err, http.StatusUnauthorized))
	require.False(t, walletmodel.IsStatus(err, http.StatusNotFound))
	require.False(t, walletmodel.IsStatus(nil, http.StatusUnauthorized))
}

func TestAddCardResponseNumber(t *testing.T) {
	require.Equal(t, "DL-1", walletmodel.AddCardResponse{License: "DL-1"}.Number())
	require.Equal(t, "T-1", walletmodel.AddCardResponse{Card: "T-1"}.Number())
}
