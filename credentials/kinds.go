// Package credentials fetches and adds the government-issued credential
// records tied to the signed-in user: driver's license, health card and
// transit pass.
package credentials

import "github.com/nsid/wallet/gateway"

// Kind identifies a credential record type.
type Kind string

const (
	KindDriversLicense Kind = "driversLicense"
	KindHealthCard     Kind = "healthCard"
	KindTransitPass    Kind = "transitPass"
)

// Kinds lists all credential record types.
var Kinds = []Kind{KindDriversLicense, KindHealthCard, KindTransitPass}

func (k Kind) String() string {
	return string(k)
}

type kindSpec struct {
	getEndpoint string
	addEndpoint string
	numberField string
}

var kindSpecs = map[Kind]kindSpec{
	KindDriversLicense: {
		getEndpoint: gateway.EndpointGetDriversLicense,
		addEndpoint: gateway.EndpointAddDriversLicense,
		numberField: "driversLicenseNumber",
	},
	KindHealthCard: {
		getEndpoint: gateway.EndpointGetHealthCard,
		addEndpoint: gateway.EndpointAddHealthCard,
		numberField: "healthCardNumber",
	},
	KindTransitPass: {
		getEndpoint: gateway.EndpointGetTransit,
		addEndpoint: gateway.EndpointAddTransit,
		numberField: "transitNumber",
	},
}

// StoreKey returns the session store key under which the last fetched
// record of kind k is mirrored for offline display.
func StoreKey(k Kind) string {
	return "credential." + string(k)
}
