package gateway

// Backend endpoints, relative to the configured base URL. The API is
// POST-only, including the getters.
const (
	EndpointLogin        = "login/"
	EndpointRegister     = "register/"
	EndpointUserInfo     = "getUserInfo/"
	EndpointTokenRefresh = "token/refresh/"

	EndpointAddDriversLicense = "addDriversLicense/"
	EndpointGetDriversLicense = "getDriversLicense/"
	EndpointAddHealthCard     = "addHealthCard/"
	EndpointGetHealthCard     = "getHealthCard/"
	EndpointAddTransit        = "addTransit/"
	EndpointGetTransit        = "getTransit/"
)
