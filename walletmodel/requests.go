// Package walletmodel holds the wire types exchanged with the wallet
// backend. Field names follow the backend contract exactly: request
// bodies use the API's camelCase names, register and card payloads use
// its snake_case names, and tokens travel as "access"/"refresh".
package walletmodel

// LoginRequest is the body of POST login/.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST register/.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RefreshRequest is the body of POST token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}
