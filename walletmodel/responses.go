package walletmodel

// LoginResponse is returned by POST login/.
type LoginResponse struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Message   string `json:"message,omitempty"`
}

// RefreshResponse is returned by POST token/refresh/. Only the access
// token is rotated; the refresh token stays as issued at login.
type RefreshResponse struct {
	Access string `json:"access"`
}

// RegisterResponse is returned by POST register/.
type RegisterResponse struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserProfile is the nested user object of getUserInfo/.
type UserProfile struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserInfoResponse is returned by POST getUserInfo/. Card pointers are
// nil for credentials the user has not added yet.
type UserInfoResponse struct {
	User          UserProfile     `json:"user"`
	DriverLicense *DriversLicense `json:"driver_license"`
	HealthCard    *HealthCard     `json:"health_card"`
	TransitCard   *TransitPass    `json:"transit_card"`
}

// AddCardResponse is returned by the three add endpoints. The backend
// echoes the claimed number under "card" (health, transit) or "license".
type AddCardResponse struct {
	Message string `json:"message"`
	Card    string `json:"card,omitempty"`
	License string `json:"license,omitempty"`
}

// Number returns whichever of the echoed number fields is set.
func (r AddCardResponse) Number() string {
	if r.License != "" {
		return r.License
	}
	return r.Card
}
