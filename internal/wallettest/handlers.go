package wallettest

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nsid/wallet/walletmodel"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	payload := s.record(r)
	email, _ := payload["email"].(string)
	password, _ := payload["password"].(string)

	s.mu.Lock()
	u, ok := s.users[email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	refresh := uuid.NewString()
	s.mu.Lock()
	s.refreshTokens[refresh] = email
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, walletmodel.LoginResponse{
		Access:    s.mintAccess(email),
		Refresh:   refresh,
		FirstName: u.firstName,
		LastName:  u.lastName,
		Message:   "Login successful",
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	payload := s.record(r)
	email, _ := payload["email"].(string)
	password, _ := payload["password"].(string)
	firstName, _ := payload["first_name"].(string)
	lastName, _ := payload["last_name"].(string)

	if email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	s.mu.Lock()
	_, exists := s.users[email]
	s.mu.Unlock()
	if exists {
		writeError(w, http.StatusBadRequest, "user with this email already exists")
		return
	}
	s.AddUser(email, password, firstName, lastName)
	writeJSON(w, http.StatusCreated, walletmodel.RegisterResponse{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	payload := s.record(r)
	refresh, _ := payload["refresh"].(string)

	s.mu.Lock()
	s.refreshCalls++
	fail := s.failRefresh
	delay := s.refreshDelay
	email, known := s.refreshTokens[refresh]
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail || !known {
		writeError(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	writeJSON(w, http.StatusOK, walletmodel.RefreshResponse{Access: s.mintAccess(email)})
}

// authenticated wraps a handler with bearer-token validation and the
// injected-rejection hook.
func (s *Server) authenticated(next func(w http.ResponseWriter, r *http.Request, email string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		reject := s.rejectAuth > 0
		if reject {
			s.rejectAuth--
		}
		s.mu.Unlock()
		if reject {
			s.record(r)
			writeError(w, http.StatusUnauthorized, "Token is invalid or expired")
			return
		}

		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			s.record(r)
			writeError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		claims := &jwt.RegisteredClaims{}
		if _, err := jwt.ParseWithClaims(parts[1], claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}); err != nil {
			s.record(r)
			writeError(w, http.StatusUnauthorized, "Token is invalid or expired")
			return
		}
		next(w, r, claims.Subject)
	}
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request, email string) {
	s.record(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	resp := walletmodel.UserInfoResponse{
		User: walletmodel.UserProfile{Email: u.email, FirstName: u.firstName, LastName: u.lastName},
	}
	if c := ownedCard(s.licenses, email); c != nil {
		resp.DriverLicense = s.licenseView(c)
	}
	if c := ownedCard(s.healthCards, email); c != nil {
		resp.HealthCard = s.healthView(c)
	}
	if c := ownedCard(s.transitPasses, email); c != nil {
		resp.TransitCard = s.transitView(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

func ownedCard(cards map[string]*card, email string) *card {
	for _, c := range cards {
		if c.owner == email {
			return c
		}
	}
	return nil
}

func (s *Server) licenseView(c *card) *walletmodel.DriversLicense {
	return &walletmodel.DriversLicense{LicenseNumber: c.number, Province: c.province, ExpirationDate: c.expiration}
}

func (s *Server) healthView(c *card) *walletmodel.HealthCard {
	return &walletmodel.HealthCard{CardNumber: c.number, Province: c.province, ExpirationDate: c.expiration}
}

func (s *Server) transitView(c *card) *walletmodel.TransitPass {
	return &walletmodel.TransitPass{CardNumber: c.number, Balance: c.balance, ExpirationDate: c.expiration}
}

// handleGetCard looks a card up by its number field or by owner email,
// mirroring the backend's one-or-the-other contract.
func (s *Server) handleGetCard(view func(*card) any) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, _ string) {
		payload := s.record(r)
		endpoint := strings.TrimPrefix(r.URL.Path, "/api/")
		cards := s.cardsFor(endpoint)

		email, _ := payload["email"].(string)
		number := numberFrom(payload)
		if email == "" && number == "" {
			writeError(w, http.StatusBadRequest, "Either card number or email is required")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if number != "" {
			if c, ok := cards[number]; ok {
				writeJSON(w, http.StatusOK, view(c))
				return
			}
			writeError(w, http.StatusNotFound, "Card not found")
			return
		}
		if _, ok := s.users[email]; !ok {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		if c := ownedCard(cards, email); c != nil {
			writeJSON(w, http.StatusOK, view(c))
			return
		}
		writeError(w, http.StatusNotFound, "Card not found")
	}
}

// handleAddCard claims a pre-provisioned unclaimed card for the caller.
func (s *Server) handleAddCard(numberField, echoField string) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, email string) {
		payload := s.record(r)
		endpoint := strings.TrimPrefix(r.URL.Path, "/api/")
		cards := s.cardsFor(endpoint)

		number, _ := payload[numberField].(string)
		if number == "" {
			writeError(w, http.StatusBadRequest, "Card number is required")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		c, ok := cards[number]
		if !ok {
			writeError(w, http.StatusNotFound, "Card not found.")
			return
		}
		if c.owner != "" {
			writeError(w, http.StatusBadRequest, "This card is already associated with another user.")
			return
		}
		c.owner = email
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Card associated successfully.",
			echoField: c.number,
		})
	}
}

func (s *Server) cardsFor(endpoint string) map[string]*card {
	switch {
	case strings.Contains(endpoint, "DriversLicense"):
		return s.licenses
	case strings.Contains(endpoint, "HealthCard"):
		return s.healthCards
	default:
		return s.transitPasses
	}
}

func numberFrom(payload map[string]any) string {
	for _, field := range []string{"driversLicenseNumber", "healthCardNumber", "transitNumber"} {
		if v, ok := payload[field].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
