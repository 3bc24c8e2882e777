// Package wallettest runs an in-process fake of the wallet backend for
// tests: the ten JSON endpoints, bcrypt-checked users, HS256-signed
// access tokens and hooks for injecting auth failures to drive the
// retry protocol.
package wallettest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nsid/wallet/walletmodel"
)

const defaultAccessTTL = 5 * time.Minute

type user struct {
	email        string
	passwordHash []byte
	firstName    string
	lastName     string
}

type card struct {
	number     string
	province   string
	balance    string
	expiration walletmodel.Date
	owner      string // email of the claiming user, empty while unclaimed
}

// Server is a fake wallet backend bound to a httptest server.
type Server struct {
	ts     *httptest.Server
	secret []byte

	mu            sync.Mutex
	users         map[string]*user
	refreshTokens map[string]string // refresh token -> email
	licenses      map[string]*card
	healthCards   map[string]*card
	transitPasses map[string]*card

	rejectAuth   int // authenticated calls left to reject with 401
	failRefresh  bool
	refreshDelay time.Duration
	refreshCalls int

	counts   map[string]int
	payloads map[string]map[string]any
}

// New starts a fake backend, closed automatically when the test ends.
func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		secret:        []byte(uuid.NewString()),
		users:         make(map[string]*user),
		refreshTokens: make(map[string]string),
		licenses:      make(map[string]*card),
		healthCards:   make(map[string]*card),
		transitPasses: make(map[string]*card),
		counts:        make(map[string]int),
		payloads:      make(map[string]map[string]any),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/login/", s.handleLogin)
	mux.HandleFunc("/api/register/", s.handleRegister)
	mux.HandleFunc("/api/token/refresh/", s.handleRefresh)
	mux.HandleFunc("/api/getUserInfo/", s.authenticated(s.handleUserInfo))
	mux.HandleFunc("/api/getDriversLicense/", s.authenticated(s.handleGetCard(func(c *card) any { return s.licenseView(c) })))
	mux.HandleFunc("/api/addDriversLicense/", s.authenticated(s.handleAddCard("driversLicenseNumber", "license")))
	mux.HandleFunc("/api/getHealthCard/", s.authenticated(s.handleGetCard(func(c *card) any { return s.healthView(c) })))
	mux.HandleFunc("/api/addHealthCard/", s.authenticated(s.handleAddCard("healthCardNumber", "card")))
	mux.HandleFunc("/api/getTransit/", s.authenticated(s.handleGetCard(func(c *card) any { return s.transitView(c) })))
	mux.HandleFunc("/api/addTransit/", s.authenticated(s.handleAddCard("transitNumber", "card")))

	s.ts = httptest.NewServer(mux)
	t.Cleanup(s.ts.Close)
	return s
}

// BaseURL is the API base URL to point clients at.
func (s *Server) BaseURL() string {
	return s.ts.URL + "/api/"
}

// AddUser registers a user directly, bypassing the register endpoint.
func (s *Server) AddUser(email, password, firstName, lastName string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = &user{email: email, passwordHash: hash, firstName: firstName, lastName: lastName}
}

// SeedDriversLicense provisions an unclaimed license.
func (s *Server) SeedDriversLicense(number, province string, expiration walletmodel.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.licenses[number] = &card{number: number, province: province, expiration: expiration}
}

// SeedHealthCard provisions an unclaimed health card.
func (s *Server) SeedHealthCard(number, province string, expiration walletmodel.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthCards[number] = &card{number: number, province: province, expiration: expiration}
}

// SeedTransitPass provisions an unclaimed transit pass.
func (s *Server) SeedTransitPass(number, balance string, expiration walletmodel.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitPasses[number] = &card{number: number, balance: balance, expiration: expiration}
}

// RejectNextAuth makes the next n authenticated calls fail with 401,
// regardless of the presented token.
func (s *Server) RejectNextAuth(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectAuth = n
}

// SetRefreshFail makes the refresh endpoint reject all requests.
func (s *Server) SetRefreshFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// SetRefreshDelay makes the refresh endpoint sleep before responding,
// widening the window in which concurrent refreshes can pile up.
func (s *Server) SetRefreshDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshDelay = d
}

// RefreshCalls reports how many refresh requests reached the backend.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// Count reports how many requests reached the given endpoint.
func (s *Server) Count(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[endpoint]
}

// LastPayload returns the most recent request body seen by an endpoint.
func (s *Server) LastPayload(endpoint string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloads[endpoint]
}

// Owner reports which user has claimed the license/card with number,
// empty when unclaimed or unknown.
func (s *Server) Owner(number string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cards := range []map[string]*card{s.licenses, s.healthCards, s.transitPasses} {
		if c, ok := cards[number]; ok {
			return c.owner
		}
	}
	return ""
}

func (s *Server) record(r *http.Request) map[string]any {
	payload := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	endpoint := strings.TrimPrefix(r.URL.Path, "/api/")
	s.mu.Lock()
	s.counts[endpoint]++
	s.payloads[endpoint] = payload
	s.mu.Unlock()
	return payload
}

func (s *Server) mintAccess(email string) string {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		Issuer:    "wallettest",
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(defaultAccessTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
