// Package gateway implements the authenticated HTTP transport to the
// wallet backend: JSON POST bodies, bearer injection from the session
// store, and a retry-once-on-401 protocol with a coalesced silent
// refresh.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nsid/wallet/internal/config"
	walleterrors "github.com/nsid/wallet/internal/errors"
	"github.com/nsid/wallet/session"
	"github.com/nsid/wallet/walletmodel"
)

const maxErrorBody = 1 << 20

// Client is the credential API gateway. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	store      session.Store
	log        zerolog.Logger

	mu       sync.Mutex // guards inflight and device ID creation
	inflight *refreshOp
}

// Option modifies a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the client's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a gateway client from the API configuration and the
// device session store.
func New(cfg config.APIConfig, store session.Store, options ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("[gateway.New] config is required")
	}
	if store == nil {
		return nil, errors.New("[gateway.New] session store is required")
	}
	baseURL := cfg.GetBaseURL()
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.GetRequestTimeout()},
		baseURL:    baseURL,
		store:      store,
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Post sends a JSON POST to the given endpoint and decodes the 2xx
// response into out (which may be nil). On a 401 it performs one silent
// token refresh and re-issues the request once with the new token; a
// second 401, or a failed refresh, clears the session and surfaces the
// 401 to the caller. The request is never attempted a third time.
func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	if body == nil {
		body = struct{}{}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrapf(err, "encoding %s request", endpoint)
	}

	err = c.send(ctx, endpoint, payload, c.storedAccessToken(), out)
	if !walletmodel.IsStatus(err, http.StatusUnauthorized) {
		return err
	}

	token, refreshErr := c.Refresh(ctx)
	if refreshErr != nil {
		// Refresh already cleared the session; the caller sees the
		// original 401.
		return err
	}

	c.log.Info().Str("endpoint", endpoint).Msg("retrying request with refreshed token")
	retryErr := c.send(ctx, endpoint, payload, token, out)
	if walletmodel.IsStatus(retryErr, http.StatusUnauthorized) {
		// The refreshed token was also rejected: force re-authentication.
		if clearErr := session.Clear(c.store); clearErr != nil {
			c.log.Error().Err(clearErr).Msg("clearing session after rejected retry")
		}
	}
	return retryErr
}

// send performs a single request attempt with the given bearer token.
func (c *Client) send(ctx context.Context, endpoint string, payload []byte, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrapf(err, "building %s request", endpoint)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if id := c.deviceID(); id != "" {
		req.Header.Set("X-Device-ID", id)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("endpoint", endpoint).Msg("request failed")
		return walleterrors.Wrapf(walleterrors.ErrNetwork, "posting %s (%v)", endpoint, err)
	}
	defer resp.Body.Close()

	c.log.Debug().Str("endpoint", endpoint).Int("status", resp.StatusCode).Msg("api response")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s response", endpoint)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &walletmodel.APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(body) > 0 {
		// Not every error body carries the envelope; fall back to the
		// raw body so backend detail is not lost.
		if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil || apiErr.ErrorMessage == "" {
			apiErr.ErrorMessage = strings.TrimSpace(string(body))
		}
	}
	return apiErr
}

// storedAccessToken reads the current access token, empty when absent.
func (c *Client) storedAccessToken() string {
	token, err := c.store.Get(session.KeyAccessToken)
	if err != nil {
		return ""
	}
	return token
}

// deviceID returns the persistent device identifier, minting one on
// first use.
func (c *Client) deviceID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.store.Get(session.KeyDeviceID)
	if err == nil && id != "" {
		return id
	}
	id = uuid.NewString()
	if err := c.store.Put(session.KeyDeviceID, id); err != nil {
		c.log.Warn().Err(err).Msg("persisting device ID")
		return ""
	}
	return id
}
