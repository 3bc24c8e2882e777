package credentials

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nsid/wallet/gateway"
	walleterrors "github.com/nsid/wallet/internal/errors"
	"github.com/nsid/wallet/session"
	"github.com/nsid/wallet/walletmodel"
)

const recordCacheSize = 8

// Service fetches and adds credential records through the gateway.
// Fetches always hit the backend (records are re-fetched, never
// merged); each successful fetch is mirrored into an in-memory cache
// and the session store so the last known record stays available for
// offline display.
type Service struct {
	gw    *gateway.Client
	store session.Store
	cache *lru.Cache
	log   zerolog.Logger
}

// Option modifies a Service.
type Option func(*Service)

// WithLogger sets the service's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// NewService creates a credential service over the gateway and store.
func NewService(gw *gateway.Client, store session.Store, options ...Option) (*Service, error) {
	if gw == nil {
		return nil, errors.New("[credentials.NewService] gateway is required")
	}
	if store == nil {
		return nil, errors.New("[credentials.NewService] session store is required")
	}
	cache, err := lru.New(recordCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "creating record cache")
	}
	s := &Service{
		gw:    gw,
		store: store,
		cache: cache,
		log:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// FetchDriversLicense retrieves the driver's license for the lookup.
func (s *Service) FetchDriversLicense(ctx context.Context, lookup Lookup) (*walletmodel.DriversLicense, error) {
	return fetchRecord[walletmodel.DriversLicense](ctx, s, KindDriversLicense, lookup)
}

// FetchHealthCard retrieves the health card for the lookup.
func (s *Service) FetchHealthCard(ctx context.Context, lookup Lookup) (*walletmodel.HealthCard, error) {
	return fetchRecord[walletmodel.HealthCard](ctx, s, KindHealthCard, lookup)
}

// FetchTransitPass retrieves the transit pass for the lookup.
func (s *Service) FetchTransitPass(ctx context.Context, lookup Lookup) (*walletmodel.TransitPass, error) {
	return fetchRecord[walletmodel.TransitPass](ctx, s, KindTransitPass, lookup)
}

// AddDriversLicense claims the license with the given number for the
// signed-in user and returns an optimistic minimal record without
// re-fetching.
func (s *Service) AddDriversLicense(ctx context.Context, number string) (*walletmodel.DriversLicense, error) {
	resp, err := s.addRecord(ctx, KindDriversLicense, number)
	if err != nil {
		return nil, err
	}
	rec := &walletmodel.DriversLicense{LicenseNumber: resp.Number()}
	s.remember(KindDriversLicense, rec)
	return rec, nil
}

// AddHealthCard claims the health card with the given number.
func (s *Service) AddHealthCard(ctx context.Context, number string) (*walletmodel.HealthCard, error) {
	resp, err := s.addRecord(ctx, KindHealthCard, number)
	if err != nil {
		return nil, err
	}
	rec := &walletmodel.HealthCard{CardNumber: resp.Number()}
	s.remember(KindHealthCard, rec)
	return rec, nil
}

// AddTransitPass claims the transit pass with the given number.
func (s *Service) AddTransitPass(ctx context.Context, number string) (*walletmodel.TransitPass, error) {
	resp, err := s.addRecord(ctx, KindTransitPass, number)
	if err != nil {
		return nil, err
	}
	rec := &walletmodel.TransitPass{CardNumber: resp.Number()}
	s.remember(KindTransitPass, rec)
	return rec, nil
}

// CachedDriversLicense returns the last fetched driver's license.
func (s *Service) CachedDriversLicense() (*walletmodel.DriversLicense, error) {
	return cachedRecord[walletmodel.DriversLicense](s, KindDriversLicense)
}

// CachedHealthCard returns the last fetched health card.
func (s *Service) CachedHealthCard() (*walletmodel.HealthCard, error) {
	return cachedRecord[walletmodel.HealthCard](s, KindHealthCard)
}

// CachedTransitPass returns the last fetched transit pass.
func (s *Service) CachedTransitPass() (*walletmodel.TransitPass, error) {
	return cachedRecord[walletmodel.TransitPass](s, KindTransitPass)
}

// Invalidate drops the cached record of kind k from memory and store.
func (s *Service) Invalidate(kind Kind) error {
	s.cache.Remove(string(kind))
	if err := s.store.Delete(StoreKey(kind)); err != nil {
		return walleterrors.Wrapf(err, "removing mirrored %s record", kind)
	}
	return nil
}

func fetchRecord[T any](ctx context.Context, s *Service, kind Kind, lookup Lookup) (*T, error) {
	if lookup.IsZero() {
		return nil, walleterrors.Wrapf(walleterrors.ErrValidation, "empty %s lookup", kind)
	}
	spec := kindSpecs[kind]
	rec := new(T)
	if err := s.gw.Post(ctx, spec.getEndpoint, lookup.payload(spec.numberField), rec); err != nil {
		if walletmodel.IsStatus(err, http.StatusNotFound) {
			return nil, walleterrors.Wrapf(walleterrors.ErrRecordNotFound, "fetching %s", kind)
		}
		return nil, walleterrors.Wrapf(err, "fetching %s", kind)
	}
	s.remember(kind, rec)
	return rec, nil
}

func (s *Service) addRecord(ctx context.Context, kind Kind, number string) (*walletmodel.AddCardResponse, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, walleterrors.Wrapf(walleterrors.ErrValidation, "%s number is required", kind)
	}
	spec := kindSpecs[kind]
	var resp walletmodel.AddCardResponse
	if err := s.gw.Post(ctx, spec.addEndpoint, map[string]string{spec.numberField: number}, &resp); err != nil {
		switch {
		case walletmodel.IsStatus(err, http.StatusBadRequest):
			return nil, walleterrors.Wrapf(walleterrors.ErrAlreadyClaimed, "adding %s %s", kind, number)
		case walletmodel.IsStatus(err, http.StatusNotFound):
			return nil, walleterrors.Wrapf(walleterrors.ErrRecordNotFound, "adding %s %s", kind, number)
		}
		return nil, walleterrors.Wrapf(err, "adding %s", kind)
	}
	return &resp, nil
}

func cachedRecord[T any](s *Service, kind Kind) (*T, error) {
	if value, ok := s.cache.Get(string(kind)); ok {
		if rec, ok := value.(*T); ok {
			return rec, nil
		}
	}
	data, err := s.store.Get(StoreKey(kind))
	if err != nil {
		return nil, walleterrors.ErrNoCachedRecord
	}
	rec := new(T)
	if err := json.Unmarshal([]byte(data), rec); err != nil {
		return nil, walleterrors.Wrapf(err, "decoding mirrored %s record", kind)
	}
	s.cache.Add(string(kind), rec)
	return rec, nil
}

// remember mirrors a fetched or added record for offline display.
func (s *Service) remember(kind Kind, rec any) {
	s.cache.Add(string(kind), rec)
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.store.Put(StoreKey(kind), string(data)); err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("mirroring credential record")
	}
}
