// Package credentials stores per-storefront API credentials behind the
// same injected key/value interface as the response cache, so a durable
// shared backend can replace the in-process default without changing
// consumers. Credential acquisition (the OAuth handshake) lives outside
// this service and writes into this store.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumen-commerce/imagesitemap/pkg/cache"
	"github.com/lumen-commerce/imagesitemap/pkg/logging"
)

// ErrNotProvisioned indicates the storefront has no stored credential.
// It is distinct from an authorization failure: the caller should be
// directed to the provisioning step, not told its signature is bad.
var ErrNotProvisioned = errors.New("storefront not provisioned")

// Record is one stored storefront credential.
type Record struct {
	Shop        string    `json:"shop"`
	AccessToken string    `json:"access_token"`
	InstalledAt time.Time `json:"installed_at"`
}

// Store persists credentials keyed by shop domain.
type Store struct {
	backend cache.Store
	logger  zerolog.Logger
}

// NewStore creates a credential store on the given backend.
func NewStore(backend cache.Store) *Store {
	return &Store{
		backend: backend,
		logger:  logging.NewLogger("credentials"),
	}
}

func storeKey(shop string) string {
	return "credential:" + strings.ToLower(strings.TrimSpace(shop))
}

// Get returns the credential for shop, or ErrNotProvisioned.
func (s *Store) Get(ctx context.Context, shop string) (*Record, error) {
	data, err := s.backend.Get(ctx, storeKey(shop))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, fmt.Errorf("%w: %s", ErrNotProvisioned, shop)
		}
		return nil, fmt.Errorf("credential lookup for %s: %w", shop, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Corrupt credential record")
		return nil, fmt.Errorf("decode credential for %s: %w", shop, err)
	}
	return &rec, nil
}

// Put stores a credential. Credentials do not expire; removal is
// explicit via Delete (uninstall).
func (s *Store) Put(ctx context.Context, rec Record) error {
	if rec.Shop == "" {
		return fmt.Errorf("shop is required")
	}
	if rec.AccessToken == "" {
		return fmt.Errorf("access token is required")
	}
	if rec.InstalledAt.IsZero() {
		rec.InstalledAt = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	if err := s.backend.Set(ctx, storeKey(rec.Shop), data, 0); err != nil {
		return fmt.Errorf("store credential for %s: %w", rec.Shop, err)
	}

	s.logger.Info().Str("shop", rec.Shop).Msg("Credential stored")
	return nil
}

// Delete removes a shop's credential.
func (s *Store) Delete(ctx context.Context, shop string) error {
	if err := s.backend.Delete(ctx, storeKey(shop)); err != nil {
		return fmt.Errorf("delete credential for %s: %w", shop, err)
	}
	s.logger.Info().Str("shop", shop).Msg("Credential removed")
	return nil
}
