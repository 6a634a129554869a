package scheduler

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// KeyCacheTTL bounds how long fetched signing keys are trusted. The issuer
// rotates keys periodically; an hour keeps rotation lag acceptable.
const KeyCacheTTL = time.Hour

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

// KeyCache fetches the issuer's JWKS document and caches the parsed RSA
// keys. It is shared across every stream; reads take the read lock and the
// refresh path swaps the whole map atomically.
type KeyCache struct {
	url    string
	client *http.Client
	clock  clockwork.Clock

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	refreshed time.Time
}

// NewKeyCache points the cache at the issuer's JWKS endpoint.
func NewKeyCache(jwksURL string, client *http.Client, clock clockwork.Clock) *KeyCache {
	if client == nil {
		client = http.DefaultClient
	}
	return &KeyCache{
		url:    jwksURL,
		client: client,
		clock:  clock,
	}
}

// Key resolves a signing key by id, refreshing the cache when stale or when
// the kid is unknown (a rotation may have just happened).
func (c *KeyCache) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	fresh := c.clock.Since(c.refreshed) < KeyCacheTTL
	c.mu.RUnlock()

	if ok && fresh {
		return key, nil
	}

	if err := c.refresh(ctx); err != nil {
		// a stale key beats no key when the issuer is unreachable
		if ok {
			log.Warn().Err(err).Msg("serving stale signing key after failed JWKS refresh")
			return key, nil
		}
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok = c.keys[kid]
	if !ok {
		return nil, fmt.Errorf("signing key %q not present on issuer", kid)
	}
	return key, nil
}

func (c *KeyCache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build JWKS request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned %s", resp.Status)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("failed to parse JWKS document: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		key, err := parseRSAKey(k)
		if err != nil {
			log.Warn().Err(err).Str("kid", k.Kid).Msg("skipping unparseable JWKS key")
			continue
		}
		keys[k.Kid] = key
	}

	c.mu.Lock()
	c.keys = keys
	c.refreshed = c.clock.Now()
	c.mu.Unlock()

	log.Debug().Int("keys", len(keys)).Msg("refreshed issuer signing keys")
	return nil
}

func parseRSAKey(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("bad modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("bad exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e == 0 {
		return nil, fmt.Errorf("zero exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
