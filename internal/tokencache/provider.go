package tokencache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/clinicalredact/phiredact/internal/phitype"
)

// Generator produces a new consistency token for a value the cache has
// never seen before. Deterministic generators (hashing the normalized
// value) make the same value map to the same token even across a cold
// cache; HashGenerator below is the default.
type Generator func(ft phitype.FilterType, normalizedValue string) string

// Provider adapts a PersistentCache into a tokenprovider.TokenProvider:
// a cache hit returns the remembered token; a miss generates one (if a
// Generator is configured), remembers it for next time, and returns it.
// A nil Generator makes Provider a pure lookup — a miss reports ok=false
// and the caller falls back to the policy placeholder.
type Provider struct {
	Cache     PersistentCache
	Generator Generator
}

// NewProvider builds a Provider over cache using HashGenerator.
func NewProvider(cache PersistentCache) *Provider {
	return &Provider{Cache: cache, Generator: HashGenerator}
}

// ResolveToken implements tokenprovider.TokenProvider.
func (p *Provider) ResolveToken(_ context.Context, ft phitype.FilterType, normalizedValue string) (string, bool, error) {
	key := Key(ft, normalizedValue)
	if token, ok := p.Cache.Get(key); ok {
		return token, true, nil
	}
	if p.Generator == nil {
		return "", false, nil
	}
	token := p.Generator(ft, normalizedValue)
	p.Cache.Set(key, token)
	return token, true, nil
}

// HashGenerator derives a token deterministically from the normalized
// value, so a cold cache (after a restart with no durable backing, or a
// capacity-evicted entry) still reproduces the same token for the same
// value rather than minting a fresh random one.
func HashGenerator(ft phitype.FilterType, normalizedValue string) string {
	sum := sha256.Sum256([]byte(normalizedValue))
	return "[" + string(ft) + "_" + hex.EncodeToString(sum[:])[:8] + "]"
}
