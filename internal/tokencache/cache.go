// Package tokencache implements the persistent consistency-token store
// backing internal/tokenprovider: it remembers the token already
// generated for a detected value so the same underlying PHI resolves to
// the same replacement across documents in a batch, and across process
// restarts when backed by bbolt.
//
// Adapted from the teacher's internal/anonymizer cache.go/s3fifo_cache.go
// (the cross-session Ollama value cache): same two-tier design — an
// S3-FIFO in-memory layer in front of a durable backing store — retargeted
// from "original PII value → AI-classified token" to "(filter type,
// normalized value) → consistency token."
package tokencache

import (
	"fmt"
	"log"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/clinicalredact/phiredact/internal/phitype"
)

// PersistentCache is the durable token cache interface. All
// implementations must be safe for concurrent use.
//
// Delete is part of the interface (the teacher's original PersistentCache
// declared only Get/Set/Close, which left its own S3-FIFO eviction layer
// calling an interface method, backing.Delete, that the interface never
// declared — a latent compile error this package does not repeat).
type PersistentCache interface {
	Get(key string) (token string, ok bool)
	Set(key, token string)
	Delete(key string)
	Close() error
}

// Key builds the flat cache key for a (filter type, normalized value)
// pair. Exported so callers assembling a Provider around a raw
// PersistentCache can pre-populate it with the same key shape.
func Key(ft phitype.FilterType, normalizedValue string) string {
	return string(ft) + "|" + normalizedValue
}

// --- memoryCache -----------------------------------------------------

type memoryCache struct {
	mu    sync.RWMutex
	store map[string]string
}

// NewMemory returns an in-memory PersistentCache, for tests and for
// callers that don't need tokens to survive a restart.
func NewMemory() PersistentCache {
	return &memoryCache{store: make(map[string]string)}
}

func (c *memoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	v, ok := c.store[key]
	c.mu.RUnlock()
	return v, ok
}

func (c *memoryCache) Set(key, token string) {
	c.mu.Lock()
	c.store[key] = token
	c.mu.Unlock()
}

func (c *memoryCache) Delete(key string) {
	c.mu.Lock()
	delete(c.store, key)
	c.mu.Unlock()
}

func (c *memoryCache) Close() error { return nil }

// --- boltCache ---------------------------------------------------------

const boltBucket = "token_cache"

type boltCache struct {
	db *bolt.DB
}

// NewBolt opens (or creates) a bbolt database at path as the durable
// backing store for consistency tokens.
func NewBolt(path string) (PersistentCache, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bbolt token cache %q: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create bbolt bucket: %w", err)
	}
	return &boltCache{db: db}, nil
}

func (c *boltCache) Get(key string) (string, bool) {
	var token string
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(boltBucket))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			token = string(v)
		}
		return nil
	})
	if err != nil {
		log.Printf("[TOKENCACHE] bbolt Get error: %v", err)
		return "", false
	}
	return token, token != ""
}

func (c *boltCache) Set(key, token string) {
	if err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(boltBucket))
		if b == nil {
			return fmt.Errorf("bucket %q not found", boltBucket)
		}
		return b.Put([]byte(key), []byte(token))
	}); err != nil {
		log.Printf("[TOKENCACHE] bbolt Set error: %v", err)
	}
}

func (c *boltCache) Delete(key string) {
	if err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(boltBucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	}); err != nil {
		log.Printf("[TOKENCACHE] bbolt Delete error: %v", err)
	}
}

func (c *boltCache) Close() error {
	return c.db.Close()
}
