package cache

import (
	"time"

	"github.com/Velocidex/ttlcache/v2"
)

// failureMemo remembers keys whose sink creation recently failed so a
// stream of events for a broken key does not hammer the factory.
// Entries expire after the configured backoff and are dropped early
// when a later creation succeeds.
type failureMemo struct {
	lru *ttlcache.Cache
}

func newFailureMemo(backoff time.Duration) *failureMemo {
	result := &failureMemo{
		lru: ttlcache.NewCache(),
	}

	result.lru.SetTTL(backoff)
	result.lru.SetCacheSizeLimit(1000)

	// The backoff window runs from the failure itself, not from the
	// last event we refused.
	result.lru.SkipTTLExtensionOnHit(true)

	return result
}

// Get returns the remembered creation error for the key, or nil when
// the key is clear to try again.
func (self *failureMemo) Get(key string) error {
	value, err := self.lru.Get(key)
	if err != nil {
		return nil
	}

	cached_err, ok := value.(error)
	if !ok {
		return nil
	}
	return cached_err
}

func (self *failureMemo) Set(key string, err error) {
	self.lru.Set(key, err)
}

func (self *failureMemo) Forget(key string) {
	self.lru.Remove(key)
}

func (self *failureMemo) Close() {
	self.lru.Close()
}
