/*
Velociraptor - Dig Deeper
Copyright (C) 2019-2025 Rapid7 Inc.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// The routing cache holds the live sinks, keyed by routing key. It
// keeps at most capacity sinks open in strict LRU order, closing the
// coldest sink to admit a new key. Creation is single flight: the
// first dispatch for a key creates the sink while later dispatches
// for the same key queue behind it and reuse the result.
package cache

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Velocidex/ordereddict"
	"github.com/go-errors/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	config_proto "www.velocidex.com/golang/vroute/config/proto"
	"www.velocidex.com/golang/vroute/events"
	"www.velocidex.com/golang/vroute/logging"
	"www.velocidex.com/golang/vroute/sinks"
	"www.velocidex.com/golang/vroute/utils"
)

var (
	ErrCacheClosed    = errors.New("Routing cache is closed")
	ErrCreationFailed = errors.New("Sink creation failed")
	ErrSinkFailed     = errors.New("Sink append failed")

	currentSinksGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "routing_cache_live_sinks",
		Help: "Number of sinks currently held open by the routing cache.",
	})

	evictionCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_cache_evictions",
		Help: "Total sinks evicted to make room for new keys.",
	})

	expirationCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_cache_idle_expirations",
		Help: "Total sinks closed because they were idle too long.",
	})

	creationCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_cache_creations",
		Help: "Total sinks created by the routing cache.",
	})

	creationFailureCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_cache_creation_failures",
		Help: "Total sink creations that returned an error.",
	})

	creationThrottledCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_cache_creations_throttled",
		Help: "Total sink creations refused by the rate limiter.",
	})

	failureMemoHitCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_cache_failure_memo_hits",
		Help: "Total dispatches refused because the key recently failed to create.",
	})

	closeErrorCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routing_cache_close_errors",
		Help: "Total sink Close calls that returned an error.",
	})

	dispatchHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "routing_cache_dispatch_latency",
		Help:    "Latency of dispatching one event through the routing cache.",
		Buckets: prometheus.LinearBuckets(0.01, 0.05, 10),
	})
)

// SinkEntry holds one live sink together with the bookkeeping the
// cache keeps for it.
type SinkEntry struct {
	// Serializes creation, appends and close for this sink. Held
	// across creation, so dispatchers for a key being created block
	// here until the sink exists.
	mu sync.Mutex

	key     string
	sink_id string

	// At most one of sink or err is set once creation completes.
	// Protected by mu.
	sink sinks.Sink
	err  error

	// Set under mu when the sink is closed by eviction, an idle
	// sweep or CloseAll.
	closed bool

	// Protected by the cache structural lock.
	element   *list.Element
	last_used time.Time
	created   time.Time

	appends uint64 // atomic
}

type SinkCache struct {
	config_obj *config_proto.Config

	// Guards the table, the recency list and the closed flag.
	// Holders of this lock never wait on an entry lock.
	mu      sync.Mutex
	table   map[string]*SinkEntry
	recency *list.List // Front is most recently used.
	closed  bool

	capacity int
	factory  sinks.Factory

	clock    utils.Clock
	limiter  *rate.Limiter
	failures *failureMemo

	logger *logging.LogContext
}

func NewSinkCache(
	config_obj *config_proto.Config,
	factory sinks.Factory) (*SinkCache, error) {

	capacity := int64(64)
	var backoff, creation_rate int64

	if config_obj.Cache != nil {
		if config_obj.Cache.Capacity != 0 {
			capacity = config_obj.Cache.Capacity
		}
		backoff = config_obj.Cache.CreationBackoff
		creation_rate = config_obj.Cache.CreationRate
	}

	if capacity < 1 {
		return nil, errors.Errorf(
			"Routing cache capacity must be at least 1, not %v", capacity)
	}

	result := &SinkCache{
		config_obj: config_obj,
		table:      make(map[string]*SinkEntry),
		recency:    list.New(),
		capacity:   int(capacity),
		factory:    factory,
		clock:      utils.RealClock{},
		logger:     logging.GetLogger(config_obj, &logging.FrontendComponent),
	}

	if creation_rate > 0 {
		result.limiter = rate.NewLimiter(
			rate.Limit(creation_rate), int(creation_rate))
	}

	if backoff > 0 {
		result.failures = newFailureMemo(
			time.Duration(backoff) * time.Second)
	}

	return result, nil
}

// SetClock installs a manual clock for tests.
func (self *SinkCache) SetClock(clock utils.Clock) {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.clock = clock
}

// Dispatch delivers one event to the sink for key, creating the sink
// on first use. Appends to the same key are serialized in admission
// order and at most one creation ever runs for a key. Events for a
// key whose creation failed get the creation error until the key is
// admitted again.
func (self *SinkCache) Dispatch(key string, event *events.Event) error {
	start := time.Now()
	defer func() {
		dispatchHistogram.Observe(time.Since(start).Seconds())
	}()

	for {
		entry, is_new, err := self.admit(key)
		if err != nil {
			return err
		}

		if is_new {
			return self.createAndForward(entry, event)
		}

		retry, err := self.forward(entry, event)
		if !retry {
			return err
		}

		// The entry was closed under us by eviction, an idle sweep
		// or CloseAll. Take the dispatch from the top.
	}
}

// admit resolves key to an entry under the structural lock. New
// entries are returned with their lock already held by the caller,
// which must finish creation before releasing it. Locking a fresh
// mutex can not block, so taking it under the structural lock is
// safe.
func (self *SinkCache) admit(key string) (*SinkEntry, bool, error) {
	self.mu.Lock()

	if self.closed {
		self.mu.Unlock()
		return nil, false, ErrCacheClosed
	}

	entry, pres := self.table[key]
	if pres {
		// Recency is touched on every dispatch, not only on
		// successful appends.
		self.recency.MoveToFront(entry.element)
		entry.last_used = self.clock.Now()
		self.mu.Unlock()
		return entry, false, nil
	}

	// Refuse keys which failed to create recently.
	if self.failures != nil {
		memo_err := self.failures.Get(key)
		if memo_err != nil {
			self.mu.Unlock()
			failureMemoHitCounter.Inc()
			return nil, false, fmt.Errorf(
				"%w: %w", ErrCreationFailed, memo_err)
		}
	}

	if self.limiter != nil && !self.limiter.Allow() {
		self.mu.Unlock()
		creationThrottledCounter.Inc()
		return nil, false, fmt.Errorf(
			"%w: sink creation rate exceeded for %v",
			ErrCreationFailed, key)
	}

	now := self.clock.Now()
	entry = &SinkEntry{
		key:       key,
		sink_id:   utils.NewSinkId(),
		last_used: now,
		created:   now,
	}

	entry.mu.Lock()
	entry.element = self.recency.PushFront(entry)
	self.table[key] = entry

	victims := self.evictOverflowLocked()
	self.mu.Unlock()

	// Closing a victim can block behind its in flight appends, so
	// it happens outside the structural lock. A victim is always
	// older than the entry admitted here, which rules out cyclic
	// waits between dispatchers.
	self.closeEvicted(victims)

	return entry, true, nil
}

// evictOverflowLocked pops entries off the cold end until the cache
// fits its capacity again. Victims are unlinked immediately so no
// new dispatch can reach them; the caller closes them after
// dropping the structural lock.
func (self *SinkCache) evictOverflowLocked() []*SinkEntry {
	var victims []*SinkEntry

	for self.recency.Len() > self.capacity {
		element := self.recency.Back()
		if element == nil {
			break
		}

		entry := element.Value.(*SinkEntry)
		self.recency.Remove(element)
		delete(self.table, entry.key)
		victims = append(victims, entry)
	}

	return victims
}

func (self *SinkCache) closeEvicted(victims []*SinkEntry) {
	for _, entry := range victims {
		evictionCounter.Inc()

		entry.mu.Lock()
		err := self.closeEntryLocked(entry)
		entry.mu.Unlock()

		if err != nil {
			self.logger.Error(
				"Closing evicted sink for %v: %v", entry.key, err)
		} else {
			self.logger.Debug(
				"Evicted sink <red>%v</> for key %v",
				entry.sink_id, entry.key)
		}
	}
}

// createAndForward completes a cache miss. The caller holds entry.mu
// from admit; it is released here once creation and the first
// forward are done. Dispatchers queued on the entry observe either
// the live sink or the creation error.
func (self *SinkCache) createAndForward(
	entry *SinkEntry, event *events.Event) error {
	defer entry.mu.Unlock()

	sink, err := self.createSink(entry.key, event)
	if err != nil {
		creationFailureCounter.Inc()
		entry.err = fmt.Errorf("%w: %w", ErrCreationFailed, err)

		if self.failures != nil {
			self.failures.Set(entry.key, err)
		}

		// Unlink the placeholder so a later event can retry the key
		// once the backoff clears.
		self.unlink(entry)

		self.logger.Error(
			"Unable to create sink for key %v: %v", entry.key, err)
		return entry.err
	}

	creationCounter.Inc()
	currentSinksGauge.Inc()

	if self.failures != nil {
		self.failures.Forget(entry.key)
	}

	entry.sink = sink

	self.logger.Debug("Created sink <green>%v</> for key %v",
		entry.sink_id, entry.key)

	return self.forwardLocked(entry, event)
}

// forward delivers one event to an admitted entry. A true retry
// return means the entry was closed before the event could be
// appended and the dispatch must restart from admission.
func (self *SinkCache) forward(
	entry *SinkEntry, event *events.Event) (bool, error) {
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.err != nil {
		return false, entry.err
	}

	if entry.closed {
		return true, nil
	}

	return false, self.forwardLocked(entry, event)
}

func (self *SinkCache) forwardLocked(
	entry *SinkEntry, event *events.Event) error {
	err := self.appendToSink(entry.sink, event)
	if err != nil {
		// The sink stays cached. A failed append is reported to the
		// caller but must not force a reopen for every following
		// event.
		return fmt.Errorf("%w: %w", ErrSinkFailed, err)
	}

	atomic.AddUint64(&entry.appends, 1)
	return nil
}

// Factories and sinks are plugin provided, so their panics are
// contained into ordinary errors here.
func (self *SinkCache) createSink(
	key string, event *events.Event) (sink sinks.Sink, err error) {
	defer utils.RecoverIntoError(&err)

	return self.factory.Create(key, event)
}

func (self *SinkCache) appendToSink(
	sink sinks.Sink, event *events.Event) (err error) {
	defer utils.RecoverIntoError(&err)

	return sink.Append(event)
}

func (self *SinkCache) closeSink(sink sinks.Sink) (err error) {
	defer utils.RecoverIntoError(&err)

	return sink.Close()
}

// closeEntryLocked closes the entry's sink. The caller holds
// entry.mu. Safe to call repeatedly and on entries whose creation
// never completed.
func (self *SinkCache) closeEntryLocked(entry *SinkEntry) error {
	if entry.closed {
		return nil
	}
	entry.closed = true

	if entry.sink == nil {
		return nil
	}

	currentSinksGauge.Dec()

	err := self.closeSink(entry.sink)
	if err != nil {
		closeErrorCounter.Inc()
		return err
	}
	return nil
}

// unlink removes a failed placeholder from the table unless eviction
// or CloseAll already dropped it. Taking the structural lock while
// holding entry.mu is safe because structural holders never wait on
// entry locks.
func (self *SinkCache) unlink(entry *SinkEntry) {
	self.mu.Lock()
	defer self.mu.Unlock()

	current, pres := self.table[entry.key]
	if pres && current == entry {
		delete(self.table, entry.key)
		self.recency.Remove(entry.element)
	}
}

// CloseAll drains the cache, closing every sink from least to most
// recently used. Dispatches already in flight either complete before
// their sink closes or restart and observe ErrCacheClosed. Calling
// CloseAll again is a no op.
func (self *SinkCache) CloseAll() error {
	self.mu.Lock()
	if self.closed {
		self.mu.Unlock()
		return nil
	}
	self.closed = true

	var entries []*SinkEntry
	for element := self.recency.Back(); element != nil; element = element.Prev() {
		entries = append(entries, element.Value.(*SinkEntry))
	}
	self.recency.Init()
	self.table = make(map[string]*SinkEntry)
	self.mu.Unlock()

	var first_err error
	failed := 0

	for _, entry := range entries {
		entry.mu.Lock()
		err := self.closeEntryLocked(entry)
		entry.mu.Unlock()

		if err != nil {
			failed++
			if first_err == nil {
				first_err = err
			}
			self.logger.Error(
				"Closing sink for %v: %v", entry.key, err)
		}
	}

	if self.failures != nil {
		self.failures.Close()
	}

	if first_err != nil {
		if failed > 1 {
			return fmt.Errorf("%d sinks failed to close, first error: %w",
				failed, first_err)
		}
		return first_err
	}

	return nil
}

// ExpireIdle closes sinks which have not seen a dispatch for at
// least idle_timeout and returns how many were closed. The scan
// walks in from the cold end and stops at the first fresh entry
// since recency order bounds idle time.
func (self *SinkCache) ExpireIdle(idle_timeout time.Duration) int {
	self.mu.Lock()

	if self.closed {
		self.mu.Unlock()
		return 0
	}

	cutoff := self.clock.Now().Add(-idle_timeout)

	var victims []*SinkEntry
	for {
		element := self.recency.Back()
		if element == nil {
			break
		}

		entry := element.Value.(*SinkEntry)
		if entry.last_used.After(cutoff) {
			break
		}

		self.recency.Remove(element)
		delete(self.table, entry.key)
		victims = append(victims, entry)
	}
	self.mu.Unlock()

	for _, entry := range victims {
		expirationCounter.Inc()

		entry.mu.Lock()
		err := self.closeEntryLocked(entry)
		entry.mu.Unlock()

		if err != nil {
			self.logger.Error(
				"Closing idle sink for %v: %v", entry.key, err)
		} else {
			self.logger.Debug("Expired idle sink <red>%v</> for key %v",
				entry.sink_id, entry.key)
		}
	}

	return len(victims)
}

func (self *SinkCache) Len() int {
	self.mu.Lock()
	defer self.mu.Unlock()

	return self.recency.Len()
}

// LiveKeys lists the cached keys from most to least recently used.
func (self *SinkCache) LiveKeys() []string {
	self.mu.Lock()
	defer self.mu.Unlock()

	var result []string
	for element := self.recency.Front(); element != nil; element = element.Next() {
		result = append(result, element.Value.(*SinkEntry).key)
	}
	return result
}

// Stats snapshots the per key counters for status displays. It does
// not take entry locks so it stays responsive while appends are
// blocked on slow sinks.
func (self *SinkCache) Stats() []*ordereddict.Dict {
	self.mu.Lock()
	defer self.mu.Unlock()

	var result []*ordereddict.Dict
	for element := self.recency.Front(); element != nil; element = element.Next() {
		entry := element.Value.(*SinkEntry)
		result = append(result, ordereddict.NewDict().
			Set("key", entry.key).
			Set("sink_id", entry.sink_id).
			Set("appends", atomic.LoadUint64(&entry.appends)).
			Set("created", entry.created).
			Set("last_used", entry.last_used))
	}
	return result
}
