package sinks

import (
	"sync"
	"time"

	"github.com/Velocidex/ordereddict"
	"github.com/go-errors/errors"

	config_proto "www.velocidex.com/golang/vroute/config/proto"
	"www.velocidex.com/golang/vroute/events"
)

// MemorySink collects routed events in memory. It is mostly useful
// in tests but is also registered as a real sink kind so pipelines
// can be dry run without touching disk.
type MemorySink struct {
	mu sync.Mutex

	key         string
	rows        []*ordereddict.Dict
	closed      bool
	close_count int

	fail_append error
	fail_close  error
}

func (self *MemorySink) Append(event *events.Event) error {
	self.mu.Lock()
	defer self.mu.Unlock()

	if self.closed {
		return errors.Errorf("Append after Close on sink %v", self.key)
	}

	if self.fail_append != nil {
		return self.fail_append
	}

	self.rows = append(self.rows, event.Row())
	return nil
}

func (self *MemorySink) Close() error {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.closed = true
	self.close_count++
	return self.fail_close
}

func (self *MemorySink) Key() string {
	return self.key
}

func (self *MemorySink) Rows() []*ordereddict.Dict {
	self.mu.Lock()
	defer self.mu.Unlock()

	result := make([]*ordereddict.Dict, len(self.rows))
	copy(result, self.rows)
	return result
}

func (self *MemorySink) IsClosed() bool {
	self.mu.Lock()
	defer self.mu.Unlock()

	return self.closed
}

func (self *MemorySink) CloseCount() int {
	self.mu.Lock()
	defer self.mu.Unlock()

	return self.close_count
}

func (self *MemorySink) SetAppendError(err error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.fail_append = err
}

func (self *MemorySink) SetCloseError(err error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.fail_close = err
}

type MemoryFactory struct {
	mu sync.Mutex

	create_count int
	create_err   error
	create_delay time.Duration

	sinks map[string][]*MemorySink
}

func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{
		sinks: make(map[string][]*MemorySink),
	}
}

func (self *MemoryFactory) Create(
	key string, event *events.Event) (Sink, error) {
	self.mu.Lock()
	self.create_count++
	delay := self.create_delay
	err := self.create_err
	self.mu.Unlock()

	// Sleep outside the lock so slow creations for different keys
	// do not serialize each other through the factory.
	if delay > 0 {
		time.Sleep(delay)
	}

	if err != nil {
		return nil, err
	}

	sink := &MemorySink{key: key}

	self.mu.Lock()
	self.sinks[key] = append(self.sinks[key], sink)
	self.mu.Unlock()

	return sink, nil
}

func (self *MemoryFactory) CreateCount() int {
	self.mu.Lock()
	defer self.mu.Unlock()

	return self.create_count
}

// GetSink returns the most recently created sink for the key.
func (self *MemoryFactory) GetSink(key string) (*MemorySink, bool) {
	self.mu.Lock()
	defer self.mu.Unlock()

	instances, pres := self.sinks[key]
	if !pres || len(instances) == 0 {
		return nil, false
	}
	return instances[len(instances)-1], true
}

func (self *MemoryFactory) AllSinks(key string) []*MemorySink {
	self.mu.Lock()
	defer self.mu.Unlock()

	result := make([]*MemorySink, len(self.sinks[key]))
	copy(result, self.sinks[key])
	return result
}

func (self *MemoryFactory) SetCreateError(err error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.create_err = err
}

func (self *MemoryFactory) SetCreateDelay(delay time.Duration) {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.create_delay = delay
}

func init() {
	RegisterFactory("memory",
		func(config_obj *config_proto.Config) (Factory, error) {
			return NewMemoryFactory(), nil
		})
}
