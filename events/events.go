// The event model for routing. Events flow from producers through
// the routing appender into keyed sinks.

package events

import (
	"time"

	"github.com/Velocidex/ordereddict"
	"github.com/araddon/dateparse"
)

// Event is a single routable record. Fields carry the payload
// columns a sink writes out; context values carry routing metadata
// (tenant, job id, source host) consulted when deriving the routing
// key and when expanding sink templates. Context rides with the
// event but is not part of the written payload.
type Event struct {
	Timestamp time.Time
	Level     string
	Message   string

	Fields *ordereddict.Dict

	context *ordereddict.Dict
}

func NewEvent(level, message string) *Event {
	return &Event{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Fields:    ordereddict.NewDict(),
	}
}

// Set adds a payload column. Returns self for chaining.
func (self *Event) Set(name string, value interface{}) *Event {
	if self.Fields == nil {
		self.Fields = ordereddict.NewDict()
	}
	self.Fields.Set(name, value)
	return self
}

// WithContext attaches a named routing value. Returns self for
// chaining.
func (self *Event) WithContext(name string, value interface{}) *Event {
	if self.context == nil {
		self.context = ordereddict.NewDict()
	}
	self.context.Set(name, value)
	return self
}

// ContextValue looks up a routing value by name.
func (self *Event) ContextValue(name string) (interface{}, bool) {
	if self.context == nil {
		return nil, false
	}
	return self.context.Get(name)
}

// Row renders the event as an ordered row for serialization. The
// leading columns are stable so files stay mergeable.
func (self *Event) Row() *ordereddict.Dict {
	row := ordereddict.NewDict().
		Set("_ts", self.Timestamp.UTC().Unix()).
		Set("level", self.Level).
		Set("message", self.Message)

	if self.Fields != nil {
		for _, k := range self.Fields.Keys() {
			v, _ := self.Fields.Get(k)
			row.Set(k, v)
		}
	}
	return row
}

// FromRow builds an event from a parsed JSONL row. The "level",
// "message" and "timestamp" columns map onto the event itself
// (timestamps in any common format are accepted); the remaining
// columns become payload fields. Scalar columns are also attached as
// context values so any column can drive routing.
func FromRow(row *ordereddict.Dict) *Event {
	event := NewEvent("info", "")

	for _, k := range row.Keys() {
		v, _ := row.Get(k)

		switch k {
		case "level":
			level, ok := v.(string)
			if ok {
				event.Level = level
			}
			continue

		case "message":
			message, ok := v.(string)
			if ok {
				event.Message = message
			}
			continue

		case "timestamp", "_ts":
			event.Timestamp = parseTimestamp(v)
			continue
		}

		event.Set(k, v)
		if isScalar(v) {
			event.WithContext(k, v)
		}
	}

	return event
}

func parseTimestamp(v interface{}) time.Time {
	switch t := v.(type) {
	case string:
		parsed, err := dateparse.ParseAny(t)
		if err == nil {
			return parsed
		}

	case float64:
		return time.Unix(int64(t), 0)

	case int64:
		return time.Unix(t, 0)

	case uint64:
		return time.Unix(int64(t), 0)
	}
	return time.Now()
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}
