package events

import (
	"testing"
	"time"

	"github.com/Velocidex/ordereddict"
	"github.com/stretchr/testify/assert"
)

func TestRowOrder(t *testing.T) {
	event := NewEvent("info", "hello").
		Set("b", 2).
		Set("a", 1)

	row := event.Row()
	assert.Equal(t,
		[]string{"_ts", "level", "message", "b", "a"}, row.Keys())

	level, _ := row.GetString("level")
	assert.Equal(t, "info", level)
}

func TestFromRow(t *testing.T) {
	row := ordereddict.NewDict().
		Set("level", "error").
		Set("message", "boom").
		Set("timestamp", "2024-05-17T10:30:00Z").
		Set("source", "alpha").
		Set("payload", map[string]interface{}{"x": 1})

	event := FromRow(row)
	assert.Equal(t, "error", event.Level)
	assert.Equal(t, "boom", event.Message)
	assert.True(t, event.Timestamp.Equal(
		time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)))

	// Scalar columns double as routing context.
	source, pres := event.ContextValue("source")
	assert.True(t, pres)
	assert.Equal(t, "alpha", source)

	// Composite columns stay payload only.
	_, pres = event.ContextValue("payload")
	assert.False(t, pres)

	_, pres = event.Fields.Get("payload")
	assert.True(t, pres)

	// level and message map onto the event, not the payload.
	_, pres = event.Fields.Get("level")
	assert.False(t, pres)
}

func TestFromRowNumericTimestamp(t *testing.T) {
	event := FromRow(ordereddict.NewDict().Set("_ts", int64(1700000000)))
	assert.Equal(t, int64(1700000000), event.Timestamp.Unix())

	event = FromRow(ordereddict.NewDict().Set("_ts", float64(1700000000)))
	assert.Equal(t, int64(1700000000), event.Timestamp.Unix())
}
