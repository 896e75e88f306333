package pattern

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	stamp := time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)

	for _, testcase := range []struct {
		value    interface{}
		expected string
	}{
		{nil, ""},
		{"text", "text"},
		{true, "true"},
		{false, "false"},
		{42, "42"},
		{int64(-7), "-7"},
		{uint8(255), "255"},
		{3.5, "3.5"},
		{float32(0.25), "0.25"},
		{0.1, "0.1"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "+Inf"},
		{math.Inf(-1), "-Inf"},

		// Negative zero equals zero so it must format the same.
		{math.Copysign(0, -1), "0"},

		{stamp, "2024-05-17T10:30:00Z"},
	} {
		assert.Equal(t, testcase.expected, FormatValue(testcase.value),
			"%v", testcase.value)
	}
}

func TestFloatTotalOrder(t *testing.T) {
	nan := Float(math.NaN())
	one := Float(1.0)
	inf := Float(math.Inf(1))

	// NaN equals itself and nothing else.
	assert.True(t, nan.Equal(nan))
	assert.False(t, nan.Equal(one))
	assert.False(t, one.Equal(nan))

	// NaN sorts above everything, including +Inf.
	assert.True(t, one.Less(nan))
	assert.True(t, inf.Less(nan))
	assert.False(t, nan.Less(one))
	assert.False(t, nan.Less(nan))

	assert.Equal(t, 0, nan.Compare(nan))
	assert.Equal(t, -1, one.Compare(nan))
	assert.Equal(t, 1, nan.Compare(one))
	assert.Equal(t, 0, Float(0).Compare(Float(math.Copysign(0, -1))))

	// Every NaN lands on the same routing key.
	assert.Equal(t, FormatValue(math.NaN()), FormatValue(math.Sqrt(-1)))
}
