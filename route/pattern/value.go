package pattern

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"www.velocidex.com/golang/vroute/json"
)

// Context values of any type participate in keys and paths, so they
// need one canonical string form: two events carrying equal values
// must land on the same sink. Floats format without exponents and
// the special values spell out, so NaN keyed events collapse onto a
// single sink instead of scattering.
func FormatValue(value interface{}) string {
	switch t := value.(type) {
	case nil:
		return ""

	case string:
		return t

	case bool:
		if t {
			return "true"
		}
		return "false"

	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", t)

	case float32:
		return formatFloat(float64(t))

	case float64:
		return formatFloat(t)

	case time.Time:
		return t.UTC().Format(time.RFC3339)

	default:
		serialized, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(serialized)
	}
}

func formatFloat(value float64) string {
	if math.IsNaN(value) {
		return "NaN"
	}
	if math.IsInf(value, 1) {
		return "+Inf"
	}
	if math.IsInf(value, -1) {
		return "-Inf"
	}
	// Negative zero compares equal to zero, so both must format the
	// same or equal values would route to different sinks.
	if value == 0 {
		return "0"
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// Float imposes a total order on float64 context values: NaN
// compares greater than every other value and equal only to itself.
// Callers ordering events by a numeric context value use this to
// keep comparisons reflexive and transitive in the presence of NaN.
type Float float64

func (self Float) IsNaN() bool {
	return math.IsNaN(float64(self))
}

func (self Float) Equal(other Float) bool {
	if self.IsNaN() {
		return other.IsNaN()
	}
	return float64(self) == float64(other)
}

func (self Float) Less(other Float) bool {
	if self.IsNaN() {
		return false
	}
	if other.IsNaN() {
		return true
	}
	return float64(self) < float64(other)
}

func (self Float) Compare(other Float) int {
	if self.Equal(other) {
		return 0
	}
	if self.Less(other) {
		return -1
	}
	return 1
}
