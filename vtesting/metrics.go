package vtesting

import (
	"fmt"
	"math"
	"regexp"
	"testing"

	"github.com/Velocidex/ordereddict"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

// GetMetrics snapshots all registered metrics whose name matches the
// regex, flattened into name_labels -> value. Histograms contribute
// one entry per bucket plus a _count entry.
func GetMetrics(t *testing.T, name_regex string) *ordereddict.Dict {
	result := ordereddict.NewDict()
	re := regexp.MustCompile(name_regex)

	gathered, err := prometheus.DefaultGatherer.Gather()
	assert.NoError(t, err)

	for _, metric_family := range gathered {
		if !re.MatchString(metric_family.GetName()) {
			continue
		}
		flattenFamily(result, metric_family)
	}

	return result
}

func flattenFamily(result *ordereddict.Dict, metric_family *dto.MetricFamily) {
	for _, metric := range metric_family.Metric {
		name := metric_family.GetName()
		for _, label := range metric.Label {
			name += "_" + label.GetValue()
		}

		switch {
		case metric.Counter != nil:
			result.Set(name, int64(metric.Counter.GetValue()))

		case metric.Gauge != nil:
			result.Set(name, int64(metric.Gauge.GetValue()))

		case metric.Histogram != nil:
			for _, bucket := range metric.Histogram.Bucket {
				le := fmt.Sprintf("%v", bucket.GetUpperBound())
				if math.IsInf(bucket.GetUpperBound(), 1) {
					le = "inf"
				}
				result.Set(name+"_"+le,
					int64(bucket.GetCumulativeCount()))
			}
			result.Set(name+"_count",
				int64(metric.Histogram.GetSampleCount()))
		}
	}
}

// GetMetricsDifference subtracts an earlier snapshot from the
// current metrics so tests can assert on deltas no matter what
// already ran in the same process.
func GetMetricsDifference(
	t *testing.T, name_regex string,
	snapshot *ordereddict.Dict) *ordereddict.Dict {

	result := ordereddict.NewDict()
	current := GetMetrics(t, name_regex)

	for _, key := range current.Keys() {
		new_value, _ := current.GetInt64(key)
		old_value, _ := snapshot.GetInt64(key)
		result.Set(key, new_value-old_value)
	}

	return result
}
