package vector

import (
	"fmt"
	"math"
)

// Metric is the distance function an index ranks by.
type Metric string

const (
	// MetricCosine ranks by cosine similarity. Vectors are L2-normalized on the way in.
	MetricCosine Metric = "cosine"
	// MetricEuclidean ranks by Euclidean distance, reported as 1/(1+d).
	MetricEuclidean Metric = "euclidean"
)

// ParseMetric validates a metric name. Empty means cosine.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricCosine, "":
		return MetricCosine, nil
	case MetricEuclidean:
		return MetricEuclidean, nil
	default:
		return "", fmt.Errorf("unknown metric: %s (supported: cosine, euclidean)", s)
	}
}

// InnerProduct returns the inner product of two vectors (for normalized vectors equals cosine similarity).
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// EuclideanDistance returns the L2 distance between a and b, which must have equal length.
func EuclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// score returns the similarity of query and vec under m.
func (m Metric) score(query, vec []float32) float64 {
	if m == MetricEuclidean {
		return 1 / (1 + EuclideanDistance(query, vec))
	}
	return InnerProduct(query, vec)
}
