package vector

// NewVectorIndex creates an in-memory vector index ranking by the named metric.
// Supported metrics: "cosine" (default), "euclidean".
func NewVectorIndex(metric string, dimensions int) (VectorIndex, error) {
	m, err := ParseMetric(metric)
	if err != nil {
		return nil, err
	}
	idx, err := NewMemoryIndex(dimensions, m)
	if err != nil {
		return nil, err
	}
	return idx, nil
}
