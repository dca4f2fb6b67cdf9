// This file implements a size histogram used by the engines to report the key and value
// size distribution of a namespace in DatabaseInfo without keeping every sample.
// Buckets grow exponentially (powers of four starting at 16 bytes).
package util

import (
	"math"
	"sync"
)

// ----------------------------------------------------------------------------
// SizeHistogram
// ----------------------------------------------------------------------------

var defaultBoundaries = []int{
	16, 64, 256, 1024, 4096, // Bytes: 16B to 4KB
	16384, 65536, 262144, 1048576, // KB range: 16KB to 1MB
	4194304, 16777216, 67108864, // MB range: 4MB to 64MB
}

// SizeHistogram tracks the distribution of entry sizes in exponential buckets.
type SizeHistogram struct {
	mutex      sync.RWMutex
	boundaries []int   // Upper bucket boundaries (inclusive)
	buckets    []int64 // Count of items in each bucket, the last bucket holds larger values
	count      int64   // Total number of samples
	sum        int64   // Sum of all sampled sizes
	min, max   int
}

// NewSizeHistogram creates a new size histogram with default bucket boundaries.
func NewSizeHistogram() *SizeHistogram {
	return &SizeHistogram{
		boundaries: defaultBoundaries,
		buckets:    make([]int64, len(defaultBoundaries)+1),
	}
}

// AddSample adds a size sample to the histogram
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) AddSample(size int) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	idx := len(h.boundaries)
	for i, boundary := range h.boundaries {
		if size <= boundary {
			idx = i
			break
		}
	}

	if h.count == 0 || size < h.min {
		h.min = size
	}
	if size > h.max {
		h.max = size
	}
	h.buckets[idx]++
	h.count++
	h.sum += int64(size)
}

// Count returns the total number of samples
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) Count() int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.count
}

// Sum returns the sum of all samples
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) Sum() int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.sum
}

// AverageSize returns the average size across all samples
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) AverageSize() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.count == 0 {
		return 0
	}
	return int(h.sum / h.count)
}

// PercentileEstimate returns an estimate for the given percentile (0-100).
// The estimate is the midpoint of the bucket containing the percentile.
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) PercentileEstimate(percentile int) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.count == 0 || percentile < 0 || percentile > 100 {
		return 0
	}

	target := int64(math.Ceil(float64(h.count) * float64(percentile) / 100.0))
	if target == 0 {
		target = 1
	}

	var cumulative int64
	for i, count := range h.buckets {
		cumulative += count
		if cumulative < target {
			continue
		}
		switch {
		case i == 0:
			return h.boundaries[0] / 2
		case i < len(h.boundaries):
			return (h.boundaries[i-1] + h.boundaries[i]) / 2
		default:
			return h.boundaries[len(h.boundaries)-1] * 2
		}
	}
	return int(h.sum / h.count)
}

// Reset clears all histogram data
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) Reset() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.count, h.sum, h.min, h.max = 0, 0, 0, 0
	for i := range h.buckets {
		h.buckets[i] = 0
	}
}

// SizeSummary is a JSON friendly snapshot of a histogram.
type SizeSummary struct {
	Count   int64 `json:"count"`
	Total   int64 `json:"total_bytes"`
	Min     int   `json:"min"`
	Max     int   `json:"max"`
	Average int   `json:"average"`
	P50     int   `json:"p50_estimate"`
	P99     int   `json:"p99_estimate"`
}

// Summary returns a snapshot of the histogram.
func (h *SizeHistogram) Summary() SizeSummary {
	h.mutex.RLock()
	s := SizeSummary{
		Count: h.count,
		Total: h.sum,
		Min:   h.min,
		Max:   h.max,
	}
	h.mutex.RUnlock()

	s.Average = h.AverageSize()
	s.P50 = h.PercentileEstimate(50)
	s.P99 = h.PercentileEstimate(99)
	return s
}

// ----------------------------------------------------------------------------
// Namespace statistics
// ----------------------------------------------------------------------------

// KeyFamilyStats counts entries and sizes per leading key byte of a namespace.
type KeyFamilyStats struct {
	Keys     SizeSummary    `json:"keys"`
	Values   SizeSummary    `json:"values"`
	Families map[byte]int64 `json:"families"`
	keys     *SizeHistogram
	values   *SizeHistogram
}

// NewKeyFamilyStats creates empty statistics.
func NewKeyFamilyStats() *KeyFamilyStats {
	return &KeyFamilyStats{
		Families: make(map[byte]int64),
		keys:     NewSizeHistogram(),
		values:   NewSizeHistogram(),
	}
}

// Add records one entry. It matches the signature of a db scan callback.
func (s *KeyFamilyStats) Add(key, value []byte) bool {
	s.keys.AddSample(len(key))
	s.values.AddSample(len(value))
	if len(key) > 0 {
		s.Families[key[0]]++
	}
	return true
}

// Finish fills the summary fields and returns the statistics.
func (s *KeyFamilyStats) Finish() *KeyFamilyStats {
	s.Keys = s.keys.Summary()
	s.Values = s.values.Summary()
	return s
}

// Entries returns the number of recorded entries.
func (s *KeyFamilyStats) Entries() int {
	return int(s.keys.Count())
}

// Bytes returns the total size of all recorded keys and values.
func (s *KeyFamilyStats) Bytes() int {
	return int(s.keys.Sum() + s.values.Sum())
}
