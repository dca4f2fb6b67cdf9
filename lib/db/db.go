package db

import (
	"github.com/cockroachdb/errors"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMemory Implementation = "memory"
	ImplPebble Implementation = "pebble"
	ImplBolt   Implementation = "bolt"
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureGet              Feature = 1 << iota // Support for Get and Has operations
	FeaturePut                                  // Support for Put operations
	FeatureDelete                               // Support for Delete operations
	FeatureScan                                 // Support for ordered range and prefix scans
	FeatureAtomicBatch                          // Batches are applied all-or-nothing
	FeatureConditionalBatch                     // Batches support Expect/ExpectAbsent preconditions
	FeatureSnapshotScan                         // A single scan observes one point-in-time view
	FeatureDurable                              // Data survives a process restart
)

func (f Feature) String() string {
	switch f {
	case FeatureGet:
		return "Get"
	case FeaturePut:
		return "Put"
	case FeatureDelete:
		return "Delete"
	case FeatureScan:
		return "Scan"
	case FeatureAtomicBatch:
		return "AtomicBatch"
	case FeatureConditionalBatch:
		return "ConditionalBatch"
	case FeatureSnapshotScan:
		return "SnapshotScan"
	case FeatureDurable:
		return "Durable"
	default:
		return "Unknown"
	}
}

// FeatureCore is the feature set the triple store requires from every namespace.
const FeatureCore = FeatureGet | FeaturePut | FeatureDelete | FeatureScan | FeatureAtomicBatch | FeatureConditionalBatch

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	Keys              int            `json:"keys"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrNamespaceNotFound is returned when opening or dropping a namespace that does not exist.
	ErrNamespaceNotFound = errors.New("namespace not found")
	// ErrClosed is returned by operations on a closed namespace or engine.
	ErrClosed = errors.New("database is closed")
	// ErrEmptyKey is returned when a batch contains an empty key.
	ErrEmptyKey = errors.New("empty key")
)

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB is one isolated, ordered byte-key namespace.
// Keys are compared lexicographically as raw bytes. Implementations must be safe for
// concurrent use.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Put inserts or overwrites a single entry.
	Put(key, value []byte) (err error)

	// Delete removes a single entry. Deleting a missing key is not an error.
	Delete(key []byte) (err error)

	// Apply checks all preconditions of the batch and, if they hold, applies all of its
	// operations atomically. If a precondition fails nothing is written and applied is false.
	// A crash must never leave a batch partially applied.
	Apply(batch *Batch) (applied bool, err error)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves the value for an exact key.
	// The boolean return value indicates whether a value for the key was found.
	// The returned value is a copy and safe to modify.
	Get(key []byte) (value []byte, loaded bool, err error)

	// Has checks whether a key exists.
	Has(key []byte) (loaded bool, err error)

	// Scan calls fn for every entry with start <= key < end in ascending key order
	// until fn returns false. A nil start means "from the first key", a nil end means
	// "to the last key". The key and value passed to fn are only valid during the call.
	Scan(start, end []byte, fn func(key, value []byte) bool) (err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the namespace.
	GetInfo() (info DatabaseInfo)

	// Close releases the namespace handle. Handles obtained from an Engine remain
	// valid until the namespace is dropped or the engine is closed, closing them is a no-op.
	Close() (err error)
}

// Engine provides isolated KVDB namespaces. Each dataset of the triple store lives in
// its own namespace, so dataset identity never appears in the key space.
type Engine interface {
	// Open returns the namespace with the given name. If create is false and the
	// namespace does not exist ErrNamespaceNotFound is returned.
	// Handles are cached by the engine; opening the same namespace twice returns a
	// handle to the same data.
	Open(namespace []byte, create bool) (KVDB, error)

	// Drop closes and deletes a namespace with all its data.
	Drop(namespace []byte) error

	// Namespaces returns the names of all namespaces in ascending byte order.
	Namespaces() ([][]byte, error)

	// Implementation returns the engine type.
	Implementation() Implementation

	// Close closes all namespace handles and the engine itself.
	Close() error
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// ScanPrefix calls fn for every entry whose key starts with prefix.
func ScanPrefix(kv KVDB, prefix []byte, fn func(key, value []byte) bool) error {
	return kv.Scan(prefix, PrefixEnd(prefix), fn)
}

// HasPrefix reports whether at least one key starts with prefix.
func HasPrefix(kv KVDB, prefix []byte) (bool, error) {
	found := false
	err := ScanPrefix(kv, prefix, func(_, _ []byte) bool {
		found = true
		return false
	})
	return found, err
}

// CompareAndSwap atomically replaces the value of key with newValue if its current
// value equals oldValue. A nil oldValue means the key must not exist.
func CompareAndSwap(kv KVDB, key, oldValue, newValue []byte) (bool, error) {
	b := NewBatch()
	if oldValue == nil {
		b.ExpectAbsent(key)
	} else {
		b.Expect(key, oldValue)
	}
	b.Set(key, newValue)
	return kv.Apply(b)
}

// PrefixEnd returns the smallest key that is greater than every key starting with
// prefix, or nil if no such key exists (prefix is empty or all 0xff).
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// KeySuccessor returns the smallest key greater than key (key + 0x00).
func KeySuccessor(key []byte) []byte {
	next := make([]byte, len(key)+1)
	copy(next, key)
	return next
}
