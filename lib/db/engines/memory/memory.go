package memory

import (
	"bytes"
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/ValentinKolb/dTriple/lib/db/util"
	"github.com/google/btree"
	"sync"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const defaultDegree = 32 // B-tree degree, matches the btree package recommendation

// --------------------------------------------------------------------------
// Namespace
// --------------------------------------------------------------------------

type item struct {
	key   []byte
	value []byte
}

func itemLess(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// memoryImpl is one in-memory namespace.
type memoryImpl struct {
	mutex   sync.RWMutex
	tree    *btree.BTreeG[item]
	dropped atomic.Bool
}

// NewMemoryDB creates a standalone in-memory namespace.
//
// Thread-safety: the returned KVDB is safe for concurrent use.
func NewMemoryDB() db.KVDB {
	return newMemoryImpl()
}

func newMemoryImpl() *memoryImpl {
	return &memoryImpl{
		tree: btree.NewG[item](defaultDegree, itemLess),
	}
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Put inserts or overwrites a single entry.
//
// Thread-safety: This method is safe for concurrent use
func (m *memoryImpl) Put(key, value []byte) error {
	if len(key) == 0 {
		return db.ErrEmptyKey
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.dropped.Load() {
		return db.ErrClosed
	}

	m.tree.ReplaceOrInsert(item{key: clone(key), value: clone(value)})
	return nil
}

// Delete removes a single entry.
//
// Thread-safety: This method is safe for concurrent use
func (m *memoryImpl) Delete(key []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.dropped.Load() {
		return db.ErrClosed
	}

	m.tree.Delete(item{key: key})
	return nil
}

// Apply checks the preconditions and applies all operations under the namespace lock.
//
// Thread-safety: This method is safe for concurrent use
func (m *memoryImpl) Apply(batch *db.Batch) (bool, error) {
	if err := batch.Validate(); err != nil {
		return false, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.dropped.Load() {
		return false, db.ErrClosed
	}

	ok, err := batch.Check(m.getLocked)
	if err != nil || !ok {
		return false, err
	}

	// batch keys and values are already private copies
	for _, op := range batch.Operations() {
		switch op.Type {
		case db.OpSet:
			m.tree.ReplaceOrInsert(item{key: op.Key, value: op.Value})
		case db.OpDelete:
			m.tree.Delete(item{key: op.Key})
		}
	}
	return true, nil
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// Get retrieves a copy of the value stored for key.
//
// Thread-safety: This method is safe for concurrent use
func (m *memoryImpl) Get(key []byte) ([]byte, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.dropped.Load() {
		return nil, false, db.ErrClosed
	}

	value, loaded, _ := m.getLocked(key)
	if !loaded {
		return nil, false, nil
	}
	return clone(value), true, nil
}

func (m *memoryImpl) getLocked(key []byte) ([]byte, bool, error) {
	it, loaded := m.tree.Get(item{key: key})
	if !loaded {
		return nil, false, nil
	}
	return it.value, true, nil
}

// Has checks whether a key exists.
//
// Thread-safety: This method is safe for concurrent use
func (m *memoryImpl) Has(key []byte) (bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.dropped.Load() {
		return false, db.ErrClosed
	}
	return m.tree.Has(item{key: key}), nil
}

// Scan iterates over [start, end) on a clone of the tree. Stored items are never
// modified in place, so they can be handed to fn without copying.
//
// Thread-safety: This method is safe for concurrent use
func (m *memoryImpl) Scan(start, end []byte, fn func(key, value []byte) bool) error {
	snapshot, err := m.snapshot()
	if err != nil {
		return err
	}

	iter := func(it item) bool {
		return fn(it.key, it.value)
	}

	switch {
	case start == nil && end == nil:
		snapshot.Ascend(iter)
	case start == nil:
		snapshot.AscendLessThan(item{key: end}, iter)
	case end == nil:
		snapshot.AscendGreaterOrEqual(item{key: start}, iter)
	default:
		if bytes.Compare(start, end) >= 0 {
			return nil
		}
		snapshot.AscendRange(item{key: start}, item{key: end}, iter)
	}
	return nil
}

// snapshot returns a lazy copy-on-write clone of the tree.
// Clone modifies the tree's internal copy-on-write context and needs the write lock.
func (m *memoryImpl) snapshot() (*btree.BTreeG[item], error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.dropped.Load() {
		return nil, db.ErrClosed
	}
	return m.tree.Clone(), nil
}

// --------------------------------------------------------------------------
// Metadata
// --------------------------------------------------------------------------

// GetInfo returns key count, total size and the key family distribution.
func (m *memoryImpl) GetInfo() db.DatabaseInfo {
	stats := util.NewKeyFamilyStats()
	_ = m.Scan(nil, nil, stats.Add)
	stats.Finish()

	return db.DatabaseInfo{
		SizeBytes:         stats.Bytes(),
		Keys:              stats.Entries(),
		DbType:            db.ImplMemory,
		SupportedFeatures: supportedFeatures,
		Metadata: map[string]interface{}{
			"btree_degree": defaultDegree,
			"stats":        stats,
		},
	}
}

var supportedFeatures = []db.Feature{
	db.FeatureGet,
	db.FeaturePut,
	db.FeatureDelete,
	db.FeatureScan,
	db.FeatureAtomicBatch,
	db.FeatureConditionalBatch,
	db.FeatureSnapshotScan,
}

// SupportsFeature checks if the namespace supports all of the given features.
func (m *memoryImpl) SupportsFeature(feature db.Feature) bool {
	var supported db.Feature
	for _, f := range supportedFeatures {
		supported |= f
	}
	return feature&supported == feature
}

// Close is a no-op, the data lives until the namespace is dropped.
func (m *memoryImpl) Close() error {
	return nil
}

// drop releases the tree. All later operations fail with db.ErrClosed.
func (m *memoryImpl) drop() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.dropped.Store(true)
	m.tree.Clear(false)
}

func clone(b []byte) []byte {
	return append([]byte{}, b...)
}
