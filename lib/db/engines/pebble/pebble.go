package pebble

import (
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/ValentinKolb/dTriple/lib/db/util"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"sync"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Namespace
// --------------------------------------------------------------------------

// pebbleImpl is one namespace backed by its own pebble instance.
type pebbleImpl struct {
	name      string
	dir       string
	pdb       *pebble.DB
	writeOpts *pebble.WriteOptions
	writeMu   sync.Mutex
	closed    atomic.Bool
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Put inserts or overwrites a single entry.
//
// Thread-safety: This method is safe for concurrent use
func (p *pebbleImpl) Put(key, value []byte) error {
	if len(key) == 0 {
		return db.ErrEmptyKey
	}
	if p.closed.Load() {
		return db.ErrClosed
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.pdb.Set(key, value, p.writeOpts)
}

// Delete removes a single entry.
//
// Thread-safety: This method is safe for concurrent use
func (p *pebbleImpl) Delete(key []byte) error {
	if p.closed.Load() {
		return db.ErrClosed
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.pdb.Delete(key, p.writeOpts)
}

// Apply checks the preconditions and commits all operations as one pebble batch.
//
// Thread-safety: This method is safe for concurrent use
func (p *pebbleImpl) Apply(batch *db.Batch) (bool, error) {
	if err := batch.Validate(); err != nil {
		return false, err
	}
	if p.closed.Load() {
		return false, db.ErrClosed
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	ok, err := batch.Check(p.get)
	if err != nil || !ok {
		return false, err
	}

	pb := p.pdb.NewBatch()
	defer pb.Close()
	for _, op := range batch.Operations() {
		switch op.Type {
		case db.OpSet:
			err = pb.Set(op.Key, op.Value, nil)
		case db.OpDelete:
			err = pb.Delete(op.Key, nil)
		}
		if err != nil {
			return false, errors.Wrap(err, "failed to build pebble batch")
		}
	}
	if err := pb.Commit(p.writeOpts); err != nil {
		return false, errors.Wrap(err, "failed to commit pebble batch")
	}
	return true, nil
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// Get retrieves a copy of the value stored for key.
//
// Thread-safety: This method is safe for concurrent use
func (p *pebbleImpl) Get(key []byte) ([]byte, bool, error) {
	if p.closed.Load() {
		return nil, false, db.ErrClosed
	}
	return p.get(key)
}

func (p *pebbleImpl) get(key []byte) ([]byte, bool, error) {
	value, closer, err := p.pdb.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	// the returned slice is only valid until closer is closed
	return append([]byte{}, value...), true, nil
}

// Has checks whether a key exists.
//
// Thread-safety: This method is safe for concurrent use
func (p *pebbleImpl) Has(key []byte) (bool, error) {
	_, loaded, err := p.Get(key)
	return loaded, err
}

// Scan iterates over [start, end) with a bounded pebble iterator.
//
// Thread-safety: This method is safe for concurrent use
func (p *pebbleImpl) Scan(start, end []byte, fn func(key, value []byte) bool) (err error) {
	if p.closed.Load() {
		return db.ErrClosed
	}

	iter := p.pdb.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	defer func() {
		if cerr := iter.Close(); err == nil {
			err = cerr
		}
	}()

	for iter.First(); iter.Valid(); iter.Next() {
		if !fn(iter.Key(), iter.Value()) {
			break
		}
	}
	return iter.Error()
}

// --------------------------------------------------------------------------
// Metadata
// --------------------------------------------------------------------------

// GetInfo returns key count, logical size, disk usage and LSM metadata.
func (p *pebbleImpl) GetInfo() db.DatabaseInfo {
	stats := util.NewKeyFamilyStats()
	_ = p.Scan(nil, nil, stats.Add)
	stats.Finish()

	meta := map[string]interface{}{
		"namespace": p.name,
		"dir":       p.dir,
		"stats":     stats,
		"sync":      p.writeOpts.Sync,
	}
	if !p.closed.Load() {
		m := p.pdb.Metrics()
		meta["disk_space_usage"] = m.DiskSpaceUsage()
		meta["read_amp"] = m.ReadAmp()
	}

	return db.DatabaseInfo{
		SizeBytes:         stats.Bytes(),
		Keys:              stats.Entries(),
		DbType:            db.ImplPebble,
		SupportedFeatures: supportedFeatures,
		Metadata:          meta,
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
	db.FeatureDurable,
}

// SupportsFeature checks if the namespace supports all of the given features.
func (p *pebbleImpl) SupportsFeature(feature db.Feature) bool {
	var supported db.Feature
	for _, f := range supportedFeatures {
		supported |= f
	}
	return feature&supported == feature
}

// Close is a no-op, the engine owns the pebble instance.
func (p *pebbleImpl) Close() error {
	return nil
}

// shutdown closes the pebble instance. All later operations fail with db.ErrClosed.
func (p *pebbleImpl) shutdown() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.pdb.Close()
}
