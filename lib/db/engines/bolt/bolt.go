package bolt

import (
	"bytes"
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/ValentinKolb/dTriple/lib/db/util"
	"go.etcd.io/bbolt"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const scanPageSize = 256 // entries read per read-only transaction during a scan

// --------------------------------------------------------------------------
// Namespace
// --------------------------------------------------------------------------

// boltImpl is one namespace, stored as a bucket of the shared bolt file.
type boltImpl struct {
	bdb     *bbolt.DB
	bucket  []byte
	dropped atomic.Bool
}

func (b *boltImpl) view(fn func(bucket *bbolt.Bucket) error) error {
	if b.dropped.Load() {
		return db.ErrClosed
	}
	return b.bdb.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return db.ErrClosed
		}
		return fn(bucket)
	})
}

func (b *boltImpl) update(fn func(bucket *bbolt.Bucket) error) error {
	if b.dropped.Load() {
		return db.ErrClosed
	}
	return b.bdb.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return db.ErrClosed
		}
		return fn(bucket)
	})
}

// lookup finds an exact key with a cursor. Bucket.Get cannot tell an empty value from
// a missing key reliably, permutation keys have empty values.
func lookup(bucket *bbolt.Bucket, key []byte) ([]byte, bool) {
	k, v := bucket.Cursor().Seek(key)
	if k == nil || !bytes.Equal(k, key) {
		return nil, false
	}
	return v, true
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Put inserts or overwrites a single entry.
//
// Thread-safety: This method is safe for concurrent use
func (b *boltImpl) Put(key, value []byte) error {
	if len(key) == 0 {
		return db.ErrEmptyKey
	}
	return b.update(func(bucket *bbolt.Bucket) error {
		return bucket.Put(key, nonNil(value))
	})
}

// Delete removes a single entry.
//
// Thread-safety: This method is safe for concurrent use
func (b *boltImpl) Delete(key []byte) error {
	return b.update(func(bucket *bbolt.Bucket) error {
		return bucket.Delete(key)
	})
}

// Apply checks the preconditions and applies all operations in one read-write transaction.
//
// Thread-safety: This method is safe for concurrent use
func (b *boltImpl) Apply(batch *db.Batch) (bool, error) {
	if err := batch.Validate(); err != nil {
		return false, err
	}

	applied := false
	err := b.update(func(bucket *bbolt.Bucket) error {
		ok, err := batch.Check(func(key []byte) ([]byte, bool, error) {
			v, loaded := lookup(bucket, key)
			return v, loaded, nil
		})
		if err != nil || !ok {
			return err
		}

		for _, op := range batch.Operations() {
			switch op.Type {
			case db.OpSet:
				err = bucket.Put(op.Key, op.Value)
			case db.OpDelete:
				err = bucket.Delete(op.Key)
			}
			if err != nil {
				// returning the error rolls the transaction back
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// Get retrieves a copy of the value stored for key.
//
// Thread-safety: This method is safe for concurrent use
func (b *boltImpl) Get(key []byte) (value []byte, loaded bool, err error) {
	err = b.view(func(bucket *bbolt.Bucket) error {
		var v []byte
		if v, loaded = lookup(bucket, key); loaded {
			// bolt memory is only valid during the transaction
			value = append([]byte{}, v...)
		}
		return nil
	})
	return value, loaded, err
}

// Has checks whether a key exists.
//
// Thread-safety: This method is safe for concurrent use
func (b *boltImpl) Has(key []byte) (loaded bool, err error) {
	err = b.view(func(bucket *bbolt.Bucket) error {
		_, loaded = lookup(bucket, key)
		return nil
	})
	return loaded, err
}

// Scan iterates over [start, end) page by page.
//
// Thread-safety: This method is safe for concurrent use
func (b *boltImpl) Scan(start, end []byte, fn func(key, value []byte) bool) error {
	if start != nil && end != nil && bytes.Compare(start, end) >= 0 {
		return nil
	}

	type entry struct{ key, value []byte }
	page := make([]entry, 0, scanPageSize)
	from := start

	for {
		page = page[:0]
		err := b.view(func(bucket *bbolt.Bucket) error {
			c := bucket.Cursor()
			var k, v []byte
			if from == nil {
				k, v = c.First()
			} else {
				k, v = c.Seek(from)
			}
			for ; k != nil && len(page) < scanPageSize; k, v = c.Next() {
				if end != nil && bytes.Compare(k, end) >= 0 {
					break
				}
				page = append(page, entry{
					key:   append([]byte{}, k...),
					value: append([]byte{}, v...),
				})
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, e := range page {
			if !fn(e.key, e.value) {
				return nil
			}
		}
		if len(page) < scanPageSize {
			return nil
		}
		from = db.KeySuccessor(page[len(page)-1].key)
	}
}

// --------------------------------------------------------------------------
// Metadata
// --------------------------------------------------------------------------

// GetInfo returns key count, logical size and bucket statistics.
func (b *boltImpl) GetInfo() db.DatabaseInfo {
	stats := util.NewKeyFamilyStats()
	_ = b.Scan(nil, nil, stats.Add)
	stats.Finish()

	meta := map[string]interface{}{
		"file":  b.bdb.Path(),
		"stats": stats,
	}
	_ = b.view(func(bucket *bbolt.Bucket) error {
		bs := bucket.Stats()
		meta["depth"] = bs.Depth
		meta["leaf_pages"] = bs.LeafPageN
		meta["leaf_inuse_bytes"] = bs.LeafInuse
		return nil
	})

	return db.DatabaseInfo{
		SizeBytes:         stats.Bytes(),
		Keys:              stats.Entries(),
		DbType:            db.ImplBolt,
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
	db.FeatureDurable,
}

// SupportsFeature checks if the namespace supports all of the given features.
func (b *boltImpl) SupportsFeature(feature db.Feature) bool {
	var supported db.Feature
	for _, f := range supportedFeatures {
		supported |= f
	}
	return feature&supported == feature
}

// Close is a no-op, the engine owns the bolt file.
func (b *boltImpl) Close() error {
	return nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
