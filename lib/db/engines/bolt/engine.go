package bolt

import (
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"go.etcd.io/bbolt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

var log = logger.GetLogger("db")

// FileName is the name of the database file inside the data directory.
const FileName = "dtriple.bolt"

// Options configures the bolt engine.
type Options struct {
	Dir     string        // Data directory holding FileName
	NoSync  bool          // Skip fsync after each commit
	Timeout time.Duration // How long to wait for the file lock, 0 waits forever
}

// Engine hands out bucket-backed namespaces of one bolt file.
type Engine struct {
	bdb     *bbolt.DB
	handles *xsync.MapOf[string, *boltImpl]
	closed  atomic.Bool
}

// NewEngine opens (or creates) the bolt file in opts.Dir.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Dir == "" {
		return nil, errors.New("bolt engine requires a data directory")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create data directory %s", opts.Dir)
	}

	path := filepath.Join(opts.Dir, FileName)
	bdb, err := bbolt.Open(path, 0o600, &bbolt.Options{
		Timeout: opts.Timeout,
		NoSync:  opts.NoSync,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bolt file %s", path)
	}

	log.Infof("opened bolt engine %s (sync=%v)", path, !opts.NoSync)
	return &Engine{
		bdb:     bdb,
		handles: xsync.NewMapOf[string, *boltImpl](),
	}, nil
}

// Open returns the namespace, creating its bucket if create is true.
//
// Thread-safety: This method is safe for concurrent use
func (e *Engine) Open(namespace []byte, create bool) (db.KVDB, error) {
	if e.closed.Load() {
		return nil, db.ErrClosed
	}
	if len(namespace) == 0 {
		return nil, errors.New("namespace name must not be empty")
	}

	name := string(namespace)
	if h, ok := e.handles.Load(name); ok {
		return h, nil
	}

	var err error
	if create {
		err = e.bdb.Update(func(tx *bbolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(namespace)
			return err
		})
	} else {
		err = e.bdb.View(func(tx *bbolt.Tx) error {
			if tx.Bucket(namespace) == nil {
				return db.ErrNamespaceNotFound
			}
			return nil
		})
	}
	if err != nil {
		return nil, err
	}

	h, _ := e.handles.LoadOrStore(name, &boltImpl{
		bdb:    e.bdb,
		bucket: append([]byte{}, namespace...),
	})
	return h, nil
}

// Drop deletes the namespace bucket.
//
// Thread-safety: This method is safe for concurrent use
func (e *Engine) Drop(namespace []byte) error {
	if e.closed.Load() {
		return db.ErrClosed
	}
	err := e.bdb.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket(namespace)
	})
	if errors.Is(err, bbolt.ErrBucketNotFound) {
		return db.ErrNamespaceNotFound
	}
	if err != nil {
		return err
	}
	if h, ok := e.handles.LoadAndDelete(string(namespace)); ok {
		h.dropped.Store(true)
	}
	return nil
}

// Namespaces returns all bucket names. bolt keeps buckets in byte order.
//
// Thread-safety: This method is safe for concurrent use
func (e *Engine) Namespaces() ([][]byte, error) {
	if e.closed.Load() {
		return nil, db.ErrClosed
	}
	var names [][]byte
	err := e.bdb.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			names = append(names, append([]byte{}, name...))
			return nil
		})
	})
	return names, err
}

// Implementation returns db.ImplBolt.
func (e *Engine) Implementation() db.Implementation {
	return db.ImplBolt
}

// Close closes the bolt file.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.handles.Range(func(name string, h *boltImpl) bool {
		h.dropped.Store(true)
		return true
	})
	log.Infof("closed bolt engine %s", e.bdb.Path())
	return e.bdb.Close()
}
