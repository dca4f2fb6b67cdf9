package memory

import (
	"bytes"
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"slices"
	"sync/atomic"
)

var log = logger.GetLogger("db")

// Engine hands out in-memory namespaces.
type Engine struct {
	namespaces *xsync.MapOf[string, *memoryImpl]
	closed     atomic.Bool
}

// NewEngine creates an empty in-memory engine.
func NewEngine() *Engine {
	log.Infof("opened memory engine")
	return &Engine{
		namespaces: xsync.NewMapOf[string, *memoryImpl](),
	}
}

// Open returns the namespace, creating it if create is true.
//
// Thread-safety: This method is safe for concurrent use
func (e *Engine) Open(namespace []byte, create bool) (db.KVDB, error) {
	if e.closed.Load() {
		return nil, db.ErrClosed
	}

	var err error
	ns, _ := e.namespaces.Compute(string(namespace), func(old *memoryImpl, loaded bool) (*memoryImpl, bool) {
		if loaded {
			return old, false
		}
		if !create {
			err = db.ErrNamespaceNotFound
			return nil, true
		}
		return newMemoryImpl(), false
	})
	if err != nil {
		return nil, err
	}
	return ns, nil
}

// Drop deletes a namespace and all its data.
//
// Thread-safety: This method is safe for concurrent use
func (e *Engine) Drop(namespace []byte) error {
	if e.closed.Load() {
		return db.ErrClosed
	}
	ns, loaded := e.namespaces.LoadAndDelete(string(namespace))
	if !loaded {
		return db.ErrNamespaceNotFound
	}
	ns.drop()
	return nil
}

// Namespaces returns all namespace names in ascending order.
//
// Thread-safety: This method is safe for concurrent use
func (e *Engine) Namespaces() ([][]byte, error) {
	if e.closed.Load() {
		return nil, db.ErrClosed
	}
	names := make([][]byte, 0, e.namespaces.Size())
	e.namespaces.Range(func(name string, _ *memoryImpl) bool {
		names = append(names, []byte(name))
		return true
	})
	slices.SortFunc(names, bytes.Compare)
	return names, nil
}

// Implementation returns db.ImplMemory.
func (e *Engine) Implementation() db.Implementation {
	return db.ImplMemory
}

// Close drops all namespaces.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.namespaces.Range(func(name string, ns *memoryImpl) bool {
		ns.drop()
		e.namespaces.Delete(name)
		return true
	})
	log.Infof("closed memory engine")
	return nil
}
