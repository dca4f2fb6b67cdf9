package lstore

import (
	"context"
	"github.com/ValentinKolb/dTriple/lib/codec"
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/ValentinKolb/dTriple/lib/index"
	"github.com/ValentinKolb/dTriple/lib/intern"
	"github.com/ValentinKolb/dTriple/lib/lockmgr"
	"github.com/ValentinKolb/dTriple/lib/metrics"
	"github.com/ValentinKolb/dTriple/lib/model"
	"github.com/ValentinKolb/dTriple/lib/store"
	"github.com/ValentinKolb/dTriple/lib/tx"
	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"strings"
	"time"
)

var log = logger.GetLogger("store")

type storeImpl struct {
	engine db.Engine
	locks  lockmgr.ILockManager
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
// Write transactions are serialized per dataset by an in-process lock manager.
func NewLocalStore(factory store.EngineFactory) (store.IStore, error) {
	engine, err := factory()
	if err != nil {
		return nil, errors.Wrap(err, "creating engine")
	}
	return &storeImpl{
		engine: engine,
		locks:  lockmgr.NewLockManager(nil),
	}, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// lockKey returns the lock manager key guarding the writes of a dataset.
func lockKey(d model.Dataset) string {
	return "dataset:" + string(d)
}

func parseName(name string) (model.Dataset, error) {
	d, err := model.NewDataset(name)
	if err != nil {
		return "", store.NewError(store.RetCInvalidOperation, err.Error())
	}
	return d, nil
}

// open returns the namespace of an existing dataset.
func (s *storeImpl) open(name string) (model.Dataset, db.KVDB, error) {
	d, err := parseName(name)
	if err != nil {
		return "", nil, err
	}
	kv, err := s.engine.Open(codec.EncodeDataset(d), false)
	if errors.Is(err, db.ErrNamespaceNotFound) {
		return "", nil, store.NewError(store.RetCDatasetNotFound, "dataset "+name+" not found")
	} else if err != nil {
		return "", nil, store.NewError(store.RetCInternalError, err.Error())
	}
	return d, kv, nil
}

// lock waits for the write lock of the dataset and returns its release function.
func (s *storeImpl) lock(ctx context.Context, d model.Dataset) (func(), error) {
	start := time.Now()
	ownerID, err := s.locks.AcquireLock(ctx, lockKey(d))
	metrics.WriteLockWait.UpdateDuration(start)
	if err != nil {
		return nil, errors.Wrapf(err, "acquiring write lock of %s", d)
	}
	return func() {
		if ok, err := s.locks.ReleaseLock(lockKey(d), ownerID); err != nil || !ok {
			log.Warningf("releasing write lock of %s failed (released=%v): %v", d, ok, err)
		}
	}, nil
}

// list returns all datasets accepted by keep in ascending order.
func (s *storeImpl) list(keep func(name string) bool) ([]string, error) {
	namespaces, err := s.engine.Namespaces()
	if err != nil {
		return nil, store.NewError(store.RetCInternalError, err.Error())
	}
	names := make([]string, 0, len(namespaces))
	for _, ns := range namespaces {
		d, err := codec.DecodeDataset(ns)
		if err != nil {
			// namespaces of other users of the engine
			continue
		}
		if keep(string(d)) {
			names = append(names, string(d))
		}
	}
	return names, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) CreateDataset(name string) error {
	d, err := parseName(name)
	if err != nil {
		return err
	}
	release, err := s.lock(context.Background(), d)
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.engine.Open(codec.EncodeDataset(d), false); err == nil {
		return store.NewError(store.RetCDatasetExists, "dataset "+name+" already exists")
	} else if !errors.Is(err, db.ErrNamespaceNotFound) {
		return store.NewError(store.RetCInternalError, err.Error())
	}

	kv, err := s.engine.Open(codec.EncodeDataset(d), true)
	if err != nil {
		return store.NewError(store.RetCInternalError, err.Error())
	}
	if err := intern.NewManager(kv).Init(); err != nil {
		return store.NewError(store.RetCInternalError, err.Error())
	}
	log.Infof("created dataset %s", d)
	return nil
}

func (s *storeImpl) DeleteDataset(ctx context.Context, name string) error {
	d, _, err := s.open(name)
	if err != nil {
		return err
	}
	release, err := s.lock(ctx, d)
	if err != nil {
		return err
	}
	defer release()

	if err := s.engine.Drop(codec.EncodeDataset(d)); errors.Is(err, db.ErrNamespaceNotFound) {
		return store.NewError(store.RetCDatasetNotFound, "dataset "+name+" not found")
	} else if err != nil {
		return store.NewError(store.RetCInternalError, err.Error())
	}
	log.Infof("deleted dataset %s", d)
	return nil
}

func (s *storeImpl) DatasetExists(name string) (bool, error) {
	_, _, err := s.open(name)
	if errors.Is(err, store.ErrDatasetNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *storeImpl) AllDatasets() ([]string, error) {
	return s.list(func(string) bool { return true })
}

func (s *storeImpl) MatchDatasetsPrefix(prefix string) ([]string, error) {
	return s.list(func(name string) bool { return strings.HasPrefix(name, prefix) })
}

func (s *storeImpl) MatchDatasetsRange(from, to string) ([]string, error) {
	return s.list(func(name string) bool { return from <= name && name < to })
}

func (s *storeImpl) Query(name string, fn func(q *tx.QueryTx) error) error {
	d, kv, err := s.open(name)
	if err != nil {
		return err
	}
	return fn(tx.NewQueryTx(string(d), kv))
}

func (s *storeImpl) Write(ctx context.Context, name string, fn func(w *tx.WriteTx) error) (err error) {
	d, err := parseName(name)
	if err != nil {
		return err
	}
	release, err := s.lock(ctx, d)
	if err != nil {
		return err
	}

	// the dataset may have been deleted while waiting for the lock
	kv, err := s.engine.Open(codec.EncodeDataset(d), false)
	if err != nil {
		release()
		if errors.Is(err, db.ErrNamespaceNotFound) {
			return store.NewError(store.RetCDatasetNotFound, "dataset "+name+" not found")
		}
		return store.NewError(store.RetCInternalError, err.Error())
	}

	w := tx.NewWriteTx(string(d), kv, release)
	defer func() {
		if !w.Done() {
			_ = w.Cancel()
		}
	}()

	if err := fn(w); err != nil {
		if !w.Done() {
			_ = w.Cancel()
		}
		return err
	}
	if !w.Done() {
		return w.Commit()
	}
	return nil
}

func (s *storeImpl) Export(name string, w io.Writer) error {
	_, kv, err := s.open(name)
	if err != nil {
		return err
	}
	return db.Dump(kv, w)
}

func (s *storeImpl) Import(ctx context.Context, name string, r io.Reader) error {
	d, err := parseName(name)
	if err != nil {
		return err
	}
	release, err := s.lock(ctx, d)
	if err != nil {
		return err
	}
	defer release()

	ns := codec.EncodeDataset(d)
	if _, err := s.engine.Open(ns, false); err == nil {
		return store.NewError(store.RetCDatasetExists, "dataset "+name+" already exists")
	} else if !errors.Is(err, db.ErrNamespaceNotFound) {
		return store.NewError(store.RetCInternalError, err.Error())
	}

	kv, err := s.engine.Open(ns, true)
	if err != nil {
		return store.NewError(store.RetCInternalError, err.Error())
	}
	err = db.Restore(kv, r)
	if err == nil {
		var ok bool
		if ok, err = kv.Has(index.EntityCounterKey()); err == nil && !ok {
			err = store.NewError(store.RetCInvalidOperation, "snapshot contains no entity counter")
		}
	}
	if err != nil {
		if dropErr := s.engine.Drop(ns); dropErr != nil {
			log.Errorf("dropping partially imported dataset %s: %v", d, dropErr)
		}
		return errors.Wrapf(err, "importing dataset %s", d)
	}
	log.Infof("imported dataset %s", d)
	return nil
}

func (s *storeImpl) GetDBInfo(name string) (db.DatabaseInfo, error) {
	_, kv, err := s.open(name)
	if err != nil {
		return db.DatabaseInfo{}, err
	}
	return kv.GetInfo(), nil
}

func (s *storeImpl) Close() error {
	return s.engine.Close()
}
