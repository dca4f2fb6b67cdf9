package lockmgr

import (
	"context"
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/ValentinKolb/dTriple/lib/db/engines/memory"
	"github.com/puzpuzpuz/xsync/v3"
)

type lockMgrImpl struct {
	kv      db.KVDB
	waiters *xsync.MapOf[string, chan struct{}]
}

// NewLockManager creates a lock manager that keeps its locks in kv.
// If kv is nil a private in-memory namespace is used.
func NewLockManager(kv db.KVDB) ILockManager {
	if kv == nil {
		kv = memory.NewMemoryDB()
	}
	return &lockMgrImpl{
		kv:      kv,
		waiters: xsync.NewMapOf[string, chan struct{}](),
	}
}

func (lm *lockMgrImpl) TryAcquireLock(key string) (bool, []byte, error) {
	// Generate owner id (256 bit random value)
	ownerID, err := generateOwnerID()
	if err != nil {
		return false, nil, err
	}

	// Try to acquire the lock (by setting the value only if it doesn't exist - atomic CAS operation)
	ok, err := db.CompareAndSwap(lm.kv, []byte(key), nil, ownerID)
	if err != nil || !ok {
		return false, nil, err
	}
	return true, ownerID, nil
}

func (lm *lockMgrImpl) AcquireLock(ctx context.Context, key string) ([]byte, error) {
	for {
		ok, ownerID, err := lm.TryAcquireLock(key)
		if err != nil {
			return nil, err
		}
		if ok {
			return ownerID, nil
		}

		// Register as waiter, then try again so a release between the first attempt
		// and the registration is not missed
		ch, _ := lm.waiters.LoadOrCompute(key, func() chan struct{} {
			return make(chan struct{})
		})
		ok, ownerID, err = lm.TryAcquireLock(key)
		if err != nil {
			return nil, err
		}
		if ok {
			return ownerID, nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (lm *lockMgrImpl) ReleaseLock(key string, ownerID []byte) (bool, error) {
	// Check if the lock exists
	_, ok, err := lm.kv.Get([]byte(key))
	if err != nil || !ok {
		return err == nil, err
	}

	// Release the lock only if it is owned by us
	b := db.NewBatch()
	b.Expect([]byte(key), ownerID)
	b.Delete([]byte(key))
	released, err := lm.kv.Apply(b)
	if err != nil || !released {
		return false, err
	}

	// Wake up all waiters, one of them will get the lock
	if ch, loaded := lm.waiters.LoadAndDelete(key); loaded {
		close(ch)
	}
	return true, nil
}
