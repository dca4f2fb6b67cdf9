package lockmgr

import (
	"context"
)

// ILockManager defines the interface for a lock provider.
type ILockManager interface {
	// AcquireLock blocks until the lock for the given key is acquired or ctx is done.
	// Returns the owner ID needed to release the lock.
	AcquireLock(ctx context.Context, key string) (ownerID []byte, err error)

	// TryAcquireLock acquires the lock for the given key if it is free.
	// Return a boolean indicating whether the lock was acquired, an owner ID, and an error if any.
	TryAcquireLock(key string) (ok bool, ownerID []byte, err error)

	// ReleaseLock releases the lock for the given key.
	// Return a boolean indicating whether the lock was released, and an error if any.
	// The method will also return True if the lock did not exist.
	ReleaseLock(key string, ownerID []byte) (ok bool, err error)
}
