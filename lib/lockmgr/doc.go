// Package lockmgr implements named locks with owner verification on top of an
// ordered key-value namespace (db.KVDB). The triple store uses it to allow at most
// one active write transaction per dataset.
//
// Core Functionality:
//   - Lock acquisition with ownership verification
//   - Blocking acquisition with cancellation through a context
//   - Safe release operations that verify ownership
//
// Implementation Approach:
//
//	Locks are implemented by leveraging the atomic conditional batches of the
//	underlying namespace. Specifically:
//
//	- Lock Acquisition: Attempts to create the lock key with a compare-and-swap from
//	  "absent", which guarantees that only one requester can successfully create the
//	  key. The value is a randomly generated owner ID that identifies the lock holder.
//
//	- Waiting: A requester that lost the race registers a channel for the key in a
//	  concurrent map (xsync.MapOf) and retries once the channel is closed.
//
//	- Safe Release: ReleaseLock deletes the key in a batch that expects the stored
//	  value to equal the owner ID, so only the legitimate owner can release the lock.
//	  Releasing wakes all waiters of the key.
//
// Thread Safety:
//
//	All methods are safe for concurrent use.
//
// Locks only live as long as the namespace they are stored in. By default this is a
// private in-memory namespace, so locks never outlive the process.
//
// Usage Example:
//
//	lm := lockmgr.NewLockManager(nil)
//
//	ownerID, err := lm.AcquireLock(ctx, "dataset:test")
//	if err != nil {
//	    // Handle error
//	}
//	// Use the resource safely
//	// ...
//	released, err := lm.ReleaseLock("dataset:test", ownerID)
package lockmgr
