// Package lstore implements the local, single-node triple store based on the
// store.IStore interface. Every dataset is a namespace of one db.Engine, so the
// durability of the store is the durability of the chosen engine (memory, pebble
// or bolt).
//
// Key Features:
//   - Dataset lifecycle: create, delete, list, prefix and range matching
//   - Query and write transactions handed to a callback
//   - One write transaction per dataset at a time, readers never wait
//   - Export and import of datasets as snapshots
//
// Implementation Details:
//
//   - Write Serialization: The store keeps a lockmgr.ILockManager with one lock per
//     dataset (key "dataset:<name>"). Write and DeleteDataset hold that lock, so a
//     dataset cannot disappear under an active write transaction. The time spent
//     waiting for the lock is recorded in metrics.WriteLockWait.
//
//   - Transaction Ending: The write transaction passed to Write is committed when the
//     callback returns nil and cancelled otherwise. Every statement operation is
//     already applied atomically when it returns, ending the transaction only
//     releases the lock.
//
//   - Namespace Mapping: The namespace of a dataset is the UTF-8 encoding of its name.
//     Namespaces that are not valid dataset names are ignored when listing.
//
// Usage Example:
//
//	s, err := lstore.NewLocalStore(func() (db.Engine, error) { return memory.NewEngine(), nil })
//	err = s.CreateDataset("test/test")
//	err = s.Write(ctx, "test/test", func(w *tx.WriteTx) error {
//		e, err := w.NewEntity()
//		if err != nil {
//			return err
//		}
//		_, err = w.AddStatement(model.Statement{Entity: e, Attribute: "name", Value: model.StringLiteral("Alex")})
//		return err
//	})
package lstore
