// Package bolt implements a persistent db.Engine on top of the B+tree store
// go.etcd.io/bbolt.
//
// All namespaces share one database file; each namespace is a top-level bucket named
// after it. Batches run inside a single read-write bolt transaction, which bolt
// serializes and commits atomically. Scans read pages of entries in short read-only
// transactions and call the scan callback outside of any transaction, so the callback
// may write to the database. A scan therefore does not observe a single snapshot.
package bolt
