// Package memory implements an in-memory db.Engine on top of an ordered B-tree
// (github.com/google/btree).
//
// Each namespace is one B-tree of key/value items ordered by raw key bytes. Writes and
// the precondition checks of a batch run under the namespace mutex, which makes every
// batch atomic. Scans iterate over a copy-on-write clone of the tree, so a scan observes
// one consistent view and the scan callback may write to the same namespace.
//
// Nothing is persisted. Use Dump/Restore from package db to move data in and out.
package memory
