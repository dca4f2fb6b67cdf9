// Package pebble implements a persistent db.Engine on top of the LSM store
// github.com/cockroachdb/pebble.
//
// Every namespace is a separate pebble instance in its own directory below the engine's
// data directory. The directory name is the path-escaped namespace name, so dataset
// names containing "/" map to a single directory. The file system is pluggable
// (vfs.Default on disk, vfs.NewMem() in tests).
//
// Batches are serialized by a per-namespace write mutex: preconditions are read first
// and the operations are committed as one pebble batch, which pebble applies atomically
// and, unless NoSync is set, durably. Plain Put and Delete take the same mutex so they
// cannot interleave with a precondition check. Reads never lock. Scans use a pebble
// iterator, which observes a consistent point-in-time view.
package pebble
