// Package db defines the ordered key-value substrate the triple store is built on.
//
// The package focuses on:
//   - A unified interface for ordered byte-key namespaces (KVDB)
//   - An engine abstraction that hands out one isolated namespace per dataset (Engine)
//   - Atomic conditional batches (Batch) used for every multi-key mutation
//   - Feature discovery through capability flags
//   - A portable snapshot format (Dump, Restore)
//
// Key Components:
//
//   - KVDB Interface: point operations (Get, Has, Put, Delete), ordered half-open range
//     scans (Scan, ScanPrefix) and the atomic batch primitive (Apply). Keys compare as
//     raw bytes, which is what makes the big-endian key layout of the statement index
//     answer prefix and range queries.
//
//   - Batch: a list of Set/Delete operations guarded by Expect/ExpectAbsent
//     preconditions. Either every precondition holds and all operations are applied, or
//     nothing is written. Counter allocation is expressed as a compare-and-swap on top of
//     this (CompareAndSwap).
//
//   - Engine Interface: opens, lists and drops namespaces. Implementations live in
//     the engines subpackages (memory, pebble, bolt).
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     advertise through SupportsFeature. The triple store requires FeatureCore.
//
//   - Database Information: DatabaseInfo reports key count, estimated size, the
//     implementation type and implementation-specific metadata.
//
// Concurrency: all KVDB and Engine methods must be safe for concurrent use. A single Scan
// is not required to observe a consistent snapshot unless FeatureSnapshotScan is
// advertised.
package db
