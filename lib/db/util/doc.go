// Package util provides utility components for the engines implementing db.KVDB.
//
// The package contains:
//   - statistics: a SizeHistogram for tracking size distributions and KeyFamilyStats,
//     which summarizes a namespace per leading key byte for DatabaseInfo metadata
package util
