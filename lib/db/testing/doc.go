// Package testing provides standardised tests and benchmarks for
// implementations of the db.KVDB and db.Engine interfaces.
//
// The package contains:
//   - testing: conformance suites for the KVDB contract (ordering, half-open scans,
//     atomic conditional batches, snapshots) and the Engine namespace lifecycle
//   - benchmark: performance tests for the operation shapes the triple store issues
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func(tb testing.TB) db.KVDB {
//		engine := NewMyEngine()
//		tb.Cleanup(func() { engine.Close() })
//		kv, _ := engine.Open([]byte("test"), true)
//		return kv
//	}
//
//	// Running the standard test suite
//	dbtesting.RunKVDBTests(t, "MyEngine", factory)
//
//	// Running performance benchmarks
//	dbtesting.RunKVDBBenchmarks(b, "MyEngine", factory)
package testing
