package testing

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/cockroachdb/errors"
	"sync"
	"sync/atomic"
	"testing"
)

// DBFactory creates a new, empty namespace. Factories register their own cleanup on tb.
type DBFactory func(tb testing.TB) db.KVDB

// EngineFactory creates a new, empty engine. Factories register their own cleanup on tb.
type EngineFactory func(tb testing.TB) db.Engine

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, factory(t))
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory(t))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory(t))
		})

		t.Run("EmptyValue", func(t *testing.T) {
			testEmptyValue(t, factory(t))
		})

		t.Run("OrderedScan", func(t *testing.T) {
			testOrderedScan(t, factory(t))
		})

		t.Run("PrefixScan", func(t *testing.T) {
			testPrefixScan(t, factory(t))
		})

		t.Run("RangeScan", func(t *testing.T) {
			testRangeScan(t, factory(t))
		})

		t.Run("ScanEarlyStop", func(t *testing.T) {
			testScanEarlyStop(t, factory(t))
		})

		t.Run("ScanLarge", func(t *testing.T) {
			testScanLarge(t, factory(t))
		})

		t.Run("WriteDuringScan", func(t *testing.T) {
			testWriteDuringScan(t, factory(t))
		})

		t.Run("AtomicBatch", func(t *testing.T) {
			testAtomicBatch(t, factory(t))
		})

		t.Run("CompareAndSwap", func(t *testing.T) {
			testCompareAndSwap(t, factory(t))
		})

		t.Run("ConcurrentCounter", func(t *testing.T) {
			testConcurrentCounter(t, factory(t))
		})

		t.Run("DumpRestore", func(t *testing.T) {
			testDumpRestore(t, factory)
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory(t))
		})
	})
}

// RunEngineTests runs the namespace lifecycle tests for an Engine implementation.
func RunEngineTests(t *testing.T, name string, factory EngineFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("OpenMissing", func(t *testing.T) {
			testOpenMissing(t, factory(t))
		})

		t.Run("Isolation", func(t *testing.T) {
			testNamespaceIsolation(t, factory(t))
		})

		t.Run("SameHandleData", func(t *testing.T) {
			testSameHandleData(t, factory(t))
		})

		t.Run("Namespaces", func(t *testing.T) {
			testNamespacesSorted(t, factory(t))
		})

		t.Run("Drop", func(t *testing.T) {
			testDrop(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

func mustPut(t testing.TB, database db.KVDB, key, value []byte) {
	t.Helper()
	if err := database.Put(key, value); err != nil {
		t.Fatalf("Put(%q) failed: %v", key, err)
	}
}

func mustGet(t testing.TB, database db.KVDB, key []byte) ([]byte, bool) {
	t.Helper()
	value, loaded, err := database.Get(key)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", key, err)
	}
	return value, loaded
}

// collect returns all keys in [start, end)
func collect(t testing.TB, database db.KVDB, start, end []byte) []string {
	t.Helper()
	var keys []string
	if err := database.Scan(start, end, func(key, _ []byte) bool {
		keys = append(keys, string(key))
		return true
	}); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	return keys
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// --------------------------------------------------------------------------
// KVDB test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet)

	testKey := []byte("test-key")
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	mustPut(t, database, testKey, testValue1)

	result, exists := mustGet(t, database, testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Put", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	mustPut(t, database, testKey, testValue2)

	result, exists = mustGet(t, database, testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Put", testKey)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	if _, exists = mustGet(t, database, []byte("nonexistent-key")); exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	// the returned value must be a copy
	retrievedValue, _ := mustGet(t, database, testKey)
	retrievedValue[0] = 'X'
	result, _ = mustGet(t, database, testKey)
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Modifying a returned value changed the stored value: %s", result)
	}

	// the stored value must not alias the input
	input := []byte("aliased")
	mustPut(t, database, []byte("alias"), input)
	input[0] = 'X'
	result, _ = mustGet(t, database, []byte("alias"))
	if string(result) != "aliased" {
		t.Errorf("Stored value aliases the input slice: %s", result)
	}
}

func testHas(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet)

	key := []byte("has-key")
	if ok, err := database.Has(key); err != nil || ok {
		t.Errorf("Expected Has=false for missing key, got %v (%v)", ok, err)
	}
	mustPut(t, database, key, []byte("v"))
	if ok, err := database.Has(key); err != nil || !ok {
		t.Errorf("Expected Has=true after Put, got %v (%v)", ok, err)
	}
	if ok, _ := database.Has([]byte("has-ke")); ok {
		t.Errorf("Expected Has=false for a prefix of an existing key")
	}
	if ok, _ := database.Has([]byte("has-key2")); ok {
		t.Errorf("Expected Has=false for an extension of an existing key")
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureDelete)

	key := []byte("delete-key")
	mustPut(t, database, key, []byte("v"))
	if err := database.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, exists := mustGet(t, database, key); exists {
		t.Errorf("Expected key to be gone after Delete")
	}

	// deleting a missing key is fine
	if err := database.Delete([]byte("never-set")); err != nil {
		t.Errorf("Delete of a missing key returned %v", err)
	}
}

func testEmptyValue(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet|db.FeatureAtomicBatch)

	mustPut(t, database, []byte("empty-put"), nil)
	b := db.NewBatch()
	b.Set([]byte("empty-batch"), []byte{})
	if _, err := database.Apply(b); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for _, key := range []string{"empty-put", "empty-batch"} {
		value, exists := mustGet(t, database, []byte(key))
		if !exists {
			t.Errorf("Expected key %s with empty value to exist", key)
		}
		if len(value) != 0 {
			t.Errorf("Expected empty value for %s, got %q", key, value)
		}
		if ok, _ := database.Has([]byte(key)); !ok {
			t.Errorf("Expected Has=true for %s", key)
		}
	}

	if keys := collect(t, database, nil, nil); len(keys) != 2 {
		t.Errorf("Expected 2 keys with empty values in scan, got %v", keys)
	}
}

func testOrderedScan(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureScan)

	// insert out of order, including big-endian numbers and high bytes
	inputs := [][]byte{
		{5, 0xff},
		{0},
		{5, 0x00, 0x01},
		{1},
		{5, 0x00},
		{0xff, 0xff},
		u64(256),
		u64(1),
	}
	for _, k := range inputs {
		mustPut(t, database, k, k)
	}

	var prev []byte
	count := 0
	err := database.Scan(nil, nil, func(key, value []byte) bool {
		if prev != nil && bytes.Compare(prev, key) >= 0 {
			t.Errorf("Scan out of order: %v after %v", key, prev)
		}
		if !bytes.Equal(key, value) {
			t.Errorf("Scan returned value %v for key %v", value, key)
		}
		prev = append([]byte{}, key...)
		count++
		return true
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if count != len(inputs) {
		t.Errorf("Expected %d entries, got %d", len(inputs), count)
	}
}

func testPrefixScan(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureScan)

	for _, k := range []string{"a", "ab", "abc", "abd", "ac", "b", "ab\xff", "ab\xff\xff"} {
		mustPut(t, database, []byte(k), nil)
	}

	var got []string
	err := db.ScanPrefix(database, []byte("ab"), func(key, _ []byte) bool {
		got = append(got, string(key))
		return true
	})
	if err != nil {
		t.Fatalf("ScanPrefix failed: %v", err)
	}
	want := []string{"ab", "abc", "abd", "ab\xff", "ab\xff\xff"}
	if !equalKeys(got, want) {
		t.Errorf("ScanPrefix(ab) = %q, want %q", got, want)
	}

	found, err := db.HasPrefix(database, []byte("ac"))
	if err != nil || !found {
		t.Errorf("Expected HasPrefix(ac) = true, got %v (%v)", found, err)
	}
	found, _ = db.HasPrefix(database, []byte("c"))
	if found {
		t.Errorf("Expected HasPrefix(c) = false")
	}
}

func testRangeScan(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureScan)

	for i := uint64(0); i < 10; i++ {
		mustPut(t, database, u64(i), nil)
	}

	tests := []struct {
		name       string
		start, end []byte
		want       int
	}{
		{"half-open", u64(2), u64(5), 3},
		{"unbounded start", nil, u64(3), 3},
		{"unbounded end", u64(7), nil, 3},
		{"empty range", u64(4), u64(4), 0},
		{"inverted range", u64(6), u64(2), 0},
		{"between keys", []byte{0, 0, 0, 0, 0, 0, 0, 2, 0}, u64(4), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := collect(t, database, tt.start, tt.end); len(got) != tt.want {
				t.Errorf("Scan(%v, %v) returned %d keys, want %d", tt.start, tt.end, len(got), tt.want)
			}
		})
	}
}

func testScanEarlyStop(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureScan)

	for i := uint64(0); i < 100; i++ {
		mustPut(t, database, u64(i), nil)
	}

	calls := 0
	if err := database.Scan(nil, nil, func(_, _ []byte) bool {
		calls++
		return calls < 5
	}); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if calls != 5 {
		t.Errorf("Expected scan to stop after 5 calls, got %d", calls)
	}
}

func testScanLarge(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureAtomicBatch|db.FeatureScan)

	const n = 2000
	b := db.NewBatch()
	for i := uint64(0); i < n; i++ {
		b.Set(u64(i), u64(i*2))
	}
	if ok, err := database.Apply(b); err != nil || !ok {
		t.Fatalf("Apply failed: %v %v", ok, err)
	}

	next := uint64(0)
	if err := database.Scan(nil, nil, func(key, value []byte) bool {
		if !bytes.Equal(key, u64(next)) || !bytes.Equal(value, u64(next*2)) {
			t.Errorf("Unexpected entry %v=%v at position %d", key, value, next)
			return false
		}
		next++
		return true
	}); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if next != n {
		t.Errorf("Expected %d entries, got %d", n, next)
	}
}

func testWriteDuringScan(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureDelete|db.FeatureScan)

	for i := uint64(0); i < 10; i++ {
		mustPut(t, database, append([]byte{1}, u64(i)...), nil)
	}

	// removing every visited entry must neither deadlock nor fail
	visited := 0
	err := db.ScanPrefix(database, []byte{1}, func(key, _ []byte) bool {
		visited++
		if err := database.Delete(key); err != nil {
			t.Errorf("Delete during scan failed: %v", err)
			return false
		}
		if err := database.Put(append([]byte{2}, key...), nil); err != nil {
			t.Errorf("Put during scan failed: %v", err)
			return false
		}
		return true
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if visited != 10 {
		t.Errorf("Expected 10 visited entries, got %d", visited)
	}
	if keys := collect(t, database, []byte{1}, []byte{2}); len(keys) != 0 {
		t.Errorf("Expected all prefix 1 keys to be deleted, got %d", len(keys))
	}
}

func testAtomicBatch(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureAtomicBatch|db.FeatureConditionalBatch)

	mustPut(t, database, []byte("existing"), []byte("1"))

	// failing precondition: nothing is applied
	b := db.NewBatch()
	b.ExpectAbsent([]byte("existing"))
	b.Set([]byte("new-1"), []byte("x"))
	b.Set([]byte("new-2"), []byte("y"))
	b.Delete([]byte("existing"))
	applied, err := database.Apply(b)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if applied {
		t.Errorf("Expected batch with failing precondition not to be applied")
	}
	if keys := collect(t, database, nil, nil); !equalKeys(keys, []string{"existing"}) {
		t.Errorf("Failed batch changed the database: %q", keys)
	}

	// holding preconditions: everything is applied in order
	b = db.NewBatch()
	b.Expect([]byte("existing"), []byte("1"))
	b.ExpectAbsent([]byte("new-1"))
	b.Set([]byte("new-1"), []byte("x"))
	b.Set([]byte("new-2"), []byte("y"))
	b.Delete([]byte("new-2"))
	b.Delete([]byte("existing"))
	applied, err = database.Apply(b)
	if err != nil || !applied {
		t.Fatalf("Expected batch to be applied, got %v (%v)", applied, err)
	}
	if keys := collect(t, database, nil, nil); !equalKeys(keys, []string{"new-1"}) {
		t.Errorf("Unexpected database content after batch: %q", keys)
	}

	// empty keys are rejected
	b = db.NewBatch()
	b.Set(nil, []byte("x"))
	if _, err := database.Apply(b); err == nil {
		t.Errorf("Expected error for empty key in batch")
	}
}

func testCompareAndSwap(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureConditionalBatch)

	key := []byte("cas")
	ok, err := db.CompareAndSwap(database, key, nil, u64(1))
	if err != nil || !ok {
		t.Fatalf("Expected CAS from absent to succeed, got %v (%v)", ok, err)
	}
	ok, _ = db.CompareAndSwap(database, key, nil, u64(2))
	if ok {
		t.Errorf("Expected CAS from absent to fail for an existing key")
	}
	ok, _ = db.CompareAndSwap(database, key, u64(7), u64(2))
	if ok {
		t.Errorf("Expected CAS with wrong old value to fail")
	}
	ok, _ = db.CompareAndSwap(database, key, u64(1), u64(2))
	if !ok {
		t.Errorf("Expected CAS with correct old value to succeed")
	}
	if value, _ := mustGet(t, database, key); !bytes.Equal(value, u64(2)) {
		t.Errorf("Expected value 2 after CAS, got %v", value)
	}
}

func testConcurrentCounter(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureConditionalBatch|db.FeatureGet)

	const (
		workers   = 8
		perWorker = 50
	)
	key := []byte{0}
	var seen sync.Map
	var duplicates atomic.Int64

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				for {
					old, loaded, err := database.Get(key)
					if err != nil {
						t.Errorf("Get failed: %v", err)
						return
					}
					var cur uint64
					if loaded {
						cur = binary.BigEndian.Uint64(old)
					}
					ok, err := db.CompareAndSwap(database, key, old, u64(cur+1))
					if err != nil {
						t.Errorf("CAS failed: %v", err)
						return
					}
					if ok {
						if _, dup := seen.LoadOrStore(cur+1, true); dup {
							duplicates.Add(1)
						}
						break
					}
				}
			}
		}()
	}
	wg.Wait()

	if duplicates.Load() != 0 {
		t.Errorf("Counter handed out %d duplicate values", duplicates.Load())
	}
	value, _ := mustGet(t, database, key)
	if got := binary.BigEndian.Uint64(value); got != workers*perWorker {
		t.Errorf("Expected counter %d, got %d", workers*perWorker, got)
	}
}

func testDumpRestore(t *testing.T, factory DBFactory) {
	source := factory(t)
	defer source.Close()

	requireFeature(t, source, db.FeaturePut|db.FeatureScan|db.FeatureAtomicBatch)

	for i := uint64(0); i < 5000; i++ {
		value := []byte(fmt.Sprintf("value-%d", i))
		if i%3 == 0 {
			value = nil
		}
		mustPut(t, source, append([]byte{byte(i % 7)}, u64(i)...), value)
	}

	var buf bytes.Buffer
	if err := db.Dump(source, &buf); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	target := factory(t)
	defer target.Close()
	if err := db.Restore(target, &buf); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	var sourceEntries, targetEntries []string
	_ = source.Scan(nil, nil, func(k, v []byte) bool {
		sourceEntries = append(sourceEntries, string(k)+"="+string(v))
		return true
	})
	_ = target.Scan(nil, nil, func(k, v []byte) bool {
		targetEntries = append(targetEntries, string(k)+"="+string(v))
		return true
	})
	if !equalKeys(sourceEntries, targetEntries) {
		t.Errorf("Restored namespace differs: %d vs %d entries", len(sourceEntries), len(targetEntries))
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeaturePut|db.FeatureGet)

	if err := database.Put(nil, []byte("x")); err == nil {
		t.Errorf("Expected error for empty key")
	}

	// binary keys with zero bytes
	key := []byte{0, 0, 0}
	mustPut(t, database, key, []byte{0})
	if value, ok := mustGet(t, database, key); !ok || !bytes.Equal(value, []byte{0}) {
		t.Errorf("Binary key round trip failed: %v %v", value, ok)
	}
	if _, ok := mustGet(t, database, []byte{0, 0}); ok {
		t.Errorf("Expected shorter zero key to be missing")
	}

	// large value
	large := bytes.Repeat([]byte("x"), 1<<20)
	mustPut(t, database, []byte("large"), large)
	if value, _ := mustGet(t, database, []byte("large")); !bytes.Equal(value, large) {
		t.Errorf("Large value round trip failed (len %d)", len(value))
	}

	if info := database.GetInfo(); info.Keys != 2 {
		t.Errorf("Expected GetInfo to report 2 keys, got %d", info.Keys)
	}
	if !database.SupportsFeature(db.FeatureCore) {
		t.Errorf("Expected implementation to support the core feature set")
	}
}

// --------------------------------------------------------------------------
// Engine test functions
// --------------------------------------------------------------------------

func testOpenMissing(t *testing.T, engine db.Engine) {
	if _, err := engine.Open([]byte("missing"), false); !errors.Is(err, db.ErrNamespaceNotFound) {
		t.Errorf("Expected ErrNamespaceNotFound, got %v", err)
	}
	if err := engine.Drop([]byte("missing")); !errors.Is(err, db.ErrNamespaceNotFound) {
		t.Errorf("Expected ErrNamespaceNotFound on Drop, got %v", err)
	}
	names, err := engine.Namespaces()
	if err != nil || len(names) != 0 {
		t.Errorf("Expected no namespaces, got %q (%v)", names, err)
	}
}

func testNamespaceIsolation(t *testing.T, engine db.Engine) {
	a, err := engine.Open([]byte("test/a"), true)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	b, err := engine.Open([]byte("test/b"), true)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	mustPut(t, a, []byte{0}, u64(1))
	mustPut(t, b, []byte{0}, u64(2))
	mustPut(t, a, []byte{5, 1}, nil)

	if value, _ := mustGet(t, a, []byte{0}); !bytes.Equal(value, u64(1)) {
		t.Errorf("Namespace a sees value %v", value)
	}
	if value, _ := mustGet(t, b, []byte{0}); !bytes.Equal(value, u64(2)) {
		t.Errorf("Namespace b sees value %v", value)
	}
	if keys := collect(t, b, nil, nil); len(keys) != 1 {
		t.Errorf("Namespace b sees %d keys, expected 1", len(keys))
	}
}

func testSameHandleData(t *testing.T, engine db.Engine) {
	first, err := engine.Open([]byte("shared"), true)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	mustPut(t, first, []byte("k"), []byte("v"))
	_ = first.Close()

	second, err := engine.Open([]byte("shared"), false)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if value, ok := mustGet(t, second, []byte("k")); !ok || string(value) != "v" {
		t.Errorf("Expected reopened namespace to contain k=v, got %q %v", value, ok)
	}
}

func testNamespacesSorted(t *testing.T, engine db.Engine) {
	for _, name := range []string{"zeta", "alpha", "test/test", "test", "beta/x"} {
		if _, err := engine.Open([]byte(name), true); err != nil {
			t.Fatalf("Open(%s) failed: %v", name, err)
		}
	}
	names, err := engine.Namespaces()
	if err != nil {
		t.Fatalf("Namespaces failed: %v", err)
	}
	var got []string
	for _, n := range names {
		got = append(got, string(n))
	}
	want := []string{"alpha", "beta/x", "test", "test/test", "zeta"}
	if !equalKeys(got, want) {
		t.Errorf("Namespaces() = %q, want %q", got, want)
	}
}

func testDrop(t *testing.T, engine db.Engine) {
	ns, err := engine.Open([]byte("dropme"), true)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	mustPut(t, ns, []byte("k"), []byte("v"))

	if err := engine.Drop([]byte("dropme")); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if _, err := engine.Open([]byte("dropme"), false); !errors.Is(err, db.ErrNamespaceNotFound) {
		t.Errorf("Expected ErrNamespaceNotFound after Drop, got %v", err)
	}
	if _, _, err := ns.Get([]byte("k")); err == nil {
		t.Errorf("Expected stale handle to fail after Drop")
	}

	// re-creating yields an empty namespace
	ns, err = engine.Open([]byte("dropme"), true)
	if err != nil {
		t.Fatalf("Re-create failed: %v", err)
	}
	if _, ok := mustGet(t, ns, []byte("k")); ok {
		t.Errorf("Expected re-created namespace to be empty")
	}
}
