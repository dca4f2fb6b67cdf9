package memory

import (
	"github.com/ValentinKolb/dTriple/lib/db"
	dbtesting "github.com/ValentinKolb/dTriple/lib/db/testing"
	"testing"
)

func newTestDB(tb testing.TB) db.KVDB {
	return NewMemoryDB()
}

func newTestEngine(tb testing.TB) db.Engine {
	e := NewEngine()
	tb.Cleanup(func() { e.Close() })
	return e
}

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MemoryDB", newTestDB)
	dbtesting.RunEngineTests(t, "MemoryEngine", newTestEngine)
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "MemoryDB", newTestDB)
}

func TestScanSeesSnapshot(t *testing.T) {
	kv := NewMemoryDB()
	for i := byte(1); i <= 3; i++ {
		if err := kv.Put([]byte{i}, nil); err != nil {
			t.Fatal(err)
		}
	}

	// keys inserted during the scan belong to a later view
	visited := 0
	err := kv.Scan(nil, nil, func(key, _ []byte) bool {
		visited++
		_ = kv.Put([]byte{key[0] + 10}, nil)
		return true
	})
	if err != nil {
		t.Fatal(err)
	}
	if visited != 3 {
		t.Errorf("expected scan to visit 3 keys, got %d", visited)
	}
}

func TestEngineClose(t *testing.T) {
	e := NewEngine()
	if _, err := e.Open([]byte("a"), true); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Open([]byte("a"), true); err != db.ErrClosed {
		t.Errorf("expected ErrClosed after Close, got %v", err)
	}
}
