package pebble

import (
	"github.com/ValentinKolb/dTriple/lib/db"
	dbtesting "github.com/ValentinKolb/dTriple/lib/db/testing"
	"github.com/cockroachdb/pebble/vfs"
	"testing"
)

func newTestEngine(tb testing.TB) db.Engine {
	e, err := NewEngine(Options{Dir: "/data", FS: vfs.NewMem(), NoSync: true})
	if err != nil {
		tb.Fatalf("failed to create engine: %v", err)
	}
	tb.Cleanup(func() { e.Close() })
	return e
}

func newTestDB(tb testing.TB) db.KVDB {
	kv, err := newTestEngine(tb).Open([]byte("test"), true)
	if err != nil {
		tb.Fatalf("failed to open namespace: %v", err)
	}
	return kv
}

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "PebbleDB", newTestDB)
	dbtesting.RunEngineTests(t, "PebbleEngine", newTestEngine)
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "PebbleDB", newTestDB)
}

func TestReopenFromDisk(t *testing.T) {
	fs := vfs.NewMem()

	e, err := NewEngine(Options{Dir: "/data", FS: fs})
	if err != nil {
		t.Fatal(err)
	}
	kv, err := e.Open([]byte("test/test"), true)
	if err != nil {
		t.Fatal(err)
	}
	b := db.NewBatch()
	b.Set([]byte{0}, []byte{0, 0, 0, 0, 0, 0, 0, 3})
	b.Set([]byte{5, 1}, nil)
	if ok, err := kv.Apply(b); err != nil || !ok {
		t.Fatalf("Apply failed: %v %v", ok, err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	e, err = NewEngine(Options{Dir: "/data", FS: fs})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	names, err := e.Namespaces()
	if err != nil || len(names) != 1 || string(names[0]) != "test/test" {
		t.Fatalf("expected namespace test/test after reopen, got %q (%v)", names, err)
	}
	kv, err = e.Open([]byte("test/test"), false)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := kv.Has([]byte{5, 1}); !ok {
		t.Errorf("expected key to survive reopen")
	}
	if !kv.SupportsFeature(db.FeatureDurable) {
		t.Errorf("expected pebble namespaces to be durable")
	}
}

func TestNewEngineRequiresDir(t *testing.T) {
	if _, err := NewEngine(Options{FS: vfs.NewMem()}); err == nil {
		t.Errorf("expected error without data directory")
	}
}
