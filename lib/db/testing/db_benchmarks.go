package testing

import (
	"bytes"
	"encoding/binary"
	"github.com/ValentinKolb/dTriple/lib/db"
	"math/rand"
	"sync/atomic"
	"testing"
)

// RunKVDBBenchmarks runs all benchmarks for a KVDB implementation
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Put", func(b *testing.B) {
			benchmarkPut(b, factory(b))
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory(b))
		})

		b.Run("Has(not)", func(b *testing.B) {
			benchmarkHasNot(b, factory(b))
		})

		b.Run("ApplySevenKeys", func(b *testing.B) {
			benchmarkApplySevenKeys(b, factory(b))
		})

		b.Run("CompareAndSwap", func(b *testing.B) {
			benchmarkCompareAndSwap(b, factory(b))
		})

		b.Run("ScanPrefix", func(b *testing.B) {
			benchmarkScanPrefix(b, factory(b))
		})

		b.Run("DumpRestore", func(b *testing.B) {
			benchmarkDumpRestore(b, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for single Put operations
func benchmarkPut(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut)

	var counter atomic.Uint64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := database.Put(u64(counter.Add(1)), nil); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// Benchmark for Get on existing keys
func benchmarkGet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeaturePut|db.FeatureGet)

	const numKeys = 10000
	batch := db.NewBatch()
	for i := uint64(0); i < numKeys; i++ {
		batch.Set(u64(i), u64(i))
	}
	if _, err := database.Apply(batch); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			if _, ok, err := database.Get(u64(uint64(r.Intn(numKeys)))); err != nil || !ok {
				b.Fatalf("Get failed: %v %v", ok, err)
			}
		}
	})
}

// Benchmark for Has on missing keys
func benchmarkHasNot(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureGet)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if ok, _ := database.Has(u64(uint64(i))); ok {
			b.Fatal("unexpected key")
		}
	}
}

// Benchmark for the seven-key batch shape of a statement insert
func benchmarkApplySevenKeys(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureAtomicBatch)

	key := make([]byte, 34)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		batch := db.NewBatch()
		for tag := byte(5); tag <= 11; tag++ {
			key[0] = tag
			binary.BigEndian.PutUint64(key[1:], uint64(i))
			batch.Set(key, nil)
		}
		if _, err := database.Apply(batch); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark for counter allocation via compare-and-swap
func benchmarkCompareAndSwap(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureConditionalBatch)

	key := []byte{0}
	var old []byte
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next := u64(uint64(i + 1))
		if ok, err := db.CompareAndSwap(database, key, old, next); err != nil || !ok {
			b.Fatalf("CAS failed: %v %v", ok, err)
		}
		old = next
	}
}

// Benchmark for short prefix scans over a populated namespace
func benchmarkScanPrefix(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureAtomicBatch|db.FeatureScan)

	// 1000 groups of 10 keys each
	batch := db.NewBatch()
	for g := uint64(0); g < 1000; g++ {
		for i := uint64(0); i < 10; i++ {
			batch.Set(append(u64(g), u64(i)...), nil)
		}
	}
	if _, err := database.Apply(batch); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		count := 0
		_ = db.ScanPrefix(database, u64(uint64(i%1000)), func(_, _ []byte) bool {
			count++
			return true
		})
		if count != 10 {
			b.Fatalf("expected 10 keys, got %d", count)
		}
	}
}

// Benchmark for Dump and Restore of a namespace
func benchmarkDumpRestore(b *testing.B, factory DBFactory) {
	source := factory(b)
	b.Cleanup(func() {
		source.Close()
	})

	requireFeature(b, source, db.FeatureAtomicBatch|db.FeatureScan)

	batch := db.NewBatch()
	for i := uint64(0); i < 10000; i++ {
		batch.Set(u64(i), u64(i))
	}
	if _, err := source.Apply(batch); err != nil {
		b.Fatal(err)
	}

	var buf bytes.Buffer
	if err := db.Dump(source, &buf); err != nil {
		b.Fatal(err)
	}
	snapshot := buf.Bytes()

	b.Run("Dump", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var out bytes.Buffer
			if err := db.Dump(source, &out); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Restore", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			b.StopTimer()
			target := factory(b)
			b.StartTimer()
			if err := db.Restore(target, bytes.NewReader(snapshot)); err != nil {
				b.Fatal(err)
			}
		}
	})
}
