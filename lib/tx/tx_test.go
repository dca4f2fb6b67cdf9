package tx

import (
	"fmt"
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/ValentinKolb/dTriple/lib/db/engines/bolt"
	"github.com/ValentinKolb/dTriple/lib/db/engines/memory"
	"github.com/ValentinKolb/dTriple/lib/db/engines/pebble"
	"github.com/ValentinKolb/dTriple/lib/index"
	"github.com/ValentinKolb/dTriple/lib/intern"
	"github.com/ValentinKolb/dTriple/lib/model"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
	"math"
	"testing"
)

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

var engines = []struct {
	name string
	open func(t *testing.T) db.KVDB
}{
	{"memory", func(t *testing.T) db.KVDB {
		return memory.NewMemoryDB()
	}},
	{"pebble", func(t *testing.T) db.KVDB {
		e, err := pebble.NewEngine(pebble.Options{Dir: "/data", FS: vfs.NewMem(), NoSync: true})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { e.Close() })
		kv, err := e.Open([]byte("test"), true)
		if err != nil {
			t.Fatal(err)
		}
		return kv
	}},
	{"bolt", func(t *testing.T) db.KVDB {
		e, err := bolt.NewEngine(bolt.Options{Dir: t.TempDir(), NoSync: true})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { e.Close() })
		kv, err := e.Open([]byte("test"), true)
		if err != nil {
			t.Fatal(err)
		}
		return kv
	}},
}

// forEachEngine runs fn once per storage engine on a fresh dataset.
func forEachEngine(t *testing.T, fn func(t *testing.T, d *dataset)) {
	for _, engine := range engines {
		t.Run(engine.name, func(t *testing.T) {
			fn(t, newDataset(t, engine.open(t)))
		})
	}
}

type dataset struct {
	kv db.KVDB
	w  *WriteTx
	q  *QueryTx
}

func newDataset(t *testing.T, kv db.KVDB) *dataset {
	t.Helper()
	if err := intern.NewManager(kv).Init(); err != nil {
		t.Fatalf("failed to initialize dataset: %v", err)
	}
	return &dataset{
		kv: kv,
		w:  NewWriteTx("test", kv, nil),
		q:  NewQueryTx("test", kv),
	}
}

func (d *dataset) entity(t *testing.T) model.Entity {
	t.Helper()
	e, err := d.w.NewEntity()
	if err != nil {
		t.Fatalf("NewEntity failed: %v", err)
	}
	return e
}

func (d *dataset) add(t *testing.T, e model.Entity, a model.Attribute, v model.Value) model.PersistedStatement {
	t.Helper()
	ps, err := d.w.AddStatement(model.Statement{Entity: e, Attribute: a, Value: v})
	if err != nil {
		t.Fatalf("AddStatement(%v %v %v) failed: %v", e, a, v, err)
	}
	return ps
}

func (d *dataset) remove(t *testing.T, ps model.PersistedStatement) bool {
	t.Helper()
	ok, err := d.w.RemoveStatement(ps)
	if err != nil {
		t.Fatalf("RemoveStatement(%v) failed: %v", ps, err)
	}
	return ok
}

func mustCollect(t *testing.T, seq Statements) []model.PersistedStatement {
	t.Helper()
	result, err := Collect(seq)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	return result
}

// contents returns every key/value pair of the namespace.
func contents(t *testing.T, kv db.KVDB) []string {
	t.Helper()
	var entries []string
	if err := kv.Scan(nil, nil, func(k, v []byte) bool {
		entries = append(entries, fmt.Sprintf("%x=%x", k, v))
		return true
	}); err != nil {
		t.Fatal(err)
	}
	return entries
}

func sameEntries(a, b []string) bool {
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

func contexts(statements []model.PersistedStatement) map[model.Entity]bool {
	result := make(map[model.Entity]bool)
	for _, ps := range statements {
		result[ps.Context] = true
	}
	return result
}

type scenario struct {
	e1, e2, e3 model.Entity
	statements []model.PersistedStatement
}

// insertScenario adds (e1,name,"Juniper"), (e2,connection,e3), (e2,connection,4200)
// and (e3,connection,42.2).
func insertScenario(t *testing.T, d *dataset) scenario {
	t.Helper()
	s := scenario{e1: d.entity(t), e2: d.entity(t), e3: d.entity(t)}
	s.statements = []model.PersistedStatement{
		d.add(t, s.e1, "name", model.StringLiteral("Juniper")),
		d.add(t, s.e2, "connection", s.e3),
		d.add(t, s.e2, "connection", model.IntegerLiteral(4200)),
		d.add(t, s.e3, "connection", model.FloatLiteral(42.2)),
	}
	return s
}

// --------------------------------------------------------------------------
// Entities
// --------------------------------------------------------------------------

func TestNewEntity(t *testing.T) {
	forEachEngine(t, func(t *testing.T, d *dataset) {
		e1 := d.entity(t)
		e2 := d.entity(t)
		if e1 != 1 || e2 != 2 {
			t.Errorf("Expected first entities 1 and 2, got %d and %d", e1, e2)
		}

		counter, err := intern.NewManager(d.kv).CurrentEntity()
		if err != nil {
			t.Fatal(err)
		}
		if e1 == e2 || e1 > counter || e2 > counter {
			t.Errorf("Entities %d, %d not distinct or above counter %d", e1, e2, counter)
		}
	})
}

func TestEntityScopedToDataset(t *testing.T) {
	big := newDataset(t, memory.NewMemoryDB())
	small := newDataset(t, memory.NewMemoryDB())

	var foreign model.Entity
	for i := 0; i < 5; i++ {
		foreign = big.entity(t)
	}
	small.entity(t)

	_, err := small.w.AddStatement(model.Statement{Entity: foreign, Attribute: "name", Value: model.IntegerLiteral(1)})
	if !errors.Is(err, model.ErrInvalidEntity) {
		t.Errorf("Expected InvalidEntity for an entity of another dataset, got %v", err)
	}
}

// --------------------------------------------------------------------------
// Add / Remove
// --------------------------------------------------------------------------

func TestAddThenStatementForContext(t *testing.T) {
	forEachEngine(t, func(t *testing.T, d *dataset) {
		e1 := d.entity(t)
		e2 := d.entity(t)

		values := []model.Value{
			model.StringLiteral("Juniper"),
			model.StringLiteral(""),
			e2,
			model.IntegerLiteral(-42),
			model.FloatLiteral(-0.5),
		}
		for _, v := range values {
			added := d.add(t, e1, "name", v)

			found, ok, err := d.q.StatementForContext(added.Context)
			if err != nil || !ok {
				t.Fatalf("StatementForContext(%d) = %v, %v", added.Context, ok, err)
			}
			if found != added {
				t.Errorf("Expected %v, got %v", added, found)
			}
		}

		if _, ok, err := d.q.StatementForContext(9999); ok || err != nil {
			t.Errorf("Expected no statement for unknown context, got %v (%v)", ok, err)
		}
	})
}

func TestAddWritesSevenKeys(t *testing.T) {
	d := newDataset(t, memory.NewMemoryDB())
	e := d.entity(t)
	d.add(t, e, "name", model.IntegerLiteral(1))

	count := 0
	_ = d.kv.Scan([]byte{byte(index.EAVC)}, []byte{byte(index.CEAV) + 1}, func(key, value []byte) bool {
		count++
		if len(key) != index.KeySize || len(value) != 0 {
			t.Errorf("Unexpected index entry %x=%x", key, value)
		}
		return true
	})
	if count != 7 {
		t.Errorf("Expected 7 index entries, got %d", count)
	}
}

func TestAddInvalid(t *testing.T) {
	d := newDataset(t, memory.NewMemoryDB())
	e := d.entity(t)
	before := contents(t, d.kv)

	tests := []struct {
		name string
		s    model.Statement
		want error
	}{
		{"unallocated entity", model.Statement{Entity: e + 1, Attribute: "name", Value: model.IntegerLiteral(1)}, model.ErrInvalidEntity},
		{"zero entity", model.Statement{Entity: 0, Attribute: "name", Value: model.IntegerLiteral(1)}, model.ErrInvalidEntity},
		{"unallocated entity value", model.Statement{Entity: e, Attribute: "name", Value: e + 5}, model.ErrInvalidEntity},
		{"bad attribute", model.Statement{Entity: e, Attribute: "1bad", Value: model.IntegerLiteral(1)}, model.ErrInvalidArgument},
		{"nil value", model.Statement{Entity: e, Attribute: "name"}, model.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.w.AddStatement(tt.s); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	// nothing was interned or allocated
	if after := contents(t, d.kv); !sameEntries(before, after) {
		t.Errorf("Failed adds changed the dataset:\nbefore %v\nafter  %v", before, after)
	}
}

func TestRemoveMissingContext(t *testing.T) {
	forEachEngine(t, func(t *testing.T, d *dataset) {
		s := insertScenario(t, d)
		before := contents(t, d.kv)

		missing := s.statements[0]
		missing.Context = 9999
		if d.remove(t, missing) {
			t.Errorf("Expected removal of a missing context to return false")
		}

		// a context that belongs to a different statement
		other := s.statements[0]
		other.Context = s.statements[1].Context
		if d.remove(t, other) {
			t.Errorf("Expected removal with a foreign context to return false")
		}

		// attribute and string never interned
		unknown := model.PersistedStatement{
			Statement: model.Statement{Entity: s.e1, Attribute: "unknown", Value: model.StringLiteral("nope")},
			Context:   s.statements[0].Context,
		}
		if d.remove(t, unknown) {
			t.Errorf("Expected removal of an unknown statement to return false")
		}

		if after := contents(t, d.kv); !sameEntries(before, after) {
			t.Errorf("Removal of a missing statement mutated the dataset")
		}
	})
}

func TestRemoveInvalidEntity(t *testing.T) {
	d := newDataset(t, memory.NewMemoryDB())
	s := insertScenario(t, d)

	ps := s.statements[0]
	ps.Statement.Entity = 1000
	if _, err := d.w.RemoveStatement(ps); !errors.Is(err, model.ErrInvalidEntity) {
		t.Errorf("Expected InvalidEntity, got %v", err)
	}
}

func TestScenarioFourStatements(t *testing.T) {
	forEachEngine(t, func(t *testing.T, d *dataset) {
		s := insertScenario(t, d)

		all := mustCollect(t, d.q.AllStatements())
		if len(all) != 4 {
			t.Fatalf("Expected 4 statements, got %d: %v", len(all), all)
		}
		if len(contexts(all)) != 4 {
			t.Errorf("Expected 4 distinct contexts, got %v", contexts(all))
		}

		want := make(map[model.PersistedStatement]bool)
		for _, ps := range s.statements {
			want[ps] = true
		}
		for _, ps := range all {
			if !want[ps] {
				t.Errorf("Unexpected statement %v", ps)
			}
		}
	})
}

func TestScenarioRemoveTwice(t *testing.T) {
	forEachEngine(t, func(t *testing.T, d *dataset) {
		e := d.entity(t)
		ps := d.add(t, e, "name", model.StringLiteral("Juniper"))

		if !d.remove(t, ps) {
			t.Errorf("Expected first removal to return true")
		}
		if n := len(mustCollect(t, d.q.AllStatements())); n != 0 {
			t.Errorf("Expected 0 statements after removal, got %d", n)
		}
		if d.remove(t, ps) {
			t.Errorf("Expected second removal to return false")
		}
	})
}

func TestGarbageCollection(t *testing.T) {
	forEachEngine(t, func(t *testing.T, d *dataset) {
		e1 := d.entity(t)
		e2 := d.entity(t)
		ids := intern.NewManager(d.kv)

		first := d.add(t, e1, "name", model.StringLiteral("Juniper"))
		second := d.add(t, e2, "name", model.StringLiteral("Juniper"))
		only := d.add(t, e1, "age", model.IntegerLiteral(3))

		attrID, _, _ := ids.LookupAttribute("name")
		strID, _, _ := ids.LookupStringLiteral("Juniper")

		// still used by the second statement
		d.remove(t, first)
		for _, key := range [][]byte{
			index.AttributeNameKey("name"), index.AttributeIDKey(attrID),
			index.StringLiteralKey("Juniper"), index.StringLiteralIDKey(strID),
		} {
			if ok, _ := d.kv.Has(key); !ok {
				t.Errorf("Interning entry %x removed while still referenced", key)
			}
		}

		// last use
		d.remove(t, second)
		for _, key := range [][]byte{
			index.AttributeNameKey("name"), index.AttributeIDKey(attrID),
			index.StringLiteralKey("Juniper"), index.StringLiteralIDKey(strID),
		} {
			if ok, _ := d.kv.Has(key); ok {
				t.Errorf("Interning entry %x kept after last reference was removed", key)
			}
		}

		ageID, _, _ := ids.LookupAttribute("age")
		d.remove(t, only)
		if ok, _ := d.kv.Has(index.AttributeIDKey(ageID)); ok {
			t.Errorf("Attribute age kept after its only statement was removed")
		}
	})
}

func TestStringUsedAsValueOnlyByOtherAttribute(t *testing.T) {
	d := newDataset(t, memory.NewMemoryDB())
	e := d.entity(t)

	a := d.add(t, e, "name", model.StringLiteral("shared"))
	d.add(t, e, "alias", model.StringLiteral("shared"))
	d.remove(t, a)

	if _, found, _ := intern.NewManager(d.kv).LookupStringLiteral("shared"); !found {
		t.Errorf("String literal released although another attribute still uses it")
	}
}

// failingKV rejects every batch that writes statement keys.
type failingKV struct {
	db.KVDB
}

func (f failingKV) Apply(b *db.Batch) (bool, error) {
	for _, op := range b.Operations() {
		if op.Type == db.OpSet && len(op.Key) > 0 && op.Key[0] == byte(index.EAVC) {
			return false, errors.New("disk full")
		}
	}
	return f.KVDB.Apply(b)
}

func TestFailedAddReleasesInterning(t *testing.T) {
	d := newDataset(t, memory.NewMemoryDB())
	e := d.entity(t)
	d.add(t, e, "kept", model.StringLiteral("shared"))

	broken := NewWriteTx("test", failingKV{KVDB: d.kv}, nil)
	ids := intern.NewManager(d.kv)

	_, err := broken.AddStatement(model.Statement{Entity: e, Attribute: "orphan", Value: model.StringLiteral("lonely")})
	if !errors.Is(err, model.ErrStore) {
		t.Fatalf("Expected store error, got %v", err)
	}
	if _, found, _ := ids.LookupAttribute("orphan"); found {
		t.Errorf("Attribute of failed statement still interned")
	}
	if _, found, _ := ids.LookupStringLiteral("lonely"); found {
		t.Errorf("String literal of failed statement still interned")
	}

	// names used by stored statements survive a failed add
	_, err = broken.AddStatement(model.Statement{Entity: e, Attribute: "kept", Value: model.StringLiteral("shared")})
	if err == nil {
		t.Fatalf("Expected AddStatement to fail")
	}
	if _, found, _ := ids.LookupAttribute("kept"); !found {
		t.Errorf("Attribute released although a stored statement uses it")
	}
	if _, found, _ := ids.LookupStringLiteral("shared"); !found {
		t.Errorf("String literal released although a stored statement uses it")
	}
	if n := len(mustCollect(t, d.q.MatchStatements(&e, nil, nil))); n != 1 {
		t.Errorf("Expected 1 stored statement, got %d", n)
	}
}

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

// recordingKV remembers the ranges of all scans.
type recordingKV struct {
	db.KVDB
	scans [][2][]byte
}

func (r *recordingKV) Scan(start, end []byte, fn func(key, value []byte) bool) error {
	r.scans = append(r.scans, [2][]byte{append([]byte{}, start...), append([]byte{}, end...)})
	return r.KVDB.Scan(start, end, fn)
}

func TestMatchByEntityUsesPrefix(t *testing.T) {
	rec := &recordingKV{KVDB: memory.NewMemoryDB()}
	d := newDataset(t, rec)
	s := insertScenario(t, d)

	rec.scans = nil
	result := mustCollect(t, d.q.MatchStatements(&s.e1, nil, nil))
	if len(result) != 1 || result[0] != s.statements[0] {
		t.Errorf("Expected only the statement of e1, got %v", result)
	}

	want := index.Prefix(index.EAVC, index.IDPart(uint64(s.e1)))
	if len(rec.scans) != 1 {
		t.Fatalf("Expected exactly one scan, got %d", len(rec.scans))
	}
	if string(rec.scans[0][0]) != string(want) || string(rec.scans[0][1]) != string(db.PrefixEnd(want)) {
		t.Errorf("Expected scan over prefix %x, got [%x, %x)", want, rec.scans[0][0], rec.scans[0][1])
	}
}

func TestMatchStatements(t *testing.T) {
	forEachEngine(t, func(t *testing.T, d *dataset) {
		s := insertScenario(t, d)
		extra := d.add(t, s.e1, "connection", s.e3)

		all := mustCollect(t, d.q.AllStatements())
		connection := model.Attribute("connection")

		patterns := []struct {
			name      string
			entity    *model.Entity
			attribute *model.Attribute
			value     model.Value
		}{
			{"none", nil, nil, nil},
			{"E", &s.e2, nil, nil},
			{"A", nil, &connection, nil},
			{"V", nil, nil, s.e3},
			{"EA", &s.e1, &connection, nil},
			{"EV", &s.e2, nil, model.IntegerLiteral(4200)},
			{"AV", nil, &connection, s.e3},
			{"EAV", &s.e3, &connection, model.FloatLiteral(42.2)},
		}

		for _, p := range patterns {
			t.Run(p.name, func(t *testing.T) {
				expected := make(map[model.PersistedStatement]bool)
				for _, ps := range all {
					if p.entity != nil && ps.Statement.Entity != *p.entity {
						continue
					}
					if p.attribute != nil && ps.Statement.Attribute != *p.attribute {
						continue
					}
					if p.value != nil && ps.Statement.Value != p.value {
						continue
					}
					expected[ps] = true
				}

				got := mustCollect(t, d.q.MatchStatements(p.entity, p.attribute, p.value))
				if len(got) != len(expected) {
					t.Fatalf("Expected %d statements, got %d: %v", len(expected), len(got), got)
				}
				for _, ps := range got {
					if !expected[ps] {
						t.Errorf("Unexpected statement %v", ps)
					}
				}
			})
		}

		if got := mustCollect(t, d.q.MatchStatements(nil, &connection, s.e3)); len(got) != 2 || !contexts(got)[extra.Context] {
			t.Errorf("Expected both statements pointing to e3, got %v", got)
		}
	})
}

func TestMatchUnknownIsEmpty(t *testing.T) {
	d := newDataset(t, memory.NewMemoryDB())
	s := insertScenario(t, d)

	unknown := model.Attribute("unknown")
	missingEntity := model.Entity(1000)
	cases := []Statements{
		d.q.MatchStatements(nil, &unknown, nil),
		d.q.MatchStatements(nil, nil, model.StringLiteral("never stored")),
		d.q.MatchStatements(&missingEntity, nil, nil),
		d.q.MatchStatements(nil, nil, missingEntity),
		d.q.MatchStatements(&s.e1, nil, model.IntegerLiteral(7)),
	}
	for i, seq := range cases {
		if got := mustCollect(t, seq); len(got) != 0 {
			t.Errorf("case %d: expected empty result, got %v", i, got)
		}
	}
}

func TestMatchStatementsRange(t *testing.T) {
	forEachEngine(t, func(t *testing.T, d *dataset) {
		e1 := d.entity(t)
		e2 := d.entity(t)

		for _, i := range []int64{-5, -1, 0, 24600, 24601, 24602, 24603, 1 << 40} {
			d.add(t, e1, "number", model.IntegerLiteral(i))
		}
		for _, f := range []float64{-10.5, -0.25, 0, 0.25, 3.5, 1e300} {
			d.add(t, e2, "weight", model.FloatLiteral(f))
		}
		for _, s := range []string{"English", "French", "Frisian", "German", "Germanic", "Spanish"} {
			d.add(t, e1, "language", model.StringLiteral(s))
		}

		number := model.Attribute("number")
		tests := []struct {
			name      string
			entity    *model.Entity
			attribute *model.Attribute
			r         model.Range
			want      []model.Value
		}{
			{"integers", nil, nil, model.Range{Start: model.IntegerLiteral(24601), End: model.IntegerLiteral(24603)},
				[]model.Value{model.IntegerLiteral(24601), model.IntegerLiteral(24602)}},
			{"negative integers", &e1, &number, model.Range{Start: model.IntegerLiteral(-5), End: model.IntegerLiteral(1)},
				[]model.Value{model.IntegerLiteral(-5), model.IntegerLiteral(-1), model.IntegerLiteral(0)}},
			{"floats across zero", &e2, nil, model.Range{Start: model.FloatLiteral(-1), End: model.FloatLiteral(1)},
				[]model.Value{model.FloatLiteral(-0.25), model.FloatLiteral(0), model.FloatLiteral(0.25)}},
			{"strings", nil, nil, model.Range{Start: model.StringLiteral("French"), End: model.StringLiteral("German")},
				[]model.Value{model.StringLiteral("French"), model.StringLiteral("Frisian")}},
			{"strings by attribute", nil, attributePtr("language"), model.Range{Start: model.StringLiteral("G"), End: model.StringLiteral("H")},
				[]model.Value{model.StringLiteral("German"), model.StringLiteral("Germanic")}},
			{"empty range", nil, nil, model.Range{Start: model.IntegerLiteral(5), End: model.IntegerLiteral(5)}, nil},
			{"inverted range", nil, nil, model.Range{Start: model.IntegerLiteral(5), End: model.IntegerLiteral(-5)}, nil},
			{"wrong entity", &e2, nil, model.Range{Start: model.IntegerLiteral(-5), End: model.IntegerLiteral(5)}, nil},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got := mustCollect(t, d.q.MatchStatementsRange(tt.entity, tt.attribute, tt.r))
				if len(got) != len(tt.want) {
					t.Fatalf("Expected %d statements, got %d: %v", len(tt.want), len(got), got)
				}
				// results come in value order
				for i, ps := range got {
					if ps.Statement.Value != tt.want[i] {
						t.Errorf("Result %d: expected value %v, got %v", i, tt.want[i], ps.Statement.Value)
					}
				}
			})
		}
	})
}

func attributePtr(a model.Attribute) *model.Attribute {
	return &a
}

func TestMatchStatementsRangeInvalid(t *testing.T) {
	d := newDataset(t, memory.NewMemoryDB())
	e := d.entity(t)

	for _, r := range []model.Range{
		{Start: model.IntegerLiteral(1), End: model.FloatLiteral(2)},
		{Start: e, End: e + 1},
		{Start: nil, End: model.IntegerLiteral(1)},
	} {
		_, err := Collect(d.q.MatchStatementsRange(nil, nil, r))
		if !errors.Is(err, model.ErrInvalidArgument) {
			t.Errorf("Expected InvalidArgument for %v, got %v", r, err)
		}
	}
}

func TestFloatZeroAndNaN(t *testing.T) {
	forEachEngine(t, func(t *testing.T, d *dataset) {
		e := d.entity(t)
		negZero := model.FloatLiteral(math.Copysign(0, -1))
		ps := d.add(t, e, "weight", negZero)

		// -0.0 and 0.0 are the same value
		zero := model.FloatLiteral(0)
		if got := mustCollect(t, d.q.MatchStatements(nil, nil, zero)); len(got) != 1 {
			t.Errorf("Expected exact match on 0.0 to find -0.0, got %v", got)
		}
		below := model.Range{Start: model.FloatLiteral(-1), End: zero}
		if got := mustCollect(t, d.q.MatchStatementsRange(nil, nil, below)); len(got) != 0 {
			t.Errorf("Expected [-1.0, 0.0) to exclude -0.0, got %v", got)
		}
		above := model.Range{Start: zero, End: model.FloatLiteral(1)}
		if got := mustCollect(t, d.q.MatchStatementsRange(nil, nil, above)); len(got) != 1 {
			t.Errorf("Expected [0.0, 1.0) to include -0.0, got %v", got)
		}
		got, ok, err := d.q.StatementForContext(ps.Context)
		if err != nil || !ok || got != ps {
			t.Errorf("Expected %v for context, got %v, %v, %v", ps, got, ok, err)
		}

		// NaN is rejected and never matches
		nan := model.FloatLiteral(math.NaN())
		before := len(mustCollect(t, d.q.AllStatements()))
		if _, err := d.w.AddStatement(model.Statement{Entity: e, Attribute: "weight", Value: nan}); !errors.Is(err, model.ErrInvalidArgument) {
			t.Errorf("Expected InvalidArgument for NaN, got %v", err)
		}
		if after := len(mustCollect(t, d.q.AllStatements())); after != before {
			t.Errorf("Expected rejected NaN to store nothing, got %d statements instead of %d", after, before)
		}
		if got := mustCollect(t, d.q.MatchStatements(nil, nil, nan)); len(got) != 0 {
			t.Errorf("Expected NaN pattern to match nothing, got %v", got)
		}
		_, err = Collect(d.q.MatchStatementsRange(nil, nil, model.Range{Start: nan, End: zero}))
		if !errors.Is(err, model.ErrInvalidArgument) {
			t.Errorf("Expected InvalidArgument for NaN range bound, got %v", err)
		}
	})
}

func TestSequenceIsRestartable(t *testing.T) {
	d := newDataset(t, memory.NewMemoryDB())
	e := d.entity(t)
	d.add(t, e, "name", model.IntegerLiteral(1))

	seq := d.q.AllStatements()
	if n := len(mustCollect(t, seq)); n != 1 {
		t.Fatalf("Expected 1 statement, got %d", n)
	}
	d.add(t, e, "name", model.IntegerLiteral(2))
	if n := len(mustCollect(t, seq)); n != 2 {
		t.Errorf("Expected re-iteration to issue a new scan and see 2 statements, got %d", n)
	}

	// stopping early
	count := 0
	for range seq {
		count++
		break
	}
	if count != 1 {
		t.Errorf("Expected loop to stop after one statement")
	}
}

func TestRemoveWhileIterating(t *testing.T) {
	forEachEngine(t, func(t *testing.T, d *dataset) {
		e := d.entity(t)
		for i := 0; i < 50; i++ {
			d.add(t, e, "n", model.IntegerLiteral(i))
		}

		for ps, err := range d.q.MatchStatements(&e, nil, nil) {
			if err != nil {
				t.Fatal(err)
			}
			d.remove(t, ps)
		}
		if n := len(mustCollect(t, d.q.AllStatements())); n != 0 {
			t.Errorf("Expected empty dataset, %d statements left", n)
		}
	})
}

// --------------------------------------------------------------------------
// Corrupted state
// --------------------------------------------------------------------------

func TestDuplicateContext(t *testing.T) {
	d := newDataset(t, memory.NewMemoryDB())
	s := insertScenario(t, d)
	ps := s.statements[2]

	// a second statement under the same context, as left behind by a broken writer
	forged := index.StatementIdSet{Entity: uint64(s.e3), Attribute: 1, ValueKind: model.KindInteger, ValueBody: 1, Context: uint64(ps.Context)}
	if err := d.kv.Put(index.Encode(index.CEAV, forged), nil); err != nil {
		t.Fatal(err)
	}

	if _, _, err := d.q.StatementForContext(ps.Context); !errors.Is(err, model.ErrDuplicateContext) {
		t.Errorf("Expected DuplicateContext from StatementForContext, got %v", err)
	}
	if _, err := d.w.RemoveStatement(ps); !errors.Is(err, model.ErrDuplicateContext) {
		t.Errorf("Expected DuplicateContext from RemoveStatement, got %v", err)
	}
}

func TestCorruptedInterning(t *testing.T) {
	d := newDataset(t, memory.NewMemoryDB())
	e := d.entity(t)
	d.add(t, e, "name", model.StringLiteral("Juniper"))

	id, _, _ := intern.NewManager(d.kv).LookupStringLiteral("Juniper")
	if err := d.kv.Delete(index.StringLiteralIDKey(id)); err != nil {
		t.Fatal(err)
	}

	if _, err := Collect(d.q.AllStatements()); !errors.Is(err, model.ErrCorruptedInterning) {
		t.Errorf("Expected CorruptedInterning, got %v", err)
	}
}

func TestMalformedKey(t *testing.T) {
	d := newDataset(t, memory.NewMemoryDB())
	e := d.entity(t)
	d.add(t, e, "name", model.IntegerLiteral(1))

	// truncated key inside the EAVC family
	if err := d.kv.Put([]byte{byte(index.EAVC), 0, 0, 1}, nil); err != nil {
		t.Fatal(err)
	}

	var errs int
	for _, err := range d.q.AllStatements() {
		if err != nil {
			errs++
			if !errors.Is(err, model.ErrDecoding) {
				t.Errorf("Expected DecodingError, got %v", err)
			}
		}
	}
	if errs != 1 {
		t.Errorf("Expected exactly one error, got %d", errs)
	}
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

func TestTransactionEnd(t *testing.T) {
	kv := memory.NewMemoryDB()
	_ = intern.NewManager(kv).Init()

	released := 0
	w := NewWriteTx("test", kv, func() { released++ })
	e, err := w.NewEntity()
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := w.Cancel(); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Expected InvalidArgument for Cancel after Commit, got %v", err)
	}
	if released != 1 {
		t.Errorf("Expected release to be called once, got %d", released)
	}

	if _, err := w.NewEntity(); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Expected InvalidArgument after end, got %v", err)
	}
	if _, err := w.AddStatement(model.Statement{Entity: e, Attribute: "a", Value: model.IntegerLiteral(1)}); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Expected InvalidArgument after end, got %v", err)
	}
	if _, err := w.RemoveStatement(model.PersistedStatement{}); !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Expected InvalidArgument after end, got %v", err)
	}
}

func TestWriteTxQuery(t *testing.T) {
	d := newDataset(t, memory.NewMemoryDB())
	e := d.entity(t)
	ps := d.add(t, e, "name", model.IntegerLiteral(1))

	got, ok, err := d.w.Query().StatementForContext(ps.Context)
	if err != nil || !ok || got != ps {
		t.Errorf("Expected write transaction to read its own writes, got %v %v %v", got, ok, err)
	}
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

func BenchmarkAddStatement(b *testing.B) {
	kv := memory.NewMemoryDB()
	_ = intern.NewManager(kv).Init()
	w := NewWriteTx("bench", kv, nil)
	e, _ := w.NewEntity()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := w.AddStatement(model.Statement{Entity: e, Attribute: "n", Value: model.IntegerLiteral(i)}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMatchByEntity(b *testing.B) {
	kv := memory.NewMemoryDB()
	_ = intern.NewManager(kv).Init()
	w := NewWriteTx("bench", kv, nil)
	entities := make([]model.Entity, 100)
	for i := range entities {
		entities[i], _ = w.NewEntity()
		for j := 0; j < 10; j++ {
			_, _ = w.AddStatement(model.Statement{Entity: entities[i], Attribute: "n", Value: model.IntegerLiteral(j)})
		}
	}
	q := NewQueryTx("bench", kv)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e := entities[i%len(entities)]
		n := 0
		for _, err := range q.MatchStatements(&e, nil, nil) {
			if err != nil {
				b.Fatal(err)
			}
			n++
		}
		if n != 10 {
			b.Fatalf("expected 10 statements, got %d", n)
		}
	}
}
