package intern

import (
	"github.com/ValentinKolb/dTriple/lib/codec"
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/ValentinKolb/dTriple/lib/index"
	"github.com/ValentinKolb/dTriple/lib/metrics"
	"github.com/ValentinKolb/dTriple/lib/model"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("intern")

// Manager is the identifier and interning manager of one dataset.
//
// Thread-safety: all methods are safe for concurrent use. Allocation never hands out
// an id twice, even with concurrent callers.
type Manager struct {
	kv db.KVDB
}

// NewManager returns the manager for the dataset stored in kv.
func NewManager(kv db.KVDB) *Manager {
	return &Manager{kv: kv}
}

// Init writes the zero entity counter of a new dataset. Existing counters are kept.
func (m *Manager) Init() error {
	b := db.NewBatch()
	b.ExpectAbsent(index.EntityCounterKey())
	b.Set(index.EntityCounterKey(), codec.EncodeID(0))
	if _, err := m.kv.Apply(b); err != nil {
		return model.StoreError(err, "failed to initialize entity counter")
	}
	return nil
}

// --------------------------------------------------------------------------
// Counters
// --------------------------------------------------------------------------

// readCounter returns the counter value and the raw stored bytes (nil if missing).
func (m *Manager) readCounter(key []byte) (uint64, []byte, error) {
	raw, loaded, err := m.kv.Get(key)
	if err != nil {
		return 0, nil, model.StoreError(err, "failed to read counter %v", key)
	}
	if !loaded {
		return 0, nil, nil
	}
	value, err := codec.DecodeID(raw)
	if err != nil {
		return 0, nil, err
	}
	return value, raw, nil
}

// expectCounter adds the precondition that the counter still holds raw.
func expectCounter(b *db.Batch, key, raw []byte) {
	if raw == nil {
		b.ExpectAbsent(key)
	} else {
		b.Expect(key, raw)
	}
}

// NextEntity atomically increments the entity counter and returns the new value.
func (m *Manager) NextEntity() (model.Entity, error) {
	key := index.EntityCounterKey()
	for {
		current, raw, err := m.readCounter(key)
		if err != nil {
			return 0, err
		}
		next := current + 1
		ok, err := db.CompareAndSwap(m.kv, key, raw, codec.EncodeID(next))
		if err != nil {
			return 0, model.StoreError(err, "failed to advance entity counter")
		}
		if ok {
			metrics.EntitiesAllocated.Inc()
			return model.Entity(next), nil
		}
		metrics.CASConflicts.Inc()
	}
}

// CurrentEntity returns the highest allocated entity id (0 if none).
func (m *Manager) CurrentEntity() (model.Entity, error) {
	current, _, err := m.readCounter(index.EntityCounterKey())
	return model.Entity(current), err
}

// ValidateEntity checks that e was allocated in this dataset (1 <= e <= counter).
func (m *Manager) ValidateEntity(e model.Entity) error {
	current, err := m.CurrentEntity()
	if err != nil {
		return err
	}
	if e == 0 || e > current {
		return model.NewError(model.ErrCInvalidEntity, "entity %d was not allocated (counter is %d)", uint64(e), uint64(current))
	}
	return nil
}

// --------------------------------------------------------------------------
// Generic interning
// --------------------------------------------------------------------------

// table describes one bidirectional interning table.
type table struct {
	kind       string
	counterKey []byte
	nameKey    func(name []byte) []byte
	idKey      func(id uint64) []byte
	usedPrefix func(id uint64) []byte
	interned   func()
	released   func()
}

var attributes = table{
	kind:       "attribute",
	counterKey: index.AttributeCounterKey(),
	nameKey: func(name []byte) []byte {
		return index.AttributeNameKey(model.Attribute(name))
	},
	idKey: index.AttributeIDKey,
	usedPrefix: func(id uint64) []byte {
		return index.Prefix(index.AEVC, index.IDPart(id))
	},
	interned: func() { metrics.AttributesInterned.Inc() },
	released: func() { metrics.AttributesReleased.Inc() },
}

var stringLiterals = table{
	kind:       "string literal",
	counterKey: index.StringCounterKey(),
	nameKey: func(name []byte) []byte {
		return index.StringLiteralKey(model.StringLiteral(name))
	},
	idKey: index.StringLiteralIDKey,
	usedPrefix: func(id uint64) []byte {
		return index.Prefix(index.VEAC, index.ValuePart(model.KindString, id))
	},
	interned: func() { metrics.StringsInterned.Inc() },
	released: func() { metrics.StringsReleased.Inc() },
}

func (m *Manager) lookup(t table, name []byte) (uint64, bool, error) {
	raw, loaded, err := m.kv.Get(t.nameKey(name))
	if err != nil {
		return 0, false, model.StoreError(err, "failed to look up %s", t.kind)
	}
	if !loaded {
		return 0, false, nil
	}
	id, err := codec.DecodeID(raw)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (m *Manager) resolve(t table, name []byte) (uint64, error) {
	nameKey := t.nameKey(name)
	for {
		id, found, err := m.lookup(t, name)
		if err != nil || found {
			return id, err
		}

		current, raw, err := m.readCounter(t.counterKey)
		if err != nil {
			return 0, err
		}
		next := current + 1
		idBytes := codec.EncodeID(next)

		// counter bump and both map entries as one atomic unit
		b := db.NewBatch()
		expectCounter(b, t.counterKey, raw)
		b.ExpectAbsent(nameKey)
		b.Set(t.counterKey, idBytes)
		b.Set(nameKey, idBytes)
		b.Set(t.idKey(next), name)

		applied, err := m.kv.Apply(b)
		if err != nil {
			return 0, model.StoreError(err, "failed to intern %s", t.kind)
		}
		if applied {
			t.interned()
			return next, nil
		}
		metrics.CASConflicts.Inc()
	}
}

func (m *Manager) reverse(t table, id uint64) ([]byte, error) {
	name, loaded, err := m.kv.Get(t.idKey(id))
	if err != nil {
		return nil, model.StoreError(err, "failed to look up %s %d", t.kind, id)
	}
	if !loaded {
		return nil, model.NewError(model.ErrCCorruptedInterning, "%s id %d has no interning entry", t.kind, id)
	}
	return name, nil
}

func (m *Manager) releaseIfUnused(t table, id uint64, name []byte) (bool, error) {
	used, err := db.HasPrefix(m.kv, t.usedPrefix(id))
	if err != nil {
		return false, model.StoreError(err, "failed to check usage of %s %d", t.kind, id)
	}
	if used {
		return false, nil
	}

	nameKey := t.nameKey(name)
	b := db.NewBatch()
	b.Expect(nameKey, codec.EncodeID(id))
	b.Delete(nameKey)
	b.Delete(t.idKey(id))
	applied, err := m.kv.Apply(b)
	if err != nil {
		return false, model.StoreError(err, "failed to release %s %d", t.kind, id)
	}
	if applied {
		t.released()
		log.Debugf("released %s %d (%q)", t.kind, id, name)
	}
	return applied, nil
}

// --------------------------------------------------------------------------
// Attributes
// --------------------------------------------------------------------------

// ResolveAttribute returns the id of the attribute, interning it on first use.
func (m *Manager) ResolveAttribute(a model.Attribute) (uint64, error) {
	return m.resolve(attributes, codec.EncodeAttribute(a))
}

// LookupAttribute returns the id of an interned attribute without allocating.
func (m *Manager) LookupAttribute(a model.Attribute) (uint64, bool, error) {
	return m.lookup(attributes, codec.EncodeAttribute(a))
}

// AttributeName returns the name of an attribute id. A missing entry is a
// CorruptedInterning error.
func (m *Manager) AttributeName(id uint64) (model.Attribute, error) {
	raw, err := m.reverse(attributes, id)
	if err != nil {
		return "", err
	}
	return codec.DecodeAttribute(raw)
}

// ReleaseAttributeIfUnused deletes both interning entries of the attribute if no
// statement uses it anymore. Returns whether the attribute was released.
func (m *Manager) ReleaseAttributeIfUnused(id uint64, a model.Attribute) (bool, error) {
	return m.releaseIfUnused(attributes, id, codec.EncodeAttribute(a))
}

// --------------------------------------------------------------------------
// String literals
// --------------------------------------------------------------------------

// ResolveStringLiteral returns the id of the string, interning it on first use.
func (m *Manager) ResolveStringLiteral(s model.StringLiteral) (uint64, error) {
	return m.resolve(stringLiterals, []byte(s))
}

// LookupStringLiteral returns the id of an interned string without allocating.
func (m *Manager) LookupStringLiteral(s model.StringLiteral) (uint64, bool, error) {
	return m.lookup(stringLiterals, []byte(s))
}

// StringLiteral returns the text of a string id. A missing entry is a
// CorruptedInterning error.
func (m *Manager) StringLiteral(id uint64) (model.StringLiteral, error) {
	raw, err := m.reverse(stringLiterals, id)
	if err != nil {
		return "", err
	}
	return model.StringLiteral(raw), nil
}

// ReleaseStringLiteralIfUnused deletes both interning entries of the string if no
// statement uses it as value anymore. Returns whether the string was released.
func (m *Manager) ReleaseStringLiteralIfUnused(id uint64, s model.StringLiteral) (bool, error) {
	return m.releaseIfUnused(stringLiterals, id, []byte(s))
}
