package tx

import (
	"github.com/ValentinKolb/dTriple/lib/codec"
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/ValentinKolb/dTriple/lib/index"
	"github.com/ValentinKolb/dTriple/lib/intern"
	"github.com/ValentinKolb/dTriple/lib/metrics"
	"github.com/ValentinKolb/dTriple/lib/model"
	"github.com/lni/dragonboat/v4/logger"
	"sync"
)

var log = logger.GetLogger("tx")

// WriteTx is the write transaction of one dataset.
//
// Thread-safety: a WriteTx may be used from several goroutines, but the calls are not
// ordered with respect to each other.
type WriteTx struct {
	dataset string
	kv      db.KVDB
	ids     *intern.Manager

	mu      sync.Mutex
	ended   bool
	release func()
}

// NewWriteTx creates a write transaction on the namespace of dataset.
// release is called exactly once when the transaction is committed or cancelled.
func NewWriteTx(dataset string, kv db.KVDB, release func()) *WriteTx {
	return &WriteTx{
		dataset: dataset,
		kv:      kv,
		ids:     intern.NewManager(kv),
		release: release,
	}
}

// Query returns a query transaction that reads the same dataset.
func (tx *WriteTx) Query() *QueryTx {
	return &QueryTx{dataset: tx.dataset, kv: tx.kv, ids: tx.ids}
}

func (tx *WriteTx) checkOpen() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.ended {
		return model.NewError(model.ErrCInvalidArgument, "write transaction on %q already ended", tx.dataset)
	}
	return nil
}

// --------------------------------------------------------------------------
// Entities
// --------------------------------------------------------------------------

// NewEntity allocates a fresh entity.
func (tx *WriteTx) NewEntity() (model.Entity, error) {
	if err := tx.checkOpen(); err != nil {
		return 0, err
	}
	return tx.ids.NextEntity()
}

// --------------------------------------------------------------------------
// Add
// --------------------------------------------------------------------------

// AddStatement stores the statement under a freshly allocated context.
// The entity (and an entity value) must have been allocated in this dataset.
//
// The string literal and the attribute are interned before the statement keys are
// written. If a later step fails, both are released again unless another statement
// uses them. A failing release is logged, which leaves an unreferenced interning
// entry behind until a statement with the same name is added and removed again.
// The allocated context id is never reused.
func (tx *WriteTx) AddStatement(s model.Statement) (model.PersistedStatement, error) {
	if err := tx.checkOpen(); err != nil {
		return model.PersistedStatement{}, err
	}

	// validate everything before interning anything
	if err := tx.ids.ValidateEntity(s.Entity); err != nil {
		return model.PersistedStatement{}, err
	}
	if err := s.Attribute.Validate(); err != nil {
		return model.PersistedStatement{}, err
	}
	if err := model.ValidateValue(s.Value); err != nil {
		return model.PersistedStatement{}, err
	}
	if e, ok := s.Value.(model.Entity); ok {
		if err := tx.ids.ValidateEntity(e); err != nil {
			return model.PersistedStatement{}, err
		}
	}

	valueBody, err := tx.resolveValue(s.Value)
	if err != nil {
		return model.PersistedStatement{}, err
	}
	attributeID, err := tx.ids.ResolveAttribute(s.Attribute)
	if err != nil {
		tx.releaseStringLiteral(valueBody, s.Value)
		return model.PersistedStatement{}, err
	}

	set := index.StatementIdSet{
		Entity:    uint64(s.Entity),
		Attribute: attributeID,
		ValueKind: s.Value.Kind(),
		ValueBody: valueBody,
	}

	contextID, err := tx.ids.NextEntity()
	if err != nil {
		tx.collectGarbage(set, s)
		return model.PersistedStatement{}, err
	}
	set.Context = uint64(contextID)

	b := db.NewBatch()
	for _, key := range index.EncodeAll(set) {
		b.Set(key, nil)
	}
	if _, err := tx.kv.Apply(b); err != nil {
		tx.collectGarbage(set, s)
		return model.PersistedStatement{}, model.StoreError(err, "failed to insert statement %s", s)
	}

	metrics.StatementsAdded(tx.dataset).Inc()
	return model.PersistedStatement{Statement: s, Context: contextID}, nil
}

// resolveValue returns the 8-byte body of a value, interning string literals.
func (tx *WriteTx) resolveValue(v model.Value) (uint64, error) {
	switch val := v.(type) {
	case model.Entity:
		return uint64(val), nil
	case model.StringLiteral:
		return tx.ids.ResolveStringLiteral(val)
	default:
		body, _ := codec.LiteralBody(v)
		return body, nil
	}
}

// --------------------------------------------------------------------------
// Remove
// --------------------------------------------------------------------------

// RemoveStatement deletes the statement stored under p.Context.
// It returns false without changing anything if the context does not exist or refers
// to a different statement. Attributes and string literals no longer referenced by any
// statement are released afterwards. A failing release is logged and does not fail
// the removal.
func (tx *WriteTx) RemoveStatement(p model.PersistedStatement) (bool, error) {
	if err := tx.checkOpen(); err != nil {
		return false, err
	}

	set, found, err := tx.lookupIdSet(p)
	if err != nil || !found {
		return false, err
	}
	want := index.Encode(index.CEAV, set)

	// verify by context
	matches := make([][]byte, 0, 2)
	err = db.ScanPrefix(tx.kv, index.Prefix(index.CEAV, index.IDPart(set.Context)), func(key, _ []byte) bool {
		matches = append(matches, append([]byte{}, key...))
		return len(matches) < 2
	})
	if err != nil {
		return false, model.StoreError(err, "failed to look up context %d", set.Context)
	}
	switch {
	case len(matches) == 0:
		return false, nil
	case len(matches) > 1:
		metrics.DuplicateContexts.Inc()
		log.Errorf("dataset %q has more than one statement under context %d", tx.dataset, set.Context)
		return false, model.NewError(model.ErrCDuplicateContext, "context %d has more than one statement", set.Context)
	case string(matches[0]) != string(want):
		return false, nil
	}

	b := db.NewBatch()
	b.Expect(want, []byte{})
	for _, key := range index.EncodeAll(set) {
		b.Delete(key)
	}
	applied, err := tx.kv.Apply(b)
	if err != nil {
		return false, model.StoreError(err, "failed to delete statement %s", p)
	}
	if !applied {
		// removed concurrently
		return false, nil
	}
	metrics.StatementsRemoved(tx.dataset).Inc()

	tx.collectGarbage(set, p.Statement)
	return true, nil
}

// lookupIdSet resolves a persisted statement without interning anything.
// found is false if the attribute or string literal is not interned.
func (tx *WriteTx) lookupIdSet(p model.PersistedStatement) (index.StatementIdSet, bool, error) {
	s := p.Statement
	set := index.StatementIdSet{Entity: uint64(s.Entity), Context: uint64(p.Context)}

	if err := tx.ids.ValidateEntity(s.Entity); err != nil {
		return set, false, err
	}
	if err := model.ValidateValue(s.Value); err != nil {
		return set, false, err
	}

	attributeID, found, err := tx.ids.LookupAttribute(s.Attribute)
	if err != nil || !found {
		return set, false, err
	}
	set.Attribute = attributeID
	set.ValueKind = s.Value.Kind()

	switch val := s.Value.(type) {
	case model.Entity:
		if err := tx.ids.ValidateEntity(val); err != nil {
			return set, false, err
		}
		set.ValueBody = uint64(val)
	case model.StringLiteral:
		id, found, err := tx.ids.LookupStringLiteral(val)
		if err != nil || !found {
			return set, false, err
		}
		set.ValueBody = id
	default:
		set.ValueBody, _ = codec.LiteralBody(val)
	}
	return set, true, nil
}

// collectGarbage releases the attribute and string literal of a removed statement if
// nothing references them anymore.
func (tx *WriteTx) collectGarbage(set index.StatementIdSet, s model.Statement) {
	if _, err := tx.ids.ReleaseAttributeIfUnused(set.Attribute, s.Attribute); err != nil {
		metrics.GCFailures.Inc()
		log.Warningf("failed to release attribute %q in %q: %v", s.Attribute, tx.dataset, err)
	}
	tx.releaseStringLiteral(set.ValueBody, s.Value)
}

// releaseStringLiteral releases v if it is an unused string literal. Other values are ignored.
func (tx *WriteTx) releaseStringLiteral(id uint64, v model.Value) {
	str, ok := v.(model.StringLiteral)
	if !ok {
		return
	}
	if _, err := tx.ids.ReleaseStringLiteralIfUnused(id, str); err != nil {
		metrics.GCFailures.Inc()
		log.Warningf("failed to release string literal %q in %q: %v", string(str), tx.dataset, err)
	}
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Commit ends the transaction. All changes are already persisted.
func (tx *WriteTx) Commit() error {
	return tx.end()
}

// Cancel ends the transaction. Changes made by completed calls are not rolled back,
// each call was already applied atomically.
func (tx *WriteTx) Cancel() error {
	return tx.end()
}

// Done reports whether the transaction was committed or cancelled.
func (tx *WriteTx) Done() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.ended
}

func (tx *WriteTx) end() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.ended {
		return model.NewError(model.ErrCInvalidArgument, "write transaction on %q already ended", tx.dataset)
	}
	tx.ended = true
	if tx.release != nil {
		tx.release()
	}
	return nil
}
