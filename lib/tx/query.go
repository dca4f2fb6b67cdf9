package tx

import (
	"bytes"
	"github.com/ValentinKolb/dTriple/lib/codec"
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/ValentinKolb/dTriple/lib/index"
	"github.com/ValentinKolb/dTriple/lib/intern"
	"github.com/ValentinKolb/dTriple/lib/metrics"
	"github.com/ValentinKolb/dTriple/lib/model"
	"iter"
)

// Statements is a finite sequence of statements. Every range over it runs a new scan.
// A non-nil error ends the sequence.
type Statements = iter.Seq2[model.PersistedStatement, error]

// QueryTx is the query transaction of one dataset.
//
// Thread-safety: QueryTx is safe for concurrent use. Reads observe the current state
// of the dataset; separate calls are not guaranteed to see the same snapshot.
type QueryTx struct {
	dataset string
	kv      db.KVDB
	ids     *intern.Manager
}

// NewQueryTx creates a query transaction on the namespace of dataset.
func NewQueryTx(dataset string, kv db.KVDB) *QueryTx {
	return &QueryTx{
		dataset: dataset,
		kv:      kv,
		ids:     intern.NewManager(kv),
	}
}

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

// AllStatements returns every statement of the dataset in EAVC order.
func (q *QueryTx) AllStatements() Statements {
	return q.scanPrefix(index.Prefix(index.EAVC))
}

// MatchStatements returns all statements matching the bound fields. nil arguments are
// unbound.
func (q *QueryTx) MatchStatements(entity *model.Entity, attribute *model.Attribute, value model.Value) Statements {
	return func(yield func(model.PersistedStatement, error) bool) {
		e, a, v, ok, err := q.resolvePattern(entity, attribute, value)
		if err != nil {
			yield(model.PersistedStatement{}, err)
			return
		}
		if !ok {
			return
		}

		var prefix []byte
		switch {
		case e != nil && a != nil && v != nil:
			prefix = index.Prefix(index.EAVC, e, a, v)
		case e != nil && a != nil:
			prefix = index.Prefix(index.EAVC, e, a)
		case e != nil && v != nil:
			prefix = index.Prefix(index.EVAC, e, v)
		case a != nil && v != nil:
			prefix = index.Prefix(index.VAEC, v, a)
		case e != nil:
			prefix = index.Prefix(index.EAVC, e)
		case a != nil:
			prefix = index.Prefix(index.AEVC, a)
		case v != nil:
			prefix = index.Prefix(index.VEAC, v)
		default:
			prefix = index.Prefix(index.EAVC)
		}
		q.scanPrefix(prefix)(yield)
	}
}

// MatchStatementsRange returns all statements matching the bound entity and attribute
// whose value lies in the half-open range r. Both bounds must be integer, float or
// string literals of the same kind.
func (q *QueryTx) MatchStatementsRange(entity *model.Entity, attribute *model.Attribute, r model.Range) Statements {
	return func(yield func(model.PersistedStatement, error) bool) {
		if err := r.Validate(); err != nil {
			yield(model.PersistedStatement{}, err)
			return
		}
		e, a, _, ok, err := q.resolvePattern(entity, attribute, nil)
		if err != nil {
			yield(model.PersistedStatement{}, err)
			return
		}
		if !ok {
			return
		}

		var prefix []byte
		switch {
		case e != nil && a != nil:
			prefix = index.Prefix(index.EAVC, e, a)
		case e != nil:
			prefix = index.Prefix(index.EVAC, e)
		case a != nil:
			prefix = index.Prefix(index.AVEC, a)
		default:
			prefix = index.Prefix(index.VEAC)
		}

		if r.Kind() == model.KindString {
			q.scanStringRange(prefix, r.Start.(model.StringLiteral), r.End.(model.StringLiteral))(yield)
			return
		}

		startBody, _ := codec.LiteralBody(r.Start)
		endBody, _ := codec.LiteralBody(r.End)
		start := appendValue(prefix, r.Kind(), startBody)
		end := appendValue(prefix, r.Kind(), endBody)
		if bytes.Compare(start, end) >= 0 {
			return
		}
		q.scan(start, end)(yield)
	}
}

// StatementForContext returns the statement stored under the context, if any.
// More than one statement under one context is a DuplicateContext error.
func (q *QueryTx) StatementForContext(context model.Entity) (model.PersistedStatement, bool, error) {
	var keys [][]byte
	err := db.ScanPrefix(q.kv, index.Prefix(index.CEAV, index.IDPart(uint64(context))), func(key, _ []byte) bool {
		keys = append(keys, append([]byte{}, key...))
		return len(keys) < 2
	})
	metrics.QueryScans(q.dataset).Inc()
	if err != nil {
		return model.PersistedStatement{}, false, model.StoreError(err, "failed to look up context %d", uint64(context))
	}

	switch len(keys) {
	case 0:
		return model.PersistedStatement{}, false, nil
	case 1:
		ps, err := q.decode(keys[0])
		return ps, err == nil, err
	default:
		metrics.DuplicateContexts.Inc()
		log.Errorf("dataset %q has more than one statement under context %d", q.dataset, uint64(context))
		return model.PersistedStatement{}, false, model.NewError(model.ErrCDuplicateContext, "context %d has more than one statement", uint64(context))
	}
}

// --------------------------------------------------------------------------
// Pattern resolution
// --------------------------------------------------------------------------

// resolvePattern encodes the bound fields. ok is false if a bound field cannot match
// anything (unknown attribute, string never interned, entity never allocated).
func (q *QueryTx) resolvePattern(entity *model.Entity, attribute *model.Attribute, value model.Value) (e, a, v []byte, ok bool, err error) {
	if entity != nil {
		valid, err := q.entityExists(*entity)
		if err != nil || !valid {
			return nil, nil, nil, false, err
		}
		e = index.IDPart(uint64(*entity))
	}

	if attribute != nil {
		id, found, err := q.ids.LookupAttribute(*attribute)
		if err != nil || !found {
			return nil, nil, nil, false, err
		}
		a = index.IDPart(id)
	}

	if value != nil {
		switch val := value.(type) {
		case model.Entity:
			valid, err := q.entityExists(val)
			if err != nil || !valid {
				return nil, nil, nil, false, err
			}
			v = index.ValuePart(model.KindEntity, uint64(val))
		case model.StringLiteral:
			id, found, err := q.ids.LookupStringLiteral(val)
			if err != nil || !found {
				return nil, nil, nil, false, err
			}
			v = index.ValuePart(model.KindString, id)
		default:
			// NaN is never stored
			if model.ValidateValue(val) != nil {
				return nil, nil, nil, false, nil
			}
			body, _ := codec.LiteralBody(val)
			v = index.ValuePart(val.Kind(), body)
		}
	}
	return e, a, v, true, nil
}

func (q *QueryTx) entityExists(e model.Entity) (bool, error) {
	err := q.ids.ValidateEntity(e)
	if err == nil {
		return true, nil
	}
	if model.CodeOf(err) == model.ErrCInvalidEntity {
		return false, nil
	}
	return false, err
}

// --------------------------------------------------------------------------
// Scanning and decoding
// --------------------------------------------------------------------------

func appendValue(prefix []byte, kind model.ValueKind, body uint64) []byte {
	key := make([]byte, 0, len(prefix)+codec.ValueSize)
	key = append(key, prefix...)
	return append(key, index.ValuePart(kind, body)...)
}

func (q *QueryTx) scanPrefix(prefix []byte) Statements {
	return q.scan(prefix, db.PrefixEnd(prefix))
}

// scan decodes every permutation key in [start, end).
func (q *QueryTx) scan(start, end []byte) Statements {
	return func(yield func(model.PersistedStatement, error) bool) {
		metrics.QueryScans(q.dataset).Inc()

		stopped := false
		err := q.kv.Scan(start, end, func(key, _ []byte) bool {
			ps, err := q.decode(key)
			if err != nil {
				yield(model.PersistedStatement{}, err)
				stopped = true
				return false
			}
			if !yield(ps, nil) {
				stopped = true
				return false
			}
			return true
		})
		if err != nil && !stopped {
			yield(model.PersistedStatement{}, model.StoreError(err, "failed to scan %q", q.dataset))
		}
	}
}

// scanStringRange scans the value range of every interned string in [from, to).
// The literal ids are collected first so no scan is nested in another.
func (q *QueryTx) scanStringRange(prefix []byte, from, to model.StringLiteral) Statements {
	return func(yield func(model.PersistedStatement, error) bool) {
		if from >= to {
			return
		}

		var ids []uint64
		var decodeErr error
		err := q.kv.Scan(index.StringLiteralKey(from), index.StringLiteralKey(to), func(_, value []byte) bool {
			id, err := codec.DecodeID(value)
			if err != nil {
				decodeErr = err
				return false
			}
			ids = append(ids, id)
			return true
		})
		if err == nil {
			err = decodeErr
		}
		if err != nil {
			yield(model.PersistedStatement{}, model.StoreError(err, "failed to scan string literals of %q", q.dataset))
			return
		}

		for _, id := range ids {
			for ps, err := range q.scanPrefix(appendValue(prefix, model.KindString, id)) {
				if !yield(ps, err) || err != nil {
					return
				}
			}
		}
	}
}

// decode turns a permutation key back into a persisted statement.
func (q *QueryTx) decode(key []byte) (model.PersistedStatement, error) {
	set, err := index.Decode(key)
	if err != nil {
		return model.PersistedStatement{}, err
	}
	metrics.KeysDecoded.Inc()

	attribute, err := q.ids.AttributeName(set.Attribute)
	if err != nil {
		return model.PersistedStatement{}, err
	}

	var value model.Value
	switch set.ValueKind {
	case model.KindEntity:
		value = model.Entity(set.ValueBody)
	case model.KindString:
		if value, err = q.ids.StringLiteral(set.ValueBody); err != nil {
			return model.PersistedStatement{}, err
		}
	default:
		if value, err = codec.DecodeLiteral(set.ValueKind, set.ValueBody); err != nil {
			return model.PersistedStatement{}, err
		}
	}

	return model.PersistedStatement{
		Statement: model.Statement{
			Entity:    model.Entity(set.Entity),
			Attribute: attribute,
			Value:     value,
		},
		Context: model.Entity(set.Context),
	}, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// Collect drains a sequence into a slice and returns the first error.
func Collect(seq Statements) ([]model.PersistedStatement, error) {
	var result []model.PersistedStatement
	for ps, err := range seq {
		if err != nil {
			return result, err
		}
		result = append(result, ps)
	}
	return result, nil
}
