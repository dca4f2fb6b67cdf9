package db

import (
	"bytes"
)

type OpType uint8

const (
	OpSet OpType = iota
	OpDelete
)

// Operation is a single write inside a Batch.
type Operation struct {
	Type  OpType
	Key   []byte
	Value []byte
}

// Condition is a precondition checked before a Batch is applied.
type Condition struct {
	Key    []byte
	Value  []byte
	Absent bool // the key must not exist (Value is ignored)
}

// Batch collects writes and preconditions that are applied as one atomic unit by
// KVDB.Apply. Keys and values are copied, so callers may reuse their buffers.
type Batch struct {
	ops   []Operation
	conds []Condition
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{
		ops: make([]Operation, 0, 8),
	}
}

// Set updates the key with the specified value.
// A nil value is stored as an empty value.
func (b *Batch) Set(key, value []byte) {
	b.ops = append(b.ops, Operation{
		Type:  OpSet,
		Key:   cloneBytes(key),
		Value: cloneBytes(value),
	})
}

// Delete removes the specified key.
func (b *Batch) Delete(key []byte) {
	b.ops = append(b.ops, Operation{
		Type: OpDelete,
		Key:  cloneBytes(key),
	})
}

// Expect requires the key to exist with exactly the given value.
func (b *Batch) Expect(key, value []byte) {
	b.conds = append(b.conds, Condition{Key: cloneBytes(key), Value: cloneBytes(value)})
}

// ExpectAbsent requires the key not to exist.
func (b *Batch) ExpectAbsent(key []byte) {
	b.conds = append(b.conds, Condition{Key: cloneBytes(key), Absent: true})
}

// Operations returns the writes in insertion order.
func (b *Batch) Operations() []Operation {
	return b.ops
}

// Conditions returns the preconditions.
func (b *Batch) Conditions() []Condition {
	return b.conds
}

// Len returns the number of writes.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Reset clears the batch for reuse.
func (b *Batch) Reset() {
	b.ops = b.ops[:0]
	b.conds = b.conds[:0]
}

// Validate rejects batches containing empty keys.
func (b *Batch) Validate() error {
	for _, op := range b.ops {
		if len(op.Key) == 0 {
			return ErrEmptyKey
		}
	}
	for _, c := range b.conds {
		if len(c.Key) == 0 {
			return ErrEmptyKey
		}
	}
	return nil
}

// Check evaluates all preconditions with the given lookup function.
// Engines call this while holding whatever guarantees atomicity with the following writes.
func (b *Batch) Check(get func(key []byte) (value []byte, loaded bool, err error)) (bool, error) {
	for _, c := range b.conds {
		value, loaded, err := get(c.Key)
		if err != nil {
			return false, err
		}
		if c.Absent {
			if loaded {
				return false, nil
			}
			continue
		}
		if !loaded || !bytes.Equal(value, c.Value) {
			return false, nil
		}
	}
	return true, nil
}

func cloneBytes(b []byte) []byte {
	return append([]byte{}, b...)
}
