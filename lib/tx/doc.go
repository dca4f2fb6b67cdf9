// Package tx implements the write and query transactions of one dataset.
//
// A WriteTx adds and removes statements. Every mutating call is applied to the
// dataset's namespace as one atomic batch (counter bump plus map entries when
// interning, all seven permutation keys when inserting or deleting a statement), so
// there is nothing to buffer: Commit and Cancel only end the transaction and release
// the dataset's writer lock. The store hands out at most one open WriteTx per dataset.
//
// A QueryTx answers full scans, single-pattern matches, range matches and context
// lookups. Results are iter.Seq2 sequences. A sequence does not hold a cursor, every
// range over it issues a fresh scan of the current state. Patterns are mapped to the
// permutation whose leading fields are exactly the bound fields:
//
//	bound fields     permutation   prefix
//	(none)           EAVC          [5]
//	E                EAVC          [5][E]
//	A                AEVC          [7][A]
//	V                VEAC          [9][V]
//	E, A             EAVC          [5][E][A]
//	E, V             EVAC          [6][E][V]
//	A, V             VAEC          [10][V][A]
//	E, A, V          EAVC          [5][E][A][V]
//
// Range matches bind the value field to a half-open range [start, end) behind the
// bound fields (E,A: EAVC, E: EVAC, A: AVEC, none: VEAC). Integer and float bounds map
// directly to byte ranges through the order-preserving literal encoding. String bounds
// are resolved by walking the [13] literal map in text order and scanning every
// literal id in the range.
//
// Names or entities in a pattern that were never interned or allocated produce an
// empty result instead of an error.
package tx
