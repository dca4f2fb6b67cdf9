// Package index defines the persisted key layout of a dataset namespace and the
// seven-permutation statement index built on top of the codec package.
//
// Every key starts with a one-byte family tag:
//
//	[0]                      entity counter (8 bytes)
//	[1]                      attribute counter
//	[2]                      string-literal counter
//	[3][attribute name]      -> attribute id
//	[4][attribute id]        -> attribute name
//	[5..11][...]             statement permutations (empty values)
//	[12]                     reserved
//	[13][string]             -> string-literal id
//	[14][string-literal id]  -> string
//
// A statement is stored as seven keys, one per permutation of (entity, attribute,
// value, context). Any combination of bound fields is the leading prefix of one
// permutation, so a plain ordered map can answer the match queries with a single
// prefix or range scan. Keys carry the whole fact; the stored values are empty.
package index
