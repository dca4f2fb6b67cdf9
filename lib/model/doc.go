// Package model defines the data model of the triple store: entities, attributes,
// values, statements and the error taxonomy shared by all other packages.
//
// Key Components:
//
//   - Entity: an opaque 64-bit resource identifier allocated per dataset.
//   - Attribute: a named predicate. Names are interned to ids by the store.
//   - Value: a sum type with the four variants Entity, StringLiteral, IntegerLiteral
//     and FloatLiteral. Each variant reports its one-byte ValueKind discriminant.
//   - Statement / PersistedStatement: a triple and a triple tagged with the context
//     entity that was allocated when the triple was inserted.
//   - Range: a half-open [Start, End) range over literal values used by range matches.
//   - Error: a coded error (see ErrCode) that can be tested with errors.Is against the
//     exported sentinels (ErrInvalidEntity, ErrDecoding, ...).
package model
