// Package codec implements the binary encoding used by the triple store.
// All functions are pure and hold no state.
//
// Encodings:
//
//   - Identifiers: 8 bytes big-endian. Byte order equals numeric order, which makes
//     range scans over ids possible.
//   - Values: [kind][8-byte body]. Entity and String bodies are interned ids; Integer
//     and Float bodies are order-preserving transforms of the literal (see EncodeInteger
//     and EncodeFloat), so that a byte range over encoded values is a numeric range.
//   - Attributes and dataset names: their raw UTF-8 bytes.
//
// Decoding is strict: the Chomp family consumes fixed-width fields from the front of a
// buffer and returns a model.ErrDecoding error when the buffer is too short. No function
// in this package panics on malformed input.
package codec
