package codec

import (
	"encoding/binary"
	"github.com/ValentinKolb/dTriple/lib/model"
	"math"
	"unicode/utf8"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	IDSize    = 8          // Width of an encoded id
	ValueSize = 1 + IDSize // Width of an encoded value (kind + body)

	signBit = uint64(1) << 63
)

// --------------------------------------------------------------------------
// Identifiers
// --------------------------------------------------------------------------

// EncodeID encodes an id as 8 bytes big-endian.
func EncodeID(id uint64) []byte {
	b := make([]byte, IDSize)
	binary.BigEndian.PutUint64(b, id)
	return b
}

// DecodeID decodes an id that must be exactly 8 bytes long.
func DecodeID(b []byte) (uint64, error) {
	id, rest, err := ChompID(b)
	if err != nil {
		return 0, err
	}
	if len(rest) != 0 {
		return 0, model.NewError(model.ErrCDecoding, "id has %d trailing bytes", len(rest))
	}
	return id, nil
}

// --------------------------------------------------------------------------
// Literals
// --------------------------------------------------------------------------

// EncodeInteger maps an int64 onto a uint64 whose big-endian bytes sort in numeric
// order (offset binary: the sign bit is flipped).
func EncodeInteger(i int64) uint64 {
	return uint64(i) ^ signBit
}

// DecodeInteger is the inverse of EncodeInteger.
func DecodeInteger(u uint64) int64 {
	return int64(u ^ signBit)
}

// EncodeFloat maps a float64 onto a uint64 whose big-endian bytes sort in numeric
// order. Negative numbers have all bits flipped, non-negative numbers only the sign bit.
// -0.0 is encoded as 0.0. NaN has no place in the order and must be rejected by the
// caller (see model.ValidateValue).
func EncodeFloat(f float64) uint64 {
	if f == 0 {
		f = 0
	}
	bits := math.Float64bits(f)
	if bits&signBit != 0 {
		return ^bits
	}
	return bits | signBit
}

// DecodeFloat is the inverse of EncodeFloat.
func DecodeFloat(u uint64) float64 {
	if u&signBit != 0 {
		return math.Float64frombits(u &^ signBit)
	}
	return math.Float64frombits(^u)
}

// --------------------------------------------------------------------------
// Values
// --------------------------------------------------------------------------

// EncodeValue encodes a value kind and its 8-byte body as [kind][body].
func EncodeValue(kind model.ValueKind, body uint64) []byte {
	b := make([]byte, ValueSize)
	b[0] = byte(kind)
	binary.BigEndian.PutUint64(b[1:], body)
	return b
}

// LiteralBody returns the inline body of an Integer or Float literal.
// The boolean is false for values that are interned instead (Entity, String).
func LiteralBody(v model.Value) (uint64, bool) {
	switch val := v.(type) {
	case model.IntegerLiteral:
		return EncodeInteger(int64(val)), true
	case model.FloatLiteral:
		return EncodeFloat(float64(val)), true
	default:
		return 0, false
	}
}

// DecodeLiteral reconstructs an inline literal from its kind and body.
func DecodeLiteral(kind model.ValueKind, body uint64) (model.Value, error) {
	switch kind {
	case model.KindInteger:
		return model.IntegerLiteral(DecodeInteger(body)), nil
	case model.KindFloat:
		return model.FloatLiteral(DecodeFloat(body)), nil
	default:
		return nil, model.NewError(model.ErrCDecoding, "value kind %s is not an inline literal", kind)
	}
}

// --------------------------------------------------------------------------
// Attributes and Datasets
// --------------------------------------------------------------------------

// EncodeAttribute returns the UTF-8 bytes of an attribute name.
func EncodeAttribute(a model.Attribute) []byte {
	return []byte(a)
}

// DecodeAttribute decodes attribute name bytes.
func DecodeAttribute(b []byte) (model.Attribute, error) {
	if !utf8.Valid(b) {
		return "", model.NewError(model.ErrCDecoding, "attribute name is not valid utf-8")
	}
	return model.Attribute(b), nil
}

// EncodeDataset returns the raw UTF-8 bytes of a dataset name.
func EncodeDataset(d model.Dataset) []byte {
	return []byte(d)
}

// DecodeDataset decodes and validates dataset name bytes.
func DecodeDataset(b []byte) (model.Dataset, error) {
	if !utf8.Valid(b) {
		return "", model.NewError(model.ErrCDecoding, "dataset name is not valid utf-8")
	}
	d, err := model.NewDataset(string(b))
	if err != nil {
		return "", model.WrapError(model.ErrCDecoding, err, "stored dataset name %q", string(b))
	}
	return d, nil
}

// --------------------------------------------------------------------------
// Prepend / Chomp
// --------------------------------------------------------------------------

// Prepend returns a new buffer holding the tag followed by all parts.
func Prepend(tag byte, parts ...[]byte) []byte {
	size := 1
	for _, p := range parts {
		size += len(p)
	}
	b := make([]byte, 0, size)
	b = append(b, tag)
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

// ChompByte consumes a single byte.
func ChompByte(b []byte) (byte, []byte, error) {
	if len(b) < 1 {
		return 0, nil, model.NewError(model.ErrCDecoding, "expected 1 byte, buffer is empty")
	}
	return b[0], b[1:], nil
}

// ChompID consumes an 8-byte big-endian id.
func ChompID(b []byte) (uint64, []byte, error) {
	if len(b) < IDSize {
		return 0, nil, model.NewError(model.ErrCDecoding, "expected %d id bytes, got %d", IDSize, len(b))
	}
	return binary.BigEndian.Uint64(b[:IDSize]), b[IDSize:], nil
}

// ChompValue consumes a [kind][8-byte body] value. Unknown kinds are rejected.
func ChompValue(b []byte) (model.ValueKind, uint64, []byte, error) {
	if len(b) < ValueSize {
		return 0, 0, nil, model.NewError(model.ErrCDecoding, "expected %d value bytes, got %d", ValueSize, len(b))
	}
	kind := model.ValueKind(b[0])
	if kind > model.KindFloat {
		return 0, 0, nil, model.NewError(model.ErrCDecoding, "unknown value kind %d", b[0])
	}
	return kind, binary.BigEndian.Uint64(b[1:ValueSize]), b[ValueSize:], nil
}
