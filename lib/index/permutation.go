package index

import (
	"github.com/ValentinKolb/dTriple/lib/codec"
	"github.com/ValentinKolb/dTriple/lib/model"
)

// --------------------------------------------------------------------------
// Statement Id Set
// --------------------------------------------------------------------------

// StatementIdSet is the resolved numeric form of a persisted statement from which
// all seven index keys are derived.
type StatementIdSet struct {
	Entity    uint64
	Attribute uint64
	ValueKind model.ValueKind
	ValueBody uint64 // interned id (Entity, String) or order-preserving literal bits
	Context   uint64
}

// Value returns the encoded [kind][body] value field.
func (s StatementIdSet) Value() []byte {
	return codec.EncodeValue(s.ValueKind, s.ValueBody)
}

// --------------------------------------------------------------------------
// Permutations
// --------------------------------------------------------------------------

// Permutation is the family tag of one statement sort order.
type Permutation byte

const (
	EAVC Permutation = 5
	EVAC Permutation = 6
	AEVC Permutation = 7
	AVEC Permutation = 8
	VEAC Permutation = 9
	VAEC Permutation = 10
	CEAV Permutation = 11
)

// Permutations lists all seven permutations in tag order.
var Permutations = [7]Permutation{EAVC, EVAC, AEVC, AVEC, VEAC, VAEC, CEAV}

// KeySize is the length of every permutation key: tag + 3 ids + one value.
const KeySize = 1 + 3*codec.IDSize + codec.ValueSize

type field int

const (
	fieldEntity field = iota
	fieldAttribute
	fieldValue
	fieldContext
)

var fieldOrder = map[Permutation][4]field{
	EAVC: {fieldEntity, fieldAttribute, fieldValue, fieldContext},
	EVAC: {fieldEntity, fieldValue, fieldAttribute, fieldContext},
	AEVC: {fieldAttribute, fieldEntity, fieldValue, fieldContext},
	AVEC: {fieldAttribute, fieldValue, fieldEntity, fieldContext},
	VEAC: {fieldValue, fieldEntity, fieldAttribute, fieldContext},
	VAEC: {fieldValue, fieldAttribute, fieldEntity, fieldContext},
	CEAV: {fieldContext, fieldEntity, fieldAttribute, fieldValue},
}

func (p Permutation) String() string {
	switch p {
	case EAVC:
		return "EAVC"
	case EVAC:
		return "EVAC"
	case AEVC:
		return "AEVC"
	case AVEC:
		return "AVEC"
	case VEAC:
		return "VEAC"
	case VAEC:
		return "VAEC"
	case CEAV:
		return "CEAV"
	default:
		return "Unknown"
	}
}

// Valid reports whether p is one of the seven permutation tags.
func (p Permutation) Valid() bool {
	_, ok := fieldOrder[p]
	return ok
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// Encode builds the key of a statement for one permutation.
func Encode(p Permutation, s StatementIdSet) []byte {
	key := make([]byte, 0, KeySize)
	key = append(key, byte(p))
	for _, f := range fieldOrder[p] {
		switch f {
		case fieldEntity:
			key = append(key, codec.EncodeID(s.Entity)...)
		case fieldAttribute:
			key = append(key, codec.EncodeID(s.Attribute)...)
		case fieldValue:
			key = append(key, s.Value()...)
		case fieldContext:
			key = append(key, codec.EncodeID(s.Context)...)
		}
	}
	return key
}

// EncodeAll builds all seven keys of a statement, in the order of Permutations.
func EncodeAll(s StatementIdSet) [7][]byte {
	var keys [7][]byte
	for i, p := range Permutations {
		keys[i] = Encode(p, s)
	}
	return keys
}

// Decode parses a permutation key (including its leading tag) back into the
// StatementIdSet. Truncated keys, trailing bytes and unknown tags are DecodingErrors.
func Decode(key []byte) (StatementIdSet, error) {
	var s StatementIdSet

	tag, rest, err := codec.ChompByte(key)
	if err != nil {
		return s, err
	}
	order, ok := fieldOrder[Permutation(tag)]
	if !ok {
		return s, model.NewError(model.ErrCDecoding, "unknown permutation tag %d", tag)
	}

	for _, f := range order {
		switch f {
		case fieldEntity:
			s.Entity, rest, err = codec.ChompID(rest)
		case fieldAttribute:
			s.Attribute, rest, err = codec.ChompID(rest)
		case fieldValue:
			s.ValueKind, s.ValueBody, rest, err = codec.ChompValue(rest)
		case fieldContext:
			s.Context, rest, err = codec.ChompID(rest)
		}
		if err != nil {
			return StatementIdSet{}, err
		}
	}

	if len(rest) != 0 {
		return StatementIdSet{}, model.NewError(model.ErrCDecoding, "%s key has %d trailing bytes", Permutation(tag), len(rest))
	}
	return s, nil
}

// --------------------------------------------------------------------------
// Prefixes
// --------------------------------------------------------------------------

// Prefix builds a scan prefix for permutation p from the encoded leading fields.
// Use IDPart and ValuePart to encode the fields in the permutation's order.
func Prefix(p Permutation, parts ...[]byte) []byte {
	return codec.Prepend(byte(p), parts...)
}

// IDPart encodes an entity, attribute or context id as a prefix part.
func IDPart(id uint64) []byte {
	return codec.EncodeID(id)
}

// ValuePart encodes a value field as a prefix part.
func ValuePart(kind model.ValueKind, body uint64) []byte {
	return codec.EncodeValue(kind, body)
}
