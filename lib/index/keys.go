package index

import (
	"github.com/ValentinKolb/dTriple/lib/codec"
	"github.com/ValentinKolb/dTriple/lib/model"
)

// --------------------------------------------------------------------------
// Key Families
// --------------------------------------------------------------------------

// Family is the one-byte tag at the start of every key.
type Family byte

const (
	FamilyEntityCounter        Family = 0
	FamilyAttributeCounter     Family = 1
	FamilyStringCounter        Family = 2
	FamilyAttributeNameToID    Family = 3
	FamilyAttributeIDToName    Family = 4
	FamilyReserved             Family = 12
	FamilyStringLiteralToID    Family = 13
	FamilyStringLiteralIDToStr Family = 14
)

// --------------------------------------------------------------------------
// Counter Keys
// --------------------------------------------------------------------------

// EntityCounterKey is the key of the entity counter.
func EntityCounterKey() []byte {
	return []byte{byte(FamilyEntityCounter)}
}

// AttributeCounterKey is the key of the attribute counter.
func AttributeCounterKey() []byte {
	return []byte{byte(FamilyAttributeCounter)}
}

// StringCounterKey is the key of the string-literal counter.
func StringCounterKey() []byte {
	return []byte{byte(FamilyStringCounter)}
}

// --------------------------------------------------------------------------
// Interning Keys
// --------------------------------------------------------------------------

// AttributeNameKey maps an attribute name to its id.
func AttributeNameKey(a model.Attribute) []byte {
	return codec.Prepend(byte(FamilyAttributeNameToID), codec.EncodeAttribute(a))
}

// AttributeIDKey maps an attribute id to its name.
func AttributeIDKey(id uint64) []byte {
	return codec.Prepend(byte(FamilyAttributeIDToName), codec.EncodeID(id))
}

// StringLiteralKey maps a string literal to its id.
func StringLiteralKey(s model.StringLiteral) []byte {
	return codec.Prepend(byte(FamilyStringLiteralToID), []byte(s))
}

// StringLiteralIDKey maps a string-literal id to its text.
func StringLiteralIDKey(id uint64) []byte {
	return codec.Prepend(byte(FamilyStringLiteralIDToStr), codec.EncodeID(id))
}

// StringLiteralFromKey extracts the text from a StringLiteralKey.
func StringLiteralFromKey(key []byte) (model.StringLiteral, error) {
	tag, rest, err := codec.ChompByte(key)
	if err != nil {
		return "", err
	}
	if Family(tag) != FamilyStringLiteralToID {
		return "", model.NewError(model.ErrCDecoding, "key family %d is not a string-literal key", tag)
	}
	return model.StringLiteral(rest), nil
}
