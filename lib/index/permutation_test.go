package index

import (
	"bytes"
	"github.com/ValentinKolb/dTriple/lib/codec"
	"github.com/ValentinKolb/dTriple/lib/model"
	"github.com/cockroachdb/errors"
	"testing"
)

var testSets = []StatementIdSet{
	{Entity: 1, Attribute: 1, ValueKind: model.KindString, ValueBody: 1, Context: 2},
	{Entity: 3, Attribute: 2, ValueKind: model.KindEntity, ValueBody: 5, Context: 6},
	{Entity: 3, Attribute: 2, ValueKind: model.KindInteger, ValueBody: codec.EncodeInteger(-4200), Context: 7},
	{Entity: 5, Attribute: 2, ValueKind: model.KindFloat, ValueBody: codec.EncodeFloat(42.2), Context: 8},
	{Entity: ^uint64(0), Attribute: ^uint64(0), ValueKind: model.KindFloat, ValueBody: ^uint64(0), Context: ^uint64(0)},
}

func TestRoundTrip(t *testing.T) {
	for _, set := range testSets {
		keys := EncodeAll(set)
		for i, key := range keys {
			if len(key) != KeySize {
				t.Errorf("%s key has length %d, expected %d", Permutations[i], len(key), KeySize)
			}
			if Permutation(key[0]) != Permutations[i] {
				t.Errorf("key %d starts with tag %d, expected %s", i, key[0], Permutations[i])
			}
			got, err := Decode(key)
			if err != nil {
				t.Fatalf("Decode(%s) failed: %v", Permutations[i], err)
			}
			if got != set {
				t.Errorf("Decode(%s) = %+v, expected %+v", Permutations[i], got, set)
			}
		}
	}
}

func TestDistinctTags(t *testing.T) {
	seen := map[Permutation]bool{}
	for _, p := range Permutations {
		if seen[p] {
			t.Errorf("duplicate tag %s", p)
		}
		seen[p] = true
		if !p.Valid() {
			t.Errorf("%s should be valid", p)
		}
		if p.String() == "Unknown" {
			t.Errorf("tag %d has no name", p)
		}
	}
	if Permutation(FamilyReserved).Valid() || Permutation(FamilyAttributeIDToName).Valid() {
		t.Errorf("non-permutation families must not be valid permutations")
	}
}

func TestDecodeMalformed(t *testing.T) {
	key := Encode(EAVC, testSets[0])

	for i := 0; i < len(key); i++ {
		if _, err := Decode(key[:i]); !errors.Is(err, model.ErrDecoding) {
			t.Errorf("Decode of %d-byte prefix expected DecodingError, got %v", i, err)
		}
	}
	if _, err := Decode(append(append([]byte{}, key...), 0)); !errors.Is(err, model.ErrDecoding) {
		t.Errorf("Decode with trailing byte expected DecodingError, got %v", err)
	}

	unknownTag := append([]byte{}, key...)
	unknownTag[0] = byte(FamilyStringLiteralToID)
	if _, err := Decode(unknownTag); !errors.Is(err, model.ErrDecoding) {
		t.Errorf("Decode with unknown tag expected DecodingError, got %v", err)
	}

	badKind := append([]byte{}, key...)
	badKind[1+2*codec.IDSize] = 7
	if _, err := Decode(badKind); !errors.Is(err, model.ErrDecoding) {
		t.Errorf("Decode with unknown value kind expected DecodingError, got %v", err)
	}
}

func TestPrefixes(t *testing.T) {
	set := testSets[1]

	tests := []struct {
		name   string
		p      Permutation
		prefix []byte
	}{
		{"entity", EAVC, Prefix(EAVC, IDPart(set.Entity))},
		{"entity+attribute", EAVC, Prefix(EAVC, IDPart(set.Entity), IDPart(set.Attribute))},
		{"entity+value", EVAC, Prefix(EVAC, IDPart(set.Entity), ValuePart(set.ValueKind, set.ValueBody))},
		{"attribute", AEVC, Prefix(AEVC, IDPart(set.Attribute))},
		{"attribute+value", AVEC, Prefix(AVEC, IDPart(set.Attribute), ValuePart(set.ValueKind, set.ValueBody))},
		{"value", VEAC, Prefix(VEAC, ValuePart(set.ValueKind, set.ValueBody))},
		{"value+attribute", VAEC, Prefix(VAEC, ValuePart(set.ValueKind, set.ValueBody), IDPart(set.Attribute))},
		{"context", CEAV, Prefix(CEAV, IDPart(set.Context))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !bytes.HasPrefix(Encode(tt.p, set), tt.prefix) {
				t.Errorf("key does not start with prefix")
			}
			other := testSets[0]
			if bytes.HasPrefix(Encode(tt.p, other), tt.prefix) {
				t.Errorf("unrelated statement matches prefix")
			}
		})
	}
}

func TestInterningKeys(t *testing.T) {
	if !bytes.Equal(AttributeNameKey("name"), append([]byte{3}, "name"...)) {
		t.Errorf("unexpected attribute name key")
	}
	if !bytes.Equal(AttributeIDKey(1), []byte{4, 0, 0, 0, 0, 0, 0, 0, 1}) {
		t.Errorf("unexpected attribute id key")
	}
	s, err := StringLiteralFromKey(StringLiteralKey("Juniper"))
	if err != nil || s != "Juniper" {
		t.Errorf("StringLiteralFromKey = %q, %v", s, err)
	}
	if _, err := StringLiteralFromKey(AttributeNameKey("name")); !errors.Is(err, model.ErrDecoding) {
		t.Errorf("expected DecodingError for wrong family, got %v", err)
	}
}
