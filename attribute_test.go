package amo

import (
	"bytes"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestAttributeTypeRoundTrip(t *testing.T) {
	t.Run("S", func(t *testing.T) {
		for _, raw := range []string{"", "env", "arn:aws:iam::123:role/x", "ünïcode"} {
			got, ok := S.Decode(S.Encode(raw))
			if !ok || got != raw {
				t.Errorf("Round trip of %q gave %q (%v)", raw, got, ok)
			}
		}
	})

	t.Run("N", func(t *testing.T) {
		for _, raw := range []Number{"0", "-5", "3.14", "1e10", "not validated"} {
			got, ok := N.Decode(N.Encode(raw))
			if !ok || got != raw {
				t.Errorf("Round trip of %q gave %q (%v)", raw, got, ok)
			}
		}
	})

	t.Run("B", func(t *testing.T) {
		for _, raw := range [][]byte{{}, {0}, []byte("bytes")} {
			got, ok := B.Decode(B.Encode(raw))
			if !ok || !bytes.Equal(got, raw) {
				t.Errorf("Round trip of %v gave %v (%v)", raw, got, ok)
			}
		}
	})

	t.Run("Opaque", func(t *testing.T) {
		values := []types.AttributeValue{
			&types.AttributeValueMemberS{Value: "s"},
			&types.AttributeValueMemberBOOL{Value: true},
			&types.AttributeValueMemberM{Value: map[string]types.AttributeValue{}},
		}
		for _, av := range values {
			got, ok := Opaque.Decode(Opaque.Encode(Document{av}))
			if !ok || got.Value != av {
				t.Errorf("Round trip of %T gave %T (%v)", av, got.Value, ok)
			}
		}
	})
}

func TestOpaqueEmptyDocument(t *testing.T) {
	av, err := MarshalValue[Document](Document{})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if null, ok := av.(*types.AttributeValueMemberNULL); !ok || !null.Value {
		t.Errorf("Expected NULL, got %#v", av)
	}

	docs := NewHashTable[Tag]("docs", nil, Key("doc", Opaque))
	input, err := docs.Get(Document{}).Input()
	if err != nil {
		t.Fatalf("Failed to build input: %v", err)
	}
	if input.Key["doc"] == nil {
		t.Error("Expected a non-nil key attribute")
	}
}

func TestAttributeTypeMismatch(t *testing.T) {
	n := &types.AttributeValueMemberN{Value: "5"}
	s := &types.AttributeValueMemberS{Value: "5"}
	b := &types.AttributeValueMemberB{Value: []byte("5")}

	if _, ok := S.Decode(n); ok {
		t.Error("S decoded an N value")
	}
	if _, ok := N.Decode(s); ok {
		t.Error("N decoded an S value")
	}
	if _, ok := B.Decode(s); ok {
		t.Error("B decoded an S value")
	}
	if _, ok := S.Decode(b); ok {
		t.Error("S decoded a B value")
	}
	if _, ok := S.Decode(nil); ok {
		t.Error("S decoded nil")
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		got  string
	}{
		{"S", TypeOf[string]().Name()},
		{"N", TypeOf[Number]().Name()},
		{"B", TypeOf[[]byte]().Name()},
		{"<any>", TypeOf[Document]().Name()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.name {
				t.Errorf("Expected %s, got %s", tt.name, tt.got)
			}
		})
	}
}
