package amo

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Number is the raw form of an N attribute: a decimal numeral kept as text.
// The text is not validated here; DynamoDB rejects malformed numbers.
type Number string

// Document is the raw form of an [Opaque] attribute. It carries any attribute
// value unchanged and backs nested maps and loosely typed fields.
type Document struct {
	Value types.AttributeValue
}

// Raw is the closed set of raw representations. Each raw type belongs to
// exactly one attribute type:
//
//	string   -> S
//	Number   -> N
//	[]byte   -> B
//	Document -> Opaque
type Raw interface {
	string | Number | []byte | Document
}

// KeyRaw is the set of raw representations that may back a table key.
type KeyRaw interface {
	string | Number | []byte | Document
}

// AttributeType describes how raw values of type R are wrapped into, and
// recovered from, DynamoDB attribute values. The set of attribute types is
// fixed: [S], [N], [B] and [Opaque].
type AttributeType[R Raw] interface {
	// Name is the wire discriminant, e.g. "S".
	Name() string
	// Encode wraps a raw value. It never fails.
	Encode(R) types.AttributeValue
	// Decode unwraps av. It reports false, leaving av untouched for the
	// caller, when av carries a different discriminant.
	Decode(av types.AttributeValue) (R, bool)

	attributeType()
}

type stringType struct{}

func (stringType) Name() string { return "S" }

func (stringType) Encode(raw string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: raw}
}

func (stringType) Decode(av types.AttributeValue) (string, bool) {
	if s, ok := av.(*types.AttributeValueMemberS); ok && s != nil {
		return s.Value, true
	}
	return "", false
}

func (stringType) attributeType() {}

type numberType struct{}

func (numberType) Name() string { return "N" }

func (numberType) Encode(raw Number) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: string(raw)}
}

func (numberType) Decode(av types.AttributeValue) (Number, bool) {
	if n, ok := av.(*types.AttributeValueMemberN); ok && n != nil {
		return Number(n.Value), true
	}
	return "", false
}

func (numberType) attributeType() {}

type binaryType struct{}

func (binaryType) Name() string { return "B" }

func (binaryType) Encode(raw []byte) types.AttributeValue {
	return &types.AttributeValueMemberB{Value: raw}
}

func (binaryType) Decode(av types.AttributeValue) ([]byte, bool) {
	if b, ok := av.(*types.AttributeValueMemberB); ok && b != nil {
		return b.Value, true
	}
	return nil, false
}

func (binaryType) attributeType() {}

type opaqueType struct{}

func (opaqueType) Name() string { return "<any>" }

// Encode writes an empty Document as NULL, never as a nil attribute value.
func (opaqueType) Encode(raw Document) types.AttributeValue {
	if raw.Value == nil {
		return &types.AttributeValueMemberNULL{Value: true}
	}
	return raw.Value
}

func (opaqueType) Decode(av types.AttributeValue) (Document, bool) {
	return Document{av}, true
}

func (opaqueType) attributeType() {}

// The four attribute types.
var (
	S      AttributeType[string]   = stringType{}
	N      AttributeType[Number]   = numberType{}
	B      AttributeType[[]byte]   = binaryType{}
	Opaque AttributeType[Document] = opaqueType{}
)

// TypeOf returns the attribute type that raw values of type R belong to.
func TypeOf[R Raw]() AttributeType[R] {
	var zero R
	switch any(zero).(type) {
	case string:
		return any(S).(AttributeType[R])
	case Number:
		return any(N).(AttributeType[R])
	case []byte:
		return any(B).(AttributeType[R])
	default:
		return any(Opaque).(AttributeType[R])
	}
}

// scalarType maps a key raw type to the scalar type used in a table key schema.
// Opaque keys have no scalar type and report false.
func scalarType(name string) (types.ScalarAttributeType, bool) {
	switch name {
	case "S":
		return types.ScalarAttributeTypeS, true
	case "N":
		return types.ScalarAttributeTypeN, true
	case "B":
		return types.ScalarAttributeTypeB, true
	}
	return "", false
}
