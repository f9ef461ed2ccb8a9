package amo

import (
	"math"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ValueMarshaler is a domain value that encodes to raw type R, and so to
// exactly one attribute type. MarshalRaw must be pure.
type ValueMarshaler[R Raw] interface {
	MarshalRaw() (R, error)
}

// ValueUnmarshaler is a domain value that decodes from raw type R.
// It is usually implemented with a pointer receiver.
type ValueUnmarshaler[R Raw] interface {
	UnmarshalRaw(R) error
}

// MarshalValue encodes v into an attribute value of v's attribute type.
// Failures are returned as *SerializeError.
func MarshalValue[R Raw](v ValueMarshaler[R]) (types.AttributeValue, error) {
	raw, err := v.MarshalRaw()
	if err != nil {
		return nil, asSerializeError("", err)
	}
	return TypeOf[R]().Encode(raw), nil
}

// UnmarshalValue decodes av into out. An attribute value of the wrong type
// fails with an UnexpectedValueType error that carries av unchanged.
// Failures are returned as *DeserializeError.
func UnmarshalValue[R Raw](av types.AttributeValue, out ValueUnmarshaler[R]) error {
	t := TypeOf[R]()
	raw, ok := t.Decode(av)
	if !ok {
		return UnexpectedTypeError(t.Name(), av)
	}
	if err := out.UnmarshalRaw(raw); err != nil {
		return asDeserializeError(err)
	}
	return nil
}

// String is an S value.
type String string

func (s String) MarshalRaw() (string, error) { return string(s), nil }

func (s *String) UnmarshalRaw(raw string) error {
	*s = String(raw)
	return nil
}

func (s String) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return MarshalValue[string](s)
}

func (s *String) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	return UnmarshalValue[string](av, s)
}

// Int is an N value holding a signed integer.
type Int int64

func (i Int) MarshalRaw() (Number, error) {
	return Number(strconv.FormatInt(int64(i), 10)), nil
}

func (i *Int) UnmarshalRaw(raw Number) error {
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return InvalidValueError("%q is not an integer: %v", string(raw), err)
	}
	*i = Int(v)
	return nil
}

func (i Int) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return MarshalValue[Number](i)
}

func (i *Int) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	return UnmarshalValue[Number](av, i)
}

// Float is an N value holding a float64. NaN and infinities have no
// DynamoDB representation and fail to serialize.
type Float float64

func (f Float) MarshalRaw() (Number, error) {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return "", NewSerializeError("%v is not a finite number", float64(f))
	}
	return Number(strconv.FormatFloat(float64(f), 'g', -1, 64)), nil
}

func (f *Float) UnmarshalRaw(raw Number) error {
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return InvalidValueError("%q is not a number: %v", string(raw), err)
	}
	*f = Float(v)
	return nil
}

func (f Float) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return MarshalValue[Number](f)
}

func (f *Float) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	return UnmarshalValue[Number](av, f)
}

func (n Number) MarshalRaw() (Number, error) { return n, nil }

func (n *Number) UnmarshalRaw(raw Number) error {
	*n = raw
	return nil
}

func (n Number) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return MarshalValue[Number](n)
}

func (n *Number) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	return UnmarshalValue[Number](av, n)
}

// Bytes is a B value.
type Bytes []byte

func (b Bytes) MarshalRaw() ([]byte, error) { return []byte(b), nil }

func (b *Bytes) UnmarshalRaw(raw []byte) error {
	*b = Bytes(raw)
	return nil
}

func (b Bytes) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return MarshalValue[[]byte](b)
}

func (b *Bytes) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	return UnmarshalValue[[]byte](av, b)
}

// Time is an S value holding an RFC 3339 timestamp in UTC.
type Time struct {
	time.Time
}

func (t Time) MarshalRaw() (string, error) {
	return t.UTC().Format(time.RFC3339Nano), nil
}

func (t *Time) UnmarshalRaw(raw string) error {
	v, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return InvalidValueError("%q is not an RFC 3339 time: %v", raw, err)
	}
	t.Time = v
	return nil
}

func (t Time) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return MarshalValue[string](t)
}

func (t *Time) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	return UnmarshalValue[string](av, t)
}

func (d Document) MarshalRaw() (Document, error) { return d, nil }

func (d *Document) UnmarshalRaw(raw Document) error {
	*d = raw
	return nil
}

func (d Document) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	if d.Value == nil {
		return &types.AttributeValueMemberNULL{Value: true}, nil
	}
	return d.Value, nil
}

func (d *Document) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	d.Value = av
	return nil
}

// Map is a string keyed map stored as a nested M attribute. V is a value
// of this package, or any type whose pointer decodes itself through
// [attributevalue.Unmarshaler], so every entry keeps its own type check:
//
//	var labels Map[string, String, *String]
//
// Decoding is all-or-nothing.
type Map[K ~string, V attributevalue.Marshaler, PV interface {
	*V
	attributevalue.Unmarshaler
}] map[K]V

func (m Map[K, V, PV]) MarshalRaw() (Document, error) {
	out := make(map[string]types.AttributeValue, len(m))
	for k, v := range m {
		av, err := v.MarshalDynamoDBAttributeValue()
		if err != nil {
			return Document{}, asSerializeError(string(k), err)
		}
		out[string(k)] = av
	}
	return Document{&types.AttributeValueMemberM{Value: out}}, nil
}

func (m *Map[K, V, PV]) UnmarshalRaw(raw Document) error {
	nested, ok := raw.Value.(*types.AttributeValueMemberM)
	if !ok || nested == nil {
		return UnexpectedTypeError("M", raw.Value)
	}
	out := make(Map[K, V, PV], len(nested.Value))
	for k, av := range nested.Value {
		var v V
		if err := PV(&v).UnmarshalDynamoDBAttributeValue(av); err != nil {
			return asDeserializeError(err).withField(k)
		}
		out[K(k)] = v
	}
	*m = out
	return nil
}

func (m Map[K, V, PV]) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return MarshalValue[Document](m)
}

func (m *Map[K, V, PV]) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	return UnmarshalValue[Document](av, m)
}
